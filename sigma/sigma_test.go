package sigma

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeview/tradeview/market"
)

func rampCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func TestPctChange(t *testing.T) {
	closes := append(rampCloses(18), 100, 110)

	got := PctChange(closes, 1)
	require.NotNil(t, got)
	assert.InDelta(t, 0.10, *got, 1e-9)

	assert.Nil(t, PctChange([]float64{100}, 1), "needs periods+1 points")
	assert.Nil(t, PctChange([]float64{0, 110}, 1), "zero base is undefined")
	assert.Nil(t, PctChange(closes, 0))
}

func TestCompute52WConstantSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 50
	}

	m := Compute52W(closes, nil)
	require.NotNil(t, m.SigmaPct)
	assert.Equal(t, 0.0, *m.SigmaPct)
	// A sigma distance needs a strictly positive sigma.
	assert.Nil(t, m.SigmaUSD)
	assert.Nil(t, m.SigmaToHigh)
	assert.Nil(t, m.SigmaToLow)
	assert.Nil(t, m.RangePos, "degenerate high==low range")
	require.NotNil(t, m.High)
	assert.Equal(t, 50.0, *m.High)
}

func TestCompute52WBasics(t *testing.T) {
	closes := rampCloses(300) // window is the last 252

	m := Compute52W(closes, nil)
	require.NotNil(t, m.High)
	require.NotNil(t, m.Low)
	assert.Equal(t, 399.0, *m.High)
	assert.Equal(t, 148.0, *m.Low, "window limited to 252 bars")

	require.NotNil(t, m.RangePos)
	assert.InDelta(t, 1.0, *m.RangePos, 1e-9, "last price sits at the top of the range")
	require.NotNil(t, m.PctFromHigh)
	assert.InDelta(t, 0.0, *m.PctFromHigh, 1e-9)
	require.NotNil(t, m.SigmaUSD)
	assert.Positive(t, *m.SigmaUSD)
	require.NotNil(t, m.SigmaToLow)
	assert.Positive(t, *m.SigmaToLow)
	require.NotNil(t, m.SigmaToHigh)
	assert.InDelta(t, 0.0, *m.SigmaToHigh, 1e-9)
}

func TestCompute52WQuoteOverride(t *testing.T) {
	closes := rampCloses(30)
	override := 90.0

	m := Compute52W(closes, &override)
	require.NotNil(t, m.PctFromLow)
	assert.InDelta(t, 90.0/100.0-1.0, *m.PctFromLow, 1e-9)
	require.NotNil(t, m.RangePos)
	assert.Equal(t, 0.0, *m.RangePos, "override below the range clamps to 0")
}

func TestCompute52WEmpty(t *testing.T) {
	m := Compute52W(nil, nil)
	assert.Nil(t, m.High)
	assert.Nil(t, m.SigmaPct)
}

func seriesOf(values ...float64) market.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := market.Series{}
	for i, v := range values {
		s.Dates = append(s.Dates, base.AddDate(0, 0, i))
		s.Values = append(s.Values, v)
	}
	return s
}

func TestComputeSlice(t *testing.T) {
	s := seriesOf(10, 20, 30, 40, 50)

	m := ComputeSlice(s, 1, 3, nil)
	require.NotNil(t, m.Mean)
	assert.InDelta(t, 30.0, *m.Mean, 1e-9)
	require.NotNil(t, m.High)
	assert.Equal(t, 40.0, *m.High)
	assert.Equal(t, 3, m.Bars)
	require.NotNil(t, m.Current)
	assert.Equal(t, 50.0, *m.Current, "current defaults to the series' last value")
	require.NotNil(t, m.StartDate)
	assert.Equal(t, s.Dates[1], *m.StartDate)
	require.NotNil(t, m.SigmaFromMean)
	assert.Positive(t, *m.SigmaFromMean)
	require.NotNil(t, m.StdPct)
}

func TestComputeSliceClampsAndSwaps(t *testing.T) {
	s := seriesOf(10, 20, 30)

	m := ComputeSlice(s, 99, -5, nil) // inverted and out of range
	assert.Equal(t, 3, m.Bars, "indices clamp to [0, n-1] and swap")
	require.NotNil(t, m.Low)
	assert.Equal(t, 10.0, *m.Low)
}

func TestComputeSliceTooShort(t *testing.T) {
	s := seriesOf(10, 20, 30)
	m := ComputeSlice(s, 1, 1, nil)
	assert.Nil(t, m.Mean)
	assert.Equal(t, 0, m.Bars)

	m = ComputeSlice(market.Series{}, 0, 5, nil)
	assert.Nil(t, m.Mean)
}

func TestComputeSliceConstant(t *testing.T) {
	s := seriesOf(5, 5, 5, 5)
	m := ComputeSlice(s, 0, 3, nil)
	assert.Nil(t, m.SigmaFromMean, "zero std defines no sigma distance")
	require.NotNil(t, m.PctFromMean)
	assert.InDelta(t, 0.0, *m.PctFromMean, 1e-9)
}

func vptr(v float64) *float64 { return &v }

func TestComputeKeyLevels(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var f market.Frame
	for i := 0; i < 30; i++ {
		vol := float64(1000 + i)
		f = append(f, market.Bar{
			Date:   base.AddDate(0, 0, i),
			Open:   float64(100 + i),
			High:   float64(105 + i),
			Low:    float64(95 + i),
			Close:  float64(102 + i),
			Volume: &vol,
		})
	}

	k := ComputeKeyLevels(f, nil)
	require.NotNil(t, k.DayHigh)
	assert.Equal(t, 134.0, *k.DayHigh)
	require.NotNil(t, k.WeekHigh)
	assert.Equal(t, 134.0, *k.WeekHigh)
	require.NotNil(t, k.WeekLow)
	assert.Equal(t, 120.0, *k.WeekLow, "week low from the last 5 bars")
	require.NotNil(t, k.Low52W)
	assert.Equal(t, 95.0, *k.Low52W)
	require.NotNil(t, k.VolumeLast)
	assert.Equal(t, 1029.0, *k.VolumeLast)
	require.NotNil(t, k.VolumeAvg20)
	assert.InDelta(t, 1019.5, *k.VolumeAvg20, 1e-9)
	require.NotNil(t, k.Current)
	assert.Equal(t, 131.0, *k.Current)
}

func TestComputeKeyLevelsSparseVolume(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := market.Frame{
		{Date: base, High: 11, Low: 9, Close: 10, Volume: vptr(500)},
		{Date: base.AddDate(0, 0, 1), High: 12, Low: 10, Close: 11},
	}

	k := ComputeKeyLevels(f, vptr(10.5))
	require.NotNil(t, k.VolumeLast)
	assert.Equal(t, 500.0, *k.VolumeLast)
	assert.Nil(t, k.VolumeAvg20, "needs at least 20 volume points")
	require.NotNil(t, k.Current)
	assert.Equal(t, 10.5, *k.Current)
}

func TestComputeKeyLevelsEmpty(t *testing.T) {
	k := ComputeKeyLevels(nil, nil)
	assert.Nil(t, k.DayHigh)
	assert.Nil(t, k.Current)
}
