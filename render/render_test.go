package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeview/tradeview/equity"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func points(equities []float64, bench []*float64) []equity.Point {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]equity.Point, len(equities))
	for i, e := range equities {
		out[i] = equity.Point{Date: base.AddDate(0, 0, i), Equity: e}
		if bench != nil {
			out[i].Benchmark = bench[i]
		}
	}
	return out
}

func fptr(v float64) *float64 { return &v }

func TestEquityCurvePNG(t *testing.T) {
	res := equity.Result{
		Points: points([]float64{100000, 100500, 99800}, []*float64{nil, fptr(100200), fptr(100400)}),
		Source: "Yahoo Finance",
	}

	img, err := EquityCurvePNG(res, "Portfolio")
	require.NoError(t, err)
	assert.Equal(t, pngMagic, img[:4])
}

func TestEquityCurvePNGTooFewPoints(t *testing.T) {
	_, err := EquityCurvePNG(equity.Result{Points: points([]float64{100000}, nil)}, "Portfolio")
	assert.Error(t, err)
}

func TestDrawdownPNG(t *testing.T) {
	res := equity.Result{Points: points([]float64{100, 110, 90}, nil)}
	res.Points[2].Drawdown = -0.18

	img, err := DrawdownPNG(res, "Portfolio")
	require.NoError(t, err)
	assert.Equal(t, pngMagic, img[:4])
}

func TestPricePNG(t *testing.T) {
	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	img, err := PricePNG("AAPL", "Yahoo Finance", dates, []float64{190, 192, 188})
	require.NoError(t, err)
	assert.Equal(t, pngMagic, img[:4])
}

func TestSparkPNG(t *testing.T) {
	img, err := SparkPNG([]float64{1, 2, 3, 2.5, 2.8})
	require.NoError(t, err)
	assert.Equal(t, pngMagic, img[:4])

	_, err = SparkPNG([]float64{1})
	assert.Error(t, err)
}
