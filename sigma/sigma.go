// Package sigma provides the pure statistical functions behind the
// dashboard metrics: percent changes over N bars, 52-week distance and
// volatility figures, arbitrary-slice statistics, and traditional key
// levels. Every function degrades to nil fields instead of failing when
// the input is too short or a denominator vanishes.
package sigma

import (
	"math"
	"time"

	"github.com/tradeview/tradeview/market"
)

// epsilon below which a denominator is treated as undefined.
const eps = 1e-12

func ptr(v float64) *float64 { return &v }

func mean(vs []float64) float64 {
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// popStd is the population standard deviation (denominator N, not N-1).
func popStd(vs []float64) float64 {
	m := mean(vs)
	ss := 0.0
	for _, v := range vs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vs)))
}

// PctChange returns (last / value periods bars back) - 1, or nil when the
// series has fewer than periods+1 points or the base is ~0. Periods count
// trading bars, not calendar days.
func PctChange(closes []float64, periods int) *float64 {
	if periods < 1 || len(closes) < periods+1 {
		return nil
	}
	base := closes[len(closes)-(periods+1)]
	if math.Abs(base) < eps {
		return nil
	}
	return ptr(closes[len(closes)-1]/base - 1.0)
}

// Metrics52W is the 52-week distance/volatility snapshot. SigmaPct is the
// population std of day-over-day percent returns over the window; SigmaUSD
// is the approximate one-sigma dollar move at the last price. Sigma
// distances are defined only when SigmaUSD is strictly positive.
type Metrics52W struct {
	High        *float64 `json:"high_52w"`
	Low         *float64 `json:"low_52w"`
	RangePos    *float64 `json:"range_pos_52w"`
	SigmaPct    *float64 `json:"sigma_pct_252"`
	SigmaUSD    *float64 `json:"sigma_usd_252"`
	PctFromHigh *float64 `json:"pct_from_52w_high"`
	PctFromLow  *float64 `json:"pct_from_52w_low"`
	SigmaToHigh *float64 `json:"sigma_to_52w_high"`
	SigmaToLow  *float64 `json:"sigma_to_52w_low"`
}

// Compute52W computes the snapshot over the last min(252, n) closes.
// lastPrice overrides the reference price; nil falls back to the final close.
func Compute52W(closes []float64, lastPrice *float64) Metrics52W {
	var m Metrics52W
	if len(closes) == 0 {
		return m
	}

	w := closes
	if len(w) > 252 {
		w = w[len(w)-252:]
	}
	high, low := w[0], w[0]
	for _, v := range w {
		high = math.Max(high, v)
		low = math.Min(low, v)
	}
	m.High = ptr(high)
	m.Low = ptr(low)

	last := closes[len(closes)-1]
	if lastPrice != nil {
		last = *lastPrice
	}

	if math.Abs(high) >= eps {
		m.PctFromHigh = ptr(last/high - 1.0)
	}
	if math.Abs(low) >= eps {
		m.PctFromLow = ptr(last/low - 1.0)
	}
	if math.Abs(high-low) > eps {
		m.RangePos = ptr(math.Max(0, math.Min(1, (last-low)/(high-low))))
	}

	rets := make([]float64, 0, len(w)-1)
	for i := 1; i < len(w); i++ {
		if math.Abs(w[i-1]) < eps {
			continue
		}
		rets = append(rets, w[i]/w[i-1]-1.0)
	}
	if len(rets) < 2 {
		return m
	}
	sigmaPct := popStd(rets)
	m.SigmaPct = ptr(sigmaPct)
	if sigmaPct <= 0 {
		return m
	}
	sigmaUSD := last * sigmaPct
	m.SigmaUSD = ptr(sigmaUSD)
	if sigmaUSD > 0 {
		m.SigmaToHigh = ptr((last - high) / sigmaUSD)
		m.SigmaToLow = ptr((last - low) / sigmaUSD)
	}
	return m
}

// SliceMetrics describes an arbitrary inclusive sub-slice of a price
// series: basic statistics plus sigma and percent distances of the current
// price from the slice mean/high/low.
type SliceMetrics struct {
	Mean      *float64   `json:"slice_mean"`
	Std       *float64   `json:"slice_std"`
	StdPct    *float64   `json:"slice_std_pct"`
	High      *float64   `json:"slice_high"`
	Low       *float64   `json:"slice_low"`
	Bars      int        `json:"slice_bars"`
	StartDate *time.Time `json:"slice_start_date"`
	EndDate   *time.Time `json:"slice_end_date"`
	Current   *float64   `json:"current_price"`

	SigmaFromMean *float64 `json:"sigma_from_mean"`
	SigmaFromHigh *float64 `json:"sigma_from_high"`
	SigmaFromLow  *float64 `json:"sigma_from_low"`
	PctFromMean   *float64 `json:"pct_from_mean"`
	PctFromHigh   *float64 `json:"pct_from_high"`
	PctFromLow    *float64 `json:"pct_from_low"`
}

// ComputeSlice clamps start/end into the series (swapping if inverted),
// takes the inclusive sub-slice and computes its statistics. currentPrice
// defaults to the series' last value. Fewer than two slice points yields
// the all-nil result.
func ComputeSlice(s market.Series, start, end int, currentPrice *float64) SliceMetrics {
	var m SliceMetrics
	n := s.Len()
	if n == 0 {
		return m
	}

	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i > n-1 {
			return n - 1
		}
		return i
	}
	start, end = clamp(start), clamp(end)
	if start > end {
		start, end = end, start
	}

	sl := s.Slice(start, end)
	if sl.Len() < 2 {
		return m
	}

	mn := mean(sl.Values)
	std := popStd(sl.Values)
	high, low := sl.Values[0], sl.Values[0]
	for _, v := range sl.Values {
		high = math.Max(high, v)
		low = math.Min(low, v)
	}

	m.Mean = ptr(mn)
	m.Std = ptr(std)
	m.High = ptr(high)
	m.Low = ptr(low)
	m.Bars = sl.Len()
	if len(sl.Dates) == sl.Len() && !sl.Dates[0].IsZero() {
		startD, endD := sl.Dates[0], sl.Dates[len(sl.Dates)-1]
		m.StartDate = &startD
		m.EndDate = &endD
	}

	current := s.Last()
	if currentPrice != nil {
		current = *currentPrice
	}
	m.Current = ptr(current)

	if std > eps {
		m.SigmaFromMean = ptr((current - mn) / std)
		m.SigmaFromHigh = ptr((current - high) / std)
		m.SigmaFromLow = ptr((current - low) / std)
	}
	if math.Abs(mn) > eps {
		m.PctFromMean = ptr(current/mn - 1.0)
		m.StdPct = ptr(std / mn)
	}
	if math.Abs(high) > eps {
		m.PctFromHigh = ptr(current/high - 1.0)
	}
	if math.Abs(low) > eps {
		m.PctFromLow = ptr(current/low - 1.0)
	}
	return m
}

// KeyLevels are the traditional support/resistance reference points read
// straight off the OHLCV frame.
type KeyLevels struct {
	DayHigh     *float64 `json:"day_high"`
	DayLow      *float64 `json:"day_low"`
	WeekHigh    *float64 `json:"week_high"`
	WeekLow     *float64 `json:"week_low"`
	High52W     *float64 `json:"high_52w"`
	Low52W      *float64 `json:"low_52w"`
	VolumeLast  *float64 `json:"volume_last"`
	VolumeAvg20 *float64 `json:"volume_avg_20"`
	Current     *float64 `json:"current_price"`
}

// ComputeKeyLevels derives day (last bar), week (last ≤5 bars) and 52-week
// (last ≤252 bars) highs/lows plus volume figures. The 20-bar average
// volume is reported only when at least 20 volume points exist.
// currentPrice defaults to the last close.
func ComputeKeyLevels(f market.Frame, currentPrice *float64) KeyLevels {
	var k KeyLevels
	if currentPrice != nil {
		k.Current = ptr(*currentPrice)
	}
	if f.Empty() {
		return k
	}

	last := f[len(f)-1]
	k.DayHigh = ptr(last.High)
	k.DayLow = ptr(last.Low)

	rangeOf := func(bars market.Frame) (float64, float64) {
		hi, lo := bars[0].High, bars[0].Low
		for _, b := range bars {
			hi = math.Max(hi, b.High)
			lo = math.Min(lo, b.Low)
		}
		return hi, lo
	}

	weekHi, weekLo := rangeOf(f.Tail(5))
	k.WeekHigh = ptr(weekHi)
	k.WeekLow = ptr(weekLo)

	yearHi, yearLo := rangeOf(f.Tail(252))
	k.High52W = ptr(yearHi)
	k.Low52W = ptr(yearLo)

	vols := f.Volumes()
	if len(vols) > 0 {
		k.VolumeLast = ptr(vols[len(vols)-1])
		if len(vols) >= 20 {
			k.VolumeAvg20 = ptr(mean(vols[len(vols)-20:]))
		}
	}

	if k.Current == nil {
		k.Current = ptr(last.Close)
	}
	return k
}
