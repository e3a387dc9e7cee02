// Package market defines the canonical price data types shared by the
// analytics engines: a single OHLCV bar, an ordered frame of bars, and a
// close-price series keyed by calendar date. Provider packages normalize
// their raw payloads into these types before any metric sees the data.
package market

import (
	"sort"
	"strings"
	"time"
)

// Bar represents one OHLCV observation. Volume is nil when the provider does
// not report it (index CFDs, some FX feeds).
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume *float64
}

// Frame is an ordered set of bars, deduplicated by date, ascending.
type Frame []Bar

// Empty reports whether the frame holds no bars.
func (f Frame) Empty() bool { return len(f) == 0 }

// Tail returns the last n bars (all bars if fewer).
func (f Frame) Tail(n int) Frame {
	if n >= len(f) {
		return f
	}
	return f[len(f)-n:]
}

// Closes extracts the close-price series from the frame.
func (f Frame) Closes() Series {
	s := Series{
		Dates:  make([]time.Time, 0, len(f)),
		Values: make([]float64, 0, len(f)),
	}
	for _, b := range f {
		s.Dates = append(s.Dates, b.Date)
		s.Values = append(s.Values, b.Close)
	}
	return s
}

// Volumes returns the reported volumes in bar order, skipping bars without
// a volume figure.
func (f Frame) Volumes() []float64 {
	var out []float64
	for _, b := range f {
		if b.Volume != nil {
			out = append(out, *b.Volume)
		}
	}
	return out
}

// Normalize sorts bars by date and drops duplicates, keeping the last bar
// seen for each date. Providers occasionally repeat the current session.
func (f Frame) Normalize() Frame {
	if len(f) == 0 {
		return f
	}
	byDate := make(map[time.Time]Bar, len(f))
	for _, b := range f {
		byDate[b.Date] = b
	}
	out := make(Frame, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// CleanSymbol normalizes a user-supplied ticker: trimmed, upper-cased,
// internal whitespace removed.
func CleanSymbol(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "")
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
