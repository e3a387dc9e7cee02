package market

import (
	"sort"
	"time"
)

// Series is a close-price history: parallel slices of ascending calendar
// dates and their prices.
type Series struct {
	Dates  []time.Time
	Values []float64
}

// Empty reports whether the series holds no points.
func (s Series) Empty() bool { return len(s.Values) == 0 }

// Len returns the number of points.
func (s Series) Len() int { return len(s.Values) }

// Last returns the most recent value. The series must be non-empty.
func (s Series) Last() float64 { return s.Values[len(s.Values)-1] }

// Tail returns the last n points (all points if fewer).
func (s Series) Tail(n int) Series {
	if n >= len(s.Values) {
		return s
	}
	return Series{
		Dates:  s.Dates[len(s.Dates)-n:],
		Values: s.Values[len(s.Values)-n:],
	}
}

// Slice returns the inclusive sub-series [start, end]. Indices must be valid.
func (s Series) Slice(start, end int) Series {
	return Series{
		Dates:  s.Dates[start : end+1],
		Values: s.Values[start : end+1],
	}
}

// UnionCalendar builds the shared trading calendar: the sorted union of the
// dates observed across all given series.
func UnionCalendar(series ...Series) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, s := range series {
		for _, d := range s.Dates {
			seen[d] = struct{}{}
		}
	}
	out := make([]time.Time, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// ForwardFill projects the series onto a calendar, propagating the last
// known value across gaps. Calendar days before the series' first
// observation stay nil: no price history is fabricated.
func (s Series) ForwardFill(calendar []time.Time) []*float64 {
	out := make([]*float64, len(calendar))
	if s.Empty() {
		return out
	}
	i := 0
	var last *float64
	for ci, day := range calendar {
		for i < len(s.Dates) && !s.Dates[i].After(day) {
			v := s.Values[i]
			last = &v
			i++
		}
		out[ci] = last
	}
	return out
}
