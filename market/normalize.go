package market

import (
	"strconv"
	"strings"
	"time"
)

// Column is a canonical OHLCV column identity. Provider payloads use
// wildly different header spellings; everything is mapped through
// CanonicalColumn before a Frame is built, and unknown columns are dropped.
type Column int

const (
	ColUnknown Column = iota
	ColDate
	ColOpen
	ColHigh
	ColLow
	ColClose
	ColAdjClose
	ColVolume
)

// CanonicalColumn maps an arbitrary header name onto its canonical column,
// case- and spacing-insensitive ("Adj_Close", "adj close" and "ADJCLOSE"
// all resolve to ColAdjClose).
func CanonicalColumn(name string) Column {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", " ")
	key = strings.ReplaceAll(key, "-", " ")
	key = strings.Join(strings.Fields(key), " ")
	switch key {
	case "date", "datetime", "time":
		return ColDate
	case "open":
		return ColOpen
	case "high":
		return ColHigh
	case "low":
		return ColLow
	case "close":
		return ColClose
	case "adj close", "adjusted close", "adjclose":
		return ColAdjClose
	case "volume", "vol":
		return ColVolume
	}
	return ColUnknown
}

// FrameFromRecords builds a normalized Frame out of a tabular payload
// (CSV header plus rows). Rows whose date or close fails to parse are
// skipped; a missing Close column falls back to Adj Close. The result is
// sorted and deduplicated by date.
func FrameFromRecords(header []string, rows [][]string) Frame {
	cols := make(map[Column]int, len(header))
	for i, h := range header {
		c := CanonicalColumn(h)
		if c == ColUnknown {
			continue
		}
		if _, dup := cols[c]; !dup {
			cols[c] = i
		}
	}

	dateIdx, ok := cols[ColDate]
	if !ok {
		return nil
	}
	closeIdx, haveClose := cols[ColClose]
	if !haveClose {
		closeIdx, haveClose = cols[ColAdjClose]
	}
	if !haveClose {
		return nil
	}

	field := func(row []string, c Column) (float64, bool) {
		i, ok := cols[c]
		if !ok || i >= len(row) {
			return 0, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	var f Frame
	for _, row := range rows {
		if dateIdx >= len(row) || closeIdx >= len(row) {
			continue
		}
		day, err := parseDay(row[dateIdx])
		if err != nil {
			continue
		}
		closeV, err := strconv.ParseFloat(strings.TrimSpace(row[closeIdx]), 64)
		if err != nil {
			continue
		}
		b := Bar{Date: day, Close: closeV}
		if v, ok := field(row, ColOpen); ok {
			b.Open = v
		} else {
			b.Open = closeV
		}
		if v, ok := field(row, ColHigh); ok {
			b.High = v
		} else {
			b.High = closeV
		}
		if v, ok := field(row, ColLow); ok {
			b.Low = v
		} else {
			b.Low = closeV
		}
		if v, ok := field(row, ColVolume); ok {
			b.Volume = &v
		}
		f = append(f, b)
	}
	return f.Normalize()
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	t, err := time.Parse("01/02/2006", s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}
