package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalColumn(t *testing.T) {
	cases := map[string]Column{
		"Open":           ColOpen,
		" close ":        ColClose,
		"Adj Close":      ColAdjClose,
		"adj_close":      ColAdjClose,
		"ADJUSTED-CLOSE": ColAdjClose,
		"Volume":         ColVolume,
		"Date":           ColDate,
		"Dividends":      ColUnknown,
	}
	for name, want := range cases {
		assert.Equal(t, want, CanonicalColumn(name), name)
	}
}

func TestFrameFromRecords(t *testing.T) {
	header := []string{"Date", "OPEN", "high", "Low", "Close", "Volume", "Splits"}
	rows := [][]string{
		{"2024-01-03", "11", "12", "10", "11.5", "1000", "x"},
		{"2024-01-02", "10", "11", "9", "10.5", "900", "x"},
		{"bad-date", "1", "1", "1", "1", "1", "x"},
		{"2024-01-04", "11.5", "12.5", "11", "not-a-number", "1100", "x"},
	}

	f := FrameFromRecords(header, rows)
	require.Len(t, f, 2, "unparseable rows dropped")
	assert.Equal(t, day("2024-01-02"), f[0].Date)
	assert.Equal(t, 10.5, f[0].Close)
	require.NotNil(t, f[1].Volume)
	assert.Equal(t, 1000.0, *f[1].Volume)
}

func TestFrameFromRecordsAdjCloseFallback(t *testing.T) {
	header := []string{"Date", "Adj Close"}
	rows := [][]string{{"2024-01-02", "42.5"}}

	f := FrameFromRecords(header, rows)
	require.Len(t, f, 1)
	assert.Equal(t, 42.5, f[0].Close)
	assert.Equal(t, 42.5, f[0].Open, "missing OHLC columns fall back to close")
	assert.Nil(t, f[0].Volume)
}

func TestPeriodTokens(t *testing.T) {
	assert.Equal(t, 365, PeriodDays("1y"))
	assert.Equal(t, 365, PeriodDays("bogus"))
	assert.Equal(t, 3650, PeriodDays("max"))

	assert.Equal(t, "5d", DaysToPeriod(3))
	assert.Equal(t, "1mo", DaysToPeriod(30))
	assert.Equal(t, "2y", DaysToPeriod(400))
	assert.Equal(t, "10y", DaysToPeriod(4000))
}

func TestClampIntraday(t *testing.T) {
	assert.Equal(t, "7d", ClampIntraday("1y", "1m"))
	assert.Equal(t, "1d", ClampIntraday("1d", "1m"))
	assert.Equal(t, "60d", ClampIntraday("1y", "5m"))
	assert.Equal(t, "1y", ClampIntraday("1y", "1h"))
	assert.Equal(t, "5y", ClampIntraday("5y", "1d"), "daily intervals never clamp")
	assert.True(t, IsIntraday("5m"))
	assert.False(t, IsIntraday("1d"))
}
