package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestUnionCalendar(t *testing.T) {
	a := Series{
		Dates:  []time.Time{day("2024-01-02"), day("2024-01-03")},
		Values: []float64{10, 11},
	}
	b := Series{
		Dates:  []time.Time{day("2024-01-03"), day("2024-01-05")},
		Values: []float64{20, 21},
	}

	cal := UnionCalendar(a, b)
	require.Len(t, cal, 3)
	assert.Equal(t, day("2024-01-02"), cal[0])
	assert.Equal(t, day("2024-01-03"), cal[1])
	assert.Equal(t, day("2024-01-05"), cal[2])
}

func TestForwardFill(t *testing.T) {
	s := Series{
		Dates:  []time.Time{day("2024-01-03"), day("2024-01-05")},
		Values: []float64{20, 21},
	}
	cal := []time.Time{day("2024-01-02"), day("2024-01-03"), day("2024-01-04"), day("2024-01-05")}

	got := s.ForwardFill(cal)
	require.Len(t, got, 4)
	assert.Nil(t, got[0], "no fabricated price before the first observation")
	require.NotNil(t, got[1])
	assert.Equal(t, 20.0, *got[1])
	require.NotNil(t, got[2], "gap forward-filled")
	assert.Equal(t, 20.0, *got[2])
	require.NotNil(t, got[3])
	assert.Equal(t, 21.0, *got[3])
}

func TestFrameNormalizeDedupsAndSorts(t *testing.T) {
	f := Frame{
		{Date: day("2024-01-03"), Close: 2},
		{Date: day("2024-01-02"), Close: 1},
		{Date: day("2024-01-03"), Close: 3}, // duplicate session, last wins
	}

	out := f.Normalize()
	require.Len(t, out, 2)
	assert.Equal(t, day("2024-01-02"), out[0].Date)
	assert.Equal(t, 3.0, out[1].Close)
}

func TestCleanSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", CleanSymbol("  aapl "))
	assert.Equal(t, "BRK.B", CleanSymbol("brk . b"))
	assert.Equal(t, "", CleanSymbol("   "))
}
