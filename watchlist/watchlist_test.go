package watchlist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeview/tradeview/cache"
	"github.com/tradeview/tradeview/market"
	"github.com/tradeview/tradeview/marketdata"
)

type fakeGateway struct {
	mu     sync.Mutex
	frames map[string]market.Frame
	quotes map[string]float64
	calls  int
}

func (g *fakeGateway) History(ctx context.Context, symbol, period, interval string, mode marketdata.Mode) (market.Frame, string) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	f, ok := g.frames[symbol]
	if !ok || f.Empty() {
		return nil, marketdata.SourceNoData
	}
	return f, marketdata.SourceYahoo
}

func (g *fakeGateway) Quote(ctx context.Context, symbol string, mode marketdata.Mode) (*float64, string) {
	q, ok := g.quotes[symbol]
	if !ok {
		return nil, marketdata.SourceNoQuote
	}
	return &q, marketdata.SourceYahoo
}

func frameOf(closes ...float64) market.Frame {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var f market.Frame
	for i, c := range closes {
		vol := 1000.0 + float64(i)
		f = append(f, market.Bar{
			Date: base.AddDate(0, 0, i),
			Open: c, High: c, Low: c, Close: c,
			Volume: &vol,
		})
	}
	return f
}

func TestBuildPreservesInputOrderAndIsolatesFailures(t *testing.T) {
	g := &fakeGateway{
		frames: map[string]market.Frame{"AAA": frameOf(100, 101, 102, 103, 104, 105, 110)},
		quotes: map[string]float64{"AAA": 111},
	}
	a := NewAggregator(g, cache.New())

	res := a.Build(context.Background(), []string{"aaa", "BBB"}, marketdata.ModeAuto)
	require.Len(t, res.Rows, 2)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "BBB: no daily Close history returned")

	assert.Equal(t, "AAA", res.Rows[0].Symbol)
	assert.Equal(t, "BBB", res.Rows[1].Symbol)
	assert.Nil(t, res.Rows[1].Last)
	assert.Nil(t, res.Rows[1].Change1D)
	assert.Nil(t, res.Rows[1].Spark)
}

func TestBuildRowMetrics(t *testing.T) {
	g := &fakeGateway{
		frames: map[string]market.Frame{"AAA": frameOf(100, 101, 102, 103, 104, 105, 110)},
		quotes: map[string]float64{"AAA": 110},
	}
	a := NewAggregator(g, cache.New())

	res := a.Build(context.Background(), []string{"AAA"}, marketdata.ModeAuto)
	require.Len(t, res.Rows, 1)
	row := res.Rows[0]

	require.NotNil(t, row.Last)
	assert.Equal(t, 110.0, *row.Last, "quote wins over last close")

	require.NotNil(t, row.Change1D)
	assert.InDelta(t, (110.0/105.0-1)*100, *row.Change1D, 1e-9)
	require.NotNil(t, row.Change1W)
	assert.InDelta(t, (110.0/101.0-1)*100, *row.Change1W, 1e-9)
	assert.Nil(t, row.Change1M, "only 7 bars, a 21-bar change is undefined")

	require.NotNil(t, row.High52W)
	assert.Equal(t, 110.0, *row.High52W)
	require.NotNil(t, row.Low52W)
	assert.Equal(t, 100.0, *row.Low52W)
	require.NotNil(t, row.RangePos)
	assert.InDelta(t, 100.0, *row.RangePos, 1e-9, "at the high of the range, in percent")

	require.NotNil(t, row.Volume)
	assert.Equal(t, 1006.0, *row.Volume)
	assert.Nil(t, row.AvgVolume20, "fewer than 20 volume points")

	assert.Len(t, row.Spark, 7)
	assert.Equal(t, marketdata.SourceYahoo, row.QuoteSource)
	assert.Equal(t, marketdata.SourceYahoo, row.HistSource)
}

func TestBuildQuoteFallsBackToLastClose(t *testing.T) {
	g := &fakeGateway{frames: map[string]market.Frame{"AAA": frameOf(100, 105)}}
	a := NewAggregator(g, cache.New())

	res := a.Build(context.Background(), []string{"AAA"}, marketdata.ModeAuto)
	require.Len(t, res.Rows, 1)
	require.NotNil(t, res.Rows[0].Last)
	assert.Equal(t, 105.0, *res.Rows[0].Last)
}

func TestBuildMemoisedPerSymbolsAndMode(t *testing.T) {
	g := &fakeGateway{frames: map[string]market.Frame{"AAA": frameOf(100, 105)}}
	a := NewAggregator(g, cache.New())

	_ = a.Build(context.Background(), []string{"AAA"}, marketdata.ModeAuto)
	calls := g.calls
	_ = a.Build(context.Background(), []string{"AAA"}, marketdata.ModeAuto)
	assert.Equal(t, calls, g.calls, "second build served from memo")

	_ = a.Build(context.Background(), []string{"AAA"}, marketdata.ModeStooq)
	assert.Greater(t, g.calls, calls, "different mode misses the memo")
}

func TestBuildDedupesAndSkipsBlanks(t *testing.T) {
	g := &fakeGateway{frames: map[string]market.Frame{"AAA": frameOf(100, 105)}}
	a := NewAggregator(g, cache.New())

	res := a.Build(context.Background(), []string{" aaa", "AAA", "", "  "}, marketdata.ModeAuto)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "AAA", res.Rows[0].Symbol)

	empty := a.Build(context.Background(), nil, marketdata.ModeAuto)
	assert.Empty(t, empty.Rows)
	assert.Empty(t, empty.Errors)
}

func TestBuildSparkTrimmedToSixtyBars(t *testing.T) {
	closes := make([]float64, 0, 80)
	for i := 0; i < 80; i++ {
		closes = append(closes, 100+float64(i))
	}
	g := &fakeGateway{frames: map[string]market.Frame{"AAA": frameOf(closes...)}}
	a := NewAggregator(g, cache.New())

	res := a.Build(context.Background(), []string{"AAA"}, marketdata.ModeAuto)
	require.Len(t, res.Rows, 1)
	row := res.Rows[0]
	require.Len(t, row.Spark, 60)
	assert.Equal(t, 120.0, row.Spark[0])
	assert.Equal(t, 179.0, row.Spark[59])

	require.NotNil(t, row.AvgVolume20)
}
