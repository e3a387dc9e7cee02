package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeview/tradeview/cache"
	"github.com/tradeview/tradeview/market"
)

type fakePrimary struct {
	frames     map[string]market.Frame
	quotes     map[string]float64
	histErr    error
	quoteErr   error
	delay      time.Duration
	lastPeriod string
	calls      int
}

func (f *fakePrimary) History(ctx context.Context, symbol, period, interval string) (market.Frame, error) {
	f.calls++
	f.lastPeriod = period
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.histErr != nil {
		return nil, f.histErr
	}
	return f.frames[symbol], nil
}

func (f *fakePrimary) Quote(ctx context.Context, symbol string) (*float64, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

type fakeFallback struct {
	frames map[string]market.Frame
	err    error
	calls  int
}

func (f *fakeFallback) Daily(ctx context.Context, symbol string) (market.Frame, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.frames[symbol], nil
}

func testFrame(n int) market.Frame {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var f market.Frame
	for i := 0; i < n; i++ {
		f = append(f, market.Bar{
			Date:  base.AddDate(0, 0, i),
			Close: 100 + float64(i),
			High:  101 + float64(i),
			Low:   99 + float64(i),
			Open:  100 + float64(i),
		})
	}
	return f
}

func newTestService(p *fakePrimary, fb *fakeFallback) *Service {
	opts := Options{Timeout: 500 * time.Millisecond, Workers: 2}.withDefaults()
	return &Service{
		primary:  p,
		fallback: fb,
		cache:    cache.New(),
		sem:      make(chan struct{}, opts.Workers),
		opts:     opts,
	}
}

func TestHistoryPrimary(t *testing.T) {
	p := &fakePrimary{frames: map[string]market.Frame{"AAPL": testFrame(10)}}
	svc := newTestService(p, &fakeFallback{})

	frame, src := svc.History(context.Background(), " aapl ", "1y", "1d", ModeAuto)
	require.Len(t, frame, 10)
	assert.Equal(t, SourceYahoo, src)
	assert.Equal(t, 0, svc.fallback.(*fakeFallback).calls)
}

func TestHistoryFallsBackToDaily(t *testing.T) {
	p := &fakePrimary{histErr: errors.New("blocked")}
	fb := &fakeFallback{frames: map[string]market.Frame{"AAPL": testFrame(400)}}
	svc := newTestService(p, fb)

	frame, src := svc.History(context.Background(), "AAPL", "1mo", "1d", ModeAuto)
	assert.Equal(t, SourceStooq, src)
	assert.Len(t, frame, 30, "fallback history trimmed to the requested period")
	assert.Equal(t, 1, fb.calls)
}

func TestHistoryIntradayNeverFallsBack(t *testing.T) {
	p := &fakePrimary{}
	fb := &fakeFallback{frames: map[string]market.Frame{"AAPL": testFrame(400)}}
	svc := newTestService(p, fb)

	frame, src := svc.History(context.Background(), "AAPL", "1mo", "5m", ModeAuto)
	assert.True(t, frame.Empty())
	assert.Equal(t, SourceNoIntraday, src)
	assert.Equal(t, 0, fb.calls)
}

func TestHistoryClampsIntradayPeriod(t *testing.T) {
	p := &fakePrimary{frames: map[string]market.Frame{"AAPL": testFrame(5)}}
	svc := newTestService(p, &fakeFallback{})

	_, _ = svc.History(context.Background(), "AAPL", "1y", "1m", ModeAuto)
	assert.Equal(t, "7d", p.lastPeriod, "1m bars capped at 7 days of lookback")
}

func TestHistoryStooqModeSkipsPrimary(t *testing.T) {
	p := &fakePrimary{frames: map[string]market.Frame{"AAPL": testFrame(10)}}
	fb := &fakeFallback{frames: map[string]market.Frame{"AAPL": testFrame(20)}}
	svc := newTestService(p, fb)

	_, src := svc.History(context.Background(), "AAPL", "1y", "1d", ModeStooq)
	assert.Equal(t, SourceStooq, src)
	assert.Equal(t, 0, p.calls)
}

func TestHistoryCached(t *testing.T) {
	p := &fakePrimary{frames: map[string]market.Frame{"AAPL": testFrame(10)}}
	svc := newTestService(p, &fakeFallback{})

	_, _ = svc.History(context.Background(), "AAPL", "1y", "1d", ModeAuto)
	_, _ = svc.History(context.Background(), "AAPL", "1y", "1d", ModeAuto)
	assert.Equal(t, 1, p.calls, "second call served from cache")

	svc.ClearCache()
	_, _ = svc.History(context.Background(), "AAPL", "1y", "1d", ModeAuto)
	assert.Equal(t, 2, p.calls, "cache cleared")
}

func TestHistoryTimeoutDegradesToFallback(t *testing.T) {
	p := &fakePrimary{frames: map[string]market.Frame{"AAPL": testFrame(10)}, delay: 200 * time.Millisecond}
	fb := &fakeFallback{frames: map[string]market.Frame{"AAPL": testFrame(20)}}
	svc := newTestService(p, fb)
	svc.opts.Timeout = 20 * time.Millisecond

	frame, src := svc.History(context.Background(), "AAPL", "1y", "1d", ModeAuto)
	assert.Equal(t, SourceStooq, src, "timed-out primary result discarded")
	assert.False(t, frame.Empty())
}

func TestQuotePrimaryThenFallback(t *testing.T) {
	p := &fakePrimary{quotes: map[string]float64{"AAPL": 190.5}}
	fb := &fakeFallback{frames: map[string]market.Frame{"MSFT": testFrame(3)}}
	svc := newTestService(p, fb)

	q, src := svc.Quote(context.Background(), "AAPL", ModeAuto)
	require.NotNil(t, q)
	assert.Equal(t, 190.5, *q)
	assert.Equal(t, SourceYahoo, src)

	q, src = svc.Quote(context.Background(), "MSFT", ModeAuto)
	require.NotNil(t, q)
	assert.Equal(t, 102.0, *q, "fallback serves the last daily close")
	assert.Equal(t, SourceStooq, src)

	q, src = svc.Quote(context.Background(), "NOPE", ModeAuto)
	assert.Nil(t, q)
	assert.Equal(t, SourceNoQuote, src)
}

func TestEmptySymbol(t *testing.T) {
	svc := newTestService(&fakePrimary{}, &fakeFallback{})

	frame, src := svc.History(context.Background(), "   ", "1y", "1d", ModeAuto)
	assert.True(t, frame.Empty())
	assert.Equal(t, SourceNoData, src)

	q, _ := svc.Quote(context.Background(), "", ModeAuto)
	assert.Nil(t, q)
}
