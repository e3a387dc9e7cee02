package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tradeview/tradeview/cache"
	"github.com/tradeview/tradeview/market"
)

// historyProvider is the primary provider surface (history + quotes).
type historyProvider interface {
	History(ctx context.Context, symbol, period, interval string) (market.Frame, error)
	Quote(ctx context.Context, symbol string) (*float64, error)
}

// dailyProvider is the fallback surface: daily bars only.
type dailyProvider interface {
	Daily(ctx context.Context, symbol string) (market.Frame, error)
}

// Options tunes the service. Zero values fall back to the defaults below.
type Options struct {
	// Timeout bounds each provider call. A fetch that misses the deadline
	// keeps running in the background but its result is discarded.
	Timeout time.Duration
	// Workers bounds concurrent provider calls across all consumers.
	Workers int

	// TTLs, shortest for the most volatile data.
	QuoteTTL    time.Duration
	HistoryTTL  time.Duration
	IntradayTTL time.Duration
	FallbackTTL time.Duration

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 12 * time.Second
	}
	if o.Workers <= 0 {
		o.Workers = 6
	}
	if o.QuoteTTL <= 0 {
		o.QuoteTTL = 2 * time.Second
	}
	if o.HistoryTTL <= 0 {
		o.HistoryTTL = 20 * time.Second
	}
	if o.IntradayTTL <= 0 {
		o.IntradayTTL = 10 * time.Second
	}
	if o.FallbackTTL <= 0 {
		o.FallbackTTL = 5 * time.Minute
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Service implements Gateway: primary provider first, daily fallback
// second, all calls cached, bounded and timed out.
type Service struct {
	primary  historyProvider
	fallback dailyProvider
	cache    *cache.Cache
	sem      chan struct{}
	opts     Options
}

// NewService wires the default Yahoo/Stooq provider pair. The cache is
// injected so the owner can clear all derived state after a ledger write.
func NewService(c *cache.Cache, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		primary:  NewYahooClient(opts.Timeout),
		fallback: NewStooqClient(opts.Timeout),
		cache:    c,
		sem:      make(chan struct{}, opts.Workers),
		opts:     opts,
	}
}

// ClearCache drops every cached quote and history frame.
func (s *Service) ClearCache() { s.cache.Clear() }

// bounded runs fn on the worker pool under the service timeout. On timeout
// or cancellation the zero value comes back and the straggling fetch is left
// to finish in the background, its result discarded.
func bounded[T any](s *Service, ctx context.Context, what string, fn func(context.Context) (T, error)) T {
	var zero T
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return zero
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	inner := context.WithoutCancel(ctx)
	go func() {
		defer func() { <-s.sem }()
		v, err := fn(inner)
		ch <- result{v, err}
	}()

	timer := time.NewTimer(s.opts.Timeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		if r.err != nil {
			s.opts.Logger.Warn("market data fetch failed", "op", what, "error", r.err)
			return zero
		}
		return r.v
	case <-timer.C:
		s.opts.Logger.Warn("market data fetch timed out", "op", what, "timeout", s.opts.Timeout)
		return zero
	case <-ctx.Done():
		return zero
	}
}

// History implements Gateway.
func (s *Service) History(ctx context.Context, symbol, period, interval string, mode Mode) (market.Frame, string) {
	symbol = market.CleanSymbol(symbol)
	if symbol == "" {
		return nil, SourceNoData
	}
	if mode == "" {
		mode = ModeAuto
	}
	intraday := market.IsIntraday(interval)

	if mode != ModeStooq {
		effective := period
		ttl := s.opts.HistoryTTL
		label := SourceYahoo
		if intraday {
			effective = market.ClampIntraday(period, interval)
			ttl = s.opts.IntradayTTL
			label = fmt.Sprintf("%s [intraday %s]", SourceYahoo, interval)
		}

		key := "hist|" + symbol + "|" + effective + "|" + interval
		var frame market.Frame
		if v, ok := s.cache.Get(key); ok {
			frame = v.(market.Frame)
		} else {
			frame = bounded(s, ctx, "history "+symbol, func(ctx context.Context) (market.Frame, error) {
				return s.primary.History(ctx, symbol, effective, interval)
			})
			s.cache.Set(key, frame, ttl)
		}
		if !frame.Empty() {
			return frame, label
		}
	}

	// The fallback serves daily bars only.
	if intraday {
		return nil, SourceNoIntraday
	}
	frame := s.stooqDaily(ctx, symbol)
	if frame.Empty() {
		return nil, SourceNoData
	}
	days := market.PeriodDays(period)
	if days < 5 {
		days = 5
	}
	return frame.Tail(days), SourceStooq
}

// Quote implements Gateway.
func (s *Service) Quote(ctx context.Context, symbol string, mode Mode) (*float64, string) {
	symbol = market.CleanSymbol(symbol)
	if symbol == "" {
		return nil, SourceNoQuote
	}
	if mode == "" {
		mode = ModeAuto
	}

	if mode != ModeStooq {
		key := "quote|" + symbol
		var quote *float64
		if v, ok := s.cache.Get(key); ok {
			quote = v.(*float64)
		} else {
			quote = bounded(s, ctx, "quote "+symbol, func(ctx context.Context) (*float64, error) {
				return s.primary.Quote(ctx, symbol)
			})
			s.cache.Set(key, quote, s.opts.QuoteTTL)
		}
		if quote != nil {
			v := *quote
			return &v, SourceYahoo
		}
	}

	frame := s.stooqDaily(ctx, symbol)
	if !frame.Empty() {
		v := frame[len(frame)-1].Close
		return &v, SourceStooq
	}
	return nil, SourceNoQuote
}

// stooqDaily fetches (or serves from cache) the fallback's full daily
// history for symbol.
func (s *Service) stooqDaily(ctx context.Context, symbol string) market.Frame {
	key := "stooq|" + symbol
	if v, ok := s.cache.Get(key); ok {
		return v.(market.Frame)
	}
	frame := bounded(s, ctx, "stooq "+symbol, func(ctx context.Context) (market.Frame, error) {
		return s.fallback.Daily(ctx, symbol)
	})
	s.cache.Set(key, frame, s.opts.FallbackTTL)
	return frame
}
