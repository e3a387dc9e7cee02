// Package marketdata fetches OHLCV history and last quotes with provider
// fallback, per-call timeouts, a bounded worker pool and TTL caching. A
// failing or timed-out fetch degrades to an empty result plus a source
// label; it never returns an error and never blocks its caller past the
// deadline.
package marketdata

import (
	"context"

	"github.com/tradeview/tradeview/market"
)

// Gateway is the market-data contract the aggregation engines consume.
// Both methods return an empty result plus a human-readable source label on
// failure; neither ever returns an error.
type Gateway interface {
	// History returns OHLCV bars for symbol over the given period token
	// and interval. Unsupported intraday windows are clamped to the
	// interval's maximum lookback.
	History(ctx context.Context, symbol, period, interval string, mode Mode) (market.Frame, string)

	// Quote returns the most recent traded price, or nil when no provider
	// can serve the symbol within the timeout.
	Quote(ctx context.Context, symbol string, mode Mode) (*float64, string)
}

// Mode selects the provider strategy for a call.
type Mode string

const (
	// ModeAuto tries the primary provider, then the daily fallback.
	ModeAuto Mode = "auto"
	// ModeYahoo prefers the primary provider explicitly (fallback still
	// applies when it returns nothing).
	ModeYahoo Mode = "yahoo"
	// ModeStooq skips the primary provider entirely.
	ModeStooq Mode = "stooq"
)

// Source labels surfaced to the presentation layer.
const (
	SourceYahoo      = "Yahoo Finance"
	SourceStooq      = "Stooq (daily fallback)"
	SourceNoData     = "No data (provider blocked or symbol invalid)"
	SourceNoIntraday = "No intraday data (fallback only supports daily bars)"
	SourceNoQuote    = "No data"
)
