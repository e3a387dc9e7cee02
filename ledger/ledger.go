// Package ledger is the append-only trade store. Trades are immutable once
// written; everything else in the system (positions, cash, equity curve) is
// derived by replaying the full ledger.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeview/tradeview/market"
)

// Side is the direction of a paper order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// DefaultInitialCash is the starting cash a fresh ledger reports.
var DefaultInitialCash = decimal.NewFromInt(100000)

// Trade is one executed paper order. The ledger's total order is
// (Time, ID) ascending; ULID ids keep that order stable within a second.
type Trade struct {
	ID     string          `json:"id"`
	Time   time.Time       `json:"ts_utc"`
	Symbol string          `json:"symbol"`
	Side   Side            `json:"side"`
	Qty    decimal.Decimal `json:"qty"`
	Price  decimal.Decimal `json:"price"`
	Note   string          `json:"note,omitempty"`
}

// Validate enforces the ledger's write-time invariants.
func (t Trade) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("trade id is required")
	}
	if t.Time.IsZero() {
		return fmt.Errorf("trade timestamp is required")
	}
	if market.CleanSymbol(t.Symbol) == "" {
		return fmt.Errorf("trade symbol is required")
	}
	if t.Side != Buy && t.Side != Sell {
		return fmt.Errorf("trade side must be BUY or SELL, got %q", t.Side)
	}
	if !t.Qty.IsPositive() {
		return fmt.Errorf("trade qty must be positive, got %s", t.Qty)
	}
	if t.Price.IsNegative() {
		return fmt.Errorf("trade price must be non-negative, got %s", t.Price)
	}
	return nil
}

// SignedQty is +Qty for a BUY and -Qty for a SELL.
func (t Trade) SignedQty() decimal.Decimal {
	if t.Side == Sell {
		return t.Qty.Neg()
	}
	return t.Qty
}

// CashFlow is the cash delta the trade causes: -Qty*Price for a BUY,
// +Qty*Price for a SELL.
func (t Trade) CashFlow() decimal.Decimal {
	flow := t.Qty.Mul(t.Price)
	if t.Side == Buy {
		return flow.Neg()
	}
	return flow
}

// Store is the TradeLedger contract consumed by the engines. AllTrades
// returns the full history in (Time, ID) ascending order. Reset clears all
// trades and restores the default initial cash.
type Store interface {
	Append(Trade) error
	AllTrades() ([]Trade, error)
	InitialCash() (decimal.Decimal, error)
	SetInitialCash(decimal.Decimal) error
	Reset() error
	Close() error
}
