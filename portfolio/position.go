// Package portfolio derives positions and cash from a ledger snapshot.
// Both computations are pure functions of the trade history: nothing here
// is stored, and calling them twice over the same snapshot yields identical
// results.
package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tradeview/tradeview/ledger"
	"github.com/tradeview/tradeview/market"
)

// Position is a derived holding: signed quantity (negative = short) and the
// average cost basis of the open lot. AvgCost is zero when flat.
type Position struct {
	Symbol  string          `json:"symbol"`
	Qty     decimal.Decimal `json:"qty"`
	AvgCost decimal.Decimal `json:"avg_cost"`
}

// Side reports which side of the market the position is on.
func (p Position) Side() string {
	switch {
	case p.Qty.IsPositive():
		return "LONG"
	case p.Qty.IsNegative():
		return "SHORT"
	}
	return "FLAT"
}

// MarketValue is Qty * price; negative for shorts.
func (p Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return p.Qty.Mul(price)
}

// lot models one symbol's exposure as an explicit Long/Flat/Short machine.
// The sign of qty is the state; avg is the basis of the open lot only:
// weighted purchase price while long, weighted sale price while short.
type lot struct {
	qty decimal.Decimal
	avg decimal.Decimal
}

// apply advances the lot by one trade. A trade that crosses through flat is
// split: the open lot is closed fully at its existing basis, and the
// remainder opens a fresh lot at the trade price.
func (l *lot) apply(signedQty, price decimal.Decimal) {
	if l.qty.IsZero() {
		l.qty = signedQty
		l.avg = price
		return
	}

	newQty := l.qty.Add(signedQty)

	switch {
	case sameSide(l.qty, newQty) && newQty.Abs().GreaterThan(l.qty.Abs()):
		// Lot grows: weighted-average the basis.
		l.avg = weightedAvg(l.avg, l.qty.Abs(), price, signedQty.Abs())
		l.qty = newQty
	case sameSide(l.qty, newQty):
		// Lot shrinks: basis of the remainder is unchanged.
		l.qty = newQty
	case newQty.IsZero():
		l.qty = decimal.Zero
		l.avg = decimal.Zero
	default:
		// Crossed through flat: old lot closed, remainder opens at the
		// trade price.
		l.qty = newQty
		l.avg = price
	}
}

func sameSide(a, b decimal.Decimal) bool {
	return (a.IsPositive() && b.IsPositive()) || (a.IsNegative() && b.IsNegative())
}

func weightedAvg(avg, qty, price, add decimal.Decimal) decimal.Decimal {
	total := qty.Add(add)
	if total.IsZero() {
		return price
	}
	return avg.Mul(qty).Add(price.Mul(add)).Div(total)
}

// Positions replays the ledger snapshot in its (timestamp, id) order and
// returns the open positions, sorted by symbol. Symbols that ended flat are
// omitted.
func Positions(trades []ledger.Trade) []Position {
	lots := make(map[string]*lot)
	var order []string
	for _, t := range trades {
		sym := market.CleanSymbol(t.Symbol)
		if sym == "" {
			continue
		}
		l, ok := lots[sym]
		if !ok {
			l = &lot{}
			lots[sym] = l
			order = append(order, sym)
		}
		l.apply(t.SignedQty(), t.Price)
	}

	out := make([]Position, 0, len(lots))
	for _, sym := range order {
		l := lots[sym]
		if l.qty.IsZero() {
			continue
		}
		out = append(out, Position{Symbol: sym, Qty: l.qty, AvgCost: l.avg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
