package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/tradeview/tradeview/ledger"
)

// Cash returns current cash: initial cash plus every trade's cash flow
// (-qty*price for buys, +qty*price for sells).
func Cash(trades []ledger.Trade, initialCash decimal.Decimal) decimal.Decimal {
	cash := initialCash
	for _, t := range trades {
		cash = cash.Add(t.CashFlow())
	}
	return cash
}
