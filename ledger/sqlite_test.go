package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeview/tradeview/id"
)

func openTestLedger(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mkTrade(ts time.Time, symbol string, side Side, qty, price int64) Trade {
	return Trade{
		ID:     id.New(),
		Time:   ts,
		Symbol: symbol,
		Side:   side,
		Qty:    decimal.NewFromInt(qty),
		Price:  decimal.NewFromInt(price),
	}
}

func TestAppendAndList(t *testing.T) {
	s := openTestLedger(t)
	base := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

	require.NoError(t, s.Append(mkTrade(base.Add(time.Hour), "msft", Sell, 5, 410)))
	require.NoError(t, s.Append(mkTrade(base, "aapl", Buy, 10, 190)))

	trades, err := s.AllTrades()
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "AAPL", trades[0].Symbol, "symbols normalized and ledger time-ordered")
	assert.Equal(t, Buy, trades[0].Side)
	assert.Equal(t, "MSFT", trades[1].Symbol)
	assert.True(t, trades[0].Qty.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, base, trades[0].Time)
}

func TestOrderWithinSameTimestamp(t *testing.T) {
	s := openTestLedger(t)
	ts := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

	first := mkTrade(ts, "AAPL", Buy, 1, 100)
	second := mkTrade(ts, "AAPL", Buy, 2, 100)
	require.NoError(t, s.Append(first))
	require.NoError(t, s.Append(second))

	trades, err := s.AllTrades()
	require.NoError(t, err)
	require.Len(t, trades, 2)
	// ULIDs are monotonic, so insertion order survives a timestamp tie.
	assert.Equal(t, first.ID, trades[0].ID)
	assert.Equal(t, second.ID, trades[1].ID)
}

func TestValidation(t *testing.T) {
	s := openTestLedger(t)
	ts := time.Now().UTC()

	bad := mkTrade(ts, "AAPL", "HOLD", 1, 100)
	assert.Error(t, s.Append(bad))

	bad = mkTrade(ts, "AAPL", Buy, 0, 100)
	assert.Error(t, s.Append(bad))

	bad = mkTrade(ts, "AAPL", Buy, 1, -1)
	assert.Error(t, s.Append(bad))

	bad = mkTrade(ts, "   ", Buy, 1, 100)
	assert.Error(t, s.Append(bad))
}

func TestInitialCash(t *testing.T) {
	s := openTestLedger(t)

	cash, err := s.InitialCash()
	require.NoError(t, err)
	assert.True(t, cash.Equal(DefaultInitialCash))

	require.NoError(t, s.SetInitialCash(decimal.NewFromInt(50000)))
	cash, err = s.InitialCash()
	require.NoError(t, err)
	assert.True(t, cash.Equal(decimal.NewFromInt(50000)))
}

func TestReset(t *testing.T) {
	s := openTestLedger(t)
	require.NoError(t, s.Append(mkTrade(time.Now().UTC(), "AAPL", Buy, 1, 100)))
	require.NoError(t, s.SetInitialCash(decimal.NewFromInt(1)))

	require.NoError(t, s.Reset())

	trades, err := s.AllTrades()
	require.NoError(t, err)
	assert.Empty(t, trades)
	cash, err := s.InitialCash()
	require.NoError(t, err)
	assert.True(t, cash.Equal(DefaultInitialCash))
}

func TestCashFlowAndSignedQty(t *testing.T) {
	buy := mkTrade(time.Now(), "AAPL", Buy, 10, 100)
	sell := mkTrade(time.Now(), "AAPL", Sell, 10, 100)

	assert.True(t, buy.CashFlow().Equal(decimal.NewFromInt(-1000)))
	assert.True(t, sell.CashFlow().Equal(decimal.NewFromInt(1000)))
	assert.True(t, buy.SignedQty().Equal(decimal.NewFromInt(10)))
	assert.True(t, sell.SignedQty().Equal(decimal.NewFromInt(-10)))
}
