package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tradeview/tradeview/id"
	"github.com/tradeview/tradeview/ledger"
)

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Record and inspect paper trades",
	Long: `Record and inspect paper trades in the ledger.

Subcommands:
  add  - Append a trade to the ledger
  list - List all trades in execution order

Examples:
  tradeview trade add --symbol AAPL --side buy --qty 10 --price 189.50
  tradeview trade list`,
}

var tradeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a trade to the ledger",
	RunE:  runTradeAdd,
}

var tradeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all trades in execution order",
	Args:  cobra.NoArgs,
	RunE:  runTradeList,
}

var (
	tradeSymbol string
	tradeSide   string
	tradeQty    string
	tradePrice  string
	tradeNote   string
	tradeTime   string
)

func init() {
	rootCmd.AddCommand(tradeCmd)
	tradeCmd.AddCommand(tradeAddCmd)
	tradeCmd.AddCommand(tradeListCmd)

	tradeAddCmd.Flags().StringVarP(&tradeSymbol, "symbol", "s", "", "ticker symbol (required)")
	tradeAddCmd.Flags().StringVar(&tradeSide, "side", "", "BUY or SELL (required)")
	tradeAddCmd.Flags().StringVarP(&tradeQty, "qty", "q", "", "quantity (required)")
	tradeAddCmd.Flags().StringVarP(&tradePrice, "price", "p", "", "execution price (required)")
	tradeAddCmd.Flags().StringVarP(&tradeNote, "note", "n", "", "free-form note")
	tradeAddCmd.Flags().StringVarP(&tradeTime, "time", "t", "", "execution time, RFC3339 (default now)")
	tradeAddCmd.MarkFlagRequired("symbol")
	tradeAddCmd.MarkFlagRequired("side")
	tradeAddCmd.MarkFlagRequired("qty")
	tradeAddCmd.MarkFlagRequired("price")
}

func runTradeAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	qty, err := decimal.NewFromString(tradeQty)
	if err != nil {
		return fmt.Errorf("qty: %w", err)
	}
	price, err := decimal.NewFromString(tradePrice)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	ts := time.Now().UTC()
	if tradeTime != "" {
		ts, err = time.Parse(time.RFC3339, tradeTime)
		if err != nil {
			return fmt.Errorf("time: %w", err)
		}
		ts = ts.UTC()
	}

	trade := ledger.Trade{
		ID:     id.New(),
		Time:   ts,
		Symbol: tradeSymbol,
		Side:   ledger.Side(strings.ToUpper(strings.TrimSpace(tradeSide))),
		Qty:    qty,
		Price:  price,
		Note:   tradeNote,
	}
	if err := trade.Validate(); err != nil {
		return err
	}
	if err := store.Append(trade); err != nil {
		return fmt.Errorf("append trade: %w", err)
	}

	fmt.Printf("✓ Recorded %s %s %s @ %s (id %s)\n",
		trade.Side, trade.Qty, trade.Symbol, trade.Price, trade.ID)
	return nil
}

func runTradeList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	trades, err := store.AllTrades()
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	if len(trades) == 0 {
		fmt.Println("No trades recorded.")
		return nil
	}

	fmt.Printf("%-20s  %-8s  %-4s  %12s  %12s  %s\n",
		"TIME (UTC)", "SYMBOL", "SIDE", "QTY", "PRICE", "NOTE")
	for _, t := range trades {
		fmt.Printf("%-20s  %-8s  %-4s  %12s  %12s  %s\n",
			t.Time.UTC().Format("2006-01-02 15:04:05"),
			t.Symbol, t.Side, t.Qty, t.Price, t.Note)
	}
	fmt.Printf("\n%d trade(s)\n", len(trades))
	return nil
}
