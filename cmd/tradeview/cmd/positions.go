package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradeview/tradeview/portfolio"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Show open positions derived from the ledger",
	Args:  cobra.NoArgs,
	RunE:  runPositions,
}

var positionsWithPrices bool

func init() {
	rootCmd.AddCommand(positionsCmd)
	positionsCmd.Flags().BoolVar(&positionsWithPrices, "prices", false, "fetch live quotes and show market value")
}

func runPositions(cmd *cobra.Command, args []string) error {
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
	positions := portfolio.Positions(trades)
	if len(positions) == 0 {
		fmt.Println("No open positions.")
		return nil
	}

	if !positionsWithPrices {
		fmt.Printf("%-8s  %-5s  %12s  %12s\n", "SYMBOL", "SIDE", "QTY", "AVG COST")
		for _, p := range positions {
			fmt.Printf("%-8s  %-5s  %12s  %12s\n", p.Symbol, p.Side(), p.Qty, p.AvgCost)
		}
		return nil
	}

	svc, _, err := newService(cfg)
	if err != nil {
		return err
	}
	mode := cfg.Market.ProviderMode()

	fmt.Printf("%-8s  %-5s  %12s  %12s  %12s  %14s\n",
		"SYMBOL", "SIDE", "QTY", "AVG COST", "LAST", "MARKET VALUE")
	for _, p := range positions {
		quote, _ := svc.Quote(context.Background(), p.Symbol, mode)
		last, value := "n/a", "n/a"
		if quote != nil {
			last = fmt.Sprintf("%.2f", *quote)
			mv, _ := p.Qty.Float64()
			value = fmt.Sprintf("%.2f", mv**quote)
		}
		fmt.Printf("%-8s  %-5s  %12s  %12s  %12s  %14s\n",
			p.Symbol, p.Side(), p.Qty, p.AvgCost, last, value)
	}
	return nil
}
