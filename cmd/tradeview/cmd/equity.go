package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tradeview/tradeview/equity"
	"github.com/tradeview/tradeview/render"
)

var equityCmd = &cobra.Command{
	Use:   "equity",
	Short: "Reconstruct the portfolio equity curve",
	Long: `Reconstruct the daily equity curve from the trade ledger: cash,
holdings value, total equity, a buy-and-hold benchmark and drawdown.

Examples:
  tradeview equity
  tradeview equity --chart equity.png --drawdown-chart dd.png`,
	Args: cobra.NoArgs,
	RunE: runEquity,
}

var (
	equityChartOut   string
	drawdownChartOut string
	equityTail       int
)

func init() {
	rootCmd.AddCommand(equityCmd)

	equityCmd.Flags().StringVar(&equityChartOut, "chart", "", "write the equity curve PNG to this path")
	equityCmd.Flags().StringVar(&drawdownChartOut, "drawdown-chart", "", "write the drawdown PNG to this path")
	equityCmd.Flags().IntVar(&equityTail, "tail", 10, "number of trailing rows to print (0 = all)")
}

func runEquity(cmd *cobra.Command, args []string) error {
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
	initial, err := store.InitialCash()
	if err != nil {
		return fmt.Errorf("read initial cash: %w", err)
	}

	svc, memo, err := newService(cfg)
	if err != nil {
		return err
	}

	builder := equity.NewBuilder(svc, memo)
	if len(trades) > 0 {
		bar := progressbar.Default(-1, "fetching history")
		builder.OnSymbol = func(string) { bar.Add(1) }
		defer bar.Finish()
	}

	res := builder.Build(context.Background(), trades, initial, cfg.Market.ProviderMode(), cfg.Portfolio.Benchmark)
	fmt.Println()

	if len(res.Points) == 0 {
		fmt.Printf("No curve: %s\n", res.Source)
		for _, e := range res.Errors {
			fmt.Printf("! %s\n", e)
		}
		return nil
	}

	rows := res.Points
	if equityTail > 0 && len(rows) > equityTail {
		rows = rows[len(rows)-equityTail:]
	}
	fmt.Printf("%-12s  %14s  %14s  %14s  %10s\n",
		"DATE", "CASH", "HOLDINGS", "EQUITY", "DRAWDOWN")
	for _, p := range rows {
		fmt.Printf("%-12s  %14.2f  %14.2f  %14.2f  %9.2f%%\n",
			p.Date.Format("2006-01-02"), p.Cash, p.Holdings, p.Equity, p.Drawdown*100)
	}
	fmt.Printf("\nSource: %s\n", res.Source)
	for _, e := range res.Errors {
		fmt.Printf("! %s\n", e)
	}

	if equityChartOut != "" {
		img, err := render.EquityCurvePNG(res, "Portfolio equity")
		if err != nil {
			return fmt.Errorf("render equity chart: %w", err)
		}
		if err := os.WriteFile(equityChartOut, img, 0644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Printf("✓ Wrote %s\n", equityChartOut)
	}
	if drawdownChartOut != "" {
		img, err := render.DrawdownPNG(res, "Portfolio drawdown")
		if err != nil {
			return fmt.Errorf("render drawdown chart: %w", err)
		}
		if err := os.WriteFile(drawdownChartOut, img, 0644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Printf("✓ Wrote %s\n", drawdownChartOut)
	}
	return nil
}
