package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tradeview/tradeview/watchlist"
)

var watchlistCmd = &cobra.Command{
	Use:   "watchlist [symbols...]",
	Short: "Show the watchlist metrics table",
	Long: `Show last price, 1D/1W/1M changes and 52-week distance metrics for a
list of symbols. With no arguments the configured watchlist is used.

Example:
  tradeview watchlist AAPL MSFT NVDA`,
	RunE: runWatchlist,
}

func init() {
	rootCmd.AddCommand(watchlistCmd)
}

func runWatchlist(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	symbols := cfg.Watchlist.Symbols
	if len(args) > 0 {
		symbols = args
	}
	if len(symbols) == 0 {
		fmt.Println("No symbols configured.")
		return nil
	}

	svc, memo, err := newService(cfg)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(symbols)), "fetching")
	agg := watchlist.NewAggregator(svc, memo)
	agg.OnSymbol = func(string) { bar.Add(1) }

	res := agg.Build(context.Background(), symbols, cfg.Market.ProviderMode())
	bar.Finish()
	fmt.Println()

	fmt.Printf("%-8s  %10s  %8s  %8s  %8s  %9s  %9s  %8s\n",
		"SYMBOL", "LAST", "1D %", "1W %", "1M %", "σ→HIGH", "σ→LOW", "RANGE %")
	for _, row := range res.Rows {
		fmt.Printf("%-8s  %10s  %8s  %8s  %8s  %9s  %9s  %8s\n",
			row.Symbol,
			fmtVal(row.Last, "%.2f"),
			fmtVal(row.Change1D, "%+.2f"),
			fmtVal(row.Change1W, "%+.2f"),
			fmtVal(row.Change1M, "%+.2f"),
			fmtVal(row.SigmaToHigh, "%+.2f"),
			fmtVal(row.SigmaToLow, "%+.2f"),
			fmtVal(row.RangePos, "%.1f"),
		)
	}
	for _, e := range res.Errors {
		fmt.Printf("! %s\n", e)
	}
	return nil
}

// fmtVal renders an optional metric, "n/a" when absent.
func fmtVal(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
