package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradeview/tradeview/market"
	"github.com/tradeview/tradeview/render"
)

var chartCmd = &cobra.Command{
	Use:   "chart <symbol>",
	Short: "Render a symbol's close-price history as a PNG",
	Long: `Fetch a symbol's history and render it as a PNG line chart.

Examples:
  tradeview chart AAPL
  tradeview chart SPY --period 5y --out spy.png`,
	Args: cobra.ExactArgs(1),
	RunE: runChart,
}

var (
	chartPeriod   string
	chartInterval string
	chartOut      string
)

func init() {
	rootCmd.AddCommand(chartCmd)

	chartCmd.Flags().StringVar(&chartPeriod, "period", "1y", "history period (1d,5d,1mo,3mo,6mo,1y,2y,5y,10y,max)")
	chartCmd.Flags().StringVar(&chartInterval, "interval", "1d", "bar interval (1d or an intraday interval)")
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "", "output path (default <SYMBOL>.png)")
}

func runChart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, _, err := newService(cfg)
	if err != nil {
		return err
	}

	symbol := market.CleanSymbol(args[0])
	frame, src := svc.History(context.Background(), symbol, chartPeriod, chartInterval, cfg.Market.ProviderMode())
	if frame.Empty() {
		return fmt.Errorf("%s: %s", symbol, src)
	}

	closes := frame.Closes()
	dates := make([]string, closes.Len())
	for i, d := range closes.Dates {
		dates[i] = d.Format("2006-01-02")
	}

	img, err := render.PricePNG(symbol, src, dates, closes.Values)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	out := chartOut
	if out == "" {
		out = symbol + ".png"
	}
	if err := os.WriteFile(out, img, 0644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	fmt.Printf("✓ Wrote %s (%d bars, %s)\n", out, len(frame), src)
	return nil
}
