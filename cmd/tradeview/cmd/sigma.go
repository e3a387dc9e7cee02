package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradeview/tradeview/market"
	"github.com/tradeview/tradeview/sigma"
)

var sigmaCmd = &cobra.Command{
	Use:   "sigma <symbol>",
	Short: "Show sigma analysis and key levels for a symbol",
	Long: `Show slice statistics (mean, sigma, distances from mean/high/low),
key levels and the 52-week snapshot for a symbol. --start and --end select
an inclusive bar range; by default the whole fetched history is analysed.

Examples:
  tradeview sigma AAPL
  tradeview sigma AAPL --period 6mo --start 20 --end 80`,
	Args: cobra.ExactArgs(1),
	RunE: runSigma,
}

var (
	sigmaPeriod string
	sigmaStart  int
	sigmaEnd    int
)

func init() {
	rootCmd.AddCommand(sigmaCmd)

	sigmaCmd.Flags().StringVar(&sigmaPeriod, "period", "1y", "history period (1d,5d,1mo,3mo,6mo,1y,2y,5y,10y,max)")
	sigmaCmd.Flags().IntVar(&sigmaStart, "start", 0, "first bar of the analysis slice")
	sigmaCmd.Flags().IntVar(&sigmaEnd, "end", -1, "last bar of the analysis slice (-1 = last)")
}

func runSigma(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, _, err := newService(cfg)
	if err != nil {
		return err
	}
	mode := cfg.Market.ProviderMode()

	symbol := market.CleanSymbol(args[0])
	frame, src := svc.History(context.Background(), symbol, sigmaPeriod, "1d", mode)
	if frame.Empty() {
		return fmt.Errorf("%s: %s", symbol, src)
	}
	closes := frame.Closes()

	end := sigmaEnd
	if end < 0 {
		end = closes.Len() - 1
	}
	quote, _ := svc.Quote(context.Background(), symbol, mode)

	slice := sigma.ComputeSlice(closes, sigmaStart, end, quote)
	levels := sigma.ComputeKeyLevels(frame, quote)
	m52 := sigma.Compute52W(closes.Values, quote)

	fmt.Printf("%s  (%d bars, %s)\n\n", symbol, closes.Len(), src)

	fmt.Printf("Slice (%d bars)\n", slice.Bars)
	if slice.StartDate != nil && slice.EndDate != nil {
		fmt.Printf("  Range:       %s → %s\n",
			slice.StartDate.Format("2006-01-02"), slice.EndDate.Format("2006-01-02"))
	}
	fmt.Printf("  Current:     %s\n", fmtVal(slice.Current, "%.2f"))
	fmt.Printf("  Mean:        %s   σ: %s (%s of mean)\n",
		fmtVal(slice.Mean, "%.2f"), fmtVal(slice.Std, "%.2f"), fmtPct(slice.StdPct))
	fmt.Printf("  High / Low:  %s / %s\n", fmtVal(slice.High, "%.2f"), fmtVal(slice.Low, "%.2f"))
	fmt.Printf("  From mean:   %s (%s σ)\n", fmtPct(slice.PctFromMean), fmtVal(slice.SigmaFromMean, "%+.2f"))
	fmt.Printf("  From high:   %s (%s σ)\n", fmtPct(slice.PctFromHigh), fmtVal(slice.SigmaFromHigh, "%+.2f"))
	fmt.Printf("  From low:    %s (%s σ)\n", fmtPct(slice.PctFromLow), fmtVal(slice.SigmaFromLow, "%+.2f"))

	fmt.Printf("\nKey levels\n")
	fmt.Printf("  Day:         %s / %s\n", fmtVal(levels.DayHigh, "%.2f"), fmtVal(levels.DayLow, "%.2f"))
	fmt.Printf("  Week:        %s / %s\n", fmtVal(levels.WeekHigh, "%.2f"), fmtVal(levels.WeekLow, "%.2f"))
	fmt.Printf("  52-week:     %s / %s\n", fmtVal(levels.High52W, "%.2f"), fmtVal(levels.Low52W, "%.2f"))
	fmt.Printf("  Volume:      %s (20-bar avg %s)\n",
		fmtVal(levels.VolumeLast, "%.0f"), fmtVal(levels.VolumeAvg20, "%.0f"))

	fmt.Printf("\n52-week snapshot\n")
	fmt.Printf("  σ (daily):   %s   σ ($): %s\n", fmtPct(m52.SigmaPct), fmtVal(m52.SigmaUSD, "%.2f"))
	fmt.Printf("  To high:     %s σ   To low: %s σ\n",
		fmtVal(m52.SigmaToHigh, "%+.2f"), fmtVal(m52.SigmaToLow, "%+.2f"))
	return nil
}

// fmtPct renders an optional fractional value as a percentage.
func fmtPct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", *v*100)
}
