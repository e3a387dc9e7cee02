package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradeview/tradeview/cache"
	"github.com/tradeview/tradeview/config"
	"github.com/tradeview/tradeview/ledger"
	"github.com/tradeview/tradeview/marketdata"
)

var rootCmd = &cobra.Command{
	Use:   "tradeview",
	Short: "A paper-trading portfolio dashboard",
	Long: `Tradeview is a paper-trading dashboard backend written in Go.

It provides tools for:
  - Recording paper trades in an append-only ledger
  - Reconstructing positions, cash and the equity curve from trade history
  - Watchlist tables with 52-week and sigma distance metrics
  - Market data from Yahoo Finance with a Stooq daily fallback
  - Serving the whole dashboard over a JSON HTTP API`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var (
	cfgFile  string
	dbPath   string
	modeFlag string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "override the SQLite ledger path")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "market data mode: auto, yahoo or stooq")
}

// loadConfig resolves the effective configuration: the file when given,
// defaults otherwise, with command-line overrides applied on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dbPath != "" {
		cfg.Ledger.Backend = "sqlite"
		cfg.Ledger.DBPath = dbPath
	}
	if modeFlag != "" {
		cfg.Market.Mode = modeFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openStore opens the configured ledger backend.
func openStore(cfg *config.Config) (ledger.Store, error) {
	switch cfg.Ledger.Backend {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ledger.OpenPostgres(ctx, cfg.Ledger.DSN)
	default:
		return ledger.OpenSQLite(cfg.Ledger.DBPath)
	}
}

// newService builds the market data service and the cache shared by every
// engine derived from it.
func newService(cfg *config.Config) (*marketdata.Service, *cache.Cache, error) {
	timeout, err := cfg.Market.ParseTimeout()
	if err != nil {
		return nil, nil, fmt.Errorf("market.timeout: %w", err)
	}
	quoteTTL, err := cfg.Market.ParseQuoteTTL()
	if err != nil {
		return nil, nil, fmt.Errorf("market.quote_ttl: %w", err)
	}
	histTTL, err := cfg.Market.ParseHistTTL()
	if err != nil {
		return nil, nil, fmt.Errorf("market.hist_ttl: %w", err)
	}
	c := cache.New()
	svc := marketdata.NewService(c, marketdata.Options{
		Timeout:    timeout,
		Workers:    cfg.Market.Workers,
		QuoteTTL:   quoteTTL,
		HistoryTTL: histTTL,
	})
	return svc, c, nil
}
