package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tradeview/tradeview/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard JSON API over HTTP",
	Long: `Serve the dashboard over HTTP: trades, positions, cash, watchlist,
equity curve and PNG charts.

Example:
  tradeview serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	svc, memo, err := newService(cfg)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(store, svc, memo, server.Options{
		Mode:      cfg.Market.ProviderMode(),
		Benchmark: cfg.Portfolio.Benchmark,
		Symbols:   cfg.Watchlist.Symbols,
		Logger:    slog.Default(),
	})
	return srv.Run(addr)
}
