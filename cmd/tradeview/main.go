package main

import (
	"log/slog"
	"os"

	"github.com/tradeview/tradeview/cmd/tradeview/cmd"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
