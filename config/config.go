package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tradeview/tradeview/market"
	"github.com/tradeview/tradeview/marketdata"
)

// Config represents the complete dashboard configuration
type Config struct {
	Ledger    LedgerConfig    `json:"ledger" yaml:"ledger"`
	Market    MarketConfig    `json:"market" yaml:"market"`
	Portfolio PortfolioConfig `json:"portfolio" yaml:"portfolio"`
	Watchlist WatchlistConfig `json:"watchlist" yaml:"watchlist"`
	Server    ServerConfig    `json:"server" yaml:"server"`
}

// LedgerConfig selects and locates the trade store
type LedgerConfig struct {
	Backend string `json:"backend" yaml:"backend"` // "sqlite" or "postgres"
	DBPath  string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DSN     string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// MarketConfig contains market-data provider parameters
type MarketConfig struct {
	Mode     string `json:"mode" yaml:"mode"` // "auto", "yahoo" or "stooq"
	Timeout  string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Workers  int    `json:"workers,omitempty" yaml:"workers,omitempty"`
	QuoteTTL string `json:"quote_ttl,omitempty" yaml:"quote_ttl,omitempty"`
	HistTTL  string `json:"hist_ttl,omitempty" yaml:"hist_ttl,omitempty"`
}

// PortfolioConfig contains valuation parameters
type PortfolioConfig struct {
	Benchmark string `json:"benchmark" yaml:"benchmark"`
}

// WatchlistConfig lists the default symbols shown without any trades
type WatchlistConfig struct {
	Symbols []string `json:"symbols,omitempty" yaml:"symbols,omitempty"`
}

// ServerConfig contains the HTTP API parameters
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// ProviderMode returns the provider mode as a marketdata constant.
func (m MarketConfig) ProviderMode() marketdata.Mode {
	switch m.Mode {
	case "yahoo":
		return marketdata.ModeYahoo
	case "stooq":
		return marketdata.ModeStooq
	}
	return marketdata.ModeAuto
}

// ParseTimeout converts the timeout string to time.Duration
func (m MarketConfig) ParseTimeout() (time.Duration, error) {
	return parseDuration(m.Timeout)
}

// ParseQuoteTTL converts the quote cache TTL string to time.Duration
func (m MarketConfig) ParseQuoteTTL() (time.Duration, error) {
	return parseDuration(m.QuoteTTL)
}

// ParseHistTTL converts the history cache TTL string to time.Duration
func (m MarketConfig) ParseHistTTL() (time.Duration, error) {
	return parseDuration(m.HistTTL)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	// Determine format by extension
	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Ledger.Backend != "sqlite" && c.Ledger.Backend != "postgres" {
		return fmt.Errorf("ledger.backend must be 'sqlite' or 'postgres'")
	}
	if c.Ledger.Backend == "sqlite" && c.Ledger.DBPath == "" {
		return fmt.Errorf("ledger db_path required for SQLite backend")
	}
	if c.Ledger.Backend == "postgres" && c.Ledger.DSN == "" {
		return fmt.Errorf("ledger dsn required for Postgres backend")
	}
	switch c.Market.Mode {
	case "auto", "yahoo", "stooq":
	default:
		return fmt.Errorf("market.mode must be 'auto', 'yahoo' or 'stooq'")
	}
	if _, err := c.Market.ParseTimeout(); err != nil {
		return fmt.Errorf("market.timeout: %w", err)
	}
	if _, err := c.Market.ParseQuoteTTL(); err != nil {
		return fmt.Errorf("market.quote_ttl: %w", err)
	}
	if _, err := c.Market.ParseHistTTL(); err != nil {
		return fmt.Errorf("market.hist_ttl: %w", err)
	}
	if c.Market.Workers < 0 {
		return fmt.Errorf("market.workers must not be negative")
	}
	if market.CleanSymbol(c.Portfolio.Benchmark) == "" {
		return fmt.Errorf("portfolio.benchmark is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Ledger: LedgerConfig{
			Backend: "sqlite",
			DBPath:  "./tradeview.db",
		},
		Market: MarketConfig{
			Mode:    "auto",
			Timeout: "12s",
			Workers: 6,
		},
		Portfolio: PortfolioConfig{
			Benchmark: "SPY",
		},
		Watchlist: WatchlistConfig{
			Symbols: []string{"AAPL", "MSFT", "SPY"},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
