package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tradeview/tradeview/portfolio"
)

var cashCmd = &cobra.Command{
	Use:   "cash",
	Short: "Show current cash and initial capital",
	Args:  cobra.NoArgs,
	RunE:  runCash,
}

var initCashCmd = &cobra.Command{
	Use:   "init-cash <amount>",
	Short: "Set the initial capital",
	Args:  cobra.ExactArgs(1),
	RunE:  runInitCash,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all trades and restore the default initial capital",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var resetConfirmed bool

func init() {
	rootCmd.AddCommand(cashCmd)
	rootCmd.AddCommand(initCashCmd)
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "skip the confirmation prompt")
}

func runCash(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("Initial capital: %s\n", initial)
	fmt.Printf("Current cash:    %s\n", portfolio.Cash(trades, initial))
	return nil
}

func runInitCash(cmd *cobra.Command, args []string) error {
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	if err := store.SetInitialCash(amount); err != nil {
		return fmt.Errorf("set initial cash: %w", err)
	}
	fmt.Printf("✓ Initial capital set to %s\n", amount)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetConfirmed {
		return fmt.Errorf("refusing to reset without --yes (this deletes every trade)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	if err := store.Reset(); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	fmt.Println("✓ Ledger reset.")
	return nil
}
