// Package main implements the ledgerd CLI for manual operations against the
// account ledger.
//
// The CLI loads the same document the bot process uses (local snapshot plus
// optional gist), performs one operation, and persists the result. Run it
// only while the bot is stopped: the document store is last-writer-wins and
// assumes a single writer.
//
// Configuration comes from environment variables (PERSIST_GIST_ID or legacy
// GIST_ID, PERSIST_GITHUB_TOKEN or legacy MY_GITHUB_TOKEN) and an optional
// YAML file passed via --config. Without gist credentials the CLI works on
// the local snapshot alone.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ledgerd/internal/config"
	"github.com/fyrsmithlabs/ledgerd/internal/ledger"
	"github.com/fyrsmithlabs/ledgerd/internal/logging"
	"github.com/fyrsmithlabs/ledgerd/internal/persist"
)

var (
	configPath string
	topBy      string
	topLimit   int

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ledgerd",
	Short: "Administer the account ledger",
	Long: `ledgerd inspects and mutates the chat economy ledger offline.

It loads the ledger through the same persistence chain the bot uses
(gist first, local snapshot as fallback) and writes changes back through it.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	topCmd.Flags().StringVar(&topBy, "by", "xp", "ranking key: xp or money")
	topCmd.Flags().IntVar(&topLimit, "limit", 10, "number of rows")

	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(confiscateCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(exchangeCmd)
	rootCmd.AddCommand(topCmd)
}

var balanceCmd = &cobra.Command{
	Use:   "balance <id>",
	Short: "Show an account's balance and experience",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(ctx context.Context, svc ledger.Service, args []string) error {
		a := svc.Account(args[0])
		fmt.Printf("account %s: %d credits, %d xp\n", args[0], a.Balance, a.Experience)
		return nil
	}),
}

var grantCmd = &cobra.Command{
	Use:   "grant <id> <amount>",
	Short: "Add credits to an account",
	Args:  cobra.ExactArgs(2),
	RunE: withService(func(ctx context.Context, svc ledger.Service, args []string) error {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		if err := svc.Grant(ctx, args[0], amount); err != nil {
			return err
		}
		fmt.Printf("granted %d credits to %s (balance now %d)\n",
			amount, args[0], svc.Account(args[0]).Balance)
		return nil
	}),
}

var confiscateCmd = &cobra.Command{
	Use:   "confiscate <id> <amount>",
	Short: "Remove credits from an account, clamped at zero",
	Args:  cobra.ExactArgs(2),
	RunE: withService(func(ctx context.Context, svc ledger.Service, args []string) error {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		remaining, err := svc.Confiscate(ctx, args[0], amount)
		if err != nil {
			return err
		}
		fmt.Printf("confiscated up to %d credits from %s (balance now %d)\n",
			amount, args[0], remaining)
		return nil
	}),
}

var transferCmd = &cobra.Command{
	Use:   "transfer <from> <to> <amount>",
	Short: "Move credits between accounts",
	Args:  cobra.ExactArgs(3),
	RunE: withService(func(ctx context.Context, svc ledger.Service, args []string) error {
		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}
		if err := svc.Transfer(ctx, args[0], args[1], amount); err != nil {
			return err
		}
		fmt.Printf("transferred %d credits from %s to %s\n", amount, args[0], args[1])
		return nil
	}),
}

var exchangeCmd = &cobra.Command{
	Use:   "exchange <id> <xp>",
	Short: "Convert experience into credits at the configured rate",
	Args:  cobra.ExactArgs(2),
	RunE: withService(func(ctx context.Context, svc ledger.Service, args []string) error {
		xp, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		credits, err := svc.Exchange(ctx, args[0], xp)
		if err != nil {
			return err
		}
		fmt.Printf("exchanged %d xp for %d credits on %s\n", xp, credits, args[0])
		return nil
	}),
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the account ranking",
	Args:  cobra.NoArgs,
	RunE: withService(func(ctx context.Context, svc ledger.Service, args []string) error {
		var rows []ledger.Ranked
		switch topBy {
		case "xp":
			rows = svc.TopByExperience(topLimit)
		case "money":
			rows = svc.TopByBalance(topLimit)
		default:
			return fmt.Errorf("unknown ranking key %q (want xp or money)", topBy)
		}
		for i, r := range rows {
			fmt.Printf("%2d. %s  %d credits  %d xp\n", i+1, r.ID, r.Balance, r.Experience)
		}
		return nil
	}),
}

// withService builds the full stack (config, logger, persistence chain,
// ledger), hydrates it, and hands it to the command body.
func withService(run func(context.Context, ledger.Service, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logger, err := logging.NewLogger(cfg.Logging)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		backend, err := persist.NewStore(cfg.Persist, logger)
		if err != nil {
			return err
		}

		svc, err := ledger.NewService(&ledger.Config{
			StartingBalance:   cfg.Ledger.StartingBalance,
			ExchangeRate:      cfg.Ledger.ExchangeRate,
			SaveEveryAccruals: cfg.Ledger.SaveEveryAccruals,
			ReservedIDs:       cfg.Ledger.ReservedIDs,
		}, backend, logger)
		if err != nil {
			return err
		}
		svc.Load(ctx)

		if err := run(ctx, svc, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
		return nil
	}
}

func parseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return n, nil
}
