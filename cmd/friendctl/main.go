// Package main provides friendctl, the operator CLI for the friendship store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"friendship-backend/infrastructure/config"
	"friendship-backend/infrastructure/di"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"

	globalStore      string
	globalSQLitePath string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "friendctl",
		Short:         "Manage users and friendships in the configured store",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globalStore, "store", "", "Store driver (memory, sqlite, dynamodb, neo4j); overrides STORE_DRIVER")
	rootCmd.PersistentFlags().StringVar(&globalSQLitePath, "sqlite-path", "", "SQLite database file; overrides SQLITE_PATH")

	rootCmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newUsersCmd(),
		newFriendsCmd(),
	)
	return rootCmd
}

// withContainer loads configuration, applies the global flags and runs fn
// against a wired container that is released afterwards.
func withContainer(ctx context.Context, fn func(c *di.Container) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer cleanup()
	defer container.Logger.Sync()

	return fn(container)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if globalStore != "" {
		cfg.StoreDriver = globalStore
	}
	if globalSQLitePath != "" {
		cfg.SQLitePath = globalSQLitePath
	}
	// CLI output goes to stdout; keep the log quiet unless asked otherwise.
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
