package main

import (
	"fmt"

	"friendship-backend/infrastructure/di"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the store schema",
		Long: `Creates tables, indexes and constraints for the configured store.
Running it again is harmless. DynamoDB tables are provisioned outside this tool,
so for that driver the command only checks that the table is reachable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(c *di.Container) error {
				if err := c.Store.Ping(cmd.Context()); err != nil {
					return fmt.Errorf("store not reachable: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", c.Config.StoreDriver)
				return nil
			})
		},
	}
}
