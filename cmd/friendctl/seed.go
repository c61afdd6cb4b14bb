package main

import (
	"fmt"

	"friendship-backend/infrastructure/di"
	"friendship-backend/infrastructure/persistence/seed"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var emailDomain string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the sample friendship chain",
		Long: `Creates Alice, Bob, Charlie, David and Eve and links each adjacent
pair in both directions.

Examples:
  friendctl seed
  friendctl seed --email-domain test.local --store sqlite --sqlite-path dev.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(c *di.Container) error {
				result, err := seed.Run(cmd.Context(), c.Store, c.Store, emailDomain, c.Logger)
				if err != nil {
					return fmt.Errorf("seeding: %w", err)
				}
				out := cmd.OutOrStdout()
				for _, name := range seed.Names {
					fmt.Fprintf(out, "%-8s %s\n", name, result.ID(name))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&emailDomain, "email-domain", "example.com", "Domain used for the generated emails")
	return cmd
}
