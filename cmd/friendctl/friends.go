package main

import (
	"encoding/json"
	"fmt"
	"io"

	"friendship-backend/application/queries"
	"friendship-backend/infrastructure/di"

	"github.com/spf13/cobra"
)

type friendsFlags struct {
	degree int
	format string
}

func newFriendsCmd() *cobra.Command {
	var flags friendsFlags

	cmd := &cobra.Command{
		Use:   "friends <user-id>",
		Short: "List the users at a degree of friendship",
		Long: `Resolves the users exactly --degree hops away from a user.

Examples:
  friendctl friends 5f0c... --degree 2
  friendctl friends 5f0c... --degree 3 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFriends(cmd, args[0], flags)
		},
	}

	cmd.Flags().IntVar(&flags.degree, "degree", 1, "Degree of friendship (1-3)")
	cmd.Flags().StringVar(&flags.format, "format", "list", "Output format: list, json")
	return cmd
}

func runFriends(cmd *cobra.Command, userID string, flags friendsFlags) error {
	if flags.format != "list" && flags.format != "json" {
		return fmt.Errorf("invalid format: %s (valid: list, json)", flags.format)
	}

	return withContainer(cmd.Context(), func(c *di.Container) error {
		result, err := c.QueryBus.Ask(cmd.Context(), queries.GetFriendsByDegreeQuery{
			UserID: userID,
			Degree: flags.degree,
		})
		if err != nil {
			return err
		}
		views, _ := result.([]queries.UserView)
		return printUsers(cmd.OutOrStdout(), views, flags.format)
	})
}

func newUsersCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List every user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "list" && format != "json" {
				return fmt.Errorf("invalid format: %s (valid: list, json)", format)
			}
			return withContainer(cmd.Context(), func(c *di.Container) error {
				result, err := c.QueryBus.Ask(cmd.Context(), queries.ListUsersQuery{})
				if err != nil {
					return err
				}
				views, _ := result.([]queries.UserView)
				return printUsers(cmd.OutOrStdout(), views, format)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "list", "Output format: list, json")
	return cmd
}

func printUsers(out io.Writer, views []queries.UserView, format string) error {
	if views == nil {
		views = []queries.UserView{}
	}
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	if len(views) == 0 {
		fmt.Fprintln(out, "No users found")
		return nil
	}
	for _, v := range views {
		fmt.Fprintf(out, "%s\t%s\t%s\n", v.ID, v.Name, v.Email)
	}
	return nil
}
