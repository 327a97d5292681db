/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/nanogen/studio/config"
	"github.com/nanogen/studio/internal/logging"
	"github.com/nanogen/studio/internal/slot"
	"github.com/nanogen/studio/internal/store"
	"github.com/nanogen/studio/types"
	"github.com/spf13/cobra"
)

var usersSearch string

// usersCmd groups operator commands over the user slot.
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Inspect and manage accounts in the configured slot",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with status, plan and history size",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserStore(cmd.Context(), func(ctx context.Context, users *store.UserStore) error {
			printUsers(cmd.OutOrStdout(), users.Search(ctx, usersSearch))
			stats := users.Stats(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d users (%d active, %d suspended), %s stored\n",
				stats.TotalUsers, stats.ActiveUsers, stats.SuspendedUsers, stats.StorageHuman)
			return nil
		})
	},
}

var usersToggleCmd = &cobra.Command{
	Use:   "toggle <username>",
	Short: "Suspend an active account or restore a suspended one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserStore(cmd.Context(), func(ctx context.Context, users *store.UserStore) error {
			if _, err := users.Get(ctx, args[0]); err != nil {
				return err
			}
			all, err := users.ToggleStatus(ctx, args[0])
			if err != nil {
				return err
			}
			printUsers(cmd.OutOrStdout(), all)
			return nil
		})
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an account and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserStore(cmd.Context(), func(ctx context.Context, users *store.UserStore) error {
			if _, err := users.Get(ctx, args[0]); err != nil {
				return err
			}
			all, err := users.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			printUsers(cmd.OutOrStdout(), all)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersToggleCmd, usersDeleteCmd)

	usersListCmd.Flags().StringVarP(&usersSearch, "search", "q", "", "filter by username or email")
}

func withUserStore(ctx context.Context, run func(ctx context.Context, users *store.UserStore) error) error {
	cfg := config.LoadConfig()
	log := logging.New(os.Stderr, cfg.LogLevel)

	hasher, err := store.NewPasswordHasher(cfg.PasswordHasher)
	if err != nil {
		return err
	}
	s, release, err := slot.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = release()
	}()

	return run(ctx, store.NewUserStore(s, cfg.Slot.Key, hasher, log))
}

func printUsers(out io.Writer, users []types.User) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tEMAIL\tSTATUS\tPLAN\tIMAGES\tJOINED")
	for _, u := range types.Views(users) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			u.Username, u.Email, u.Status, u.Subscription, len(u.History), u.JoinedAt.Format("2006-01-02"))
	}
	_ = tw.Flush()
}
