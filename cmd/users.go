package cmd

import (
	"bitwise74/account-api/internal"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage accounts",
	}

	var skip, limit int

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts in creation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := internal.NewDeps(cfg)
			if err != nil {
				return err
			}

			page, err := d.Users.ListUsers(cmd.Context(), skip, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tNICKNAME\tROLE\tVERIFIED\tLOCKED")
			for _, u := range page {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%t\n", u.ID, u.Email, u.Nickname, u.Role, u.EmailVerified, u.IsLocked)
			}

			return w.Flush()
		},
	}
	list.Flags().IntVar(&skip, "skip", 0, "Number of accounts to skip")
	list.Flags().IntVar(&limit, "limit", 10, "Maximum number of accounts to show (max 100)")

	unlock := &cobra.Command{
		Use:   "unlock <id>",
		Short: "Unlock an account and reset its failed login counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := internal.NewDeps(cfg)
			if err != nil {
				return err
			}

			if err := d.Users.UnlockAccount(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to unlock %s, %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Unlocked %s\n", args[0])
			return nil
		},
	}

	users.AddCommand(list, unlock)
	return users
}
