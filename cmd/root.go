// Package cmd wires the command line interface of the service
package cmd

import (
	"bitwise74/account-api/api"
	"bitwise74/account-api/config"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg *config.Config
	dev bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "account-api",
		Short:         "User account service: registration, verification, login and lockout",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			if err := api.MakeLogger(c.App.LogLevel, dev); err != nil {
				return err
			}

			cfg = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}

	config.Flags(root.PersistentFlags())
	root.PersistentFlags().BoolVar(&dev, "dev", false, "Human readable colored logs")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newUsersCmd(),
	)

	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
