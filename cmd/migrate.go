package cmd

import (
	"bitwise74/account-api/db"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			// db.New migrates on open
			conn, err := db.New(cfg.DB)
			if err != nil {
				return err
			}

			if sqlDB, err := conn.DB(); err == nil {
				defer sqlDB.Close()
			}

			zap.L().Info("Database migrated", zap.String("type", cfg.DB.Type))
			return nil
		},
	}
}
