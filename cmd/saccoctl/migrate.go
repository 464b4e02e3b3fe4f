package main

import (
	"github.com/sjperalta/sacco-api/internal/database"
	"github.com/sjperalta/sacco-api/pkg/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		logger.Info("Database migrated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
