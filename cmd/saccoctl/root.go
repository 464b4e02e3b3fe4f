package main

import (
	"fmt"
	"os"

	"github.com/sjperalta/sacco-api/internal/config"
	"github.com/sjperalta/sacco-api/pkg/logger"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "saccoctl",
	Short: "Operator tools for the SACCO back office",
	Long: `saccoctl runs back-office tasks outside the API server: previewing
repayment schedules, minting staff tokens, sending loan reminders and
migrating the database.

Commands that touch the database read the same environment as the API
(DATABASE_URL, WHATSAPP_GATEWAY_URL, RESEND_API_KEY, ...), including a
.env file in the working directory.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		env := os.Getenv("ENVIRONMENT")
		if env == "" {
			env = "development"
		}
		logger.SetupWriter(env, os.Stderr)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the API configuration for commands that need it
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}
