package main

import (
	"fmt"
	"time"

	"github.com/sjperalta/sacco-api/internal/services"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a staff API token",
	Long: `Sign a staff JWT with JWT_SECRET. The API has no password login;
operators hand these tokens to staff.`,
	Example: `  saccoctl token --id 1 --name "Ada" --role admin
  saccoctl token --id 7 --name "Olive" --role officer --ttl 8h`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().Uint("id", 0, "Staff ID (required)")
	tokenCmd.Flags().String("name", "", "Staff name")
	tokenCmd.Flags().String("role", services.RoleOfficer, "Role: admin or officer")
	tokenCmd.Flags().Duration("ttl", 0, "Lifetime, default JWT_EXPIRATION_HOURS")
	_ = tokenCmd.MarkFlagRequired("id")
}

func runToken(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetUint("id")
	name, _ := cmd.Flags().GetString("name")
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	if id == 0 {
		return fmt.Errorf("--id must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	token, expiresAt, err := services.NewAuthService(cfg).IssueToken(id, name, role, ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
	return nil
}
