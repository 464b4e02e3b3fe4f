package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sjperalta/sacco-api/internal/config"
	"github.com/sjperalta/sacco-api/internal/database"
	"github.com/sjperalta/sacco-api/internal/jobs"
	"github.com/sjperalta/sacco-api/internal/messaging"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/repository"
	"github.com/sjperalta/sacco-api/internal/services"
	"github.com/sjperalta/sacco-api/internal/storage"
	"github.com/sjperalta/sacco-api/pkg/logger"
	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send WhatsApp reminders for active loans",
	Long: `Compose and send a reminder to the member of every active loan, or
only the loans given with --loan. Sends go through WHATSAPP_GATEWAY_URL and
are paced by WHATSAPP_SEND_DELAY_MS. Ctrl-C stops the batch after the
current message.`,
	Example: `  # Preview what would be sent
  saccoctl remind --dry-run

  # Send a custom text to two loans
  saccoctl remind --loan 12 --loan 15 --message "Office closed Friday, pay by Thursday"`,
	RunE: runRemind,
}

func init() {
	rootCmd.AddCommand(remindCmd)

	remindCmd.Flags().String("message", "", "Text that replaces the composed reminder")
	remindCmd.Flags().UintSlice("loan", nil, "Only these loan IDs (repeatable)")
	remindCmd.Flags().Bool("dry-run", false, "Print the reminders without sending")
}

func runRemind(cmd *cobra.Command, args []string) error {
	override, _ := cmd.Flags().GetString("message")
	loanIDs, _ := cmd.Flags().GetUintSlice("loan")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.WhatsAppGatewayURL == "" && !dryRun {
		return fmt.Errorf("WHATSAPP_GATEWAY_URL is required to send reminders")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcs, worker, err := buildServices(cfg)
	if err != nil {
		return err
	}
	// Drains the batch summary email before exit
	defer worker.Shutdown()

	out := cmd.OutOrStdout()
	if dryRun {
		return previewReminders(ctx, out, svcs.Message, override, loanIDs)
	}

	result, err := svcs.Message.SendLoanReminders(ctx, models.SystemActor, override, loanIDs)
	if err != nil {
		return err
	}
	for _, f := range result.Failed {
		fmt.Fprintf(out, "FAILED  loan %d  %s: %s\n", f.LoanID, f.Name, f.Reason)
	}
	fmt.Fprintf(out, "batch %s: %d sent, %d failed", result.BatchID, len(result.Sent), len(result.Failed))
	if result.Cancelled {
		fmt.Fprint(out, " (cancelled)")
	}
	fmt.Fprintln(out)
	return nil
}

// previewReminders prints the reminders a real run would send; loans that
// are not active are skipped the same way
func previewReminders(ctx context.Context, out io.Writer, msgs *services.MessageService, override string, loanIDs []uint) error {
	recipients, failures, err := msgs.PreviewLoanReminders(ctx, override, loanIDs)
	if err != nil {
		return err
	}
	for _, r := range recipients {
		fmt.Fprintf(out, "--- loan %d  %s <%s>\n%s\n", r.LoanID, r.Name, r.Phone, r.Body)
	}
	for _, f := range failures {
		fmt.Fprintf(out, "--- loan %d: %s\n", f.LoanID, f.Reason)
	}
	fmt.Fprintf(out, "%d reminders (dry run)\n", len(recipients))
	return nil
}

// buildServices wires the same service graph as the API server
func buildServices(cfg *config.Config) (*services.Services, *jobs.Worker, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, nil, err
	}

	var transport messaging.Transport = messaging.NewLogTransport()
	if cfg.WhatsAppGatewayURL != "" {
		gateway := messaging.NewGatewayClient(messaging.GatewayConfig{
			BaseURL: cfg.WhatsAppGatewayURL,
			Session: cfg.WhatsAppSession,
			APIKey:  cfg.WhatsAppAPIKey,
		}, nil)
		// The CLI has no webhook, so ask the gateway for the session state
		if snap, err := gateway.Refresh(context.Background()); err != nil {
			logger.Warn("Could not read WhatsApp session state", "error", err)
		} else {
			logger.Info("WhatsApp session", "state", snap.State)
		}
		transport = gateway
	}

	worker := jobs.NewWorker(1)
	cache := repository.NewScheduleCache(cfg.RedisAddr, cfg.ScheduleCacheTTL)
	svcs := services.NewServices(repository.NewRepositories(db), cache, transport, worker, store, cfg, db)
	return svcs, worker, nil
}
