package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/sjperalta/sacco-api/internal/amortization"
	"github.com/sjperalta/sacco-api/internal/config"
	"github.com/sjperalta/sacco-api/internal/messaging"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

// ErrEmailNotConfigured is returned when notifications are enabled without a Resend key
var ErrEmailNotConfigured = errors.New("email is not configured: RESEND_API_KEY is not set")

// EmailService sends staff notifications through Resend
type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// checkEmailPreconditions reports whether an email should go out. A missing
// ops address means notifications are off; a missing key is an error.
func (s *EmailService) checkEmailPreconditions(operation string) (bool, error) {
	if s.config.OpsEmail == "" {
		logger.Debug("Staff notifications disabled, skipping email", "operation", operation)
		return false, nil
	}
	if s.config.ResendAPIKey == "" {
		logger.Warn("Email not sent", "operation", operation, "error", ErrEmailNotConfigured)
		return false, ErrEmailNotConfigured
	}
	return true, nil
}

// SendBatchSummary mails the outcome of a bulk send or reminder run
func (s *EmailService) SendBatchSummary(ctx context.Context, kind string, result messaging.BatchResult) error {
	ok, err := s.checkEmailPreconditions("batch summary")
	if !ok {
		return err
	}

	title := "Bulk message summary"
	if kind == BatchKindReminder {
		title = "Loan reminder summary"
	}
	data := struct {
		Title       string
		BatchID     string
		FinishedAt  string
		Cancelled   bool
		SentCount   int
		FailedCount int
		Failures    []messaging.Failure
	}{
		Title:       title,
		BatchID:     result.BatchID,
		FinishedAt:  result.FinishedAt.Format(time.RFC1123),
		Cancelled:   result.Cancelled,
		SentCount:   len(result.Sent),
		FailedCount: len(result.Failed),
		Failures:    result.Failed,
	}

	subject := fmt.Sprintf("%s: %d sent, %d failed", title, data.SentCount, data.FailedCount)
	return s.send(ctx, "batch_summary.html", subject, data)
}

// SendLoanPaidOff tells staff that a loan has been settled
func (s *EmailService) SendLoanPaidOff(ctx context.Context, loan *models.Loan, totals amortization.Totals) error {
	ok, err := s.checkEmailPreconditions("loan paid off")
	if !ok {
		return err
	}

	paidAt := time.Now()
	if loan.PaidAt != nil {
		paidAt = *loan.PaidAt
	}
	data := struct {
		LoanID     uint
		MemberName string
		LoanType   string
		Principal  string
		TotalPaid  string
		PaidAt     string
	}{
		LoanID:     loan.ID,
		MemberName: loan.Member.Name,
		LoanType:   loan.LoanType,
		Principal:  loan.Principal.StringFixed(2),
		TotalPaid:  totals.TotalPaid.StringFixed(2),
		PaidAt:     paidAt.Format("2006-01-02"),
	}

	subject := fmt.Sprintf("Loan %d paid off", loan.ID)
	return s.send(ctx, "loan_paid_off.html", subject, data)
}

func (s *EmailService) send(ctx context.Context, templateName, subject string, data interface{}) error {
	body, err := s.renderTemplate(templateName, data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{s.config.OpsEmail},
		Subject: subject,
		Html:    body,
	}
	if _, err := s.resendClient.Emails.SendWithContext(ctx, params); err != nil {
		logger.Error("Failed to send email", "to", s.config.OpsEmail, "subject", subject, "error", err)
		return err
	}

	logger.Info("Email sent", "to", s.config.OpsEmail, "subject", subject)
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
