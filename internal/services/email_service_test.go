package services

import (
	"context"
	"testing"
	"time"

	"github.com/sjperalta/sacco-api/internal/config"
	"github.com/sjperalta/sacco-api/internal/messaging"
	"github.com/sjperalta/sacco-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailService_checkEmailPreconditions(t *testing.T) {
	logger.Setup("test")

	// No ops address: notifications are off
	service := NewEmailService(&config.Config{ResendAPIKey: "test_key"})
	ok, err := service.checkEmailPreconditions("test operation")
	assert.False(t, ok, "Should return false when no ops address is set")
	assert.Nil(t, err, "Should not return error when notifications are off")

	// Configured
	service = NewEmailService(&config.Config{
		ResendAPIKey: "test_key",
		FromEmail:    "from@example.com",
		OpsEmail:     "ops@example.com",
	})
	ok, err = service.checkEmailPreconditions("test operation")
	assert.True(t, ok, "Should return true when properly configured")
	assert.Nil(t, err)

	// Ops address without a key
	service = NewEmailService(&config.Config{OpsEmail: "ops@example.com"})
	ok, err = service.checkEmailPreconditions("test operation")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrEmailNotConfigured)
	assert.Contains(t, err.Error(), "RESEND_API_KEY is not set")
}

func TestEmailService_SkipsWhenDisabled(t *testing.T) {
	service := NewEmailService(&config.Config{})

	assert.NoError(t, service.SendBatchSummary(context.Background(), BatchKindBulk, messaging.BatchResult{}))
}

func TestEmailService_RenderBatchSummary(t *testing.T) {
	service := NewEmailService(&config.Config{})

	body, err := service.renderTemplate("batch_summary.html", struct {
		Title       string
		BatchID     string
		FinishedAt  string
		Cancelled   bool
		SentCount   int
		FailedCount int
		Failures    []messaging.Failure
	}{
		Title:       "Loan reminder summary",
		BatchID:     "b-1",
		FinishedAt:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC).Format(time.RFC1123),
		SentCount:   2,
		FailedCount: 1,
		Failures: []messaging.Failure{
			{Recipient: messaging.Recipient{Name: "Alan <Okello>", LoanID: 4}, Reason: "not on whatsapp"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Loan reminder summary")
	assert.Contains(t, body, "b-1")
	assert.Contains(t, body, "Alan &lt;Okello&gt;")
	assert.Contains(t, body, "not on whatsapp")
}

func TestEmailService_RenderUnknownTemplate(t *testing.T) {
	service := NewEmailService(&config.Config{})

	_, err := service.renderTemplate("missing.html", nil)
	assert.Error(t, err)
}
