package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/amortization"
	"github.com/sjperalta/sacco-api/internal/config"
	"github.com/sjperalta/sacco-api/internal/database"
	"github.com/sjperalta/sacco-api/internal/jobs"
	"github.com/sjperalta/sacco-api/internal/messaging"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/repository"
	"github.com/sjperalta/sacco-api/internal/services"
	"github.com/sjperalta/sacco-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScheduleCommand_JSON(t *testing.T) {
	out, err := runCommand(t, "schedule", "--amount", "1000", "--rate", "12", "--months", "10", "--method", "reducing", "--json")
	require.NoError(t, err)

	var resp models.ScheduleResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Len(t, resp.Schedule, 10)
	assert.Equal(t, 105.58, resp.MonthlyPayment)
	assert.Zero(t, resp.Schedule[9].RemainingBalance)
}

func TestScheduleCommand_RejectsBadTerms(t *testing.T) {
	_, err := runCommand(t, "schedule", "--amount", "1000", "--rate", "12", "--months", "601", "--method", "reducing")
	assert.ErrorIs(t, err, amortization.ErrInvalidLoanTerms)

	_, err = runCommand(t, "schedule", "--amount", "1000", "--rate", "12", "--months", "10", "--method", "balloon")
	assert.ErrorIs(t, err, amortization.ErrInvalidLoanTerms)
}

func newTestServices(t *testing.T) *services.Services {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	worker := jobs.NewWorker(1)
	t.Cleanup(func() {
		worker.Shutdown()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return services.NewServices(
		repository.NewRepositories(db),
		repository.NewScheduleCache("", 0),
		messaging.NewLogTransport(),
		worker,
		store,
		&config.Config{JWTSecret: "test-secret", JWTExpirationHours: 1},
		db,
	)
}

func TestPreviewReminders_SkipsLoansThatAreNotActive(t *testing.T) {
	svcs := newTestServices(t)
	ctx := context.Background()
	actor := models.SystemActor

	alice := &models.Member{Name: "Alice", Phone: "256700000001"}
	require.NoError(t, svcs.Member.Create(ctx, actor, alice))
	bob := &models.Member{Name: "Bob", Phone: "256700000002"}
	require.NoError(t, svcs.Member.Create(ctx, actor, bob))

	active, err := svcs.Loan.Create(ctx, actor, services.CreateLoanInput{
		MemberID: alice.ID, Amount: decimal.NewFromInt(1000), InterestRate: decimal.NewFromInt(12),
		LoanType: amortization.MethodFixed, TermMonths: 10, StartDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	paid, err := svcs.Loan.Create(ctx, actor, services.CreateLoanInput{
		MemberID: bob.ID, Amount: decimal.NewFromInt(200), InterestRate: decimal.NewFromInt(12),
		LoanType: amortization.MethodFixed, TermMonths: 2,
	})
	require.NoError(t, err)
	_, err = svcs.Loan.RecordPayment(ctx, actor, paid.ID, decimal.NewFromInt(200), time.Time{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, previewReminders(ctx, &out, svcs.Message, "", []uint{active.ID, paid.ID}))

	text := out.String()
	assert.Contains(t, text, "Dear Alice")
	assert.NotContains(t, text, "Bob")
	assert.Contains(t, text, "1 reminders (dry run)")

	out.Reset()
	err = previewReminders(ctx, &out, svcs.Message, "", []uint{paid.ID})
	assert.ErrorIs(t, err, services.ErrNoRecipients)
}
