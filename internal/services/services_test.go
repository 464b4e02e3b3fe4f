package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/amortization"
	"github.com/sjperalta/sacco-api/internal/database"
	"github.com/sjperalta/sacco-api/internal/jobs"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testActor = models.Actor{ID: 1, Role: RoleAdmin, IP: "127.0.0.1"}

func setupDB(t *testing.T) (*gorm.DB, *repository.Repositories) {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db, repository.NewRepositories(db)
}

func seedMember(t *testing.T, repos *repository.Repositories, name, phone string) *models.Member {
	t.Helper()
	m := &models.Member{Name: name, Phone: phone, JoinedDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repos.Member.Create(context.Background(), m))
	return m
}

// fakeJobs queues async jobs so tests can run them on demand
type fakeJobs struct {
	mu    sync.Mutex
	names []string
	queue []jobs.Job
}

func (f *fakeJobs) EnqueueAsync(name string, job jobs.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	f.queue = append(f.queue, job)
}

func (f *fakeJobs) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

func (f *fakeJobs) RunAll(ctx context.Context) error {
	f.mu.Lock()
	queue := f.queue
	f.queue = nil
	f.mu.Unlock()

	var errs []error
	for _, job := range queue {
		errs = append(errs, job(ctx))
	}
	return errors.Join(errs...)
}

type auditEntry struct {
	Action   string
	Entity   string
	EntityID uint
	Details  string
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAuditor) Log(ctx context.Context, actor models.Actor, action, entity string, entityID uint, details string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{Action: action, Entity: entity, EntityID: entityID, Details: details})
	return nil
}

func (a *recordingAuditor) Count(action string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, e := range a.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

type recordingArchiver struct {
	loanIDs []uint
}

func (a *recordingArchiver) ArchiveStatement(ctx context.Context, loanID uint) (string, error) {
	a.loanIDs = append(a.loanIDs, loanID)
	return "statements/test.pdf", nil
}

type recordingNotifier struct {
	loans  []models.Loan
	totals []amortization.Totals
}

func (n *recordingNotifier) SendLoanPaidOff(ctx context.Context, loan *models.Loan, totals amortization.Totals) error {
	n.loans = append(n.loans, *loan)
	n.totals = append(n.totals, totals)
	return nil
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
