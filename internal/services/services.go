package services

import (
	"github.com/sjperalta/sacco-api/internal/config"
	"github.com/sjperalta/sacco-api/internal/jobs"
	"github.com/sjperalta/sacco-api/internal/messaging"
	"github.com/sjperalta/sacco-api/internal/repository"
	"github.com/sjperalta/sacco-api/internal/storage"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	Member       *MemberService
	Transaction  *TransactionService
	Contribution *ContributionService
	Loan         *LoanService
	Message      *MessageService
	Report       *ReportService
	Email        *EmailService
	Audit        *AuditService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(
	repos *repository.Repositories,
	cache repository.ScheduleCache,
	transport messaging.Transport,
	worker *jobs.Worker,
	store *storage.LocalStorage,
	cfg *config.Config,
	db *gorm.DB,
) *Services {
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(db)
	reportSvc := NewReportService(repos.Loan, repos.Transaction, store)
	loanSvc := NewLoanService(repos, repos.Loan, repos.Member, cache, auditSvc, worker, reportSvc, emailSvc)
	dispatcher := messaging.NewDispatcher(transport, cfg.WhatsAppSendDelay)

	return &Services{
		Auth:         NewAuthService(cfg),
		Member:       NewMemberService(repos.Member, repos.Transaction, repos.Contribution, repos.Loan, repos.LoanPayment, auditSvc),
		Transaction:  NewTransactionService(repos, repos.Transaction, auditSvc),
		Contribution: NewContributionService(repos.Contribution, repos.Member),
		Loan:         loanSvc,
		Message:      NewMessageService(repos.Message, repos.Member, repos.Loan, loanSvc, transport, dispatcher, auditSvc, emailSvc, worker),
		Report:       reportSvc,
		Email:        emailSvc,
		Audit:        auditSvc,
		Job:          NewJobService(worker),
	}
}
