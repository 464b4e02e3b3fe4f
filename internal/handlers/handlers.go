package handlers

import (
	"github.com/sjperalta/sacco-api/internal/services"
	"gorm.io/gorm"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	Member       *MemberHandler
	Transaction  *TransactionHandler
	Contribution *ContributionHandler
	Loan         *LoanHandler
	Message      *MessageHandler
	WhatsApp     *WhatsAppHandler
	Audit        *AuditHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, db *gorm.DB) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(db),
		Auth:         NewAuthHandler(svcs.Auth),
		Member:       NewMemberHandler(svcs.Member, svcs.Contribution, svcs.Message),
		Transaction:  NewTransactionHandler(svcs.Transaction, svcs.Report),
		Contribution: NewContributionHandler(svcs.Contribution),
		Loan:         NewLoanHandler(svcs.Loan, svcs.Message, svcs.Report),
		Message:      NewMessageHandler(svcs.Message),
		WhatsApp:     NewWhatsAppHandler(svcs.Message),
		Audit:        NewAuditHandler(svcs.Audit),
		Job:          NewJobHandler(svcs.Job),
	}
}
