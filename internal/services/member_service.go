package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/amortization"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/repository"
)

type MemberService struct {
	repo         repository.MemberRepository
	txnRepo      repository.TransactionRepository
	contribRepo  repository.ContributionRepository
	loanRepo     repository.LoanRepository
	loanPayments repository.LoanPaymentRepository
	auditor      Auditor
}

func NewMemberService(
	repo repository.MemberRepository,
	txnRepo repository.TransactionRepository,
	contribRepo repository.ContributionRepository,
	loanRepo repository.LoanRepository,
	loanPayments repository.LoanPaymentRepository,
	auditor Auditor,
) *MemberService {
	return &MemberService{
		repo:         repo,
		txnRepo:      txnRepo,
		contribRepo:  contribRepo,
		loanRepo:     loanRepo,
		loanPayments: loanPayments,
		auditor:      auditor,
	}
}

func (s *MemberService) FindByID(ctx context.Context, id uint) (*models.Member, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "member")
	}
	return member, nil
}

func (s *MemberService) List(ctx context.Context, query *repository.ListQuery) ([]models.Member, int64, error) {
	return s.repo.List(ctx, query)
}

// Create registers a member. JoinedDate defaults to today.
func (s *MemberService) Create(ctx context.Context, actor models.Actor, member *models.Member) error {
	if err := normaliseMember(member); err != nil {
		return err
	}
	if member.JoinedDate.IsZero() {
		member.JoinedDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	if err := s.repo.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicatePhone) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}

	record(ctx, s.auditor, actor, models.AuditActionCreate, "Member", member.ID, member.Name)
	return nil
}

// MemberUpdate holds the editable member fields; nil leaves a field unchanged
type MemberUpdate struct {
	Name       *string
	Phone      *string
	JoinedDate *time.Time
}

func (s *MemberService) Update(ctx context.Context, actor models.Actor, id uint, in MemberUpdate) (*models.Member, error) {
	member, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		member.Name = *in.Name
	}
	if in.Phone != nil {
		member.Phone = *in.Phone
	}
	if in.JoinedDate != nil {
		member.JoinedDate = *in.JoinedDate
	}
	if err := normaliseMember(member); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicatePhone) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return nil, err
	}

	record(ctx, s.auditor, actor, models.AuditActionUpdate, "Member", member.ID, member.Name)
	return member, nil
}

// Delete removes a member with no financial history
func (s *MemberService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}

	hasHistory, err := s.repo.HasHistory(ctx, id)
	if err != nil {
		return err
	}
	if hasHistory {
		return fmt.Errorf("%w: member has loans, transactions or contributions", ErrConflict)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	record(ctx, s.auditor, actor, models.AuditActionDelete, "Member", id, "")
	return nil
}

// Loans returns the member's loans, newest first
func (s *MemberService) Loans(ctx context.Context, id uint) ([]models.Loan, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.loanRepo.FindByMember(ctx, id)
}

// Transactions returns the member's ledger in date order
func (s *MemberService) Transactions(ctx context.Context, id uint) ([]models.Transaction, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.txnRepo.FindByMember(ctx, id)
}

// Summary aggregates savings, contributions and outstanding loan balances
func (s *MemberService) Summary(ctx context.Context, id uint) (*models.MemberSummary, error) {
	member, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	deposits, err := s.txnRepo.SumByType(ctx, id, models.TransactionTypeDeposit)
	if err != nil {
		return nil, err
	}
	withdrawals, err := s.txnRepo.SumByType(ctx, id, models.TransactionTypeWithdrawal)
	if err != nil {
		return nil, err
	}
	contributions, err := s.contribRepo.SumByMember(ctx, id)
	if err != nil {
		return nil, err
	}
	loans, err := s.loanRepo.FindByMember(ctx, id)
	if err != nil {
		return nil, err
	}

	active := 0
	outstanding := decimal.Zero
	for i := range loans {
		if loans[i].Status != models.LoanStatusActive && loans[i].Status != models.LoanStatusDefaulted {
			continue
		}
		active++
		payments, err := s.loanPayments.FindByLoan(ctx, loans[i].ID)
		if err != nil {
			return nil, err
		}
		totals := amortization.Aggregate(loans[i].Terms(), models.EnginePayments(payments))
		outstanding = outstanding.Add(totals.RemainingBalance)
	}

	return &models.MemberSummary{
		Member:             member.ToResponse(),
		TotalDeposits:      models.Money(deposits),
		TotalWithdrawals:   models.Money(withdrawals),
		SavingsBalance:     models.Money(deposits.Sub(withdrawals)),
		TotalContributions: models.Money(contributions),
		ActiveLoans:        active,
		OutstandingBalance: models.Money(outstanding),
	}, nil
}

func normaliseMember(m *models.Member) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Phone = strings.TrimSpace(m.Phone)
	if m.Name == "" {
		return invalid("name is required")
	}
	if m.Phone == "" {
		return invalid("phone is required")
	}
	if !strings.ContainsAny(m.Phone, "0123456789") {
		return invalid("phone must contain digits")
	}
	return nil
}
