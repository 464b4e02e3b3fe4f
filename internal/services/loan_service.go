package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/amortization"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/repository"
	"github.com/sjperalta/sacco-api/internal/statemachine"
	"github.com/sjperalta/sacco-api/pkg/logger"
)

// StatementArchiver stores the final statement of a settled loan
type StatementArchiver interface {
	ArchiveStatement(ctx context.Context, loanID uint) (string, error)
}

// PayoffNotifier tells back-office staff that a loan was settled
type PayoffNotifier interface {
	SendLoanPaidOff(ctx context.Context, loan *models.Loan, totals amortization.Totals) error
}

type LoanService struct {
	tx         repository.Transactor
	repo       repository.LoanRepository
	memberRepo repository.MemberRepository
	cache      repository.ScheduleCache
	auditor    Auditor
	jobs       JobRunner
	archiver   StatementArchiver
	notifier   PayoffNotifier
	now        func() time.Time
}

func NewLoanService(
	tx repository.Transactor,
	repo repository.LoanRepository,
	memberRepo repository.MemberRepository,
	cache repository.ScheduleCache,
	auditor Auditor,
	jobs JobRunner,
	archiver StatementArchiver,
	notifier PayoffNotifier,
) *LoanService {
	return &LoanService{
		tx:         tx,
		repo:       repo,
		memberRepo: memberRepo,
		cache:      cache,
		auditor:    auditor,
		jobs:       jobs,
		archiver:   archiver,
		notifier:   notifier,
		now:        time.Now,
	}
}

// CreateLoanInput holds the terms of a new loan
type CreateLoanInput struct {
	MemberID     uint
	Amount       decimal.Decimal
	InterestRate decimal.Decimal
	LoanType     string
	TermMonths   int
	StartDate    time.Time
	Description  *string
}

// LoanDetail is a loan with its payment history and aggregate position
type LoanDetail struct {
	Loan   *models.Loan
	Totals amortization.Totals
}

// LoanScheduleView is the projected schedule next to the actual payments
type LoanScheduleView struct {
	Loan     *models.Loan
	Schedule amortization.Schedule
	Totals   amortization.Totals
}

// PaymentResult is the outcome of recording one payment
type PaymentResult struct {
	Payment     *models.LoanPayment
	Loan        *models.Loan
	Totals      amortization.Totals
	JustPaidOff bool
}

// Receipt converts the result to its JSON form
func (r *PaymentResult) Receipt() models.PaymentReceipt {
	return models.PaymentReceipt{
		LoanPaymentResponse: r.Payment.ToResponse(),
		LoanTotalsResponse:  models.NewLoanTotalsResponse(r.Totals),
		LoanStatus:          r.Loan.Status,
		JustPaidOff:         r.JustPaidOff,
	}
}

func (s *LoanService) List(ctx context.Context, query *repository.ListQuery) ([]models.Loan, int64, error) {
	return s.repo.List(ctx, query)
}

// FindByID loads a loan with member, payments and totals
func (s *LoanService) FindByID(ctx context.Context, id uint) (*LoanDetail, error) {
	loan, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, notFound(err, "loan")
	}
	return &LoanDetail{
		Loan:   loan,
		Totals: amortization.Aggregate(loan.Terms(), models.EnginePayments(loan.Payments)),
	}, nil
}

// Create originates a loan and writes its disbursement to the member ledger
func (s *LoanService) Create(ctx context.Context, actor models.Actor, in CreateLoanInput) (*models.Loan, error) {
	if in.StartDate.IsZero() {
		in.StartDate = s.now().UTC().Truncate(24 * time.Hour)
	}

	loan := &models.Loan{
		MemberID:     in.MemberID,
		Principal:    in.Amount.Round(2),
		InterestRate: in.InterestRate,
		LoanType:     in.LoanType,
		TermMonths:   in.TermMonths,
		Status:       models.LoanStatusActive,
		StartDate:    in.StartDate,
		Description:  in.Description,
	}
	if err := amortization.ValidateTerms(loan.Terms()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	end := amortization.MaturityDate(loan.StartDate, loan.TermMonths)
	loan.EndDate = &end

	err := s.tx.WithTransaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.Member.FindByID(ctx, in.MemberID); err != nil {
			return notFound(err, "member")
		}
		if err := tx.Loan.Create(ctx, loan); err != nil {
			return fmt.Errorf("failed to create loan: %w", err)
		}

		desc := fmt.Sprintf("Disbursement of loan %d", loan.ID)
		disbursement := &models.Transaction{
			MemberID:    loan.MemberID,
			LoanID:      &loan.ID,
			Amount:      loan.Principal,
			Type:        models.TransactionTypeLoan,
			Description: &desc,
			Timestamp:   loan.StartDate,
		}
		if err := tx.Transaction.Create(ctx, disbursement); err != nil {
			return fmt.Errorf("failed to record disbursement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	record(ctx, s.auditor, actor, models.AuditActionCreate, "Loan", loan.ID,
		fmt.Sprintf("%s %s at %s%% over %d months for member %d",
			loan.LoanType, loan.Principal.StringFixed(2), loan.InterestRate.String(), loan.TermMonths, loan.MemberID))
	logger.Info("Loan created", "loan_id", loan.ID, "member_id", loan.MemberID, "amount", loan.Principal.StringFixed(2))
	return loan, nil
}

// UpdateLoanInput holds the mutable loan fields; nil leaves a field unchanged
type UpdateLoanInput struct {
	Status      *string
	Description *string
}

// Update changes the description and, through the lifecycle state
// machine, the status of a loan
func (s *LoanService) Update(ctx context.Context, actor models.Actor, id uint, in UpdateLoanInput) (*models.Loan, error) {
	var (
		loan       *models.Loan
		fromStatus string
	)

	err := s.tx.WithTransaction(ctx, func(tx *repository.Repositories) error {
		var err error
		loan, err = tx.Loan.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "loan")
		}
		fromStatus = loan.Status

		if in.Status != nil && *in.Status != loan.Status {
			if err := statemachine.NewLoanFSM(loan).TransitionTo(ctx, *in.Status); err != nil {
				if errors.Is(err, statemachine.ErrInvalidTransition) {
					return fmt.Errorf("%w: %s to %s", ErrInvalidState, fromStatus, *in.Status)
				}
				return err
			}
		}
		if in.Description != nil {
			loan.Description = in.Description
		}
		return tx.Loan.Update(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	if loan.Status != fromStatus {
		record(ctx, s.auditor, actor, models.AuditActionStatus, "Loan", loan.ID, fromStatus+" -> "+loan.Status)
		if loan.Status == models.LoanStatusPaid {
			var totals amortization.Totals
			if detail, err := s.FindByID(ctx, loan.ID); err == nil {
				totals = detail.Totals
			}
			s.afterPayoff(loan, totals)
		}
	} else {
		record(ctx, s.auditor, actor, models.AuditActionUpdate, "Loan", loan.ID, "description")
	}
	return loan, nil
}

// RecordPayment appends a payment, writes the matching repayment ledger
// entry and re-aggregates the loan, all in one transaction with the loan
// row locked. The first time the loan becomes fully paid its status moves
// to paid; later payments (overpayments) are accepted without a second
// transition.
func (s *LoanService) RecordPayment(ctx context.Context, actor models.Actor, loanID uint, amount decimal.Decimal, paidAt time.Time) (*PaymentResult, error) {
	if !amount.IsPositive() {
		return nil, invalid("payment amount must be greater than zero")
	}
	if paidAt.IsZero() {
		paidAt = s.now().UTC()
	}

	result := &PaymentResult{}
	err := s.tx.WithTransaction(ctx, func(tx *repository.Repositories) error {
		loan, err := tx.Loan.FindByIDForUpdate(ctx, loanID)
		if err != nil {
			return notFound(err, "loan")
		}

		payment := &models.LoanPayment{
			LoanID:      loan.ID,
			Amount:      amount.Round(2),
			PaymentDate: paidAt,
		}
		if actor.ID != 0 {
			recordedBy := actor.ID
			payment.RecordedBy = &recordedBy
		}
		if err := tx.LoanPayment.Create(ctx, payment); err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		desc := fmt.Sprintf("Repayment of loan %d", loan.ID)
		repayment := &models.Transaction{
			MemberID:    loan.MemberID,
			LoanID:      &loan.ID,
			Amount:      payment.Amount,
			Type:        models.TransactionTypeRepayment,
			Description: &desc,
			Timestamp:   paidAt,
		}
		if err := tx.Transaction.Create(ctx, repayment); err != nil {
			return fmt.Errorf("failed to record repayment: %w", err)
		}

		payments, err := tx.LoanPayment.FindByLoan(ctx, loan.ID)
		if err != nil {
			return err
		}
		totals := amortization.Aggregate(loan.Terms(), models.EnginePayments(payments))

		if totals.IsFullyPaid && loan.MayPayOff() {
			if err := statemachine.NewLoanFSM(loan).PayOff(ctx); err != nil {
				return err
			}
			if err := tx.Loan.Update(ctx, loan); err != nil {
				return fmt.Errorf("failed to update loan status: %w", err)
			}
			result.JustPaidOff = true
		}

		result.Payment = payment
		result.Loan = loan
		result.Totals = totals
		return nil
	})
	if err != nil {
		return nil, err
	}

	record(ctx, s.auditor, actor, models.AuditActionPayment, "Loan", loanID,
		fmt.Sprintf("payment %d of %s", result.Payment.ID, result.Payment.Amount.StringFixed(2)))
	logger.Info("Loan payment recorded",
		"loan_id", loanID,
		"amount", result.Payment.Amount.StringFixed(2),
		"total_paid", result.Totals.TotalPaid.StringFixed(2),
		"remaining", result.Totals.RemainingBalance.StringFixed(2),
	)

	if result.JustPaidOff {
		record(ctx, s.auditor, actor, models.AuditActionStatus, "Loan", loanID, models.LoanStatusActive+" -> "+models.LoanStatusPaid)
		s.afterPayoff(result.Loan, result.Totals)
	}
	return result, nil
}

// Schedule returns the projected schedule with the actual payment position
func (s *LoanService) Schedule(ctx context.Context, id uint) (*LoanScheduleView, error) {
	detail, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule, err := s.ScheduleFor(ctx, detail.Loan.Terms())
	if err != nil {
		return nil, err
	}
	return &LoanScheduleView{Loan: detail.Loan, Schedule: schedule, Totals: detail.Totals}, nil
}

// ScheduleFor computes a schedule for arbitrary terms, using the cache
// for persisted loans
func (s *LoanService) ScheduleFor(ctx context.Context, terms amortization.Loan) (amortization.Schedule, error) {
	if terms.ID != 0 && s.cache != nil {
		if cached, ok := s.cache.Get(ctx, terms); ok {
			return cached, nil
		}
	}

	schedule, err := amortization.GenerateSchedule(terms)
	if err != nil {
		return amortization.Schedule{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if terms.ID != 0 && s.cache != nil {
		if err := s.cache.Set(ctx, terms, schedule); err != nil {
			logger.Warn("Schedule cache write failed", "loan_id", terms.ID, "error", err)
		}
	}
	return schedule, nil
}

// afterPayoff archives the final statement and notifies staff off the
// request path
func (s *LoanService) afterPayoff(loan *models.Loan, totals amortization.Totals) {
	if s.jobs == nil {
		return
	}
	settled := *loan
	s.jobs.EnqueueAsync(fmt.Sprintf("loan-%d-payoff", loan.ID), func(ctx context.Context) error {
		if full, err := s.repo.FindByID(ctx, settled.ID); err == nil {
			settled = *full
		}
		var errs []error
		if s.archiver != nil {
			path, err := s.archiver.ArchiveStatement(ctx, settled.ID)
			if err != nil {
				errs = append(errs, fmt.Errorf("archive statement: %w", err))
			} else {
				logger.Info("Final statement archived", "loan_id", settled.ID, "path", path)
			}
		}
		if s.notifier != nil {
			if err := s.notifier.SendLoanPaidOff(ctx, &settled, totals); err != nil {
				errs = append(errs, fmt.Errorf("payoff email: %w", err))
			}
		}
		return errors.Join(errs...)
	})
}
