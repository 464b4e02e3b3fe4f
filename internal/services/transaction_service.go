package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/repository"
)

type TransactionService struct {
	tx      repository.Transactor
	repo    repository.TransactionRepository
	auditor Auditor
}

func NewTransactionService(tx repository.Transactor, repo repository.TransactionRepository, auditor Auditor) *TransactionService {
	return &TransactionService{tx: tx, repo: repo, auditor: auditor}
}

func (s *TransactionService) FindByID(ctx context.Context, id uint) (*models.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "transaction")
	}
	return txn, nil
}

func (s *TransactionService) List(ctx context.Context, query *repository.ListQuery) ([]models.Transaction, int64, error) {
	return s.repo.List(ctx, query)
}

// Create records a manual savings movement. Loan disbursements and
// repayments are written by the loan workflow and cannot be entered here.
// A withdrawal may not exceed the member's savings balance.
func (s *TransactionService) Create(ctx context.Context, actor models.Actor, txn *models.Transaction) error {
	if !txn.Amount.IsPositive() {
		return invalid("amount must be greater than zero")
	}
	switch txn.Type {
	case models.TransactionTypeDeposit, models.TransactionTypeWithdrawal:
	case models.TransactionTypeLoan, models.TransactionTypeRepayment:
		return invalid("%s entries are recorded through the loan endpoints", txn.Type)
	default:
		return invalid("unknown transaction type %q", txn.Type)
	}
	if txn.Timestamp.IsZero() {
		txn.Timestamp = time.Now().UTC()
	}
	txn.Amount = txn.Amount.Round(2)

	err := s.tx.WithTransaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.Member.FindByIDForUpdate(ctx, txn.MemberID); err != nil {
			return notFound(err, "member")
		}

		if txn.Type == models.TransactionTypeWithdrawal {
			balance, err := savingsBalance(ctx, tx.Transaction, txn.MemberID)
			if err != nil {
				return err
			}
			if txn.Amount.GreaterThan(balance) {
				return fmt.Errorf("%w: balance is %s", ErrInsufficientFunds, balance.StringFixed(2))
			}
		}

		return tx.Transaction.Create(ctx, txn)
	})
	if err != nil {
		return err
	}

	record(ctx, s.auditor, actor, models.AuditActionCreate, "Transaction", txn.ID,
		fmt.Sprintf("%s %s for member %d", txn.Type, txn.Amount.StringFixed(2), txn.MemberID))
	return nil
}

// SavingsBalance returns deposits minus withdrawals for a member
func (s *TransactionService) SavingsBalance(ctx context.Context, memberID uint) (decimal.Decimal, error) {
	return savingsBalance(ctx, s.repo, memberID)
}

func savingsBalance(ctx context.Context, repo repository.TransactionRepository, memberID uint) (decimal.Decimal, error) {
	deposits, err := repo.SumByType(ctx, memberID, models.TransactionTypeDeposit)
	if err != nil {
		return decimal.Zero, err
	}
	withdrawals, err := repo.SumByType(ctx, memberID, models.TransactionTypeWithdrawal)
	if err != nil {
		return decimal.Zero, err
	}
	return deposits.Sub(withdrawals), nil
}
