package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/models"
	"gorm.io/gorm"
)

// LoanPaymentRepository defines the interface for loan payment data access.
// Payments are append-only.
type LoanPaymentRepository interface {
	Create(ctx context.Context, payment *models.LoanPayment) error
	FindByLoan(ctx context.Context, loanID uint) ([]models.LoanPayment, error)
	SumByLoan(ctx context.Context, loanID uint) (decimal.Decimal, error)
}

type loanPaymentRepository struct {
	db *gorm.DB
}

// NewLoanPaymentRepository creates a new loan payment repository
func NewLoanPaymentRepository(db *gorm.DB) LoanPaymentRepository {
	return &loanPaymentRepository{db: db}
}

func (r *loanPaymentRepository) Create(ctx context.Context, payment *models.LoanPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *loanPaymentRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.LoanPayment, error) {
	var payments []models.LoanPayment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("payment_date ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *loanPaymentRepository) SumByLoan(ctx context.Context, loanID uint) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.LoanPayment{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("loan_id = ?", loanID).
		Scan(&result).Error
	return result.Total, err
}
