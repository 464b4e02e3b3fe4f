package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/models"
	"gorm.io/gorm"
)

// TransactionRepository defines the interface for member ledger access
type TransactionRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Transaction, error)
	FindByMember(ctx context.Context, memberID uint) ([]models.Transaction, error)
	Create(ctx context.Context, txn *models.Transaction) error
	List(ctx context.Context, query *ListQuery) ([]models.Transaction, int64, error)
	SumByType(ctx context.Context, memberID uint, txnType string) (decimal.Decimal, error)
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) FindByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Member").
		First(&txn, id).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) FindByMember(ctx context.Context, memberID uint) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("timestamp ASC, id ASC").
		Find(&txns).Error
	return txns, err
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *transactionRepository) List(ctx context.Context, query *ListQuery) ([]models.Transaction, int64, error) {
	var txns []models.Transaction
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Transaction{})

	if v := query.Filters["member_id"]; v != "" {
		db = db.Where("transactions.member_id = ?", v)
	}
	if v := query.Filters["loan_id"]; v != "" {
		db = db.Where("transactions.loan_id = ?", v)
	}
	if v := query.Filters["type"]; v != "" {
		db = db.Where("transactions.type = ?", v)
	}
	if v := query.Filters["from"]; v != "" {
		db = db.Where("transactions.timestamp >= ?", v)
	}
	if v := query.Filters["to"]; v != "" {
		db = db.Where("transactions.timestamp <= ?", v)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortable := map[string]string{"timestamp": "timestamp", "amount": "amount", "type": "type"}
	err := paginate(db.Preload("Member"), query, sortable, "timestamp DESC").Find(&txns).Error
	return txns, total, err
}

// SumByType totals a member's transactions of one type
func (r *transactionRepository) SumByType(ctx context.Context, memberID uint, txnType string) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("member_id = ? AND type = ?", memberID, txnType).
		Scan(&result).Error
	return result.Total, err
}
