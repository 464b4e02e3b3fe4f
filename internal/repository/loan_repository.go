package repository

import (
	"context"

	"github.com/sjperalta/sacco-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoanRepository defines the interface for loan data access
type LoanRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Loan, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Loan, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error)
	FindByMember(ctx context.Context, memberID uint) ([]models.Loan, error)
	FindActiveWithMember(ctx context.Context, ids []uint) ([]models.Loan, error)
	Create(ctx context.Context, loan *models.Loan) error
	Update(ctx context.Context, loan *models.Loan) error
	List(ctx context.Context, query *ListQuery) ([]models.Loan, int64, error)
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Member").
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// FindByIDWithDetails loads the loan with its member and payment history
func (r *loanRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date ASC, id ASC")
		}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// FindByIDForUpdate locks the loan row until the surrounding transaction ends.
// Only meaningful when the repository is bound to a transaction.
func (r *loanRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByMember(ctx context.Context, memberID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("start_date DESC").
		Find(&loans).Error
	return loans, err
}

// FindActiveWithMember returns active loans with member and payments loaded.
// An empty ids slice selects every active loan.
func (r *loanRepository) FindActiveWithMember(ctx context.Context, ids []uint) ([]models.Loan, error) {
	var loans []models.Loan
	db := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Payments").
		Where("status = ?", models.LoanStatusActive)
	if len(ids) > 0 {
		db = db.Where("id IN ?", ids)
	}
	err := db.Order("id ASC").Find(&loans).Error
	return loans, err
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(loan).Error
}

func (r *loanRepository) List(ctx context.Context, query *ListQuery) ([]models.Loan, int64, error) {
	var loans []models.Loan
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Loan{})

	if query.Search != "" {
		search := likePattern(query.Search)
		db = db.Joins("JOIN members ON members.id = loans.member_id").
			Where("LOWER(members.name) LIKE LOWER(?) OR members.phone LIKE ?", search, search)
	}
	if v := query.Filters["status"]; v != "" {
		db = db.Where("loans.status = ?", v)
	}
	if v := query.Filters["member_id"]; v != "" {
		db = db.Where("loans.member_id = ?", v)
	}
	if v := query.Filters["loan_type"]; v != "" {
		db = db.Where("loans.loan_type = ?", v)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortable := map[string]string{
		"start_date": "loans.start_date",
		"amount":     "loans.amount",
		"status":     "loans.status",
		"created_at": "loans.created_at",
	}
	err := paginate(db.Preload("Member"), query, sortable, "loans.start_date DESC").Find(&loans).Error
	return loans, total, err
}
