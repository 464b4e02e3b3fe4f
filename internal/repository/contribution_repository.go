package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/models"
	"gorm.io/gorm"
)

// ContributionRepository defines the interface for contribution data access
type ContributionRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Contribution, error)
	Create(ctx context.Context, contribution *models.Contribution) error
	List(ctx context.Context, query *ListQuery) ([]models.Contribution, int64, error)
	SumByMember(ctx context.Context, memberID uint) (decimal.Decimal, error)
}

type contributionRepository struct {
	db *gorm.DB
}

// NewContributionRepository creates a new contribution repository
func NewContributionRepository(db *gorm.DB) ContributionRepository {
	return &contributionRepository{db: db}
}

func (r *contributionRepository) FindByID(ctx context.Context, id uint) (*models.Contribution, error) {
	var contribution models.Contribution
	err := r.db.WithContext(ctx).
		Preload("Member").
		First(&contribution, id).Error
	if err != nil {
		return nil, err
	}
	return &contribution, nil
}

func (r *contributionRepository) Create(ctx context.Context, contribution *models.Contribution) error {
	return r.db.WithContext(ctx).Create(contribution).Error
}

func (r *contributionRepository) List(ctx context.Context, query *ListQuery) ([]models.Contribution, int64, error) {
	var contributions []models.Contribution
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Contribution{})
	if v := query.Filters["member_id"]; v != "" {
		db = db.Where("member_id = ?", v)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortable := map[string]string{"timestamp": "timestamp", "amount": "amount"}
	err := paginate(db.Preload("Member"), query, sortable, "timestamp DESC").Find(&contributions).Error
	return contributions, total, err
}

func (r *contributionRepository) SumByMember(ctx context.Context, memberID uint) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Contribution{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("member_id = ?", memberID).
		Scan(&result).Error
	return result.Total, err
}
