package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sjperalta/sacco-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicatePhone is returned when a member phone is already registered
var ErrDuplicatePhone = errors.New("a member with this phone number already exists")

// MemberRepository defines the interface for member data access
type MemberRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Member, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Member, error)
	FindByPhone(ctx context.Context, phone string) (*models.Member, error)
	FindAll(ctx context.Context, nameFilter string) ([]models.Member, error)
	Create(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Member, int64, error)
	HasHistory(ctx context.Context, id uint) (bool, error)
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) FindByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByIDForUpdate locks the member row until the surrounding transaction ends
func (r *memberRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// FindAll returns members whose name contains nameFilter, ordered by name.
// An empty filter matches everyone.
func (r *memberRepository) FindAll(ctx context.Context, nameFilter string) ([]models.Member, error) {
	var members []models.Member
	db := r.db.WithContext(ctx)
	if nameFilter != "" {
		db = db.Where("LOWER(name) LIKE LOWER(?)", likePattern(nameFilter))
	}
	err := db.Order("name ASC, id ASC").Find(&members).Error
	return members, err
}

func (r *memberRepository) FindByPhone(ctx context.Context, phone string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicatePhone
		}
		return err
	}
	return nil
}

func (r *memberRepository) Update(ctx context.Context, member *models.Member) error {
	if err := r.db.WithContext(ctx).Save(member).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicatePhone
		}
		return err
	}
	return nil
}

func (r *memberRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Member{}, id).Error
}

func (r *memberRepository) List(ctx context.Context, query *ListQuery) ([]models.Member, int64, error) {
	var members []models.Member
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Member{})

	if query.Search != "" {
		search := likePattern(query.Search)
		db = db.Where("LOWER(name) LIKE LOWER(?) OR phone LIKE ?", search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortable := map[string]string{"name": "name", "joined_date": "joined_date", "created_at": "created_at"}
	err := paginate(db, query, sortable, "name ASC").Find(&members).Error
	return members, total, err
}

// HasHistory reports whether the member has loans, transactions or contributions
func (r *memberRepository) HasHistory(ctx context.Context, id uint) (bool, error) {
	for _, model := range []interface{}{&models.Loan{}, &models.Transaction{}, &models.Contribution{}} {
		var count int64
		if err := r.db.WithContext(ctx).Model(model).Where("member_id = ?", id).Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// isDuplicateKeyError detects unique violations from postgres, or from any
// dialect when gorm error translation is enabled
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
