package repository

import (
	"context"

	"github.com/sjperalta/sacco-api/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for the outbound message log
type MessageRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Message, error)
	Create(ctx context.Context, message *models.Message) error
	List(ctx context.Context, query *ListQuery) ([]models.Message, int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) FindByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Preload("Member").
		First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) List(ctx context.Context, query *ListQuery) ([]models.Message, int64, error) {
	var messages []models.Message
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Message{})
	if v := query.Filters["member_id"]; v != "" {
		db = db.Where("member_id = ?", v)
	}
	if v := query.Filters["batch_id"]; v != "" {
		db = db.Where("batch_id = ?", v)
	}
	if v := query.Filters["channel"]; v != "" {
		db = db.Where("channel = ?", v)
	}
	if query.Search != "" {
		db = db.Where("body LIKE ?", likePattern(query.Search))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortable := map[string]string{"timestamp": "timestamp"}
	err := paginate(db.Preload("Member"), query, sortable, "timestamp DESC").Find(&messages).Error
	return messages, total, err
}
