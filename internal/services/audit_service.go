package services

import (
	"context"
	"fmt"

	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/pkg/logger"
	"gorm.io/gorm"
)

// Auditor records back-office actions
type Auditor interface {
	Log(ctx context.Context, actor models.Actor, action, entity string, entityID uint, details string) error
}

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log records an audit entry
func (s *AuditService) Log(ctx context.Context, actor models.Actor, action, entity string, entityID uint, details string) error {
	logEntry := &models.AuditLog{
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: actor.IP,
		UserAgent: actor.UserAgent,
	}
	if err := s.db.WithContext(ctx).Create(logEntry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// List retrieves audit logs, newest first, optionally narrowed to one entity
func (s *AuditService) List(ctx context.Context, entity string, entityID uint, limit, offset int) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	db := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if entity != "" {
		db = db.Where("entity = ?", entity)
	}
	if entityID != 0 {
		db = db.Where("entity_id = ?", entityID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := db.Order("created_at desc, id desc").Limit(limit).Offset(offset).Find(&logs)
	return logs, total, result.Error
}

// record writes an audit entry and only logs failures; the audited
// operation has already committed
func record(ctx context.Context, auditor Auditor, actor models.Actor, action, entity string, entityID uint, details string) {
	if auditor == nil {
		return
	}
	if err := auditor.Log(ctx, actor, action, entity, entityID, details); err != nil {
		logger.Error("Audit write failed", "action", action, "entity", entity, "entity_id", entityID, "error", err)
	}
}
