// internal/repository/audit_logs.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type AuditLogFilter struct {
	UserID       *uuid.UUID
	ResourceType string
	From         *time.Time
	Pagination   utils.PaginationParams
}

// Audit entries are append-only; there is no Update.
type AuditLogRepository interface {
	List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)
	Create(ctx context.Context, entry *models.AuditLog) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type auditLogRepo struct {
	db *gorm.DB
}

func (r *auditLogRepo) List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditLog
	query = query.Order("created_at DESC").Order("id DESC")
	if err := utils.ApplyPagination(query, filter.Pagination).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *auditLogRepo) Get(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	var entry models.AuditLog
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

func (r *auditLogRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AuditLog{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
