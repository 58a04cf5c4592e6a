// internal/repository/messages.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type MessageFilter struct {
	// ParticipantID restricts to messages sent or received by the user.
	ParticipantID *uuid.UUID
	// CounterpartID narrows a participant's messages to one conversation.
	CounterpartID *uuid.UUID
	RecipientID   *uuid.UUID
	ProductID     *uuid.UUID
	UnreadOnly    bool
	Since         *time.Time
	Pagination    utils.PaginationParams
}

type MessagePatch struct {
	ReadAt *time.Time
}

type MessageRepository interface {
	List(ctx context.Context, filter MessageFilter) ([]models.Message, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Message, error)
	Create(ctx context.Context, message *models.Message) error
	Update(ctx context.Context, id uuid.UUID, patch MessagePatch) (*models.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

type messageRepo struct {
	db *gorm.DB
}

func (r *messageRepo) List(ctx context.Context, filter MessageFilter) ([]models.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Message{})

	switch {
	case filter.ParticipantID != nil && filter.CounterpartID != nil:
		me, other := *filter.ParticipantID, *filter.CounterpartID
		query = query.Where("((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))", me, other, other, me)
	case filter.ParticipantID != nil:
		query = query.Where("(sender_id = ? OR recipient_id = ?)", *filter.ParticipantID, *filter.ParticipantID)
	}
	if filter.RecipientID != nil {
		query = query.Where("recipient_id = ?", *filter.RecipientID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if filter.Since != nil {
		query = query.Where("created_at > ?", *filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []models.Message
	query = query.Order("created_at DESC").Order("id DESC")
	if err := utils.ApplyPagination(query, filter.Pagination).Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *messageRepo) Get(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &message, nil
}

func (r *messageRepo) Create(ctx context.Context, message *models.Message) error {
	return translate(r.db.WithContext(ctx).Create(message).Error)
}

func (r *messageRepo) Update(ctx context.Context, id uuid.UUID, patch MessagePatch) (*models.Message, error) {
	if patch.ReadAt != nil {
		result := r.db.WithContext(ctx).Model(&models.Message{}).
			Where("id = ?", id).
			Update("read_at", *patch.ReadAt)
		if result.Error != nil {
			return nil, translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.Get(ctx, id)
}

func (r *messageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *messageRepo) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Count(&count).Error
	return count, err
}
