// internal/services/message_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type MessageService struct {
	store         repository.Store
	notifications *NotificationService
}

type SendMessageRequest struct {
	RecipientID uuid.UUID  `json:"recipientId" validate:"required"`
	Body        string     `json:"body" validate:"required,max=5000"`
	ProductID   *uuid.UUID `json:"productId,omitempty"`
	OrderID     *uuid.UUID `json:"orderId,omitempty"`
}

type MessageListRequest struct {
	With       *uuid.UUID
	Since      *time.Time
	UnreadOnly bool
	Pagination utils.PaginationParams
}

func NewMessageService(store repository.Store, notifications *NotificationService) *MessageService {
	return &MessageService{
		store:         store,
		notifications: notifications,
	}
}

func (s *MessageService) Send(ctx context.Context, sender Actor, req *SendMessageRequest) (*models.Message, error) {
	req.Body = strings.TrimSpace(req.Body)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}

	if req.RecipientID == sender.ID {
		return nil, ErrInvalidRecipient
	}
	recipient, err := s.store.Users().Get(ctx, req.RecipientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRecipient
		}
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	if !recipient.IsActive() {
		return nil, ErrInvalidRecipient
	}

	if req.ProductID != nil {
		if _, err := s.store.Products().Get(ctx, *req.ProductID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
	}
	if req.OrderID != nil {
		order, err := loadOrder(ctx, s.store, *req.OrderID)
		if err != nil {
			return nil, err
		}
		if order.UserID != sender.ID && !order.HasSupplier(sender.ID) && !sender.IsAdmin() {
			return nil, ErrForbidden
		}
	}

	message := &models.Message{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		ProductID:   req.ProductID,
		OrderID:     req.OrderID,
		Body:        req.Body,
	}
	if err := s.store.Messages().Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if s.notifications != nil {
		senderName := ""
		if user, err := s.store.Users().Get(ctx, sender.ID); err == nil {
			senderName = user.Name
			if user.Company.Name != "" {
				senderName = fmt.Sprintf("%s (%s)", user.Name, user.Company.Name)
			}
		}
		s.notifications.NotifyNewMessage(ctx, message, senderName)
	}

	return message, nil
}

// List returns the caller's messages newest first. With narrows to one
// conversation and Since supports polling for new messages.
func (s *MessageService) List(ctx context.Context, actor Actor, req MessageListRequest) (*utils.PaginationResult, error) {
	messages, total, err := s.store.Messages().List(ctx, repository.MessageFilter{
		ParticipantID: &actor.ID,
		CounterpartID: req.With,
		Since:         req.Since,
		UnreadOnly:    req.UnreadOnly,
		Pagination:    req.Pagination,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	result := utils.CreatePaginationResult(messages, total, req.Pagination)
	return &result, nil
}

// Conversations returns the latest message per counterpart, most recent
// conversation first.
func (s *MessageService) Conversations(ctx context.Context, actor Actor) ([]models.Conversation, error) {
	messages, _, err := s.store.Messages().List(ctx, repository.MessageFilter{ParticipantID: &actor.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	index := make(map[uuid.UUID]int)
	conversations := make([]models.Conversation, 0)
	for _, m := range messages {
		counterpart := m.RecipientID
		if m.RecipientID == actor.ID {
			counterpart = m.SenderID
		}

		i, ok := index[counterpart]
		if !ok {
			i = len(conversations)
			index[counterpart] = i
			conversations = append(conversations, models.Conversation{
				CounterpartID: counterpart,
				LastMessage:   m,
			})
		}
		if m.RecipientID == actor.ID && m.ReadAt == nil {
			conversations[i].Unread++
		}
	}

	return conversations, nil
}

// MarkRead is allowed for the recipient only.
func (s *MessageService) MarkRead(ctx context.Context, actor Actor, id uuid.UUID) (*models.Message, error) {
	message, err := s.store.Messages().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	switch actor.ID {
	case message.RecipientID:
	case message.SenderID:
		return nil, ErrForbidden
	default:
		return nil, ErrMessageNotFound
	}

	if message.ReadAt != nil {
		return message, nil
	}
	now := time.Now()
	return s.store.Messages().Update(ctx, id, repository.MessagePatch{ReadAt: &now})
}

func (s *MessageService) UnreadCount(ctx context.Context, actor Actor) (int64, error) {
	return s.store.Messages().CountUnread(ctx, actor.ID)
}
