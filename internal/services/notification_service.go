// internal/services/notification_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/b2b-marketplace/internal/config"
	"github.com/javajoker/b2b-marketplace/internal/i18n"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type NotificationService struct {
	store  repository.Store
	mailer Mailer
	config *config.Config
}

type NotificationListRequest struct {
	UnreadOnly bool
	Pagination utils.PaginationParams
}

func NewNotificationService(store repository.Store, mailer Mailer, config *config.Config) *NotificationService {
	return &NotificationService{
		store:  store,
		mailer: mailer,
		config: config,
	}
}

func (s *NotificationService) lang() string {
	return s.config.I18n.DefaultLocale
}

func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if err := s.store.Notifications().Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// NotifyOrderPlaced tells every supplier in the order about it, in-app and
// by email. Failures are logged; the order stands regardless.
func (s *NotificationService) NotifyOrderPlaced(ctx context.Context, order *models.Order) {
	counts := make(map[uuid.UUID]int)
	for _, item := range order.Items {
		counts[item.SupplierID] += item.Quantity
	}

	for _, supplierID := range order.SupplierIDs() {
		orderID := order.ID
		n := &models.Notification{
			UserID:       supplierID,
			Type:         models.NotificationOrderPlaced,
			Title:        i18n.T(s.lang(), i18n.KeyNotifyOrderPlacedTitle, order.OrderNumber),
			Message:      i18n.T(s.lang(), i18n.KeyNotifyOrderPlacedBody, counts[supplierID]),
			ResourceType: "order",
			ResourceID:   &orderID,
		}
		if err := s.Notify(ctx, n); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"order_id":    order.ID,
				"supplier_id": supplierID,
			}).Error("Failed to notify supplier")
			continue
		}

		supplier, err := s.store.Users().Get(ctx, supplierID)
		if err != nil {
			continue
		}
		data := map[string]interface{}{
			"Name":        supplier.Name,
			"OrderNumber": order.OrderNumber,
			"ItemCount":   counts[supplierID],
			"OrderURL":    fmt.Sprintf("%s/orders/%s", s.config.Frontend.BaseURL, order.ID),
		}
		if err := s.sendTemplate(supplier.Email, "order_placed", data); err != nil {
			logrus.WithError(err).WithField("order_id", order.ID).Warn("Failed to email supplier")
		}
	}
}

func (s *NotificationService) NotifyOrderStatus(ctx context.Context, order *models.Order) {
	orderID := order.ID
	n := &models.Notification{
		UserID:       order.UserID,
		Type:         models.NotificationOrderStatus,
		Title:        i18n.T(s.lang(), i18n.KeyNotifyOrderStatusTitle, order.OrderNumber),
		Message:      i18n.T(s.lang(), i18n.KeyNotifyOrderStatusBody, order.Status),
		ResourceType: "order",
		ResourceID:   &orderID,
	}
	if err := s.Notify(ctx, n); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Failed to notify buyer")
	}
}

func (s *NotificationService) NotifyNewMessage(ctx context.Context, message *models.Message, senderName string) {
	messageID := message.ID
	body := message.Body
	if r := []rune(body); len(r) > 140 {
		body = string(r[:140]) + "..."
	}
	n := &models.Notification{
		UserID:       message.RecipientID,
		Type:         models.NotificationNewMessage,
		Title:        i18n.T(s.lang(), i18n.KeyNotifyNewMessageTitle, senderName),
		Message:      body,
		ResourceType: "message",
		ResourceID:   &messageID,
	}
	if err := s.Notify(ctx, n); err != nil {
		logrus.WithError(err).WithField("message_id", message.ID).Error("Failed to notify recipient")
	}
}

func (s *NotificationService) SendPasswordResetEmail(user *models.User, resetToken string) error {
	data := map[string]interface{}{
		"Name":      user.Name,
		"ResetURL":  fmt.Sprintf("%s/reset-password?token=%s", s.config.Frontend.BaseURL, resetToken),
		"ExpiresIn": fmt.Sprintf("%d minutes", s.config.JWT.ResetTokenTTL),
	}
	return s.sendTemplate(user.Email, "password_reset", data)
}

func (s *NotificationService) sendTemplate(to, name string, data interface{}) error {
	tmpl, ok := emailTemplates[name]
	if !ok {
		return fmt.Errorf("unknown email template %q", name)
	}

	subject, err := renderTemplate(tmpl.Subject, data)
	if err != nil {
		return fmt.Errorf("failed to render email subject: %w", err)
	}
	body, err := renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.mailer.Send(to, subject, body)
}

func (s *NotificationService) List(ctx context.Context, actor Actor, req NotificationListRequest) (*utils.PaginationResult, error) {
	items, total, err := s.store.Notifications().List(ctx, repository.NotificationFilter{
		UserID:     &actor.ID,
		UnreadOnly: req.UnreadOnly,
		Pagination: req.Pagination,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	result := utils.CreatePaginationResult(items, total, req.Pagination)
	return &result, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id uuid.UUID) (*models.Notification, error) {
	n, err := s.store.Notifications().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	// Other users' notifications are reported as missing.
	if n.UserID != actor.ID {
		return nil, ErrNotificationNotFound
	}
	if n.ReadAt != nil {
		return n, nil
	}

	now := time.Now()
	return s.store.Notifications().Update(ctx, id, repository.NotificationPatch{ReadAt: &now})
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	return s.store.Notifications().MarkAllRead(ctx, actor.ID, time.Now())
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor Actor) (int64, error) {
	return s.store.Notifications().CountUnread(ctx, actor.ID)
}
