// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/b2b-marketplace/internal/events"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

// validNext is the closed set of order status transitions. Completed and
// cancelled orders are terminal.
var validNext = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusCompleted, models.OrderStatusCancelled},
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range validNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

type OrderService struct {
	store         repository.Store
	notifications *NotificationService
	publisher     events.Publisher
}

type OrderListRequest struct {
	Status     models.OrderStatus
	Pagination utils.PaginationParams
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required,oneof=pending processing completed cancelled"`
}

func NewOrderService(store repository.Store, notifications *NotificationService, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		store:         store,
		notifications: notifications,
		publisher:     publisher,
	}
}

func (s *OrderService) ListMine(ctx context.Context, actor Actor, req OrderListRequest) (*utils.PaginationResult, error) {
	return s.list(ctx, repository.OrderFilter{UserID: &actor.ID, Status: req.Status, Pagination: req.Pagination})
}

// ListForSupplier returns orders holding at least one of the supplier's items.
func (s *OrderService) ListForSupplier(ctx context.Context, actor Actor, req OrderListRequest) (*utils.PaginationResult, error) {
	if actor.Role != models.RoleSupplier && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.list(ctx, repository.OrderFilter{SupplierID: &actor.ID, Status: req.Status, Pagination: req.Pagination})
}

func (s *OrderService) list(ctx context.Context, filter repository.OrderFilter) (*utils.PaginationResult, error) {
	orders, total, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	result := utils.CreatePaginationResult(orders, total, filter.Pagination)
	return &result, nil
}

// GetOrder is visible to the buyer, suppliers with items in the order and
// admins.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := loadOrder(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.ID && !order.HasSupplier(actor.ID) && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateOrderStatusRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}
	return s.transition(ctx, actor, id, req.Status)
}

// Cancel moves the order to cancelled and returns its items to stock.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, actor, id, models.OrderStatusCancelled)
}

func (s *OrderService) transition(ctx context.Context, actor Actor, id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	var (
		updated *models.Order
		from    models.OrderStatus
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		order, err := loadOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		from = order.Status

		if err := authorizeTransition(actor, order, to); err != nil {
			return err
		}
		if !CanTransition(from, to) {
			return &InvalidTransitionError{From: from, To: to}
		}

		now := time.Now()
		patch := repository.OrderPatch{Status: &to, ExpectedStatus: &from}
		switch to {
		case models.OrderStatusCancelled:
			patch.CancelledAt = &now
			if order.Payment.Status == models.PaymentStatusPaid {
				refunded := models.PaymentStatusRefunded
				patch.PaymentStatus = &refunded
			}
			for _, item := range order.Items {
				if err := tx.Products().IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						logrus.WithField("product_id", item.ProductID).Warn("Cannot restock purged product")
						continue
					}
					return fmt.Errorf("failed to restock product %s: %w", item.ProductID, err)
				}
			}
		case models.OrderStatusCompleted:
			patch.CompletedAt = &now
		}

		updated, err = tx.Orders().Update(ctx, order.ID, patch)
		if err != nil {
			if errors.Is(err, repository.ErrStaleVersion) {
				return &InvalidTransitionError{From: from, To: to}
			}
			return fmt.Errorf("failed to update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": updated.ID,
		"from":     from,
		"to":       to,
		"actor_id": actor.ID,
	}).Info("Order status changed")

	if s.notifications != nil {
		s.notifications.NotifyOrderStatus(ctx, updated)
	}
	if err := publishOrderStatusChanged(ctx, s.publisher, updated, from, actor.ID); err != nil {
		logrus.WithError(err).WithField("order_id", updated.ID).Error("Failed to publish order event")
	}

	return updated, nil
}

// authorizeTransition lets suppliers with items in the order and admins make
// any legal transition. Buyers may only cancel their own pending order.
func authorizeTransition(actor Actor, order *models.Order, to models.OrderStatus) error {
	if actor.IsAdmin() || order.HasSupplier(actor.ID) {
		return nil
	}
	if order.UserID != actor.ID {
		return ErrForbidden
	}
	if to != models.OrderStatusCancelled {
		return ErrForbidden
	}
	if order.Status != models.OrderStatusPending {
		return &InvalidTransitionError{From: order.Status, To: to}
	}
	return nil
}

func loadOrder(ctx context.Context, store repository.Store, id uuid.UUID) (*models.Order, error) {
	order, err := store.Orders().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return order, nil
}
