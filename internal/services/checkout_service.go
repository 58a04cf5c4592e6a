// internal/services/checkout_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/javajoker/b2b-marketplace/internal/cache"
	"github.com/javajoker/b2b-marketplace/internal/events"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/telemetry"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type CheckoutService struct {
	store         repository.Store
	notifications *NotificationService
	publisher     events.Publisher
	idempotency   cache.IdempotencyStore
}

type CheckoutRequest struct {
	PaymentMethod   models.PaymentMethod   `json:"paymentMethod" validate:"required,oneof=credit_card bank_transfer invoice cash_on_delivery"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress" validate:"required"`
	Notes           string                 `json:"notes,omitempty" validate:"max=1000"`
}

func NewCheckoutService(store repository.Store, notifications *NotificationService, publisher events.Publisher, idempotency cache.IdempotencyStore) *CheckoutService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if idempotency == nil {
		idempotency = cache.NopIdempotencyStore{}
	}
	return &CheckoutService{
		store:         store,
		notifications: notifications,
		publisher:     publisher,
		idempotency:   idempotency,
	}
}

// Checkout turns the user's cart into a pending order. Stock checks, stock
// decrements, the order insert and the cart purge commit together; the first
// line that cannot be served aborts the whole checkout. A repeated
// idempotencyKey returns the order the key first produced.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest, idempotencyKey string) (*models.Order, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "CheckoutService.Checkout",
		trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	order, err := s.checkout(ctx, userID, req, idempotencyKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.Int("order.items", len(order.Items)),
	)
	return order, nil
}

func (s *CheckoutService) checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest, idempotencyKey string) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}

	if idempotencyKey != "" {
		if order := s.replay(ctx, userID, idempotencyKey); order != nil {
			return order, nil
		}
	}

	orderNumber, err := utils.GenerateOrderNumber(time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}

	var order *models.Order
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		lines, err := tx.Carts().ListByUserForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		items := make([]models.OrderItem, 0, len(lines))
		total := decimal.Zero
		for _, line := range lines {
			item, err := reserveLine(ctx, tx, line)
			if err != nil {
				return err
			}
			total = total.Add(item.Subtotal)
			items = append(items, *item)
		}

		order = &models.Order{
			OrderNumber:     orderNumber,
			UserID:          userID,
			Items:           items,
			TotalAmount:     total,
			Status:          models.OrderStatusPending,
			ShippingAddress: req.ShippingAddress,
			Payment: models.Payment{
				Method: req.PaymentMethod,
				Status: models.PaymentStatusPending,
			},
			Notes: req.Notes,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		removed, err := tx.Carts().DeleteByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		if removed != int64(len(lines)) {
			return ErrCartChanged
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      userID,
		"total":        order.TotalAmount.StringFixed(2),
	}).Info("Order placed")

	s.afterCommit(ctx, order, idempotencyKey)
	return order, nil
}

// reserveLine locks the product, checks it can serve the line, decrements
// its stock and returns the order item priced at the current price.
func reserveLine(ctx context.Context, tx repository.Store, line models.CartLine) (*models.OrderItem, error) {
	product, err := tx.Products().GetForUpdate(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.IsActive() {
		return nil, ErrProductNotFound
	}
	if err := checkMinimum(product, line.Quantity); err != nil {
		return nil, err
	}

	insufficient := &InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   line.Quantity,
		Available:   product.Stock,
	}
	if line.Quantity > product.Stock {
		return nil, insufficient
	}

	if err := tx.Products().DecrementStock(ctx, product.ID, line.Quantity); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, insufficient
		}
		return nil, fmt.Errorf("failed to reserve stock: %w", err)
	}

	return &models.OrderItem{
		ProductID:   product.ID,
		SupplierID:  product.OwnerID,
		ProductName: product.Name,
		Quantity:    line.Quantity,
		Price:       product.Price,
		Subtotal:    product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
	}, nil
}

func (s *CheckoutService) replay(ctx context.Context, userID uuid.UUID, key string) *models.Order {
	orderID, found, err := s.idempotency.Lookup(ctx, userID, key)
	if err != nil {
		logrus.WithError(err).Warn("Idempotency lookup failed, proceeding with checkout")
		return nil
	}
	if !found {
		return nil
	}

	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil || order.UserID != userID {
		return nil
	}

	logrus.WithFields(logrus.Fields{"order_id": order.ID, "user_id": userID}).Info("Replaying checkout for repeated idempotency key")
	return order
}

// afterCommit runs the side effects of a placed order. None of them can
// undo the order; failures are logged. The idempotency key is recorded
// first so a retry arriving during notification replays the order.
func (s *CheckoutService) afterCommit(ctx context.Context, order *models.Order, idempotencyKey string) {
	if idempotencyKey != "" {
		if err := s.idempotency.Remember(ctx, order.UserID, idempotencyKey, order.ID); err != nil {
			logrus.WithError(err).WithField("order_id", order.ID).Warn("Failed to record idempotency key")
		}
	}

	if s.notifications != nil {
		s.notifications.NotifyOrderPlaced(ctx, order)
	}

	if err := publishOrderCreated(ctx, s.publisher, order); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Failed to publish order event")
	}
}

func publishOrderCreated(ctx context.Context, publisher events.Publisher, order *models.Order) error {
	payload := events.OrderCreatedPayload{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
		Total:       order.TotalAmount.StringFixed(2),
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, events.OrderItemPayload{
			ProductID:  item.ProductID.String(),
			SupplierID: item.SupplierID.String(),
			Quantity:   item.Quantity,
			Price:      item.Price.StringFixed(2),
		})
	}

	envelope, err := events.NewEnvelope(events.EventOrderCreated, order.ID.String(), payload)
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, order.ID.String(), envelope)
}

func publishOrderStatusChanged(ctx context.Context, publisher events.Publisher, order *models.Order, from models.OrderStatus, changedBy uuid.UUID) error {
	envelope, err := events.NewEnvelope(events.EventOrderStatusChanged, order.ID.String(), events.OrderStatusChangedPayload{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		From:        string(from),
		To:          string(order.Status),
		ChangedBy:   changedBy.String(),
	})
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, order.ID.String(), envelope)
}
