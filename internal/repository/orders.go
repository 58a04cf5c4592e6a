// internal/repository/orders.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type OrderFilter struct {
	UserID     *uuid.UUID
	SupplierID *uuid.UUID
	Status     models.OrderStatus
	Pagination utils.PaginationParams
}

// OrderPatch updates only the non-nil fields. ExpectedStatus guards status
// transitions against concurrent writers.
type OrderPatch struct {
	Status         *models.OrderStatus
	PaymentStatus  *models.PaymentStatus
	CancelledAt    *time.Time
	CompletedAt    *time.Time
	ExpectedStatus *models.OrderStatus
}

type OrderRepository interface {
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	// Create inserts the order together with its items.
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, id uuid.UUID, patch OrderPatch) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type orderRepo struct {
	db *gorm.DB
}

var orderSortFields = map[string]string{
	"createdAt":   "created_at",
	"totalAmount": "total_amount",
	"status":      "status",
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *orderRepo) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.SupplierID != nil {
		query = query.Where("id IN (?)",
			r.db.Model(&models.OrderItem{}).Select("order_id").Where("supplier_id = ?", *filter.SupplierID))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	query = utils.ApplySort(query, filter.Pagination, orderSortFields)
	err := utils.ApplyPagination(query, filter.Pagination).
		Preload("Items", preloadItems).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepo) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items", preloadItems).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepo) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items", preloadItems).
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	for i := range order.Items {
		order.Items[i].Position = i
	}
	return translate(r.db.WithContext(ctx).Create(order).Error)
}

func (r *orderRepo) Update(ctx context.Context, id uuid.UUID, patch OrderPatch) (*models.Order, error) {
	updates := map[string]interface{}{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.PaymentStatus != nil {
		updates["payment_status"] = *patch.PaymentStatus
	}
	if patch.CancelledAt != nil {
		updates["cancelled_at"] = *patch.CancelledAt
	}
	if patch.CompletedAt != nil {
		updates["completed_at"] = *patch.CompletedAt
	}

	if len(updates) > 0 {
		query := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id)
		if patch.ExpectedStatus != nil {
			query = query.Where("status = ?", *patch.ExpectedStatus)
		}

		result := query.Updates(updates)
		if result.Error != nil {
			return nil, translate(result.Error)
		}
		if result.RowsAffected == 0 {
			if _, err := r.Get(ctx, id); err != nil {
				return nil, err
			}
			return nil, ErrStaleVersion
		}
	}

	return r.Get(ctx, id)
}

func (r *orderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Order{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
