// internal/repository/carts.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/b2b-marketplace/internal/models"
)

type CartFilter struct {
	UserID    *uuid.UUID
	ProductID *uuid.UUID
}

type CartLinePatch struct {
	Quantity *int
}

type CartRepository interface {
	List(ctx context.Context, filter CartFilter) ([]models.CartLine, error)
	// ListByUser returns the user's lines in cart order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	// ListByUserForUpdate is ListByUser under row locks where the database
	// supports them. Call it inside WithinTx.
	ListByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	Get(ctx context.Context, id uuid.UUID) (*models.CartLine, error)
	GetLine(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error)
	Create(ctx context.Context, line *models.CartLine) error
	Update(ctx context.Context, id uuid.UUID, patch CartLinePatch) (*models.CartLine, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteLine(ctx context.Context, userID, productID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type cartRepo struct {
	db *gorm.DB
}

func (r *cartRepo) List(ctx context.Context, filter CartFilter) ([]models.CartLine, error) {
	query := r.db.WithContext(ctx).Model(&models.CartLine{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}

	var lines []models.CartLine
	if err := query.Order("added_at ASC").Order("id ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *cartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	return r.List(ctx, CartFilter{UserID: &userID})
}

func (r *cartRepo) ListByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var lines []models.CartLine
	if err := query.Order("added_at ASC").Order("id ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *cartRepo) Get(ctx context.Context, id uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	if err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &line, nil
}

func (r *cartRepo) GetLine(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&line).Error
	if err != nil {
		return nil, translate(err)
	}
	return &line, nil
}

func (r *cartRepo) Create(ctx context.Context, line *models.CartLine) error {
	return translate(r.db.WithContext(ctx).Create(line).Error)
}

func (r *cartRepo) Update(ctx context.Context, id uuid.UUID, patch CartLinePatch) (*models.CartLine, error) {
	if patch.Quantity != nil {
		result := r.db.WithContext(ctx).Model(&models.CartLine{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"quantity":   *patch.Quantity,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return nil, translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.Get(ctx, id)
}

func (r *cartRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CartLine{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cartRepo) DeleteLine(ctx context.Context, userID, productID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartLine{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cartRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartLine{})
	return result.RowsAffected, result.Error
}
