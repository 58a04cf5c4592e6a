// internal/repository/products.go
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type ProductFilter struct {
	Category   string
	Search     string
	OwnerID    *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
	Status     models.ProductStatus
	Pagination utils.PaginationParams
}

// ProductPatch updates only the non-nil fields. When ExpectedVersion is set
// the update applies only if the stored version still matches.
type ProductPatch struct {
	Name             *string
	Description      *string
	Category         *string
	Price            *decimal.Decimal
	Stock            *int
	MinOrderQuantity *int
	Unit             *string
	Images           *[]string
	Status           *models.ProductStatus
	ExpectedVersion  *int64
}

type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// GetForUpdate reads the product under a row lock where the database
	// supports one. Call it inside WithinTx.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DecrementStock removes qty units only if at least qty are available.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type productRepo struct {
	db *gorm.DB
}

var productSortFields = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"name":      "name",
	"stock":     "stock",
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("(LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?))", like, like)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.InStock {
		query = query.Where("stock > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	query = utils.ApplySort(query, filter.Pagination, productSortFields)
	if err := utils.ApplyPagination(query, filter.Pagination).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepo) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var product models.Product
	if err := query.First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	if product.Version == 0 {
		product.Version = 1
	}
	return translate(r.db.WithContext(ctx).Create(product).Error)
}

func (r *productRepo) Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	updates := map[string]interface{}{
		"version": gorm.Expr("version + 1"),
	}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.Stock != nil {
		updates["stock"] = *patch.Stock
	}
	if patch.MinOrderQuantity != nil {
		updates["min_order_quantity"] = *patch.MinOrderQuantity
	}
	if patch.Unit != nil {
		updates["unit"] = *patch.Unit
	}
	if patch.Images != nil {
		updates["images"] = models.StringList(*patch.Images)
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id)
	if patch.ExpectedVersion != nil {
		query = query.Where("version = ?", *patch.ExpectedVersion)
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

	return r.Get(ctx, id)
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]interface{}{
			"stock":   gorm.Expr("stock - ?", qty),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *productRepo) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	// Unscoped: stock returns even when the product was withdrawn meanwhile.
	result := r.db.WithContext(ctx).Unscoped().Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":   gorm.Expr("stock + ?", qty),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
