// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type ProductService struct {
	store   repository.Store
	storage *StorageService
}

type CreateProductRequest struct {
	Name             string          `json:"name" validate:"required,min=2,max=255"`
	Description      string          `json:"description" validate:"max=5000"`
	Category         string          `json:"category" validate:"required,max=100"`
	Price            decimal.Decimal `json:"price" validate:"required,gt=0"`
	Stock            int             `json:"stock" validate:"gte=0"`
	MinOrderQuantity int             `json:"minOrderQuantity" validate:"omitempty,gte=1"`
	Unit             string          `json:"unit" validate:"max=20"`
	Images           []string        `json:"images,omitempty" validate:"max=10,dive,max=500"`
}

// UpdateProductRequest is a partial update; absent fields are left alone.
type UpdateProductRequest struct {
	Name             *string               `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description      *string               `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category         *string               `json:"category,omitempty" validate:"omitempty,max=100"`
	Price            *decimal.Decimal      `json:"price,omitempty" validate:"omitempty,gt=0"`
	Stock            *int                  `json:"stock,omitempty" validate:"omitempty,gte=0"`
	MinOrderQuantity *int                  `json:"minOrderQuantity,omitempty" validate:"omitempty,gte=1"`
	Unit             *string               `json:"unit,omitempty" validate:"omitempty,max=20"`
	Images           *[]string             `json:"images,omitempty" validate:"omitempty,max=10"`
	Status           *models.ProductStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	Version          *int64                `json:"version,omitempty"`
}

type ProductSearchParams struct {
	Pagination utils.PaginationParams
	Category   string
	Search     string
	SupplierID *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
	Status     models.ProductStatus
}

func NewProductService(store repository.Store, storage *StorageService) *ProductService {
	return &ProductService{
		store:   store,
		storage: storage,
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, actor Actor, req *CreateProductRequest) (*models.Product, error) {
	if actor.Role != models.RoleSupplier && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}

	product := &models.Product{
		OwnerID:          actor.ID,
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		Category:         strings.TrimSpace(req.Category),
		Price:            req.Price.Round(2),
		Stock:            req.Stock,
		MinOrderQuantity: req.MinOrderQuantity,
		Unit:             req.Unit,
		Images:           models.StringList(req.Images),
		Status:           models.ProductStatusActive,
	}
	if product.MinOrderQuantity == 0 {
		product.MinOrderQuantity = 1
	}
	if product.Unit == "" {
		product.Unit = "pcs"
	}
	if product.Images == nil {
		product.Images = models.StringList{}
	}

	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	logrus.WithFields(logrus.Fields{"product_id": product.ID, "owner_id": actor.ID}).Info("Product created")
	return product, nil
}

// GetProduct hides inactive products from everyone but their owner and
// admins. viewer is nil for anonymous callers.
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID, viewer *Actor) (*models.Product, error) {
	product, err := s.store.Products().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !product.IsActive() && (viewer == nil || !viewer.Owns(product.OwnerID)) {
		return nil, ErrProductNotFound
	}

	return product, nil
}

// SearchProducts lists the catalogue. Only owners and admins may see
// inactive products, and only their own unless admin.
func (s *ProductService) SearchProducts(ctx context.Context, viewer *Actor, params ProductSearchParams) (*utils.PaginationResult, error) {
	filter := repository.ProductFilter{
		Category:   params.Category,
		Search:     strings.TrimSpace(params.Search),
		OwnerID:    params.SupplierID,
		MinPrice:   params.MinPrice,
		MaxPrice:   params.MaxPrice,
		InStock:    params.InStock,
		Status:     params.Status,
		Pagination: params.Pagination,
	}

	canSeeInactive := viewer != nil && (viewer.IsAdmin() ||
		(params.SupplierID != nil && *params.SupplierID == viewer.ID))
	if !canSeeInactive {
		filter.Status = models.ProductStatusActive
	}

	return s.list(ctx, filter)
}

// ListMine returns the caller's own products in any status.
func (s *ProductService) ListMine(ctx context.Context, actor Actor, params ProductSearchParams) (*utils.PaginationResult, error) {
	return s.list(ctx, repository.ProductFilter{
		Category:   params.Category,
		Search:     strings.TrimSpace(params.Search),
		OwnerID:    &actor.ID,
		InStock:    params.InStock,
		Status:     params.Status,
		Pagination: params.Pagination,
	})
}

func (s *ProductService) list(ctx context.Context, filter repository.ProductFilter) (*utils.PaginationResult, error) {
	products, total, err := s.store.Products().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	result := utils.CreatePaginationResult(products, total, filter.Pagination)
	return &result, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}

	product, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	patch := repository.ProductPatch{
		Description:      req.Description,
		Stock:            req.Stock,
		MinOrderQuantity: req.MinOrderQuantity,
		Unit:             req.Unit,
		Images:           req.Images,
		Status:           req.Status,
		ExpectedVersion:  req.Version,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		patch.Name = &name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		patch.Category = &category
	}
	if req.Price != nil {
		price := req.Price.Round(2)
		patch.Price = &price
	}

	updated, err := s.store.Products().Update(ctx, product.ID, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleVersion):
			return nil, ErrStaleProduct
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return updated, nil
}

// DeleteProduct soft-deletes; existing orders keep their captured items.
func (s *ProductService) DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error {
	product, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.store.Products().Delete(ctx, product.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	logrus.WithFields(logrus.Fields{"product_id": id, "actor_id": actor.ID}).Info("Product deleted")
	return nil
}

// UploadImages stores the files and returns their public URLs in order.
func (s *ProductService) UploadImages(actor Actor, files []*multipart.FileHeader) ([]UploadResult, error) {
	if actor.Role != models.RoleSupplier && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	options := s.storage.ProductImageOptions()
	results := make([]UploadResult, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			s.discardUploads(results)
			return nil, fmt.Errorf("failed to open upload: %w", err)
		}

		result, err := s.storage.UploadFile(file, header, options)
		file.Close()
		if err != nil {
			s.discardUploads(results)
			return nil, err
		}
		results = append(results, *result)
	}

	return results, nil
}

// discardUploads removes files stored earlier in a batch that failed part way.
func (s *ProductService) discardUploads(results []UploadResult) {
	for _, r := range results {
		if err := s.storage.DeleteFile(r.Key); err != nil {
			logrus.WithError(err).WithField("key", r.Key).Warn("Failed to remove orphaned upload")
		}
	}
}

func (s *ProductService) loadOwned(ctx context.Context, actor Actor, id uuid.UUID) (*models.Product, error) {
	product, err := s.store.Products().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !actor.Owns(product.OwnerID) {
		return nil, ErrForbidden
	}
	return product, nil
}
