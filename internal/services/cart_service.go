// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type CartService struct {
	store repository.Store
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

func NewCartService(store repository.Store) *CartService {
	return &CartService{store: store}
}

// GetCart prices every line at the current product price. Lines whose
// product is gone or inactive are reported unavailable and left out of the
// totals.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.CartView, error) {
	lines, err := s.store.Carts().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	view := &models.CartView{
		Items: make([]models.CartItemView, 0, len(lines)),
		Total: decimal.Zero,
	}
	for _, line := range lines {
		item := models.CartItemView{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			AddedAt:   line.AddedAt,
			UnitPrice: decimal.Zero,
			LineTotal: decimal.Zero,
		}

		product, err := s.store.Products().Get(ctx, line.ProductID)
		switch {
		case err == nil:
			summary := product.Summary()
			item.Product = &summary
			item.UnitPrice = product.Price
			item.LineTotal = product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			item.Available = product.IsActive()
		case errors.Is(err, repository.ErrNotFound):
			item.Available = false
		default:
			return nil, fmt.Errorf("failed to load product %s: %w", line.ProductID, err)
		}

		if item.Available {
			view.TotalItems += line.Quantity
			view.Total = view.Total.Add(item.LineTotal)
		}
		view.Items = append(view.Items, item)
	}

	return view, nil
}

// AddItem merges into an existing line for the same product. The merged
// quantity must be at least the product's minimum order quantity and may not
// exceed its stock.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req *AddToCartRequest) (*models.CartView, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		product, err := availableProduct(ctx, tx, req.ProductID)
		if err != nil {
			return err
		}

		line, err := tx.Carts().GetLine(ctx, userID, req.ProductID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to load cart line: %w", err)
		}

		quantity := req.Quantity
		if line != nil {
			quantity += line.Quantity
		}
		if err := checkMinimum(product, quantity); err != nil {
			return err
		}
		if quantity > product.Stock {
			return &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   quantity,
				Available:   product.Stock,
			}
		}

		if line != nil {
			_, err = tx.Carts().Update(ctx, line.ID, repository.CartLinePatch{Quantity: &quantity})
		} else {
			err = tx.Carts().Create(ctx, &models.CartLine{
				UserID:    userID,
				ProductID: req.ProductID,
				Quantity:  quantity,
			})
		}
		if err != nil {
			return fmt.Errorf("failed to save cart line: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(ctx, userID)
}

func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, req *UpdateCartItemRequest) (*models.CartView, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		line, err := tx.Carts().GetLine(ctx, userID, productID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCartLineNotFound
			}
			return fmt.Errorf("failed to load cart line: %w", err)
		}

		product, err := availableProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		if err := checkMinimum(product, req.Quantity); err != nil {
			return err
		}
		if req.Quantity > product.Stock {
			return &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   req.Quantity,
				Available:   product.Stock,
			}
		}

		quantity := req.Quantity
		if _, err := tx.Carts().Update(ctx, line.ID, repository.CartLinePatch{Quantity: &quantity}); err != nil {
			return fmt.Errorf("failed to update cart line: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartView, error) {
	if err := s.store.Carts().DeleteLine(ctx, userID, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartLineNotFound
		}
		return nil, fmt.Errorf("failed to remove cart line: %w", err)
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.store.Carts().DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func availableProduct(ctx context.Context, store repository.Store, id uuid.UUID) (*models.Product, error) {
	product, err := store.Products().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.IsActive() {
		return nil, ErrProductUnavailable
	}
	return product, nil
}
