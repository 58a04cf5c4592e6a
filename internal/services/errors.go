// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/javajoker/b2b-marketplace/internal/models"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountSuspended    = errors.New("account suspended")
	ErrInvalidResetToken   = errors.New("invalid reset token")
	ErrResetTokenExpired   = errors.New("reset token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrCurrentPassword     = errors.New("current password is incorrect")
	ErrForbidden           = errors.New("forbidden")

	ErrUserNotFound         = errors.New("user not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrCartLineNotFound     = errors.New("product is not in the cart")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product is not available")
	ErrStaleProduct       = errors.New("product was modified concurrently")
	ErrInvalidRecipient   = errors.New("invalid message recipient")
	ErrCartChanged        = errors.New("cart changed during checkout")
)

// ValidationError carries request validation failures out of a service.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// InsufficientStockError names the first cart line that cannot be served.
type InsufficientStockError struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// BelowMinimumError rejects a quantity under the product's minimum order.
type BelowMinimumError struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Requested   int       `json:"requested"`
	Minimum     int       `json:"minimum"`
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("quantity %d for product %s is below the minimum order of %d",
		e.Requested, e.ProductID, e.Minimum)
}

// checkMinimum returns a BelowMinimumError when quantity is under the
// product's minimum order quantity.
func checkMinimum(product *models.Product, quantity int) error {
	if quantity >= product.MinOrderQuantity {
		return nil
	}
	return &BelowMinimumError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   quantity,
		Minimum:     product.MinOrderQuantity,
	}
}

type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}
