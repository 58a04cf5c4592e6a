// internal/models/cart.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLine is one product in a user's cart. A user has at most one line per
// product; lines are ordered by AddedAt.
type CartLine struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	AddedAt   time.Time `json:"addedAt" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CartView is a cart enriched with live product data and totals.
type CartView struct {
	Items      []CartItemView  `json:"items"`
	TotalItems int             `json:"totalItems"`
	Total      decimal.Decimal `json:"total"`
}

type CartItemView struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"addedAt"`
	Available bool            `json:"available"`
	Product   *ProductSummary `json:"product,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

func (l *CartLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.AddedAt.IsZero() {
		l.AddedAt = time.Now()
	}
	return nil
}
