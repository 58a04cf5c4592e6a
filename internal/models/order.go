// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	BaseModel
	OrderNumber     string          `json:"orderNumber" gorm:"uniqueIndex;size:32;not null"`
	UserID          uuid.UUID       `json:"userId" gorm:"type:uuid;not null;index"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount     decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2);not null"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ShippingAddress ShippingAddress `json:"shippingAddress" gorm:"serializer:json;type:text"`
	Payment         Payment         `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`
	Notes           string          `json:"notes,omitempty" gorm:"type:text"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
}

// OrderItem captures the product, supplier and unit price at checkout time.
type OrderItem struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `json:"orderId" gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `json:"productId" gorm:"type:uuid;not null;index"`
	SupplierID  uuid.UUID       `json:"supplierId" gorm:"type:uuid;not null;index"`
	ProductName string          `json:"productName" gorm:"size:255;not null"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Subtotal    decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	Position    int             `json:"-" gorm:"not null;default:0"`
}

type ShippingAddress struct {
	Street      string `json:"street" validate:"required,max=255"`
	City        string `json:"city" validate:"required,max=100"`
	State       string `json:"state,omitempty" validate:"max=100"`
	PostalCode  string `json:"postalCode" validate:"required,max=20"`
	Country     string `json:"country" validate:"required,max=100"`
	ContactName string `json:"contactName,omitempty" validate:"max=100"`
	Phone       string `json:"phone,omitempty" validate:"max=50"`
}

type Payment struct {
	Method    PaymentMethod `json:"method" gorm:"type:varchar(30)"`
	Status    PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	Reference string        `json:"reference,omitempty" gorm:"size:100"`
}

// HasSupplier reports whether any line of the order belongs to supplierID.
func (o *Order) HasSupplier(supplierID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.SupplierID == supplierID {
			return true
		}
	}
	return false
}

// SupplierIDs returns the distinct suppliers in item order.
func (o *Order) SupplierIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, item := range o.Items {
		if !seen[item.SupplierID] {
			seen[item.SupplierID] = true
			ids = append(ids, item.SupplierID)
		}
	}
	return ids
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
