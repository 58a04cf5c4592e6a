// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	SoftDelete
	OwnerID          uuid.UUID       `json:"supplierId" gorm:"type:uuid;not null;index"`
	Name             string          `json:"name" gorm:"size:255;not null"`
	Description      string          `json:"description" gorm:"type:text"`
	Category         string          `json:"category" gorm:"size:100;index"`
	Price            decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock            int             `json:"stock" gorm:"not null;default:0"`
	MinOrderQuantity int             `json:"minOrderQuantity" gorm:"not null;default:1"`
	Unit             string          `json:"unit" gorm:"size:20;default:'pcs'"`
	Images           StringList      `json:"images" gorm:"type:text"`
	Status           ProductStatus   `json:"status" gorm:"type:varchar(20);default:'active';index"`
	Version          int64           `json:"version" gorm:"not null;default:1"`

	// Relationships
	Owner *User `json:"supplier,omitempty" gorm:"foreignKey:OwnerID"`
}

func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// ProductSummary is the slice of a product shown next to cart lines.
type ProductSummary struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Unit     string          `json:"unit"`
	Image    string          `json:"image,omitempty"`
	Supplier uuid.UUID       `json:"supplierId"`
}

func (p *Product) Summary() ProductSummary {
	s := ProductSummary{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Unit:     p.Unit,
		Supplier: p.OwnerID,
	}
	if len(p.Images) > 0 {
		s.Image = p.Images[0]
	}
	return s
}
