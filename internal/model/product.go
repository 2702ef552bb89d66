package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sweet in the catalog. Quantity is the only field mutated
// concurrently and must never drop below zero; the check constraint backs up
// the conditional updates in the repository.
type Product struct {
	ID          uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Name        string          `json:"name" gorm:"size:255;not null;index"`
	Category    string          `json:"category" gorm:"size:100;not null;index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;check:chk_products_price,price >= 0"`
	Quantity    int             `json:"quantity" gorm:"not null;default:0;check:chk_products_quantity,quantity >= 0"`
	Description string          `json:"description,omitempty" gorm:"type:text"`
	ImageURL    string          `json:"imageUrl,omitempty" gorm:"size:512"`
	CreatedAt   time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
