package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductUpdate describes a partial product update. Nil fields are left
// untouched.
type ProductUpdate struct {
	Name        *string          `json:"name,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	Description *string          `json:"description,omitempty"`
	ImageURL    *string          `json:"imageUrl,omitempty"`
}

// Empty reports whether no field is set.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Category == nil && u.Price == nil &&
		u.Quantity == nil && u.Description == nil && u.ImageURL == nil
}

// Problems returns a message per invalid field. An empty map means the
// update can be applied.
func (u ProductUpdate) Problems() map[string]string {
	problems := map[string]string{}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		problems["name"] = "name must not be empty"
	}
	if u.Category != nil && strings.TrimSpace(*u.Category) == "" {
		problems["category"] = "category must not be empty"
	}
	if u.Price != nil && u.Price.IsNegative() {
		problems["price"] = "price must be a non-negative number"
	}
	if u.Quantity != nil && *u.Quantity < 0 {
		problems["quantity"] = "quantity must be a non-negative integer"
	}
	return problems
}

// Columns maps the set fields to column values for an UPDATE.
func (u ProductUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Name != nil {
		cols["name"] = strings.TrimSpace(*u.Name)
	}
	if u.Category != nil {
		cols["category"] = strings.TrimSpace(*u.Category)
	}
	if u.Price != nil {
		cols["price"] = *u.Price
	}
	if u.Quantity != nil {
		cols["quantity"] = *u.Quantity
	}
	if u.Description != nil {
		cols["description"] = strings.TrimSpace(*u.Description)
	}
	if u.ImageURL != nil {
		cols["image_url"] = strings.TrimSpace(*u.ImageURL)
	}
	return cols
}
