package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
	IsOpen    bool       `json:"is_open"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LineItem is one cart entry. UnitPrice is frozen when the item is added.
type LineItem struct {
	ID                 string             `json:"id"`
	ProductID          int64              `json:"product_id"`
	VariationID        int64              `json:"variation_id,omitempty"`
	Name               string             `json:"name"`
	Slug               string             `json:"slug"`
	UnitPrice          decimal.Decimal    `json:"unit_price"`
	RegularPrice       *decimal.Decimal   `json:"regular_price,omitempty"`
	Quantity           int                `json:"quantity"`
	MaxQuantity        int                `json:"max_quantity,omitempty"`
	Attributes         AttributeSelection `json:"attributes,omitempty"`
	RequiredAttributes []string           `json:"required_attributes,omitempty"`
	Image              string             `json:"image,omitempty"`
	AddedAt            time.Time          `json:"added_at"`
}

// LineTotal is UnitPrice × Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Complete reports whether the attribute snapshot covers every attribute the
// product required when the item was added.
func (li LineItem) Complete() bool {
	for _, name := range li.RequiredAttributes {
		if li.Attributes[name] == "" {
			return false
		}
	}
	return true
}

// LineItemSpec describes an item to add to the cart.
type LineItemSpec struct {
	ProductID          int64
	VariationID        int64
	Name               string
	Slug               string
	UnitPrice          decimal.Decimal
	RegularPrice       *decimal.Decimal
	Quantity           int
	MaxQuantity        int
	Attributes         AttributeSelection
	RequiredAttributes []string
	Image              string
}
