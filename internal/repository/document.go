package repository

import (
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// BSON has no decimal type the driver maps to decimal.Decimal, so money is
// stored as its string form.

type cartDocument struct {
	SessionID string             `bson:"session_id"`
	Items     []lineItemDocument `bson:"items"`
	IsOpen    bool               `bson:"is_open"`
	Version   int64              `bson:"version"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type lineItemDocument struct {
	ID                 string            `bson:"id"`
	ProductID          int64             `bson:"product_id"`
	VariationID        int64             `bson:"variation_id"`
	Name               string            `bson:"name"`
	Slug               string            `bson:"slug"`
	UnitPrice          string            `bson:"unit_price"`
	RegularPrice       string            `bson:"regular_price,omitempty"`
	Quantity           int               `bson:"quantity"`
	MaxQuantity        int               `bson:"max_quantity"`
	Attributes         map[string]string `bson:"attributes,omitempty"`
	RequiredAttributes []string          `bson:"required_attributes,omitempty"`
	Image              string            `bson:"image,omitempty"`
	AddedAt            time.Time         `bson:"added_at"`
}

func toDocument(c *domain.Cart) cartDocument {
	doc := cartDocument{
		SessionID: c.SessionID,
		Items:     make([]lineItemDocument, 0, len(c.Items)),
		IsOpen:    c.IsOpen,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, it := range c.Items {
		d := lineItemDocument{
			ID:                 it.ID,
			ProductID:          it.ProductID,
			VariationID:        it.VariationID,
			Name:               it.Name,
			Slug:               it.Slug,
			UnitPrice:          it.UnitPrice.String(),
			Quantity:           it.Quantity,
			MaxQuantity:        it.MaxQuantity,
			Attributes:         it.Attributes,
			RequiredAttributes: it.RequiredAttributes,
			Image:              it.Image,
			AddedAt:            it.AddedAt,
		}
		if it.RegularPrice != nil {
			d.RegularPrice = it.RegularPrice.String()
		}
		doc.Items = append(doc.Items, d)
	}
	return doc
}

func (d *cartDocument) toDomain() (*domain.Cart, error) {
	c := &domain.Cart{
		SessionID: d.SessionID,
		Items:     make([]domain.LineItem, 0, len(d.Items)),
		IsOpen:    d.IsOpen,
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, it := range d.Items {
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil {
			return nil, err
		}
		li := domain.LineItem{
			ID:                 it.ID,
			ProductID:          it.ProductID,
			VariationID:        it.VariationID,
			Name:               it.Name,
			Slug:               it.Slug,
			UnitPrice:          price,
			Quantity:           it.Quantity,
			MaxQuantity:        it.MaxQuantity,
			Attributes:         it.Attributes,
			RequiredAttributes: it.RequiredAttributes,
			Image:              it.Image,
			AddedAt:            it.AddedAt,
		}
		if it.RegularPrice != "" {
			regular, err := decimal.NewFromString(it.RegularPrice)
			if err != nil {
				return nil, err
			}
			li.RegularPrice = &regular
		}
		c.Items = append(c.Items, li)
	}
	return c, nil
}
