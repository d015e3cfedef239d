package domain

import "github.com/shopspring/decimal"

type ProductType string

const (
	ProductTypeSimple   ProductType = "simple"
	ProductTypeVariable ProductType = "variable"
)

type StockStatus string

const (
	StockStatusInStock     StockStatus = "instock"
	StockStatusOutOfStock  StockStatus = "outofstock"
	StockStatusOnBackorder StockStatus = "onbackorder"
)

// Label is the shopper-facing text for a stock status.
func (s StockStatus) Label() string {
	switch s {
	case StockStatusInStock:
		return "In stock"
	case StockStatusOutOfStock:
		return "Out of stock"
	case StockStatusOnBackorder:
		return "On backorder"
	default:
		return string(s)
	}
}

type Image struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Attribute is a product-level attribute. Only attributes with Variation set
// take part in variation selection.
type Attribute struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Options   []string `json:"options"`
	Variation bool     `json:"variation"`
}

type Product struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Type             ProductType      `json:"type"`
	ShortDescription string           `json:"short_description"`
	Description      string           `json:"description"`
	Price            decimal.Decimal  `json:"price"`
	RegularPrice     *decimal.Decimal `json:"regular_price,omitempty"`
	SalePrice        *decimal.Decimal `json:"sale_price,omitempty"`
	OnSale           bool             `json:"on_sale"`
	StockStatus      StockStatus      `json:"stock_status"`
	StockQuantity    *int             `json:"stock_quantity,omitempty"`
	Attributes       []Attribute      `json:"attributes"`
	Images           []Image          `json:"images"`
	Categories       []CategoryRef    `json:"categories"`
}

func (p *Product) IsVariable() bool {
	return p.Type == ProductTypeVariable
}

// VariationAttributes returns the names of attributes that take part in
// variation selection, in declaration order.
func (p *Product) VariationAttributes() []string {
	var names []string
	for _, a := range p.Attributes {
		if a.Variation {
			names = append(names, a.Name)
		}
	}
	return names
}

// VariationAttribute constrains a variation to one option. An empty Option
// matches any selection.
type VariationAttribute struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Option string `json:"option"`
}

type Variation struct {
	ID            int64                `json:"id"`
	Price         decimal.Decimal      `json:"price"`
	RegularPrice  *decimal.Decimal     `json:"regular_price,omitempty"`
	SalePrice     *decimal.Decimal     `json:"sale_price,omitempty"`
	OnSale        bool                 `json:"on_sale"`
	StockStatus   StockStatus          `json:"stock_status"`
	StockQuantity *int                 `json:"stock_quantity,omitempty"`
	Attributes    []VariationAttribute `json:"attributes"`
	Image         *Image               `json:"image,omitempty"`
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Count       int    `json:"count"`
	Parent      int64  `json:"parent"`
	Image       *Image `json:"image,omitempty"`
}

// AttributeSelection maps an attribute name to the option the shopper chose.
type AttributeSelection map[string]string

// With returns a copy of the selection with name set to option. An empty
// option clears the entry.
func (s AttributeSelection) With(name, option string) AttributeSelection {
	out := make(AttributeSelection, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	if option == "" {
		delete(out, name)
	} else {
		out[name] = option
	}
	return out
}

func (s AttributeSelection) Clone() AttributeSelection {
	if s == nil {
		return nil
	}
	out := make(AttributeSelection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
