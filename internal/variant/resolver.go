// Package variant matches a shopper's attribute selection against the
// concrete variations of a variable product.
package variant

import (
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// Resolve returns the first variation, in list order, whose every attribute
// constraint is either a wildcard or equal to the selected option. The
// selection must also cover every variation-participating attribute.
// Well-formed catalogs have at most one match; when several match, the first
// one wins.
func Resolve(attributes []domain.Attribute, variations []domain.Variation, selection domain.AttributeSelection) (*domain.Variation, bool) {
	if !AllSelected(attributes, selection) {
		return nil, false
	}
	for i := range variations {
		if matches(variations[i], selection) {
			return &variations[i], true
		}
	}
	return nil, false
}

func matches(v domain.Variation, selection domain.AttributeSelection) bool {
	for _, a := range v.Attributes {
		if a.Option == "" {
			continue
		}
		if selection[a.Name] != a.Option {
			return false
		}
	}
	return true
}

// AllSelected reports whether every attribute flagged for variation has a
// non-empty selection.
func AllSelected(attributes []domain.Attribute, selection domain.AttributeSelection) bool {
	for _, a := range attributes {
		if a.Variation && selection[a.Name] == "" {
			return false
		}
	}
	return true
}

// Missing lists the variation attributes without a selection, in declaration
// order.
func Missing(attributes []domain.Attribute, selection domain.AttributeSelection) []string {
	var out []string
	for _, a := range attributes {
		if a.Variation && selection[a.Name] == "" {
			out = append(out, a.Name)
		}
	}
	return out
}

// OptionAvailable reports whether some in-stock variation accepts option for
// the named attribute.
func OptionAvailable(name, option string, variations []domain.Variation) bool {
	for _, v := range variations {
		if v.StockStatus != domain.StockStatusInStock {
			continue
		}
		constraint := ""
		for _, a := range v.Attributes {
			if a.Name == name {
				constraint = a.Option
				break
			}
		}
		if constraint == "" || constraint == option {
			return true
		}
	}
	return false
}

// Availability maps each variation attribute to its options and whether each
// one can currently be bought.
func Availability(attributes []domain.Attribute, variations []domain.Variation) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for _, a := range attributes {
		if !a.Variation {
			continue
		}
		opts := make(map[string]bool, len(a.Options))
		for _, o := range a.Options {
			opts[o] = OptionAvailable(a.Name, o, variations)
		}
		out[a.Name] = opts
	}
	return out
}

// Offer is the purchasable view of a product with an optional variation
// applied on top.
type Offer struct {
	Price         decimal.Decimal
	RegularPrice  *decimal.Decimal
	SalePrice     *decimal.Decimal
	OnSale        bool
	StockStatus   domain.StockStatus
	StockQuantity *int
	Image         string
}

// Effective overlays v on p field by field. Zero-valued variation fields fall
// back to the product.
func Effective(p *domain.Product, v *domain.Variation) Offer {
	o := Offer{
		Price:         p.Price,
		RegularPrice:  p.RegularPrice,
		SalePrice:     p.SalePrice,
		OnSale:        p.OnSale,
		StockStatus:   p.StockStatus,
		StockQuantity: p.StockQuantity,
	}
	if len(p.Images) > 0 {
		o.Image = p.Images[0].Src
	}
	if v == nil {
		return o
	}
	if !v.Price.IsZero() {
		o.Price = v.Price
	}
	if v.RegularPrice != nil {
		o.RegularPrice = v.RegularPrice
	}
	if v.SalePrice != nil {
		o.SalePrice = v.SalePrice
	}
	o.OnSale = v.OnSale
	if v.StockStatus != "" {
		o.StockStatus = v.StockStatus
	}
	if v.StockQuantity != nil {
		o.StockQuantity = v.StockQuantity
	}
	if v.Image != nil && v.Image.Src != "" {
		o.Image = v.Image.Src
	}
	return o
}
