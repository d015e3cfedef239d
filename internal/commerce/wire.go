package commerce

import (
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// The API sends money as strings and uses "" for unset prices.

type wireImage struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type wireProduct struct {
	ID               int64                `json:"id"`
	Name             string               `json:"name"`
	Slug             string               `json:"slug"`
	Type             string               `json:"type"`
	ShortDescription string               `json:"short_description"`
	Description      string               `json:"description"`
	Price            string               `json:"price"`
	RegularPrice     string               `json:"regular_price"`
	SalePrice        string               `json:"sale_price"`
	OnSale           bool                 `json:"on_sale"`
	StockStatus      string               `json:"stock_status"`
	StockQuantity    *int                 `json:"stock_quantity"`
	Attributes       []domain.Attribute   `json:"attributes"`
	Images           []wireImage          `json:"images"`
	Categories       []domain.CategoryRef `json:"categories"`
}

type wireVariation struct {
	ID            int64                       `json:"id"`
	Price         string                      `json:"price"`
	RegularPrice  string                      `json:"regular_price"`
	SalePrice     string                      `json:"sale_price"`
	OnSale        bool                        `json:"on_sale"`
	StockStatus   string                      `json:"stock_status"`
	StockQuantity *int                        `json:"stock_quantity"`
	Attributes    []domain.VariationAttribute `json:"attributes"`
	Image         *wireImage                  `json:"image"`
}

type wireCategory struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Count       int        `json:"count"`
	Parent      int64      `json:"parent"`
	Image       *wireImage `json:"image"`
}

type wireOrderItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ProductID   int64  `json:"product_id"`
	VariationID int64  `json:"variation_id"`
	Quantity    int    `json:"quantity"`
	Total       string `json:"total"`
}

type wireOrder struct {
	ID                 int64           `json:"id"`
	Number             string          `json:"number"`
	CustomerID         int64           `json:"customer_id"`
	Status             string          `json:"status"`
	Currency           string          `json:"currency"`
	Total              string          `json:"total"`
	ShippingTotal      string          `json:"shipping_total"`
	LineItems          []wireOrderItem `json:"line_items"`
	Billing            domain.Address  `json:"billing"`
	Shipping           domain.Address  `json:"shipping"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentMethodTitle string          `json:"payment_method_title"`
	CustomerNote       string          `json:"customer_note"`
	DateCreatedGMT     string          `json:"date_created_gmt"`
}

const dateLayout = "2006-01-02T15:04:05"

func parseMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseOptionalMoney(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func (w wireImage) toDomain() domain.Image {
	return domain.Image{ID: w.ID, Src: w.Src, Alt: w.Alt}
}

func (w *wireProduct) toDomain() domain.Product {
	p := domain.Product{
		ID:               w.ID,
		Name:             w.Name,
		Slug:             w.Slug,
		Type:             domain.ProductType(w.Type),
		ShortDescription: w.ShortDescription,
		Description:      w.Description,
		Price:            parseMoney(w.Price),
		RegularPrice:     parseOptionalMoney(w.RegularPrice),
		SalePrice:        parseOptionalMoney(w.SalePrice),
		OnSale:           w.OnSale,
		StockStatus:      domain.StockStatus(w.StockStatus),
		StockQuantity:    w.StockQuantity,
		Attributes:       w.Attributes,
		Categories:       w.Categories,
	}
	for _, img := range w.Images {
		p.Images = append(p.Images, img.toDomain())
	}
	return p
}

func (w *wireVariation) toDomain() domain.Variation {
	v := domain.Variation{
		ID:            w.ID,
		Price:         parseMoney(w.Price),
		RegularPrice:  parseOptionalMoney(w.RegularPrice),
		SalePrice:     parseOptionalMoney(w.SalePrice),
		OnSale:        w.OnSale,
		StockStatus:   domain.StockStatus(w.StockStatus),
		StockQuantity: w.StockQuantity,
		Attributes:    w.Attributes,
	}
	// WooCommerce returns an image with id 0 when none is set.
	if w.Image != nil && w.Image.Src != "" {
		img := w.Image.toDomain()
		v.Image = &img
	}
	return v
}

func (w *wireCategory) toDomain() domain.Category {
	c := domain.Category{
		ID:          w.ID,
		Name:        w.Name,
		Slug:        w.Slug,
		Description: w.Description,
		Count:       w.Count,
		Parent:      w.Parent,
	}
	if w.Image != nil && w.Image.Src != "" {
		img := w.Image.toDomain()
		c.Image = &img
	}
	return c
}

func (w *wireOrder) toDomain() domain.Order {
	status := domain.OrderStatus(w.Status)
	o := domain.Order{
		ID:                 w.ID,
		Number:             w.Number,
		CustomerID:         w.CustomerID,
		Status:             status,
		StatusLabel:        status.Label(),
		Currency:           w.Currency,
		Total:              parseMoney(w.Total),
		ShippingTotal:      parseMoney(w.ShippingTotal),
		ItemsSubtotal:      decimal.Zero,
		Billing:            w.Billing,
		Shipping:           w.Shipping,
		PaymentMethod:      w.PaymentMethod,
		PaymentMethodTitle: w.PaymentMethodTitle,
		CustomerNote:       w.CustomerNote,
	}
	for _, it := range w.LineItems {
		total := parseMoney(it.Total)
		o.ItemsSubtotal = o.ItemsSubtotal.Add(total)
		o.LineItems = append(o.LineItems, domain.OrderItem{
			ID:          it.ID,
			Name:        it.Name,
			ProductID:   it.ProductID,
			VariationID: it.VariationID,
			Quantity:    it.Quantity,
			Total:       total,
		})
	}
	if t, err := time.ParseInLocation(dateLayout, w.DateCreatedGMT, time.UTC); err == nil {
		o.DateCreated = t
	}
	return o
}
