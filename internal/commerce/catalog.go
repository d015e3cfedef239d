package commerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type ProductOrderBy string

const (
	OrderByDate       ProductOrderBy = "date"
	OrderByPrice      ProductOrderBy = "price"
	OrderByPopularity ProductOrderBy = "popularity"
)

type ProductQuery struct {
	Page     int
	PerPage  int
	Category int64
	OrderBy  ProductOrderBy
	Order    string // asc or desc
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Category > 0 {
		v.Set("category", strconv.FormatInt(q.Category, 10))
	}
	if q.OrderBy != "" {
		v.Set("orderby", string(q.OrderBy))
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.MinPrice != nil {
		v.Set("min_price", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("max_price", q.MaxPrice.String())
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

type ProductPage struct {
	Products   []domain.Product `json:"products"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	var wire []wireProduct
	header, err := c.do(ctx, request{op: "list products", method: http.MethodGet, path: "/wp-json/wc/v3/products", query: q.values()}, &wire)
	if err != nil {
		return nil, err
	}

	page := &ProductPage{Products: make([]domain.Product, 0, len(wire))}
	for i := range wire {
		page.Products = append(page.Products, wire[i].toDomain())
	}
	page.Total, _ = strconv.Atoi(header.Get("X-WP-Total"))
	page.TotalPages, _ = strconv.Atoi(header.Get("X-WP-TotalPages"))
	return page, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var wire wireProduct
	path := fmt.Sprintf("/wp-json/wc/v3/products/%d", id)
	if _, err := c.do(ctx, request{op: "get product", method: http.MethodGet, path: path}, &wire); err != nil {
		return nil, err
	}
	p := wire.toDomain()
	return &p, nil
}

// GetProductBySlug returns ErrNotFound when no product carries the slug.
func (c *Client) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var wire []wireProduct
	q := url.Values{"slug": {slug}}
	if _, err := c.do(ctx, request{op: "get product by slug", method: http.MethodGet, path: "/wp-json/wc/v3/products", query: q}, &wire); err != nil {
		return nil, err
	}
	if len(wire) == 0 {
		return nil, fmt.Errorf("product %q: %w", slug, ErrNotFound)
	}
	p := wire[0].toDomain()
	return &p, nil
}

func (c *Client) ListVariations(ctx context.Context, productID int64) ([]domain.Variation, error) {
	var wire []wireVariation
	path := fmt.Sprintf("/wp-json/wc/v3/products/%d/variations", productID)
	q := url.Values{"per_page": {"100"}}
	if _, err := c.do(ctx, request{op: "list variations", method: http.MethodGet, path: path, query: q}, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Variation, 0, len(wire))
	for i := range wire {
		out = append(out, wire[i].toDomain())
	}
	return out, nil
}

func (c *Client) ListCategories(ctx context.Context, perPage int) ([]domain.Category, error) {
	if perPage <= 0 {
		perPage = 100
	}
	var wire []wireCategory
	q := url.Values{"per_page": {strconv.Itoa(perPage)}}
	if _, err := c.do(ctx, request{op: "list categories", method: http.MethodGet, path: "/wp-json/wc/v3/products/categories", query: q}, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(wire))
	for i := range wire {
		out = append(out, wire[i].toDomain())
	}
	return out, nil
}

func (c *Client) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var wire []wireCategory
	q := url.Values{"slug": {slug}}
	if _, err := c.do(ctx, request{op: "get category by slug", method: http.MethodGet, path: "/wp-json/wc/v3/products/categories", query: q}, &wire); err != nil {
		return nil, err
	}
	if len(wire) == 0 {
		return nil, fmt.Errorf("category %q: %w", slug, ErrNotFound)
	}
	cat := wire[0].toDomain()
	return &cat, nil
}
