package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/commerce"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/variant"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ProductCatalog interface {
	ListProducts(ctx context.Context, q commerce.ProductQuery) (*commerce.ProductPage, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListVariations(ctx context.Context, productID int64) ([]domain.Variation, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
}

type ProductHandler struct {
	catalog ProductCatalog
	timeout time.Duration
}

func NewProductHandler(catalog ProductCatalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{catalog: catalog, timeout: timeout}
}

type ProductDetailDTO struct {
	Product      domain.Product             `json:"product"`
	Variations   []domain.Variation         `json:"variations"`
	Availability map[string]map[string]bool `json:"availability,omitempty"`
}

type ResolveRequestDTO struct {
	Selection domain.AttributeSelection `json:"selection"`
}

type ResolveResponseDTO struct {
	Variation     *domain.Variation          `json:"variation"`
	AllSelected   bool                       `json:"all_selected"`
	Missing       []string                   `json:"missing"`
	Price         decimal.Decimal            `json:"price"`
	RegularPrice  *decimal.Decimal           `json:"regular_price,omitempty"`
	SalePrice     *decimal.Decimal           `json:"sale_price,omitempty"`
	OnSale        bool                       `json:"on_sale"`
	StockStatus   domain.StockStatus         `json:"stock_status"`
	StockLabel    string                     `json:"stock_label"`
	StockQuantity *int                       `json:"stock_quantity,omitempty"`
	Image         string                     `json:"image,omitempty"`
	Availability  map[string]map[string]bool `json:"availability"`
}

// GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q, msg := parseProductQuery(r)
	if msg != "" {
		respondError(w, http.StatusBadRequest, "invalid_query", msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := h.catalog.ListProducts(ctx, q)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GET /api/v1/products/{slug}
func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, variations, err := h.load(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	dto := ProductDetailDTO{Product: *p, Variations: variations}
	if p.IsVariable() {
		dto.Availability = variant.Availability(p.Attributes, variations)
	}
	respondJSON(w, http.StatusOK, dto)
}

// POST /api/v1/products/{slug}/resolve
func (h *ProductHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, variations, err := h.load(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	v, _ := variant.Resolve(p.Attributes, variations, req.Selection)
	offer := variant.Effective(p, v)
	missing := variant.Missing(p.Attributes, req.Selection)
	if missing == nil {
		missing = []string{}
	}

	respondJSON(w, http.StatusOK, ResolveResponseDTO{
		Variation:     v,
		AllSelected:   variant.AllSelected(p.Attributes, req.Selection),
		Missing:       missing,
		Price:         offer.Price,
		RegularPrice:  offer.RegularPrice,
		SalePrice:     offer.SalePrice,
		OnSale:        offer.OnSale,
		StockStatus:   offer.StockStatus,
		StockLabel:    offer.StockStatus.Label(),
		StockQuantity: offer.StockQuantity,
		Image:         offer.Image,
		Availability:  variant.Availability(p.Attributes, variations),
	})
}

// GET /api/v1/products/price-filters
func (h *ProductHandler) PriceFilters(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, catalog.PriceBuckets())
}

// GET /api/v1/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cats, err := h.catalog.ListCategories(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

// GET /api/v1/categories/{slug}
func (h *ProductHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.catalog.GetCategoryBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *ProductHandler) load(ctx context.Context, slug string) (*domain.Product, []domain.Variation, error) {
	p, err := h.catalog.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	variations := []domain.Variation{}
	if p.IsVariable() {
		if variations, err = h.catalog.ListVariations(ctx, p.ID); err != nil {
			return nil, nil, err
		}
	}
	return p, variations, nil
}

func parseProductQuery(r *http.Request) (commerce.ProductQuery, string) {
	v := r.URL.Query()
	q := commerce.ProductQuery{Page: 1, PerPage: 12, Search: v.Get("search")}

	if s := v.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, "page must be a positive integer"
		}
		q.Page = n
	}
	if s := v.Get("per_page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			return q, "per_page must be between 1 and 100"
		}
		q.PerPage = n
	}
	if s := v.Get("category"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return q, "category must be a positive id"
		}
		q.Category = id
	}

	switch ob := commerce.ProductOrderBy(v.Get("orderby")); ob {
	case "":
	case commerce.OrderByDate, commerce.OrderByPrice, commerce.OrderByPopularity:
		q.OrderBy = ob
	default:
		return q, "orderby must be one of date, price, popularity"
	}
	switch o := v.Get("order"); o {
	case "", "asc", "desc":
		q.Order = o
	default:
		return q, "order must be asc or desc"
	}

	if label := v.Get("price_filter"); label != "" {
		b, ok := catalog.Bucket(label)
		if !ok {
			return q, "unknown price_filter"
		}
		q.MinPrice, q.MaxPrice = &b.Min, b.Max
	}
	for _, p := range []struct {
		name string
		dst  **decimal.Decimal
	}{{"min_price", &q.MinPrice}, {"max_price", &q.MaxPrice}} {
		s := v.Get(p.name)
		if s == "" {
			continue
		}
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return q, p.name + " must be a non-negative amount"
		}
		*p.dst = &d
	}
	return q, ""
}
