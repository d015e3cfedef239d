package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, req service.AddRequest) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string) (*domain.Cart, error)
	SetDrawer(ctx context.Context, sessionID string, open bool) (*domain.Cart, error)
}

type CartHandler struct {
	service CartService
	timeout time.Duration
}

func NewCartHandler(service CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{service: service, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID int64                     `json:"product_id"`
	Selection domain.AttributeSelection `json:"selection"`
	Quantity  int                       `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type DrawerRequestDTO struct {
	Open bool `json:"open"`
}

type LineItemDTO struct {
	domain.LineItem
	LineTotal decimal.Decimal `json:"line_total"`
	Complete  bool            `json:"complete"`
}

type CartDTO struct {
	Items     []LineItemDTO   `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
	IsOpen    bool            `json:"is_open"`
}

func toCartDTO(c *domain.Cart) CartDTO {
	dto := CartDTO{
		Items:     make([]LineItemDTO, 0, len(c.Items)),
		Subtotal:  cart.Subtotal(c),
		ItemCount: cart.ItemCount(c),
		IsOpen:    c.IsOpen,
	}
	for _, it := range c.Items {
		dto.Items = append(dto.Items, LineItemDTO{LineItem: it, LineTotal: it.LineTotal(), Complete: it.Complete()})
	}
	return dto
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, func(ctx context.Context, sessionID string) (*domain.Cart, error) {
		return h.service.GetCart(ctx, sessionID)
	})
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	h.run(w, r, http.StatusCreated, func(ctx context.Context, sessionID string) (*domain.Cart, error) {
		return h.service.AddItem(ctx, sessionID, service.AddRequest{
			ProductID: req.ProductID,
			Selection: req.Selection,
			Quantity:  req.Quantity,
		})
	})
}

// PUT /api/v1/cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	itemID := chi.URLParam(r, "id")

	h.run(w, r, http.StatusOK, func(ctx context.Context, sessionID string) (*domain.Cart, error) {
		return h.service.UpdateQuantity(ctx, sessionID, itemID, req.Quantity)
	})
}

// DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")
	h.run(w, r, http.StatusOK, func(ctx context.Context, sessionID string) (*domain.Cart, error) {
		return h.service.RemoveItem(ctx, sessionID, itemID)
	})
}

// DELETE /api/v1/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, func(ctx context.Context, sessionID string) (*domain.Cart, error) {
		return h.service.Clear(ctx, sessionID)
	})
}

// PUT /api/v1/cart/drawer
func (h *CartHandler) SetDrawer(w http.ResponseWriter, r *http.Request) {
	var req DrawerRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	h.run(w, r, http.StatusOK, func(ctx context.Context, sessionID string) (*domain.Cart, error) {
		return h.service.SetDrawer(ctx, sessionID, req.Open)
	})
}

func (h *CartHandler) run(w http.ResponseWriter, r *http.Request, status int, op func(context.Context, string) (*domain.Cart, error)) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "no_session", "missing shopper session")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := op(ctx, sessionID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, status, toCartDTO(c))
}
