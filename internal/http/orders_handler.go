package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_storefront/internal/commerce"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type OrderReader interface {
	CurrentCustomer(ctx context.Context, token string) (int64, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, customerID int64) ([]domain.Order, error)
}

// ReceiptLookup lets guests view orders they placed from this session.
type ReceiptLookup interface {
	HasOrder(ctx context.Context, sessionID string, orderID int64) (bool, error)
	ReceiptsForSession(ctx context.Context, sessionID string) ([]domain.Receipt, error)
}

type OrdersHandler struct {
	orders   OrderReader
	receipts ReceiptLookup
	timeout  time.Duration
}

// NewOrdersHandler wires order lookups. receipts may be nil, in which case
// guests cannot view confirmations.
func NewOrdersHandler(orders OrderReader, receipts ReceiptLookup, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: orders, receipts: receipts, timeout: timeout}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID, err := h.orders.CurrentCustomer(ctx, getToken(r.Context()))
	if err != nil {
		if errors.Is(err, commerce.ErrUnauthorized) {
			respondError(w, http.StatusUnauthorized, "unauthorized", "Please log in to view your orders")
			return
		}
		handleError(w, r, err)
		return
	}

	orders, err := h.orders.ListOrders(ctx, customerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/orders/{id}
//
// The order is shown to the customer it belongs to, or to the session that
// placed it.
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a positive integer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var customerID int64
	if token := getToken(r.Context()); token != "" {
		customerID, err = h.orders.CurrentCustomer(ctx, token)
		if err != nil && !errors.Is(err, commerce.ErrUnauthorized) {
			handleError(w, r, err)
			return
		}
	}

	placedHere, err := h.placedBySession(ctx, getSessionID(r.Context()), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if customerID == 0 && !placedHere {
		respondError(w, http.StatusNotFound, "not_found", "Order not found")
		return
	}

	order, err := h.orders.GetOrder(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !placedHere && order.CustomerID != customerID {
		respondError(w, http.StatusNotFound, "not_found", "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// GET /api/v1/receipts
func (h *OrdersHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	if h.receipts == nil {
		respondJSON(w, http.StatusOK, []domain.Receipt{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	receipts, err := h.receipts.ReceiptsForSession(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if receipts == nil {
		receipts = []domain.Receipt{}
	}
	respondJSON(w, http.StatusOK, receipts)
}

func (h *OrdersHandler) placedBySession(ctx context.Context, sessionID string, orderID int64) (bool, error) {
	if h.receipts == nil || sessionID == "" {
		return false, nil
	}
	return h.receipts.HasOrder(ctx, sessionID, orderID)
}
