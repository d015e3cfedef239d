package commerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/go_storefront/internal/domain"
)

const createOrderFallback = "Failed to create order"

type orderRequestBody struct {
	domain.OrderRequest
	SetPaid bool `json:"set_paid"`
}

type wireUser struct {
	ID int64 `json:"id"`
}

// CurrentCustomer returns the customer id the token belongs to. The call is
// made with the token alone, so the store keys cannot vouch for it.
func (c *Client) CurrentCustomer(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrUnauthorized
	}
	var u wireUser
	_, err := c.do(ctx, request{
		op:         "current customer",
		method:     http.MethodGet,
		path:       "/wp-json/wp/v2/users/me",
		query:      url.Values{"context": {"edit"}},
		token:      token,
		asCustomer: true,
	}, &u)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return 0, fmt.Errorf("current customer: %w", ErrUnauthorized)
		}
		return 0, err
	}
	if u.ID <= 0 {
		return 0, fmt.Errorf("current customer: %w", ErrUnauthorized)
	}
	return u.ID, nil
}

// CreateOrder places an order. With a token the order is attached to the
// token's customer. Rejections come back as *APIError with the API's
// message, so the shopper sees why the order failed.
func (c *Client) CreateOrder(ctx context.Context, token string, req domain.OrderRequest) (*domain.Confirmation, error) {
	if token != "" {
		id, err := c.CurrentCustomer(ctx, token)
		if err != nil {
			return nil, err
		}
		req.CustomerID = id
	}

	var wire wireOrder
	_, err := c.do(ctx, request{
		op:     "create order",
		method: http.MethodPost,
		path:   "/wp-json/wc/v3/orders",
		body:   orderRequestBody{OrderRequest: req},
	}, &wire)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message == defaultAPIMessage {
			apiErr.Message = createOrderFallback
		}
		return nil, err
	}
	return &domain.Confirmation{OrderID: wire.ID, Number: wire.Number}, nil
}

// GetOrder reads an order with store scope. Callers decide whether the
// shopper may see it.
func (c *Client) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var wire wireOrder
	path := fmt.Sprintf("/wp-json/wc/v3/orders/%d", id)
	if _, err := c.do(ctx, request{op: "get order", method: http.MethodGet, path: path}, &wire); err != nil {
		return nil, err
	}
	o := wire.toDomain()
	return &o, nil
}

// ListOrders returns the most recent orders of one customer.
func (c *Client) ListOrders(ctx context.Context, customerID int64) ([]domain.Order, error) {
	if customerID <= 0 {
		return nil, fmt.Errorf("list orders: %w", ErrUnauthorized)
	}
	var wire []wireOrder
	q := url.Values{
		"customer": {strconv.FormatInt(customerID, 10)},
		"per_page": {"20"},
	}
	if _, err := c.do(ctx, request{op: "list orders", method: http.MethodGet, path: "/wp-json/wc/v3/orders", query: q}, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(wire))
	for i := range wire {
		out = append(out, wire[i].toDomain())
	}
	return out, nil
}
