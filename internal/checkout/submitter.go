// Package checkout turns a checkout draft and a cart into a placed order.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/domain"
)

// CartStore reads carts from the store of record, not a cache.
type CartStore interface {
	LoadCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	RemoveOrdered(ctx context.Context, sessionID string, ordered []domain.LineItem) (*domain.Cart, error)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, token string, req domain.OrderRequest) (*domain.Confirmation, error)
}

type ReceiptRecorder interface {
	RecordOrder(ctx context.Context, receipt domain.Receipt) error
}

type Submitter struct {
	carts     CartStore
	orders    OrderCreator
	receipts  ReceiptRecorder
	guard     SubmitGuard
	validator *Validator
	now       func() time.Time
}

// NewSubmitter wires the checkout flow. receipts may be nil, in which case
// placed orders are not recorded locally.
func NewSubmitter(carts CartStore, orders OrderCreator, receipts ReceiptRecorder, guard SubmitGuard) *Submitter {
	return &Submitter{
		carts:     carts,
		orders:    orders,
		receipts:  receipts,
		guard:     guard,
		validator: NewValidator(),
		now:       time.Now,
	}
}

// Submit places the session's cart as an order. On failure the cart is left
// as it was so the shopper can resubmit.
func (s *Submitter) Submit(ctx context.Context, sessionID, token string, draft domain.CheckoutDraft) (*domain.Confirmation, error) {
	c, err := s.carts.LoadCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if names := incompleteItems(c); len(names) > 0 {
		return nil, &IncompleteSelectionError{Items: names}
	}
	if err := s.validator.Validate(draft); err != nil {
		return nil, err
	}

	acquired, err := s.guard.Acquire(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire submit guard: %w", err)
	}
	if !acquired {
		return nil, ErrSubmissionInProgress
	}
	defer func() {
		// The request context may already be done; release regardless.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.guard.Release(releaseCtx, sessionID); err != nil {
			slog.ErrorContext(ctx, "submit guard release failed", "session_id", sessionID, "error", err)
		}
	}()

	req := Assemble(draft, c)
	slog.InfoContext(ctx, "submitting order",
		"session_id", sessionID,
		"line_items", len(req.LineItems),
		"payment_method", req.PaymentMethod,
		"guest", token == "")

	conf, err := s.orders.CreateOrder(ctx, token, req)
	if err != nil {
		slog.WarnContext(ctx, "order submission failed", "session_id", sessionID, "error", err)
		return nil, err
	}

	if _, err := s.carts.RemoveOrdered(ctx, sessionID, c.Items); err != nil {
		slog.ErrorContext(ctx, "failed to remove ordered items from cart", "session_id", sessionID, "order_id", conf.OrderID, "error", err)
	}

	if s.receipts != nil {
		receipt := domain.Receipt{
			SessionID:     sessionID,
			OrderID:       conf.OrderID,
			OrderNumber:   conf.Number,
			PaymentMethod: req.PaymentMethod,
			Items:         req.LineItems,
			CreatedAt:     s.now(),
		}
		if err := s.receipts.RecordOrder(ctx, receipt); err != nil {
			slog.ErrorContext(ctx, "failed to record receipt", "order_id", conf.OrderID, "error", err)
		}
	}

	slog.InfoContext(ctx, "order placed", "session_id", sessionID, "order_id", conf.OrderID, "number", conf.Number)
	return conf, nil
}

func incompleteItems(c *domain.Cart) []string {
	var names []string
	for _, item := range cart.New(c).Incomplete() {
		names = append(names, item.Name)
	}
	return names
}
