package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

type Submitter interface {
	Submit(ctx context.Context, sessionID, token string, draft domain.CheckoutDraft) (*domain.Confirmation, error)
}

type CheckoutHandler struct {
	submitter Submitter
	timeout   time.Duration
}

func NewCheckoutHandler(submitter Submitter, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{submitter: submitter, timeout: timeout}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "no_session", "missing shopper session")
		return
	}

	var draft domain.CheckoutDraft
	if err := decodeJSON(r, &draft); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	conf, err := h.submitter.Submit(ctx, sessionID, getToken(r.Context()), draft)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, conf)
}

// GET /api/v1/checkout/payment-methods
func (h *CheckoutHandler) PaymentMethods(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, domain.PaymentMethods)
}
