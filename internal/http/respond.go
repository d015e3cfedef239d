package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/commerce"
	"github.com/fjod/go_storefront/internal/service"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

const genericFailure = "Something went wrong"

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleError maps domain and upstream failures onto HTTP responses.
// Commerce rejections keep their message so the shopper sees the reason.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verrs      checkout.ValidationErrors
		incomplete *checkout.IncompleteSelectionError
		apiErr     *commerce.APIError
	)

	switch {
	case errors.As(err, &verrs):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "Please correct the highlighted fields",
			Code:   "validation_failed",
			Fields: verrs,
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "Your cart is empty")
	case errors.As(err, &incomplete):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Some items are missing required options",
			Code:    "incomplete_selection",
			Details: strings.Join(incomplete.Items, ", "),
		})
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		respondError(w, http.StatusConflict, "submission_in_progress", "Your order is already being placed")
	case errors.Is(err, service.ErrIncompleteSelection):
		respondError(w, http.StatusBadRequest, "incomplete_selection", err.Error())
	case errors.Is(err, service.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", err.Error())
	case errors.Is(err, service.ErrVariationNotFound):
		respondError(w, http.StatusConflict, "variation_unavailable", err.Error())
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		if status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		code := apiErr.Code
		if code == "" {
			code = "commerce_rejected"
		}
		respondError(w, status, code, apiErr.Message)
	case errors.Is(err, commerce.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized", "Please log in again")
	case errors.Is(err, commerce.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Not found")
	case errors.Is(err, commerce.ErrTransport):
		slog.ErrorContext(r.Context(), "commerce api unavailable", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusBadGateway, "upstream_unavailable", genericFailure)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", genericFailure)
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", genericFailure)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
