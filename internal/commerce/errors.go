package commerce

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTransport covers failures to reach or understand the commerce API:
// network errors, an open circuit breaker and undecodable bodies.
var ErrTransport = errors.New("commerce api unavailable")

var ErrNotFound = errors.New("not found")

// ErrUnauthorized means the shopper's token did not identify a customer.
var ErrUnauthorized = errors.New("unauthorized")

const defaultAPIMessage = "request failed"

// APIError is a rejection returned by the commerce API. Message is the text
// the API supplied and is meant to be shown to the shopper unchanged.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
	} `json:"data"`
}

func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}
