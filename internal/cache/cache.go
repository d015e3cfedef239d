// Package cache holds short-lived cart snapshots in front of the cart store.
package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_storefront/internal/domain"
)

// ErrCacheMiss is returned by Get when no snapshot exists for the session.
var ErrCacheMiss = errors.New("cache miss")

// CartCache stores cart snapshots. Set never replaces a snapshot with an
// older cart version.
type CartCache interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Set(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}
