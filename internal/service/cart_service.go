package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/repository"
	"github.com/fjod/go_storefront/internal/variant"
	"golang.org/x/sync/singleflight"
)

var (
	ErrOutOfStock          = errors.New("product is out of stock")
	ErrIncompleteSelection = errors.New("please select all options")
	ErrVariationNotFound   = errors.New("selected combination is not available")
)

const maxSaveAttempts = 3

// Catalog is the product lookup the cart needs to price new lines.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListVariations(ctx context.Context, productID int64) ([]domain.Variation, error)
}

type AddRequest struct {
	ProductID int64                     `json:"product_id"`
	Selection domain.AttributeSelection `json:"selection"`
	Quantity  int                       `json:"quantity"`
}

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog Catalog
	sfg     singleflight.Group
	now     func() time.Time
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, catalog Catalog) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
		now:     time.Now,
	}
}

// GetCart returns the session's cart, or a new empty one.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (any, error) {
		c, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.WarnContext(ctx, "cache get error", "session_id", sessionID, "error", err)
		}

		c, err = s.repo.GetCart(ctx, sessionID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return s.emptyCart(sessionID), nil
		}
		if err != nil {
			return nil, err
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(setCtx, sessionID, c); err != nil {
				slog.Warn("cache set error", "session_id", sessionID, "error", err)
			}
		}()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// LoadCart reads the session's cart from the store, bypassing the cache.
func (s *CartService) LoadCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	c, err := s.repo.GetCart(ctx, sessionID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return s.emptyCart(sessionID), nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem prices the product (and variation, when it has one) from the
// catalog and adds it to the cart at that price.
func (s *CartService) AddItem(ctx context.Context, sessionID string, req AddRequest) (*domain.Cart, error) {
	p, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", req.ProductID, err)
	}

	var v *domain.Variation
	var selection domain.AttributeSelection
	if p.IsVariable() {
		if missing := variant.Missing(p.Attributes, req.Selection); len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrIncompleteSelection, strings.Join(missing, ", "))
		}
		variations, err := s.catalog.ListVariations(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load variations for %d: %w", p.ID, err)
		}
		var ok bool
		if v, ok = variant.Resolve(p.Attributes, variations, req.Selection); !ok {
			return nil, ErrVariationNotFound
		}
		selection = variationSelection(p, req.Selection)
	}

	offer := variant.Effective(p, v)
	if offer.StockStatus != domain.StockStatusInStock {
		return nil, ErrOutOfStock
	}

	spec := domain.LineItemSpec{
		ProductID:          p.ID,
		Name:               p.Name,
		Slug:               p.Slug,
		UnitPrice:          offer.Price,
		RegularPrice:       offer.RegularPrice,
		Quantity:           req.Quantity,
		Attributes:         selection,
		RequiredAttributes: p.VariationAttributes(),
		Image:              offer.Image,
	}
	if v != nil {
		spec.VariationID = v.ID
	}
	if offer.StockQuantity != nil && *offer.StockQuantity > 0 {
		spec.MaxQuantity = *offer.StockQuantity
	}

	return s.mutate(ctx, sessionID, func(l *cart.Ledger) { l.AddItem(spec) })
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(l *cart.Ledger) { l.UpdateQuantity(itemID, quantity) })
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(l *cart.Ledger) { l.RemoveItem(itemID) })
}

func (s *CartService) Clear(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(l *cart.Ledger) { l.Clear() })
}

// RemoveOrdered deducts lines that were placed as an order.
func (s *CartService) RemoveOrdered(ctx context.Context, sessionID string, ordered []domain.LineItem) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(l *cart.Ledger) { l.Deduct(ordered) })
}

func (s *CartService) SetDrawer(ctx context.Context, sessionID string, open bool) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(l *cart.Ledger) {
		if open {
			l.Open()
		} else {
			l.Close()
		}
	})
}

// mutate applies op to the stored cart and saves it, reloading and
// reapplying when another request saved first.
func (s *CartService) mutate(ctx context.Context, sessionID string, op func(*cart.Ledger)) (*domain.Cart, error) {
	for attempt := 1; ; attempt++ {
		c, err := s.repo.GetCart(ctx, sessionID)
		if errors.Is(err, repository.ErrCartNotFound) {
			c = s.emptyCart(sessionID)
		} else if err != nil {
			return nil, err
		}

		op(cart.New(c, cart.WithClock(s.now)))

		err = s.repo.SaveCart(ctx, c)
		if err == nil {
			s.refreshCache(c)
			return c, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) || attempt == maxSaveAttempts {
			slog.ErrorContext(ctx, "repo save cart error", "session_id", sessionID, "attempt", attempt, "error", err)
			return nil, err
		}
		slog.DebugContext(ctx, "cart version conflict, retrying", "session_id", sessionID, "attempt", attempt)
	}
}

func (s *CartService) emptyCart(sessionID string) *domain.Cart {
	now := s.now()
	return &domain.Cart{SessionID: sessionID, CreatedAt: now, UpdatedAt: now}
}

// refreshCache writes the saved cart through. The cache drops it if a newer
// version is already there; on error the snapshot is removed instead.
func (s *CartService) refreshCache(c *domain.Cart) {
	s.sfg.Forget(c.SessionID)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, c.SessionID, c); err != nil {
		slog.Warn("cache refresh error", "session_id", c.SessionID, "error", err)
		if err := s.cache.Delete(ctx, c.SessionID); err != nil {
			slog.Warn("cache invalidate error", "session_id", c.SessionID, "error", err)
		}
	}
}

// variationSelection keeps only the attributes that pick a variation.
func variationSelection(p *domain.Product, sel domain.AttributeSelection) domain.AttributeSelection {
	out := domain.AttributeSelection{}
	for _, name := range p.VariationAttributes() {
		if opt := sel[name]; opt != "" {
			out[name] = opt
		}
	}
	return out
}
