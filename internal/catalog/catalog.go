// Package catalog is a read-through Redis cache in front of the commerce API
// for products, variations and categories.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/fjod/go_storefront/internal/commerce"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Source is the upstream the catalog reads through to.
type Source interface {
	ListProducts(ctx context.Context, q commerce.ProductQuery) (*commerce.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListVariations(ctx context.Context, productID int64) ([]domain.Variation, error)
	ListCategories(ctx context.Context, perPage int) ([]domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
}

const (
	defaultBaseTTL = 5 * time.Minute
	maxJitter      = time.Minute
)

type Catalog struct {
	source  Source
	redis   *redis.Client
	baseTTL time.Duration
	group   singleflight.Group
}

func New(source Source, client *redis.Client, baseTTL time.Duration) *Catalog {
	if baseTTL <= 0 {
		baseTTL = defaultBaseTTL
	}
	return &Catalog{source: source, redis: client, baseTTL: baseTTL}
}

// ListProducts is not cached; filter combinations make the hit rate poor.
func (c *Catalog) ListProducts(ctx context.Context, q commerce.ProductQuery) (*commerce.ProductPage, error) {
	return c.source.ListProducts(ctx, q)
}

func (c *Catalog) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return readThrough(ctx, c, productKey(id), func(ctx context.Context) (*domain.Product, error) {
		return c.source.GetProduct(ctx, id)
	})
}

func (c *Catalog) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return readThrough(ctx, c, slugKey(slug), func(ctx context.Context) (*domain.Product, error) {
		p, err := c.source.GetProductBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		c.store(ctx, productKey(p.ID), p)
		c.rememberSlug(ctx, p.ID, slug)
		return p, nil
	})
}

func (c *Catalog) ListVariations(ctx context.Context, productID int64) ([]domain.Variation, error) {
	vs, err := readThrough(ctx, c, variationsKey(productID), func(ctx context.Context) (*[]domain.Variation, error) {
		vs, err := c.source.ListVariations(ctx, productID)
		if err != nil {
			return nil, err
		}
		return &vs, nil
	})
	if err != nil {
		return nil, err
	}
	return *vs, nil
}

func (c *Catalog) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cats, err := readThrough(ctx, c, "catalog:categories", func(ctx context.Context) (*[]domain.Category, error) {
		cats, err := c.source.ListCategories(ctx, 100)
		if err != nil {
			return nil, err
		}
		return &cats, nil
	})
	if err != nil {
		return nil, err
	}
	return *cats, nil
}

func (c *Catalog) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return readThrough(ctx, c, "catalog:category:"+slug, func(ctx context.Context) (*domain.Category, error) {
		return c.source.GetCategoryBySlug(ctx, slug)
	})
}

// Invalidate evicts a product, its slug alias and its variations.
func (c *Catalog) Invalidate(ctx context.Context, productID int64) error {
	keys := []string{productKey(productID), variationsKey(productID), slugOfKey(productID)}

	slug, err := c.redis.Get(ctx, slugOfKey(productID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.WarnContext(ctx, "catalog cache read failed", "key", slugOfKey(productID), "error", err)
	}
	if slug != "" {
		keys = append(keys, slugKey(slug))
	}
	var p domain.Product
	if ok := c.load(ctx, productKey(productID), &p); ok && p.Slug != "" && p.Slug != slug {
		keys = append(keys, slugKey(p.Slug))
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// readThrough serves key from Redis or calls fetch once per key across
// concurrent callers. Redis failures degrade to a direct fetch.
func readThrough[T any](ctx context.Context, c *Catalog, key string, fetch func(context.Context) (*T, error)) (*T, error) {
	var cached T
	if c.load(ctx, key, &cached) {
		return &cached, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, val)
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

func (c *Catalog) load(ctx context.Context, key string, dst any) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "catalog cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		slog.WarnContext(ctx, "catalog cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Catalog) store(ctx context.Context, key string, val any) {
	data, err := json.Marshal(val)
	if err != nil {
		slog.WarnContext(ctx, "catalog cache encode failed", "key", key, "error", err)
		return
	}
	ttl := c.baseTTL + time.Duration(rand.Int64N(int64(maxJitter)))
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "catalog cache write failed", "key", key, "error", err)
	}
}

// rememberSlug records which slug entry aliases the product. It outlives
// any slug entry so Invalidate can find the alias after the product expired.
func (c *Catalog) rememberSlug(ctx context.Context, productID int64, slug string) {
	if err := c.redis.Set(ctx, slugOfKey(productID), slug, c.baseTTL+maxJitter).Err(); err != nil {
		slog.WarnContext(ctx, "catalog cache write failed", "key", slugOfKey(productID), "error", err)
	}
}

func productKey(id int64) string {
	return "catalog:product:" + strconv.FormatInt(id, 10)
}

func slugKey(slug string) string {
	return "catalog:slug:" + slug
}

func slugOfKey(productID int64) string {
	return "catalog:slug-of:" + strconv.FormatInt(productID, 10)
}

func variationsKey(productID int64) string {
	return "catalog:variations:" + strconv.FormatInt(productID, 10)
}
