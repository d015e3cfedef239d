package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_storefront/internal/commerce"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	productCalls   atomic.Int32
	slugCalls      atomic.Int32
	variationCalls atomic.Int32
	categoryCalls  atomic.Int32
	release        chan struct{}
	err            error
}

func (f *fakeSource) ListProducts(context.Context, commerce.ProductQuery) (*commerce.ProductPage, error) {
	return &commerce.ProductPage{Products: []domain.Product{shirt()}, Total: 1, TotalPages: 1}, nil
}

func (f *fakeSource) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	f.productCalls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	p := shirt()
	p.ID = id
	return &p, nil
}

func (f *fakeSource) GetProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	f.slugCalls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	p := shirt()
	p.Slug = slug
	return &p, nil
}

func (f *fakeSource) ListVariations(context.Context, int64) ([]domain.Variation, error) {
	f.variationCalls.Add(1)
	return []domain.Variation{{ID: 101, Price: decimal.RequireFromString("25.00"), StockStatus: domain.StockStatusInStock}}, nil
}

func (f *fakeSource) ListCategories(context.Context, int) ([]domain.Category, error) {
	f.categoryCalls.Add(1)
	return []domain.Category{{ID: 4, Name: "Shirts", Slug: "shirts"}}, nil
}

func (f *fakeSource) GetCategoryBySlug(_ context.Context, slug string) (*domain.Category, error) {
	f.categoryCalls.Add(1)
	return &domain.Category{ID: 4, Name: "Shirts", Slug: slug}, nil
}

func shirt() domain.Product {
	return domain.Product{
		ID:          10,
		Name:        "Linen Shirt",
		Slug:        "linen-shirt",
		Type:        domain.ProductTypeVariable,
		Price:       decimal.RequireFromString("25.00"),
		StockStatus: domain.StockStatusInStock,
	}
}

func setup(t *testing.T, src *fakeSource) (*Catalog, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(src, client, time.Minute), mr
}

func TestGetProduct_ReadThrough(t *testing.T) {
	src := &fakeSource{}
	cat, mr := setup(t, src)
	ctx := context.Background()

	p, err := cat.GetProduct(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Linen Shirt", p.Name)
	assert.True(t, mr.Exists("catalog:product:10"))

	p, err = cat.GetProduct(ctx, 10)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25").Equal(p.Price))
	assert.Equal(t, int32(1), src.productCalls.Load())

	ttl := mr.TTL("catalog:product:10")
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.Less(t, ttl, time.Minute+maxJitter)
}

func TestGetProduct_ConcurrentMissesShareOneFetch(t *testing.T) {
	src := &fakeSource{release: make(chan struct{})}
	cat, _ := setup(t, src)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cat.GetProduct(context.Background(), 10)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.productCalls.Load())
}

func TestGetProduct_ErrorNotCached(t *testing.T) {
	src := &fakeSource{err: commerce.ErrNotFound}
	cat, mr := setup(t, src)

	_, err := cat.GetProduct(context.Background(), 10)
	assert.ErrorIs(t, err, commerce.ErrNotFound)
	assert.False(t, mr.Exists("catalog:product:10"))
}

func TestGetProduct_RedisDownFallsThrough(t *testing.T) {
	src := &fakeSource{}
	cat, mr := setup(t, src)
	mr.Close()

	p, err := cat.GetProduct(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.ID)
}

func TestGetProductBySlug_AlsoCachesByID(t *testing.T) {
	src := &fakeSource{}
	cat, mr := setup(t, src)
	ctx := context.Background()

	_, err := cat.GetProductBySlug(ctx, "linen-shirt")
	require.NoError(t, err)
	assert.True(t, mr.Exists("catalog:slug:linen-shirt"))
	assert.True(t, mr.Exists("catalog:product:10"))

	_, err = cat.GetProduct(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, src.productCalls.Load())
}

func TestInvalidate(t *testing.T) {
	src := &fakeSource{}
	cat, mr := setup(t, src)
	ctx := context.Background()

	_, err := cat.GetProductBySlug(ctx, "linen-shirt")
	require.NoError(t, err)
	_, err = cat.ListVariations(ctx, 10)
	require.NoError(t, err)

	require.NoError(t, cat.Invalidate(ctx, 10))
	assert.False(t, mr.Exists("catalog:product:10"))
	assert.False(t, mr.Exists("catalog:slug:linen-shirt"))
	assert.False(t, mr.Exists("catalog:variations:10"))

	_, err = cat.ListVariations(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.variationCalls.Load())
}

func TestInvalidate_SlugAfterProductExpired(t *testing.T) {
	src := &fakeSource{}
	cat, mr := setup(t, src)
	ctx := context.Background()

	_, err := cat.GetProductBySlug(ctx, "linen-shirt")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, mr.TTL("catalog:slug-of:10"), mr.TTL("catalog:slug:linen-shirt"))

	mr.Del("catalog:product:10")
	require.NoError(t, cat.Invalidate(ctx, 10))
	assert.False(t, mr.Exists("catalog:slug:linen-shirt"))
	assert.False(t, mr.Exists("catalog:slug-of:10"))

	_, err = cat.GetProductBySlug(ctx, "linen-shirt")
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.slugCalls.Load())
}

func TestCategories_Cached(t *testing.T) {
	src := &fakeSource{}
	cat, _ := setup(t, src)
	ctx := context.Background()

	for range 2 {
		cats, err := cat.ListCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, cats, 1)
	}
	c, err := cat.GetCategoryBySlug(ctx, "shirts")
	require.NoError(t, err)
	assert.Equal(t, "shirts", c.Slug)
	assert.Equal(t, int32(2), src.categoryCalls.Load())
}

func TestListProducts_PassThrough(t *testing.T) {
	cat, _ := setup(t, &fakeSource{})
	page, err := cat.ListProducts(context.Background(), commerce.ProductQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Products, 1)
}

func TestPriceBuckets(t *testing.T) {
	buckets := PriceBuckets()
	require.Len(t, buckets, 3)

	assert.Equal(t, "Under $100", buckets[0].Label)
	assert.True(t, buckets[0].Min.IsZero())
	assert.True(t, decimal.NewFromInt(100).Equal(*buckets[0].Max))

	assert.Equal(t, "$100 - $500", buckets[1].Label)
	assert.True(t, decimal.NewFromInt(500).Equal(*buckets[1].Max))

	assert.Equal(t, "Over $500", buckets[2].Label)
	assert.Nil(t, buckets[2].Max)

	b, ok := Bucket("Over $500")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(500).Equal(b.Min))
	_, ok = Bucket("nope")
	assert.False(t, ok)
}

