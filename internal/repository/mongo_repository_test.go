package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) *MongoRepository {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, repo.CreateIndexes(ctx))
	return repo
}

func sampleCart(sessionID string) *domain.Cart {
	regular := decimal.RequireFromString("30.00")
	return &domain.Cart{
		SessionID: sessionID,
		IsOpen:    true,
		Items: []domain.LineItem{{
			ID:                 "li-1",
			ProductID:          10,
			VariationID:        101,
			Name:               "Linen Shirt",
			UnitPrice:          decimal.RequireFromString("25.00"),
			RegularPrice:       &regular,
			Quantity:           2,
			MaxQuantity:        5,
			Attributes:         domain.AttributeSelection{"Size": "M"},
			RequiredAttributes: []string{"Size"},
			AddedAt:            time.Now().UTC().Truncate(time.Millisecond),
		}},
	}
}

func TestGetCart_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	c, err := repo.GetCart(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, c)
}

func TestSaveCart_InsertAndRead(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	c := sampleCart("s-1")
	require.NoError(t, repo.SaveCart(ctx, c))
	assert.Equal(t, int64(1), c.Version)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := repo.GetCart(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.True(t, got.IsOpen)
	require.Len(t, got.Items, 1)
	item := got.Items[0]
	assert.True(t, decimal.RequireFromString("25").Equal(item.UnitPrice))
	require.NotNil(t, item.RegularPrice)
	assert.True(t, decimal.RequireFromString("30").Equal(*item.RegularPrice))
	assert.Equal(t, "M", item.Attributes["Size"])
	assert.Equal(t, []string{"Size"}, item.RequiredAttributes)
	assert.Equal(t, 5, item.MaxQuantity)
}

func TestSaveCart_UpdateBumpsVersion(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	c := sampleCart("s-1")
	require.NoError(t, repo.SaveCart(ctx, c))

	c.Items[0].Quantity = 4
	require.NoError(t, repo.SaveCart(ctx, c))
	assert.Equal(t, int64(2), c.Version)

	got, err := repo.GetCart(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Items[0].Quantity)
	assert.Equal(t, int64(2), got.Version)
}

func TestSaveCart_StaleVersionConflicts(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCart(ctx, sampleCart("s-1")))

	first, err := repo.GetCart(ctx, "s-1")
	require.NoError(t, err)
	second, err := repo.GetCart(ctx, "s-1")
	require.NoError(t, err)

	first.IsOpen = false
	require.NoError(t, repo.SaveCart(ctx, first))

	second.Items = nil
	assert.ErrorIs(t, repo.SaveCart(ctx, second), ErrVersionConflict)
}

func TestSaveCart_ConcurrentInsertConflicts(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCart(ctx, sampleCart("s-1")))
	assert.ErrorIs(t, repo.SaveCart(ctx, sampleCart("s-1")), ErrVersionConflict)
}

func TestDeleteCart(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCart(ctx, sampleCart("s-1")))
	require.NoError(t, repo.DeleteCart(ctx, "s-1"))

	_, err := repo.GetCart(ctx, "s-1")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.ErrorIs(t, repo.DeleteCart(ctx, "s-1"), ErrCartNotFound)
}

func TestContextCancellation(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetCart(ctx, "s-1")
	assert.Error(t, err)
}
