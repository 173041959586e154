package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/cache"
)

// setupTestClient connects to TEST_REDIS_ADDR (default localhost:6379) or skips.
func setupTestClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(context.Background()).Err(); err != nil {
		_ = cl.Close()
		t.Skipf("Redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = cl.Close() })

	return cl
}

func TestRedisProductCache(t *testing.T) {
	cl := setupTestClient(t)
	prefix := "test:" + t.Name() + ":"
	c := cache.NewRedisProductCache(cl, prefix, time.Minute)
	ctx := context.Background()

	product := model.NewProductDetail(model.Product{
		ID:          7,
		Name:        "Widget",
		CodeProduct: "W1",
		Price:       decimal.RequireFromString("9.99"),
		Stock:       5,
		CategoryID:  1,
	})
	product.Category = &model.Category{ID: 1, Name: "Tools"}

	t.Cleanup(func() { _ = c.DeleteProduct(ctx, product.ID) })

	t.Run("Should miss on unknown product", func(t *testing.T) {
		_, ok, err := c.GetProduct(ctx, 404)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Should round trip a product detail", func(t *testing.T) {
		require.NoError(t, c.SetProduct(ctx, product))

		got, ok, err := c.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Widget", got.Name)
		assert.True(t, product.Price.Equal(got.Price))
		assert.Equal(t, "Tools", got.Category.Name)

		ttl, err := cl.TTL(ctx, prefix+"product:7").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("Should evict a product", func(t *testing.T) {
		require.NoError(t, c.SetProduct(ctx, product))
		require.NoError(t, c.DeleteProduct(ctx, product.ID))

		_, ok, err := c.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
