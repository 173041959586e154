package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
)

// ProductCache stores product detail views keyed by product ID.
type ProductCache interface {
	// GetProduct returns the cached detail and whether it was found.
	GetProduct(ctx context.Context, id int64) (model.ProductDetail, bool, error)
	SetProduct(ctx context.Context, product model.ProductDetail) error
	DeleteProduct(ctx context.Context, id int64) error
}

var _ ProductCache = (*RedisProductCache)(nil)

type RedisProductCache struct {
	cl     *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisProductCache(cl *redis.Client, prefix string, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{
		cl:     cl,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisProductCache) GetProduct(ctx context.Context, id int64) (model.ProductDetail, bool, error) {
	data, err := c.cl.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ProductDetail{}, false, nil
		}
		return model.ProductDetail{}, false, fmt.Errorf("redis get: %w", err)
	}

	var product model.ProductDetail
	if err := json.Unmarshal(data, &product); err != nil {
		return model.ProductDetail{}, false, fmt.Errorf("unmarshal product: %w", err)
	}

	return product, true, nil
}

func (c *RedisProductCache) SetProduct(ctx context.Context, product model.ProductDetail) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	if err := c.cl.Set(ctx, c.key(product.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

func (c *RedisProductCache) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.cl.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

func (c *RedisProductCache) key(id int64) string {
	return c.prefix + "product:" + strconv.FormatInt(id, 10)
}
