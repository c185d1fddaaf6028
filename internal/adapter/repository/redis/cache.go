package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/mfsledger/internal/infrastructure/metrics"
)

// Cache implements usecase.Cache using Redis.
type Cache struct {
	client  redis.Cmdable
	prefix  string
	metrics *metrics.Metrics
}

// NewCache creates a new Cache. m may be nil.
func NewCache(client redis.Cmdable, m *metrics.Metrics) *Cache {
	return &Cache{
		client:  client,
		prefix:  "mfsledger:cache:",
		metrics: m,
	}
}

// Get retrieves a value by key. A miss returns nil, nil.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.observe("get", "miss")
		return nil, nil
	}
	if err != nil {
		c.fail("get")
		return nil, err
	}

	c.observe("get", "hit")
	return val, nil
}

// Set stores a value with TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		c.fail("set")
		return err
	}
	c.observe("set", "ok")
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.fail("delete")
		return err
	}
	c.observe("delete", "ok")
	return nil
}

func (c *Cache) observe(op, result string) {
	if c.metrics != nil {
		c.metrics.RedisOperations.WithLabelValues(op, result).Inc()
	}
}

func (c *Cache) fail(op string) {
	if c.metrics != nil {
		c.metrics.RedisErrors.WithLabelValues(op).Inc()
	}
}
