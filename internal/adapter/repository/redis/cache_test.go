package redis

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/mfsledger/internal/infrastructure/metrics"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client, nil)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "party:acc-1", []byte(`{"name":"Rahim"}`), time.Minute))

	val, err := cache.Get(ctx, "party:acc-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Rahim"}`, string(val))
}

func TestCacheMissReturnsNil(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client, nil)

	val, err := cache.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestCacheTTLExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client, nil)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	val, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestCacheDelete(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client, nil)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "foo", []byte("bar"), time.Minute))
	require.NoError(t, cache.Delete(ctx, "foo"))

	val, err := cache.Get(ctx, "foo")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestCacheCountsHitsAndMisses(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	cache := NewCache(client, m)
	ctx := context.Background()

	_, _ = cache.Get(ctx, "a")
	require.NoError(t, cache.Set(ctx, "a", []byte("1"), time.Minute))
	_, _ = cache.Get(ctx, "a")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RedisOperations.WithLabelValues("get", "miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RedisOperations.WithLabelValues("get", "hit")))
}

func TestCacheReportsErrors(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	cache := NewCache(client, m)
	mr.Close()

	_, err := cache.Get(context.Background(), "a")
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RedisErrors.WithLabelValues("get")))
}
