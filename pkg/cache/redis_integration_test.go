//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tela/pkg/cache"
	"github.com/dmitrymomot/tela/pkg/redis"
)

func TestRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	ctx := context.Background()
	client, err := redis.Open(ctx, redis.Config{URL: url, PoolSize: 2, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewRedis[map[string]string](client, nil, cache.WithPrefix("tela-test"))
	t.Cleanup(func() { _ = c.Clear(ctx) })

	_, err = c.Get(ctx, "A001")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	row := map[string]string{"uti_nom": "Dupont"}
	require.NoError(t, c.Set(ctx, "A001", row, time.Minute))
	got, err := c.Get(ctx, "A001")
	require.NoError(t, err)
	assert.Equal(t, row, got)

	ttl, err := client.TTL(ctx, "tela-test:A001").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Set(ctx, "B002", row, 0))
	require.NoError(t, c.Delete(ctx, "B002"))
	_, err = c.Get(ctx, "B002")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, client.Set(ctx, "other", "kept", 0).Err())
	t.Cleanup(func() { _ = client.Del(ctx, "other").Err() })
	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "A001")
	assert.ErrorIs(t, err, cache.ErrNotFound)
	assert.Equal(t, "kept", client.Get(ctx, "other").Val())
}
