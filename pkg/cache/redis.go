package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// Redis is a Cache shared through Redis. The client is owned by the caller.
type Redis[V any] struct {
	client redis.UniversalClient
	codec  Marshaler[V]
	cfg    config
}

// NewRedis creates a Redis cache. A nil Marshaler selects JSON.
//
//	client, err := redis.Open(ctx, redis.Config{URL: cfg.RedisURL})
//	results := cache.NewRedis[SearchResults](client, nil, cache.WithPrefix("search"))
func NewRedis[V any](client redis.UniversalClient, m Marshaler[V], opts ...Option) *Redis[V] {
	if m == nil {
		m = JSON[V]{}
	}
	return &Redis[V]{client: client, codec: m, cfg: newConfig(opts)}
}

func (r *Redis[V]) key(k string) string {
	if r.cfg.prefix == "" {
		return k
	}
	return r.cfg.prefix + ":" + k
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		var zero V
		return zero, ErrNotFound
	}
	if err != nil {
		var zero V
		return zero, err
	}
	return r.codec.Unmarshal(data)
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Marshal(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.cfg.ttl
	}
	// Redis reads 0 as "keep forever".
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Clear removes the keys under the prefix with SCAN. Without a prefix it
// flushes the whole database.
func (r *Redis[V]) Clear(ctx context.Context) error {
	if r.cfg.prefix == "" {
		return r.client.FlushDB(ctx).Err()
	}

	iter := r.client.Scan(ctx, 0, r.cfg.prefix+":*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Close is a no-op; release the client with redis.Shutdown.
func (r *Redis[V]) Close() error { return nil }

var _ Cache[any] = (*Redis[any])(nil)
