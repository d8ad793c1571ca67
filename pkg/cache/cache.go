package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL applies when Set is called with a zero TTL and the cache
// was built without WithDefaultTTL.
const DefaultTTL = time.Hour

// Cache stores values of type V under string keys.
//
// A positive TTL expires the entry after that duration, zero means the
// cache default and a negative TTL keeps the entry until it is deleted.
type Cache[V any] interface {
	// Get returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Marshaler converts values to bytes for remote backends.
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// JSON is the default Marshaler.
type JSON[V any] struct{}

func (JSON[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (JSON[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

var flights singleflight.Group

type loaded[V any] struct {
	value V
	ttl   time.Duration
}

// GetOrSet returns the cached value for key or computes it with fn.
// Concurrent misses on the same cache and key share one call to fn.
// Errors from fn are returned and nothing is stored; a failed Set is ignored.
func GetOrSet[V any](ctx context.Context, c Cache[V], key string, fn func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}

	res, err, _ := flights.Do(fmt.Sprintf("%p/%s", c, key), func() (any, error) {
		v, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		_ = c.Set(ctx, key, v, ttl)
		return loaded[V]{value: v, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(loaded[V]).value, nil
}

type config struct {
	ttl      time.Duration
	max      int
	interval time.Duration
	prefix   string
	now      func() time.Time
}

// Option configures a Memory or Redis cache.
type Option func(*config)

// WithDefaultTTL sets the TTL used when Set receives zero.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxEntries bounds the memory cache. The least recently used entry
// is evicted when a new key would exceed the bound. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(c *config) { c.max = max(n, 0) }
}

// WithCleanupInterval sets how often the memory cache sweeps expired
// entries. Zero disables the sweeper; expired entries are still never returned.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *config) { c.interval = max(d, 0) }
}

// WithPrefix namespaces Redis keys as "prefix:key".
func WithPrefix(prefix string) Option {
	return func(c *config) { c.prefix = prefix }
}

// WithClock replaces time.Now in the memory cache.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

func newConfig(opts []Option) config {
	c := config{ttl: DefaultTTL, interval: time.Minute, now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
