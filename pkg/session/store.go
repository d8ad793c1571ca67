package session

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tela/pkg/cache"
)

// Store defines the interface for session persistence. Sessions are keyed
// by their cookie token.
type Store interface {
	// Get retrieves a session by its token.
	// Returns ErrNotFound if the session doesn't exist.
	// Returns ErrExpired if the session has expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Save creates or replaces the session stored under its token.
	Save(ctx context.Context, s *Session) error

	// Delete removes the session stored under token.
	Delete(ctx context.Context, token string) error
}

// CacheStore keeps sessions in a cache.Cache. Entries expire with the session.
type CacheStore struct {
	cache cache.Cache[*Session]
}

// NewCacheStore creates a Store over c.
func NewCacheStore(c cache.Cache[*Session]) *CacheStore {
	return &CacheStore{cache: c}
}

// NewMemoryStore creates a process-local Store.
func NewMemoryStore() *CacheStore {
	return NewCacheStore(cache.NewMemory[*Session]())
}

// NewRedisStore creates a Store shared through Redis.
func NewRedisStore(client goredis.UniversalClient) *CacheStore {
	return NewCacheStore(cache.NewRedis[*Session](client, nil, cache.WithPrefix("session")))
}

func (s *CacheStore) Get(ctx context.Context, token string) (*Session, error) {
	sess, err := s.cache.Get(ctx, token)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if sess.IsExpired() {
		_ = s.cache.Delete(ctx, token)
		return nil, ErrExpired
	}
	return sess.Clone(), nil
}

func (s *CacheStore) Save(ctx context.Context, sess *Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	return s.cache.Set(ctx, sess.Token, sess.Clone(), ttl)
}

func (s *CacheStore) Delete(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, token)
}

// Close releases the underlying cache.
func (s *CacheStore) Close() error {
	return s.cache.Close()
}
