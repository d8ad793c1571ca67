package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
	used    uint64
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Memory is a process-local Cache. It is safe for concurrent use.
type Memory[V any] struct {
	cfg config

	mu      sync.Mutex
	entries map[string]*entry[V]
	tick    uint64
	closed  bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewMemory creates a memory cache. Close stops its sweeper.
func NewMemory[V any](opts ...Option) *Memory[V] {
	m := &Memory[V]{
		cfg:     newConfig(opts),
		entries: make(map[string]*entry[V]),
		stop:    make(chan struct{}),
	}
	if m.cfg.interval > 0 {
		m.wg.Add(1)
		go m.sweep()
	}
	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	var zero V

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return zero, ErrClosed
	}
	e, ok := m.entries[key]
	if !ok {
		return zero, ErrNotFound
	}
	if e.expired(m.cfg.now()) {
		delete(m.entries, key)
		return zero, ErrNotFound
	}
	m.tick++
	e.used = m.tick
	return e.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.cfg.ttl
	}
	var expires time.Time
	if ttl > 0 {
		expires = m.cfg.now().Add(ttl)
	}

	m.tick++
	if e, ok := m.entries[key]; ok {
		e.value, e.expires, e.used = value, expires, m.tick
		return nil
	}
	if m.cfg.max > 0 && len(m.entries) >= m.cfg.max {
		m.evict()
	}
	m.entries[key] = &entry[V]{value: value, expires: expires, used: m.tick}
	return nil
}

// evict drops one expired entry if any, otherwise the least recently used.
func (m *Memory[V]) evict() {
	now := m.cfg.now()
	var (
		victim string
		oldest uint64
		found  bool
	)
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
			return
		}
		if !found || e.used < oldest {
			victim, oldest, found = k, e.used, true
		}
	}
	if found {
		delete(m.entries, victim)
	}
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.entries, key)
	return nil
}

func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	clear(m.entries)
	return nil
}

// Len returns the number of stored entries, expired ones included until swept.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close stops the sweeper and drops every entry. It is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.entries = nil
	m.mu.Unlock()

	close(m.stop)
	m.wg.Wait()
	return nil
}

func (m *Memory[V]) sweep() {
	defer m.wg.Done()

	t := time.NewTicker(m.cfg.interval)
	defer t.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-t.C:
			m.purge()
		}
	}
}

func (m *Memory[V]) purge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.cfg.now()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
}

var _ Cache[any] = (*Memory[any])(nil)
