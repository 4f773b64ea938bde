package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sig-0/p2prates/cache"
)

type entry[V any] struct {
	expiresAt time.Time
	value     V
}

// Store is an in-memory expiring key-value store.
// It has no size bound, the key space (venue x fiat x crypto x side) is small
type Store[V any] struct {
	metrics cache.Metrics
	now     func() time.Time

	data map[string]entry[V]

	mu sync.RWMutex
}

// NewStore creates a new in-memory store
func NewStore[V any](opts ...Option) *Store[V] {
	var cfg options

	cfg.metrics = cache.NoopMetrics{}
	cfg.now = time.Now

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Store[V]{
		metrics: cfg.metrics,
		now:     cfg.now,
		data:    make(map[string]entry[V]),
	}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V

	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		s.metrics.Miss(cache.Namespace(key))

		return zero, false
	}

	if !s.now().Before(e.expiresAt) {
		s.evict(key, e.expiresAt)
		s.metrics.Expire(cache.Namespace(key))

		return zero, false
	}

	s.metrics.Hit(cache.Namespace(key))

	return e.value, true
}

func (s *Store[V]) Set(_ context.Context, key string, value V, ttl time.Duration) {
	e := entry[V]{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}

	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
}

func (s *Store[V]) Clear(_ context.Context) {
	s.mu.Lock()
	s.data = make(map[string]entry[V])
	s.mu.Unlock()
}

// Len returns the number of held entries, expired ones included
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// evict drops the expired entry, unless it was overwritten
// after the read lock was released
func (s *Store[V]) evict(key string, observedExpiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.data[key]
	if !ok || !cur.expiresAt.Equal(observedExpiry) {
		return
	}

	delete(s.data, key)
}
