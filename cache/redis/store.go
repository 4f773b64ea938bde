// Package redis implements the cache store contract on top of go-redis/v9,
// so several service replicas can share one offer cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sig-0/p2prates/cache"
)

const scanBatch = 100

// Store is a Redis-backed expiring store. Values are JSON encoded,
// and expiry is delegated to native key TTLs.
// Redis failures are logged and reported as absent entries
type Store[V any] struct {
	rdb     redis.UniversalClient
	logger  *slog.Logger
	metrics cache.Metrics

	// namespace owns the bare key and every "namespace:*" key (used by Clear)
	namespace string
}

// NewStore creates a new Redis store owning the keys of the namespace
// (for example "p2p" owns "p2p:*", "trending" owns the bare "trending" key)
func NewStore[V any](rdb redis.UniversalClient, namespace string, opts ...Option) *Store[V] {
	cfg := options{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: cache.NoopMetrics{},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Store[V]{
		rdb:       rdb,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		namespace: namespace,
	}
}

func (s *Store[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Error(
				"unable to read cache entry",
				"key", key,
				"err", err,
			)
		}

		s.metrics.Miss(cache.Namespace(key))

		return zero, false
	}

	var value V
	if err = json.Unmarshal(raw, &value); err != nil {
		s.logger.Error(
			"unable to decode cache entry",
			"key", key,
			"err", err,
		)

		s.metrics.Miss(cache.Namespace(key))

		return zero, false
	}

	s.metrics.Hit(cache.Namespace(key))

	return value, true
}

func (s *Store[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	// A zero TTL means "no expiry" in Redis, so expired-on-arrival
	// entries are removed instead
	if ttl <= 0 {
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			s.logger.Error(
				"unable to drop cache entry",
				"key", key,
				"err", err,
			)
		}

		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Error(
			"unable to encode cache entry",
			"key", key,
			"err", err,
		)

		return
	}

	if err = s.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		s.logger.Error(
			"unable to write cache entry",
			"key", key,
			"err", err,
		)
	}
}

func (s *Store[V]) Clear(ctx context.Context) {
	if err := s.clear(ctx); err != nil {
		s.logger.Error(
			"unable to clear cache",
			"namespace", s.namespace,
			"err", err,
		)
	}
}

func (s *Store[V]) clear(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, s.namespace+":*", scanBatch).Iterator()

	// The bare namespace key is owned as well
	keys := make([]string, 0, scanBatch)
	keys = append(keys, s.namespace)

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())

		if len(keys) < scanBatch {
			continue
		}

		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("unable to delete keys: %w", err)
		}

		keys = keys[:0]
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("unable to scan keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("unable to delete keys: %w", err)
	}

	return nil
}

// Connect parses the Redis URL and verifies connectivity
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	if err = rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	return rdb, nil
}
