// Package cache defines the expiring key-value store contract shared by the
// offer query layer, the market data service and the spread engine.
//
// Keys are composed through the helpers in this package only, so that two
// logically equal queries always map to byte-identical keys.
package cache

import (
	"context"
	"strings"
	"time"
)

const (
	// P2PTTL is the lifetime of a cached venue offer list
	P2PTTL = 25 * time.Second

	// ChartTTL is the lifetime of a cached chart series
	ChartTTL = 60 * time.Second

	// TrendingTTL is the lifetime of the cached trending list
	TrendingTTL = 60 * time.Second
)

const (
	NamespaceP2P      = "p2p"
	NamespaceChart    = "chart"
	NamespaceTrending = "trending"
)

// Store is a time-bounded key-value store.
// Expiry is enforced lazily on read, there is no background sweep
type Store[V any] interface {
	// Get returns the value for the key, if present and not expired.
	// An expired entry is evicted as a side effect
	Get(ctx context.Context, key string) (V, bool)

	// Set unconditionally overwrites the entry for the key.
	// A non-positive ttl yields an entry that is already expired
	Set(ctx context.Context, key string, value V, ttl time.Duration)

	// Clear drops all entries
	Clear(ctx context.Context)
}

// Metrics receives cache lifecycle events, labeled by key namespace
type Metrics interface {
	Hit(namespace string)
	Miss(namespace string)
	Expire(namespace string)
}

// NoopMetrics discards all events
type NoopMetrics struct{}

func (NoopMetrics) Hit(string)    {}
func (NoopMetrics) Miss(string)   {}
func (NoopMetrics) Expire(string) {}

// P2PKey composes the offer list key: p2p:{venue}:{fiat}:{crypto}:{side}
func P2PKey(venue, fiat, crypto, side string) string {
	return compose(
		NamespaceP2P,
		strings.ToLower(strings.TrimSpace(venue)),
		upper(fiat),
		upper(crypto),
		upper(side),
	)
}

// ChartKey composes the chart key: chart:{symbol}:{interval}.
// Binance intervals are case-sensitive (1m vs 1M), so only the symbol is folded
func ChartKey(symbol, interval string) string {
	return compose(
		NamespaceChart,
		upper(symbol),
		strings.TrimSpace(interval),
	)
}

// TrendingKey is the key of the trending market list
func TrendingKey() string {
	return NamespaceTrending
}

// Namespace extracts the namespace tag of the key
func Namespace(key string) string {
	if i := strings.IndexByte(key, ':'); i != -1 {
		return key[:i]
	}

	return key
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func compose(parts ...string) string {
	return strings.Join(parts, ":")
}
