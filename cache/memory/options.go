package memory

import (
	"time"

	"github.com/sig-0/p2prates/cache"
)

type options struct {
	metrics cache.Metrics
	now     func() time.Time
}

type Option func(o *options)

// WithMetrics specifies the metrics sink for cache events
func WithMetrics(m cache.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock overrides the store's time source
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
