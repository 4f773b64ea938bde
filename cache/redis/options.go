package redis

import (
	"log/slog"

	"github.com/sig-0/p2prates/cache"
)

type options struct {
	logger  *slog.Logger
	metrics cache.Metrics
}

type Option func(o *options)

// WithLogger specifies the logger for the store
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics specifies the metrics sink for cache events
func WithMetrics(m cache.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
