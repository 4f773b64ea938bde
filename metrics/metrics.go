// Package metrics exposes the service's Prometheus instrumentation
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "p2prates"

const (
	eventHit    = "hit"
	eventMiss   = "miss"
	eventExpire = "expire"

	resultOK    = "ok"
	resultEmpty = "empty"
)

// Metrics is the service metric set, held in its own registry
type Metrics struct {
	registry *prometheus.Registry

	cacheEvents     *prometheus.CounterVec
	venueFetches    *prometheus.CounterVec
	venueDuration   *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates a new metric set, registered with a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	cacheEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_events_total",
		Help:      "Total cache lookups, by key namespace and outcome",
	}, []string{"namespace", "event"})

	venueFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "venue_fetches_total",
		Help:      "Total upstream venue fetches",
	}, []string{"venue", "result"})

	venueDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "venue_fetch_duration_seconds",
		Help:      "Upstream venue fetch duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"venue"})

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests",
	}, []string{"route", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	registry.MustRegister(
		cacheEvents,
		venueFetches,
		venueDuration,
		requests,
		requestDuration,
	)

	return &Metrics{
		registry:        registry,
		cacheEvents:     cacheEvents,
		venueFetches:    venueFetches,
		venueDuration:   venueDuration,
		requests:        requests,
		requestDuration: requestDuration,
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Hit(ns string) {
	m.cacheEvent(ns, eventHit)
}

func (m *Metrics) Miss(ns string) {
	m.cacheEvent(ns, eventMiss)
}

func (m *Metrics) Expire(ns string) {
	m.cacheEvent(ns, eventExpire)
}

func (m *Metrics) cacheEvent(ns, event string) {
	if m == nil {
		return
	}

	m.cacheEvents.WithLabelValues(ns, event).Inc()
}

// ObserveFetch records a single upstream venue fetch.
// Venues fail closed, so an empty result is the only failure signal
func (m *Metrics) ObserveFetch(venue string, offers int, took time.Duration) {
	if m == nil {
		return
	}

	result := resultOK
	if offers == 0 {
		result = resultEmpty
	}

	m.venueFetches.WithLabelValues(venue, result).Inc()
	m.venueDuration.WithLabelValues(venue).Observe(took.Seconds())
}

// ObserveRequest records a single served HTTP request
func (m *Metrics) ObserveRequest(route string, status int, took time.Duration) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(took.Seconds())
}
