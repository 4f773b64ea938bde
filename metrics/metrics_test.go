package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/p2prates/cache"
	"github.com/sig-0/p2prates/offers"
)

// Compile-time interface checks
var (
	_ cache.Metrics        = (*Metrics)(nil)
	_ offers.FetchObserver = (*Metrics)(nil)
)

func scrape(t *testing.T, m *Metrics) (int, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	return rec.Code, string(body)
}

func TestMetrics_Cache(t *testing.T) {
	t.Parallel()

	m := New()

	m.Hit(cache.NamespaceP2P)
	m.Hit(cache.NamespaceP2P)
	m.Miss(cache.NamespaceChart)
	m.Expire(cache.NamespaceTrending)

	code, body := scrape(t, m)
	require.Equal(t, http.StatusOK, code)

	assert.Contains(t, body, `p2prates_cache_events_total{event="hit",namespace="p2p"} 2`)
	assert.Contains(t, body, `p2prates_cache_events_total{event="miss",namespace="chart"} 1`)
	assert.Contains(t, body, `p2prates_cache_events_total{event="expire",namespace="trending"} 1`)
}

func TestMetrics_ObserveFetch(t *testing.T) {
	t.Parallel()

	m := New()

	m.ObserveFetch("binance", 15, 120*time.Millisecond)
	m.ObserveFetch("bybit", 0, 10*time.Second)

	_, body := scrape(t, m)

	assert.Contains(t, body, `p2prates_venue_fetches_total{result="ok",venue="binance"} 1`)
	assert.Contains(t, body, `p2prates_venue_fetches_total{result="empty",venue="bybit"} 1`)
	assert.Contains(t, body, `p2prates_venue_fetch_duration_seconds_count{venue="bybit"} 1`)
}

func TestMetrics_ObserveRequest(t *testing.T) {
	t.Parallel()

	m := New()

	m.ObserveRequest("/p2p", http.StatusOK, time.Millisecond)
	m.ObserveRequest("/p2p", http.StatusBadRequest, time.Millisecond)

	_, body := scrape(t, m)

	assert.Contains(t, body, `p2prates_http_requests_total{route="/p2p",status="200"} 1`)
	assert.Contains(t, body, `p2prates_http_requests_total{route="/p2p",status="400"} 1`)
	assert.Contains(t, body, `p2prates_http_request_duration_seconds_count{route="/p2p"} 2`)
}

func TestMetrics_Nil(t *testing.T) {
	t.Parallel()

	var m *Metrics

	assert.NotPanics(t, func() {
		m.Hit(cache.NamespaceP2P)
		m.ObserveFetch("binance", 1, time.Second)
		m.ObserveRequest("/health", http.StatusOK, time.Second)
	})

	code, _ := scrape(t, m)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
