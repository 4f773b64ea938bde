// Package market serves spot chart and trending data through the expiring cache.
package market

import (
	"context"
	"strings"

	"github.com/sig-0/p2prates/cache"
	"github.com/sig-0/p2prates/storage/types"
)

const (
	DefaultSymbol   = "BTCUSDT"
	DefaultInterval = "1d"

	// ChartLimit is the number of candles fetched per chart
	ChartLimit = 90

	// TrendingLimit is the number of tickers in the trending list
	TrendingLimit = 20
)

// Source is the upstream market data provider.
// It fails closed, returning empty results on error
type Source interface {
	FetchChart(ctx context.Context, symbol, interval string, limit int) []types.Candle
	FetchTrending(ctx context.Context, limit int) []types.Ticker
}

// Service is the cached market data layer
type Service struct {
	source   Source
	charts   cache.Store[[]types.Candle]
	trending cache.Store[[]types.Ticker]
}

// New creates a new market data service
func New(
	source Source,
	charts cache.Store[[]types.Candle],
	trending cache.Store[[]types.Ticker],
) *Service {
	return &Service{
		source:   source,
		charts:   charts,
		trending: trending,
	}
}

// Chart returns the candle series for the symbol and interval.
// Empty values fall back to BTCUSDT / 1d
func (s *Service) Chart(ctx context.Context, symbol, interval string) []types.Candle {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		symbol = DefaultSymbol
	}

	interval = strings.TrimSpace(interval)
	if interval == "" {
		interval = DefaultInterval
	}

	key := cache.ChartKey(symbol, interval)

	if cached, ok := s.charts.Get(ctx, key); ok {
		return cached
	}

	// Failed fetches are cached (empty) as well.
	// Only the source timeout bounds the fetch, not the caller
	ctx = context.WithoutCancel(ctx)

	candles := s.source.FetchChart(ctx, symbol, interval, ChartLimit)
	if candles == nil {
		candles = []types.Candle{}
	}

	s.charts.Set(ctx, key, candles, cache.ChartTTL)

	return candles
}

// Trending returns the top movers among the liquid USDT pairs
func (s *Service) Trending(ctx context.Context) []types.Ticker {
	key := cache.TrendingKey()

	if cached, ok := s.trending.Get(ctx, key); ok {
		return cached
	}

	ctx = context.WithoutCancel(ctx)

	tickers := s.source.FetchTrending(ctx, TrendingLimit)
	if tickers == nil {
		tickers = []types.Ticker{}
	}

	s.trending.Set(ctx, key, tickers, cache.TrendingTTL)

	return tickers
}
