package server

import (
	"context"
	"net/http"
	"time"

	"github.com/sig-0/p2prates/offers"
	"github.com/sig-0/p2prates/storage/types"
)

type (
	offersDelegate   func(context.Context, offers.Query) ([]types.Offer, error)
	bestDelegate     func(context.Context) *types.SpreadResult
	allDelegate      func(context.Context) []*types.SpreadResult
	chartDelegate    func(context.Context, string, string) []types.Candle
	trendingDelegate func(context.Context) []types.Ticker
	observeDelegate  func(string, int, time.Duration)
)

type mockOfferService struct {
	offersFn offersDelegate
}

func (m *mockOfferService) Offers(ctx context.Context, q offers.Query) ([]types.Offer, error) {
	if m.offersFn != nil {
		return m.offersFn(ctx, q)
	}

	return nil, nil
}

type mockSpreadService struct {
	bestFn bestDelegate
	allFn  allDelegate
}

func (m *mockSpreadService) Best(ctx context.Context) *types.SpreadResult {
	if m.bestFn != nil {
		return m.bestFn(ctx)
	}

	return nil
}

func (m *mockSpreadService) All(ctx context.Context) []*types.SpreadResult {
	if m.allFn != nil {
		return m.allFn(ctx)
	}

	return nil
}

type mockMarketService struct {
	chartFn    chartDelegate
	trendingFn trendingDelegate
}

func (m *mockMarketService) Chart(ctx context.Context, symbol, interval string) []types.Candle {
	if m.chartFn != nil {
		return m.chartFn(ctx, symbol, interval)
	}

	return nil
}

func (m *mockMarketService) Trending(ctx context.Context) []types.Ticker {
	if m.trendingFn != nil {
		return m.trendingFn(ctx)
	}

	return nil
}

type mockMetrics struct {
	handler   http.Handler
	observeFn observeDelegate
}

func (m *mockMetrics) Handler() http.Handler {
	return m.handler
}

func (m *mockMetrics) ObserveRequest(route string, status int, took time.Duration) {
	if m.observeFn != nil {
		m.observeFn(route, status, took)
	}
}
