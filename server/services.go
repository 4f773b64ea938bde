package server

import (
	"context"
	"net/http"
	"time"

	"github.com/sig-0/p2prates/offers"
	"github.com/sig-0/p2prates/storage/types"
)

// OfferService is the offer query layer
type OfferService interface {
	Offers(ctx context.Context, q offers.Query) ([]types.Offer, error)
}

// SpreadService is the spread engine
type SpreadService interface {
	Best(ctx context.Context) *types.SpreadResult
	All(ctx context.Context) []*types.SpreadResult
}

// MarketService is the cached market data layer
type MarketService interface {
	Chart(ctx context.Context, symbol, interval string) []types.Candle
	Trending(ctx context.Context) []types.Ticker
}

// Metrics is the request instrumentation, and its scrape endpoint
type Metrics interface {
	Handler() http.Handler
	ObserveRequest(route string, status int, took time.Duration)
}
