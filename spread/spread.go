// Package spread derives the best cross-venue arbitrage opportunity from
// the offer lists currently held in the cache.
//
// The engine only reads the cache, it never fetches. Its result is only as
// fresh as the offer lists some other caller has recently queried.
package spread

import (
	"context"

	"github.com/sig-0/p2prates/cache"
	"github.com/sig-0/p2prates/provider"
	"github.com/sig-0/p2prates/provider/currencies"
	"github.com/sig-0/p2prates/storage/types"
)

// Pair is a fiat currency with its reference crypto asset
type Pair struct {
	Fiat   types.Currency `toml:"fiat"`
	Crypto types.Currency `toml:"crypto"`
}

// DefaultPairs returns the default fiat matrix, in iteration order
func DefaultPairs() []Pair {
	return []Pair{
		{Fiat: currencies.PLN, Crypto: currencies.USDT},
		{Fiat: currencies.EUR, Crypto: currencies.USDT},
		{Fiat: currencies.USD, Crypto: currencies.USDT},
		{Fiat: currencies.GBP, Crypto: currencies.USDT},
	}
}

// DefaultVenues returns the default venue set, in iteration order
func DefaultVenues() []string {
	return []string{"bybit", "binance"}
}

// quote is the best observed price for a side, tagged with its venue
type quote struct {
	venue string
	price float64
}

// Engine computes spreads over a fixed (pair, venue) matrix
type Engine struct {
	store cache.Store[[]types.Offer]

	pairs  []Pair
	venues []string
}

// New creates a new spread engine. The pair and venue order is the
// iteration order, which decides ties
func New(store cache.Store[[]types.Offer], pairs []Pair, venues []string) *Engine {
	return &Engine{
		store:  store,
		pairs:  pairs,
		venues: venues,
	}
}

// Best returns the single most profitable spread across the matrix,
// or nil if no fiat has a positive spread
func (e *Engine) Best(ctx context.Context) *types.SpreadResult {
	var (
		best    *types.SpreadResult
		bestPct = 0.0
	)

	for _, c := range e.compute(ctx) {
		// Strict comparison, the first fiat in iteration order wins ties
		if c.pct > bestPct {
			bestPct = c.pct
			best = c.result()
		}
	}

	return best
}

// All returns the spread of every fiat having both a best buy and a best
// sell with a positive buy price, profitable or not, in iteration order
func (e *Engine) All(ctx context.Context) []*types.SpreadResult {
	computed := e.compute(ctx)

	out := make([]*types.SpreadResult, 0, len(computed))
	for _, c := range computed {
		out = append(out, c.result())
	}

	return out
}

type candidate struct {
	pair Pair
	buy  quote
	sell quote
	pct  float64
}

func (c candidate) result() *types.SpreadResult {
	return &types.SpreadResult{
		Fiat:         c.pair.Fiat,
		Crypto:       c.pair.Crypto,
		BuyPrice:     c.buy.price,
		SellPrice:    c.sell.price,
		SpreadPct:    provider.Round(c.pct, 2),
		BuyExchange:  c.buy.venue,
		SellExchange: c.sell.venue,
	}
}

func (e *Engine) compute(ctx context.Context) []candidate {
	out := make([]candidate, 0, len(e.pairs))

	for _, pair := range e.pairs {
		buy, sell, ok := e.bestQuotes(ctx, pair)
		if !ok {
			continue
		}

		if buy.price <= 0 {
			continue
		}

		out = append(out, candidate{
			pair: pair,
			buy:  buy,
			sell: sell,
			pct:  (sell.price - buy.price) / buy.price * 100,
		})
	}

	return out
}

// bestQuotes finds the lowest cached BUY price and the highest cached
// SELL price for the pair, across all venues.
// A venue without a cache entry contributes nothing
func (e *Engine) bestQuotes(ctx context.Context, pair Pair) (quote, quote, bool) {
	var (
		buy, sell         quote
		hasBuy, hasSell   bool
		fiat, crypto      = pair.Fiat.String(), pair.Crypto.String()
		buySide, sellSide = types.SideBUY.String(), types.SideSELL.String()
	)

	for _, venue := range e.venues {
		if buys, ok := e.store.Get(ctx, cache.P2PKey(venue, fiat, crypto, buySide)); ok && len(buys) > 0 {
			price := minPrice(buys)

			if !hasBuy || price < buy.price {
				buy = quote{venue: venue, price: price}
				hasBuy = true
			}
		}

		if sells, ok := e.store.Get(ctx, cache.P2PKey(venue, fiat, crypto, sellSide)); ok && len(sells) > 0 {
			price := maxPrice(sells)

			if !hasSell || price > sell.price {
				sell = quote{venue: venue, price: price}
				hasSell = true
			}
		}
	}

	return buy, sell, hasBuy && hasSell
}

func minPrice(offers []types.Offer) float64 {
	lowest := offers[0].Price

	for _, o := range offers[1:] {
		if o.Price < lowest {
			lowest = o.Price
		}
	}

	return lowest
}

func maxPrice(offers []types.Offer) float64 {
	highest := offers[0].Price

	for _, o := range offers[1:] {
		if o.Price > highest {
			highest = o.Price
		}
	}

	return highest
}
