package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sig-0/p2prates/spread"
	"github.com/sig-0/p2prates/storage/types"
)

// maxWarmFetches bounds the concurrent venue fetches of a single warm run
const maxWarmFetches = 4

// OfferLoader loads (and caches) a raw venue offer list
type OfferLoader interface {
	Load(
		ctx context.Context,
		venue string,
		fiat, crypto types.Currency,
		side types.Side,
	) ([]types.Offer, error)
}

// Warmer periodically loads every (pair, venue, side) of the spread matrix
// through the offer query layer, so the spread engine always has data
type Warmer struct {
	loader OfferLoader

	pairs    []spread.Pair
	venues   []string
	interval time.Duration
}

// NewWarmer creates a new matrix warmer job
func NewWarmer(
	loader OfferLoader,
	pairs []spread.Pair,
	venues []string,
	interval time.Duration,
) *Warmer {
	return &Warmer{
		loader:   loader,
		pairs:    pairs,
		venues:   venues,
		interval: interval,
	}
}

func (w *Warmer) Name() string {
	return "matrix-warmer"
}

func (w *Warmer) Interval() time.Duration {
	return w.interval
}

// Run loads the whole matrix. It produces no snapshots
func (w *Warmer) Run(ctx context.Context) ([]*types.SpreadSnapshot, error) {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	g.SetLimit(maxWarmFetches)

	for _, pair := range w.pairs {
		for _, venue := range w.venues {
			for _, side := range []types.Side{types.SideBUY, types.SideSELL} {
				g.Go(func() error {
					if _, err := w.loader.Load(ctx, venue, pair.Fiat, pair.Crypto, side); err != nil {
						mu.Lock()
						errs = append(errs, fmt.Errorf("%s %s/%s %s: %w", venue, pair.Fiat, pair.Crypto, side, err))
						mu.Unlock()
					}

					return nil
				})
			}
		}
	}

	_ = g.Wait()

	return nil, errors.Join(errs...)
}
