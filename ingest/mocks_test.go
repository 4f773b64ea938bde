package ingest

import (
	"context"
	"time"

	"github.com/sig-0/p2prates/storage/types"
)

type (
	nameDelegate     func() string
	intervalDelegate func() time.Duration
	runDelegate      func(context.Context) ([]*types.SpreadSnapshot, error)

	bestDelegate func(context.Context) *types.SpreadResult
	loadDelegate func(context.Context, string, types.Currency, types.Currency, types.Side) ([]types.Offer, error)
)

type mockJob struct {
	nameFn     nameDelegate
	intervalFn intervalDelegate
	runFn      runDelegate
}

func (m *mockJob) Name() string {
	if m.nameFn != nil {
		return m.nameFn()
	}

	return ""
}

func (m *mockJob) Interval() time.Duration {
	if m.intervalFn != nil {
		return m.intervalFn()
	}

	return 0
}

func (m *mockJob) Run(ctx context.Context) ([]*types.SpreadSnapshot, error) {
	if m.runFn != nil {
		return m.runFn(ctx)
	}

	return nil, nil
}

type mockSpreadSource struct {
	bestFn bestDelegate
}

func (m *mockSpreadSource) Best(ctx context.Context) *types.SpreadResult {
	if m.bestFn != nil {
		return m.bestFn(ctx)
	}

	return nil
}

type mockOfferLoader struct {
	loadFn loadDelegate
}

func (m *mockOfferLoader) Load(
	ctx context.Context,
	venue string,
	fiat, crypto types.Currency,
	side types.Side,
) ([]types.Offer, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, venue, fiat, crypto, side)
	}

	return nil, nil
}
