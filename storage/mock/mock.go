package mock

import (
	"context"

	"github.com/sig-0/p2prates/storage/types"
)

type (
	SaveSpreadDelegate func(context.Context, *types.SpreadSnapshot) error
	SpreadsDelegate    func(context.Context, *types.SpreadQuery) (*types.Page[*types.SpreadSnapshot], error)
)

type Storage struct {
	SaveSpreadFn SaveSpreadDelegate
	SpreadsFn    SpreadsDelegate
}

func (m *Storage) SaveSpread(ctx context.Context, snapshot *types.SpreadSnapshot) error {
	if m.SaveSpreadFn != nil {
		return m.SaveSpreadFn(ctx, snapshot)
	}

	return nil
}

func (m *Storage) Spreads(
	ctx context.Context,
	query *types.SpreadQuery,
) (*types.Page[*types.SpreadSnapshot], error) {
	if m.SpreadsFn != nil {
		return m.SpreadsFn(ctx, query)
	}

	return nil, nil
}
