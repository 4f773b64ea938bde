package offers

import (
	"context"

	"github.com/sig-0/p2prates/storage/types"
)

type fetchOffersDelegate func(
	context.Context,
	types.Currency,
	types.Currency,
	types.Side,
	int,
) []types.Offer

type mockVenue struct {
	fetchOffersFn fetchOffersDelegate
	name          string
}

func (m *mockVenue) Name() string {
	return m.name
}

func (m *mockVenue) FetchOffers(
	ctx context.Context,
	fiat types.Currency,
	crypto types.Currency,
	side types.Side,
	rows int,
) []types.Offer {
	if m.fetchOffersFn != nil {
		return m.fetchOffersFn(ctx, fiat, crypto, side, rows)
	}

	return nil
}
