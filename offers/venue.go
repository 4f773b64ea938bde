package offers

import (
	"context"

	"github.com/sig-0/p2prates/storage/types"
)

// DefaultRows is the number of offers requested from a venue per query
const DefaultRows = 15

// Venue is a single P2P trading venue adapter
type Venue interface {
	// Name returns the venue identifier (lowercase, e.g. "binance")
	Name() string

	// FetchOffers fetches and normalizes the venue's current offers.
	// It fails closed: any upstream, timeout or parsing error yields an empty list
	FetchOffers(
		ctx context.Context,
		fiat types.Currency,
		crypto types.Currency,
		side types.Side,
		rows int,
	) []types.Offer
}
