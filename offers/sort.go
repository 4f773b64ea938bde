package offers

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sig-0/p2prates/storage/types"
)

// SortOrder is the offer list ordering
type SortOrder string

const (
	// SortPrice orders by the taker's most favorable price first
	SortPrice SortOrder = "price"

	// SortVolume orders by the max tradable amount, descending
	SortVolume SortOrder = "volume"

	// SortRate orders by the advertiser completion rate, descending
	SortRate SortOrder = "rate"
)

// ParseSortOrder normalizes the raw sort value.
// Anything unrecognized falls back to price ordering
func ParseSortOrder(raw string) SortOrder {
	switch s := SortOrder(strings.ToLower(strings.TrimSpace(raw))); s {
	case SortVolume, SortRate:
		return s
	default:
		return SortPrice
	}
}

// sortOffers stable-sorts the offers in place
func sortOffers(offers []types.Offer, order SortOrder, side types.Side) {
	var compare func(a, b types.Offer) int

	switch order {
	case SortVolume:
		compare = func(a, b types.Offer) int {
			return cmp.Compare(b.MaxAmount, a.MaxAmount)
		}
	case SortRate:
		compare = func(a, b types.Offer) int {
			return cmp.Compare(b.CompletionRate, a.CompletionRate)
		}
	default:
		// A seller wants the highest bid, a buyer the lowest ask
		if side == types.SideSELL {
			compare = func(a, b types.Offer) int {
				return cmp.Compare(b.Price, a.Price)
			}
		} else {
			compare = func(a, b types.Offer) int {
				return cmp.Compare(a.Price, b.Price)
			}
		}
	}

	slices.SortStableFunc(offers, compare)
}

// filterByRate drops offers below the minimum completion rate,
// preserving the relative order of the rest
func filterByRate(offers []types.Offer, minRate float64) []types.Offer {
	if minRate <= 0 {
		return offers
	}

	filtered := make([]types.Offer, 0, len(offers))

	for _, offer := range offers {
		if offer.CompletionRate < minRate {
			continue
		}

		filtered = append(filtered, offer)
	}

	return filtered
}
