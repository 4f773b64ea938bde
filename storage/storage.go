package storage

import (
	"context"

	"github.com/sig-0/p2prates/storage/types"
)

const (
	// DefaultPageLimit is the page size used when the query sets none
	DefaultPageLimit = 100

	// MaxPageLimit is the upper bound on the page size
	MaxPageLimit = 500
)

// Storage is an abstraction over the recorded spread history
type Storage interface {
	// SaveSpread saves the given spread snapshot
	SaveSpread(context.Context, *types.SpreadSnapshot) error

	// Spreads fetches the recorded snapshots, newest first
	Spreads(context.Context, *types.SpreadQuery) (*types.Page[*types.SpreadSnapshot], error)
}

// PageLimit clamps the requested page size to (0, MaxPageLimit]
func PageLimit(limit int32) int32 {
	switch {
	case limit <= 0:
		return DefaultPageLimit
	case limit > MaxPageLimit:
		return MaxPageLimit
	default:
		return limit
	}
}
