package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/sig-0/p2prates/storage"
	"github.com/sig-0/p2prates/storage/types"
)

var errInvalidSnapshot = errors.New("invalid spread snapshot")

type Storage struct {
	data map[string]types.SpreadSnapshot // id -> snapshot

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		data: make(map[string]types.SpreadSnapshot),
	}
}

func (s *Storage) SaveSpread(_ context.Context, snapshot *types.SpreadSnapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return errInvalidSnapshot
	}

	elem := *snapshot
	elem.RecordedAt = elem.RecordedAt.UTC()

	s.mu.Lock()
	s.data[elem.ID] = elem // id is unique
	s.mu.Unlock()

	return nil
}

func (s *Storage) Spreads(
	_ context.Context,
	query *types.SpreadQuery,
) (*types.Page[*types.SpreadSnapshot], error) {
	var (
		fiat    string
		hasFiat bool
	)

	if query.Fiat != nil {
		fiat = query.Fiat.String()
		hasFiat = true
	}

	s.mu.RLock()

	out := make([]*types.SpreadSnapshot, 0, len(s.data))

	for _, v := range s.data {
		if hasFiat && v.Fiat.String() != fiat {
			continue
		}

		cp := v
		out = append(out, &cp)
	}

	s.mu.RUnlock()

	// Newest first, ties broken by id
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.After(out[j].RecordedAt)
		}

		return out[i].ID < out[j].ID
	})

	total := int64(len(out))
	if total == 0 {
		return &types.Page[*types.SpreadSnapshot]{
			Results: nil,
			Total:   0,
		}, nil
	}

	lim := storage.PageLimit(query.Limit)

	off := max(query.Offset, 0)
	if off >= total {
		return &types.Page[*types.SpreadSnapshot]{
			Results: nil,
			Total:   total,
		}, nil
	}

	start := int(off)
	end := min(start+int(lim), len(out))

	return &types.Page[*types.SpreadSnapshot]{
		Results: out[start:end],
		Total:   total,
	}, nil
}
