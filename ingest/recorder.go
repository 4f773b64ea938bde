package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sig-0/p2prates/storage/types"
)

// DefaultRecordInterval is the default spread recording interval
const DefaultRecordInterval = 30 * time.Second

// SpreadSource yields the current best spread, if any
type SpreadSource interface {
	Best(ctx context.Context) *types.SpreadResult
}

// Recorder periodically snapshots the best spread.
// It only reads the offer cache, and never fetches from the venues
type Recorder struct {
	source   SpreadSource
	now      func() time.Time
	interval time.Duration
}

// NewRecorder creates a new spread recorder job
func NewRecorder(source SpreadSource, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = DefaultRecordInterval
	}

	return &Recorder{
		source:   source,
		now:      time.Now,
		interval: interval,
	}
}

func (r *Recorder) Name() string {
	return "spread-recorder"
}

func (r *Recorder) Interval() time.Duration {
	return r.interval
}

// Run snapshots the current best spread. An absent spread yields nothing
func (r *Recorder) Run(ctx context.Context) ([]*types.SpreadSnapshot, error) {
	best := r.source.Best(ctx)
	if best == nil {
		return nil, nil
	}

	return []*types.SpreadSnapshot{
		{
			ID:           uuid.NewString(),
			RecordedAt:   r.now().UTC(),
			SpreadResult: *best,
		},
	}, nil
}
