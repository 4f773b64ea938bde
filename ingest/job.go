package ingest

import (
	"context"
	"time"

	"github.com/sig-0/p2prates/storage/types"
)

// Job is a single recurring background job
type Job interface {
	// Name returns the human-readable name of the job
	Name() string

	// Interval returns the interval at which the job should be run
	Interval() time.Duration

	// Run is the job's main routine, yielding the spread snapshots to persist (if any)
	Run(context.Context) ([]*types.SpreadSnapshot, error)
}
