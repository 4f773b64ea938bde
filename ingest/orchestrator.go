package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"

	"github.com/sig-0/p2prates/storage"
)

var (
	errInvalidJob      = errors.New("invalid job")
	errInvalidInterval = errors.New("invalid interval")
)

const (
	defaultRetryDelay = 10 * time.Second
	saveTimeout       = 10 * time.Second
	collectorSize     = 100
)

// Orchestrator is the main scheduler for registered background jobs
type Orchestrator struct {
	storage storage.Storage
	logger  *slog.Logger

	registeredJobs sync.Map

	q             iq.Queue[scheduledRun]
	queryInterval time.Duration
	retryDelay    time.Duration
	qMux          sync.Mutex
}

// New creates a new Orchestrator instance
func New(storage storage.Storage, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		storage:       storage,
		q:             iq.NewQueue[scheduledRun](),
		queryInterval: time.Second, // every second
		retryDelay:    defaultRetryDelay,
	}

	// Apply the options
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Register registers a new job with the orchestrator.
// The job is immediately queued up for execution
func (o *Orchestrator) Register(j Job) error {
	if j == nil || j.Name() == "" {
		return errInvalidJob
	}

	if j.Interval() <= 0 {
		return errInvalidInterval
	}

	// Register the job
	id := xid.New()
	o.registeredJobs.Store(id, j)

	o.logger.Info(
		"registered new job",
		"name", j.Name(),
		"interval", j.Interval(),
	)

	// Schedule the run
	o.scheduleRun(
		time.Now().UTC(),
		id,
		j,
	)

	return nil
}

// Start starts the job orchestration service loop [BLOCKING]
func (o *Orchestrator) Start(ctx context.Context) error {
	collectorCh := make(chan *workerResponse, collectorSize)

	// Start a listener for monitoring jobs
	ticker := time.NewTicker(o.queryInterval)
	defer ticker.Stop()

	// handleRuns initializes all runs that are executable (due)
	handleRuns := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				next := o.nextRun()
				if next == nil {
					return // nothing to schedule anymore
				}

				o.logger.Debug(
					"scheduling job run",
					"name", next.job.Name(),
				)

				// Spawn worker
				info := &workerInfo{
					job:   next.job,
					jobID: next.jobID,
					resCh: collectorCh,
				}

				go handleJob(ctx, info)
			}
		}
	}

	// Initialize the first set of due runs (on boot)
	handleRuns()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator service shut down")

			return nil
		case <-ticker.C:
			handleRuns()
		case response := <-collectorCh:
			now := time.Now().UTC()

			jRaw, ok := o.registeredJobs.Load(response.jobID)
			if !ok {
				o.logger.Error(
					"unable to load registered job",
					"id", response.jobID.String(),
				)

				continue
			}

			j, _ := jRaw.(Job)

			if response.error != nil {
				o.logger.Error(
					"error encountered during job run",
					"name", j.Name(),
					"id", response.jobID.String(),
					"err", response.error,
				)

				// Retry the job soon
				o.scheduleRun(
					now.Add(o.retryDelay),
					response.jobID,
					j,
				)

				continue
			}

			// Save the job-produced snapshots
			for _, snapshot := range response.snapshots {
				saveCtx, cancelFn := context.WithTimeout(ctx, saveTimeout)

				if err := o.storage.SaveSpread(saveCtx, snapshot); err != nil {
					o.logger.Error(
						"unable to save spread snapshot",
						"fiat", snapshot.Fiat,
						"crypto", snapshot.Crypto,
						"err", err,
					)

					cancelFn()

					continue
				}

				cancelFn()

				o.logger.Info(
					"saved spread snapshot",
					"id", snapshot.ID,
					"fiat", snapshot.Fiat,
					"crypto", snapshot.Crypto,
					"spread_pct", snapshot.SpreadPct,
					"buy_exchange", snapshot.BuyExchange,
					"sell_exchange", snapshot.SellExchange,
				)
			}

			// Schedule the next run for this job
			o.scheduleRun(
				now.Add(j.Interval()),
				response.jobID,
				j,
			)
		}
	}
}

// scheduleRun schedules a new job run
func (o *Orchestrator) scheduleRun(
	at time.Time,
	jobID xid.ID,
	job Job,
) {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	o.q.Push(scheduledRun{
		at:    at,
		jobID: jobID,
		job:   job,
	})
}

// nextRun fetches the next due job run, as of the moment of calling
func (o *Orchestrator) nextRun() *scheduledRun {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	now := time.Now().UTC()

	// Check if anything needs to be scheduled
	if o.q.Len() == 0 {
		return nil // nothing to schedule, all jobs are running
	}

	// Check if the top element is due
	if o.q.Index(0).at.After(now) {
		return nil // nothing to schedule, earliest run is in the future
	}

	return o.q.PopFront()
}
