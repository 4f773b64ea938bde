package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sig-0/p2prates/cache"
	"github.com/sig-0/p2prates/cache/memory"
	"github.com/sig-0/p2prates/cache/redis"
	"github.com/sig-0/p2prates/cmd/env"
	"github.com/sig-0/p2prates/ingest"
	"github.com/sig-0/p2prates/market"
	"github.com/sig-0/p2prates/metrics"
	"github.com/sig-0/p2prates/offers"
	"github.com/sig-0/p2prates/provider/binance"
	"github.com/sig-0/p2prates/server"
	"github.com/sig-0/p2prates/server/config"
	"github.com/sig-0/p2prates/spread"
	"github.com/sig-0/p2prates/storage"
	"github.com/sig-0/p2prates/storage/types"
)

// caches groups the expiring stores of the service
type caches struct {
	offers   cache.Store[[]types.Offer]
	charts   cache.Store[[]types.Candle]
	trending cache.Store[[]types.Ticker]

	closeFn func() error
}

// newCaches creates the expiring stores. When the Redis URL ENV variable
// is set the stores are Redis-backed, otherwise they are process-local
func newCaches(ctx context.Context, m *metrics.Metrics, logger *slog.Logger) (*caches, error) {
	url := os.Getenv(env.Prefix + env.RedisURLSuffix)
	if url == "" {
		logger.Info("using in-memory cache")

		return &caches{
			offers:   memory.NewStore[[]types.Offer](memory.WithMetrics(m)),
			charts:   memory.NewStore[[]types.Candle](memory.WithMetrics(m)),
			trending: memory.NewStore[[]types.Ticker](memory.WithMetrics(m)),
			closeFn: func() error {
				return nil
			},
		}, nil
	}

	rdb, err := redis.Connect(ctx, url)
	if err != nil {
		return nil, err
	}

	logger.Info("using redis cache")

	opts := []redis.Option{
		redis.WithLogger(logger),
		redis.WithMetrics(m),
	}

	return &caches{
		offers:   redis.NewStore[[]types.Offer](rdb, cache.NamespaceP2P, opts...),
		charts:   redis.NewStore[[]types.Candle](rdb, cache.NamespaceChart, opts...),
		trending: redis.NewStore[[]types.Ticker](rdb, cache.NamespaceTrending, opts...),
		closeFn:  rdb.Close,
	}, nil
}

// run wires the services on top of the given storage,
// and runs the HTTP server and the ingestion jobs until ctx is done
func run(
	ctx context.Context,
	cfg *config.Config,
	store storage.Storage,
	logger *slog.Logger,
) error {
	if err := config.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration, %w", err)
	}

	venueTimeout, recordInterval, warmInterval := cfg.Durations()

	m := metrics.New()

	stores, err := newCaches(ctx, m, logger)
	if err != nil {
		return fmt.Errorf("unable to create caches, %w", err)
	}

	defer func() {
		if err := stores.closeFn(); err != nil {
			logger.Error(
				"unable to gracefully close cache",
				"err", err,
			)
		}
	}()

	// Create the domain services
	var (
		offerService = offers.New(
			stores.offers,
			defaultVenues(cfg.Trust, venueTimeout, logger),
			offers.WithLogger(logger),
			offers.WithObserver(m),
			offers.WithRows(cfg.OfferRows),
			offers.WithFetchDedup(),
		)

		spreadEngine = spread.New(
			stores.offers,
			cfg.Spread.Pairs,
			cfg.Spread.Venues,
		)

		marketService = market.New(
			binance.NewMarketProvider(
				binance.MarketURL,
				venueTimeout,
				logger.With("venue", binance.Venue),
			),
			stores.charts,
			stores.trending,
		)
	)

	// Create the ingestion service
	orchestrator := ingest.New(store, ingest.WithLogger(logger))

	jobs := []ingest.Job{
		ingest.NewRecorder(spreadEngine, recordInterval),
	}

	if warmInterval > 0 {
		jobs = append(
			jobs,
			ingest.NewWarmer(offerService, cfg.Spread.Pairs, cfg.Spread.Venues, warmInterval),
		)
	}

	for _, job := range jobs {
		if err = orchestrator.Register(job); err != nil {
			return fmt.Errorf("unable to register job: %w", err)
		}
	}

	// Create the server instance
	s, err := server.New(
		store,
		offerService,
		spreadEngine,
		marketService,
		server.WithLogger(logger),
		server.WithConfig(cfg),
		server.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	// Start the ingestion service
	group.Go(func() error {
		return orchestrator.Start(gCtx)
	})

	return group.Wait()
}
