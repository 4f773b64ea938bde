// Package offers is the offer query layer: it serves venue offer lists
// through the expiring cache, then filters and sorts them per request.
package offers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sig-0/p2prates/cache"
	"github.com/sig-0/p2prates/storage/types"
)

var (
	ErrUnknownVenue    = errors.New("unknown venue")
	ErrInvalidSide     = errors.New("invalid side (must be BUY or SELL)")
	ErrInvalidCurrency = errors.New("invalid currency")
)

// FetchObserver is notified of every upstream venue fetch
type FetchObserver interface {
	ObserveFetch(venue string, offers int, took time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveFetch(string, int, time.Duration) {}

// Query is a single offer list request
type Query struct {
	Venue   string
	Fiat    types.Currency
	Crypto  types.Currency
	Side    types.Side
	Sort    SortOrder
	MinRate float64
}

// Service is the offer query layer
type Service struct {
	store    cache.Store[[]types.Offer]
	logger   *slog.Logger
	observer FetchObserver

	venues map[string]Venue

	sf    singleflight.Group
	rows  int
	dedup bool
}

// New creates a new offer query layer over the given store and venues
func New(store cache.Store[[]types.Offer], venues []Venue, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer: noopObserver{},
		venues:   make(map[string]Venue, len(venues)),
		rows:     DefaultRows,
	}

	for _, v := range venues {
		s.venues[strings.ToLower(v.Name())] = v
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Venues returns the registered venue identifiers, sorted
func (s *Service) Venues() []string {
	names := make([]string, 0, len(s.venues))

	for name := range s.venues {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Offers returns the filtered, sorted offer list for the query.
// The returned slice is owned by the caller
func (s *Service) Offers(ctx context.Context, q Query) ([]types.Offer, error) {
	cached, err := s.Load(ctx, q.Venue, q.Fiat, q.Crypto, q.Side)
	if err != nil {
		return nil, err
	}

	// Cached lists are shared snapshots, never sort them in place
	out := filterByRate(slices.Clone(cached), q.MinRate)

	sortOffers(out, q.Sort, normalizeSide(q.Side))

	return out, nil
}

// Load returns the raw offer list for the venue query, from the cache
// or freshly fetched (and cached) on a miss.
// The returned slice must not be modified
func (s *Service) Load(
	ctx context.Context,
	venueName string,
	fiat, crypto types.Currency,
	side types.Side,
) ([]types.Offer, error) {
	venue, ok := s.venues[strings.ToLower(strings.TrimSpace(venueName))]
	if !ok {
		return nil, ErrUnknownVenue
	}

	side = normalizeSide(side)
	if !side.Valid() {
		return nil, ErrInvalidSide
	}

	fiat = normalizeCurrency(fiat)
	crypto = normalizeCurrency(crypto)

	if fiat == "" || crypto == "" {
		return nil, ErrInvalidCurrency
	}

	key := cache.P2PKey(venue.Name(), fiat.String(), crypto.String(), side.String())

	if cached, ok := s.store.Get(ctx, key); ok {
		return cached, nil
	}

	// The fetch result is cached for every caller, so the caller's
	// cancellation must not cut it short. The venue timeout bounds it
	ctx = context.WithoutCancel(ctx)

	if !s.dedup {
		return s.fetch(ctx, venue, key, fiat, crypto, side), nil
	}

	v, _, _ := s.sf.Do(key, func() (any, error) {
		return s.fetch(ctx, venue, key, fiat, crypto, side), nil
	})

	offers, _ := v.([]types.Offer)

	return offers, nil
}

// fetch queries the venue and caches the result, empty or not.
// No store lock is held while the venue is queried
func (s *Service) fetch(
	ctx context.Context,
	venue Venue,
	key string,
	fiat, crypto types.Currency,
	side types.Side,
) []types.Offer {
	start := time.Now()

	offers := venue.FetchOffers(ctx, fiat, crypto, side, s.rows)
	if offers == nil {
		offers = []types.Offer{}
	}

	took := time.Since(start)
	s.observer.ObserveFetch(venue.Name(), len(offers), took)

	s.logger.Debug(
		"fetched venue offers",
		"venue", venue.Name(),
		"fiat", fiat,
		"crypto", crypto,
		"side", side,
		"offers", len(offers),
		"took", took,
	)

	s.store.Set(ctx, key, offers, cache.P2PTTL)

	return offers
}

func normalizeSide(side types.Side) types.Side {
	return types.Side(strings.ToUpper(strings.TrimSpace(side.String())))
}

func normalizeCurrency(c types.Currency) types.Currency {
	return types.Currency(strings.ToUpper(strings.TrimSpace(c.String())))
}
