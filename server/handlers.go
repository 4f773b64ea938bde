package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/sig-0/p2prates/market"
	"github.com/sig-0/p2prates/offers"
	"github.com/sig-0/p2prates/provider/currencies"
	"github.com/sig-0/p2prates/storage"
	"github.com/sig-0/p2prates/storage/types"
)

const (
	defaultExchange = "bybit"
	statusOK        = "ok"
)

var (
	errUnableToFetchOffers  = errors.New("unable to fetch offers")
	errUnableToFetchHistory = errors.New("unable to fetch spread history")

	errInvalidLimit    = errors.New("invalid limit")
	errInvalidOffset   = errors.New("invalid offset")
	errInvalidMinRate  = errors.New("invalid min_rate (must be a finite number)")
	errInvalidSymbol   = errors.New("invalid symbol (must be 2-20 alphanumerics)")
	errInvalidInterval = errors.New("invalid interval")
)

var symbolRegex = regexp.MustCompile(`^[A-Za-z0-9]{2,20}$`)

// chartIntervals are the kline intervals supported by the market data API
var chartIntervals = map[string]struct{}{
	"1s": {}, "1m": {}, "3m": {}, "5m": {}, "15m": {}, "30m": {},
	"1h": {}, "2h": {}, "4h": {}, "6h": {}, "8h": {}, "12h": {},
	"1d": {}, "3d": {}, "1w": {}, "1M": {},
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, &HealthResponse{
		Status:         statusOK,
		SupportedFiats: s.config.SupportedFiats,
	})
}

func (s *Server) Offers(w http.ResponseWriter, r *http.Request) {
	var (
		fiatParam     = r.URL.Query().Get("fiat")
		cryptoParam   = r.URL.Query().Get("crypto")
		sideParam     = r.URL.Query().Get("side")
		exchangeParam = r.URL.Query().Get("exchange")
		sortParam     = r.URL.Query().Get("sort")
		minRateParam  = r.URL.Query().Get("min_rate")
	)

	// Parse the side (defaults to BUY)
	side := types.SideBUY

	if v := strings.TrimSpace(sideParam); v != "" {
		parsed, ok := types.ParseSide(v)
		if !ok {
			writeError(w, http.StatusBadRequest, offers.ErrInvalidSide)

			return
		}

		side = parsed
	}

	// Parse the minimum completion rate (optional)
	minRate, err := parseMinRate(minRateParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	q := offers.Query{
		Venue:   strings.ToLower(withDefault(exchangeParam, defaultExchange)),
		Fiat:    types.Currency(strings.ToUpper(withDefault(fiatParam, currencies.PLN.String()))),
		Crypto:  types.Currency(strings.ToUpper(withDefault(cryptoParam, currencies.USDT.String()))),
		Side:    side,
		Sort:    offers.ParseSortOrder(sortParam),
		MinRate: minRate,
	}

	list, err := s.offers.Offers(r.Context(), q)
	if err != nil {
		if errors.Is(err, offers.ErrUnknownVenue) ||
			errors.Is(err, offers.ErrInvalidSide) ||
			errors.Is(err, offers.ErrInvalidCurrency) {
			writeError(w, http.StatusBadRequest, err)

			return
		}

		s.logger.Debug(
			"unable to fetch offers",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchOffers,
		)

		return
	}

	writeJSON(w, http.StatusOK, &OffersResponse{
		Exchange: q.Venue,
		Offers:   list,
	})
}

func (s *Server) Spread(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &SpreadResponse{
		Spread: s.spread.Best(r.Context()),
	})
}

func (s *Server) Spreads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &SpreadsResponse{
		Spreads: s.spread.All(r.Context()),
	})
}

func (s *Server) SpreadHistory(w http.ResponseWriter, r *http.Request) {
	var (
		fiatParam   = r.URL.Query().Get("fiat")
		limitParam  = r.URL.Query().Get("limit")
		offsetParam = r.URL.Query().Get("offset")
	)

	// Parse the fiat filter (optional)
	var fiat *types.Currency

	if v := strings.TrimSpace(fiatParam); v != "" {
		c, err := parseCurrencySymbol(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)

			return
		}

		fiat = &c
	}

	// Parse the pagination settings
	limit, offset, err := parseLimitOffset(limitParam, offsetParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	page, err := s.storage.Spreads(r.Context(), &types.SpreadQuery{
		Fiat:   fiat,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Debug(
			"unable to fetch spread history",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchHistory,
		)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) Chart(w http.ResponseWriter, r *http.Request) {
	var (
		symbol   = strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
		interval = strings.TrimSpace(r.URL.Query().Get("interval"))
	)

	if symbol == "" {
		symbol = market.DefaultSymbol
	}

	if interval == "" {
		interval = market.DefaultInterval
	}

	if !symbolRegex.MatchString(symbol) {
		writeError(w, http.StatusBadRequest, errInvalidSymbol)

		return
	}

	if _, ok := chartIntervals[interval]; !ok {
		writeError(w, http.StatusBadRequest, errInvalidInterval)

		return
	}

	writeJSON(w, http.StatusOK, &ChartResponse{
		Symbol:   symbol,
		Interval: interval,
		Data:     s.market.Chart(r.Context(), symbol, interval),
	})
}

func (s *Server) Trending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &TrendingResponse{
		Data: s.market.Trending(r.Context()),
	})
}

func parseMinRate(raw string) (float64, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, nil
	}

	rate, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, errInvalidMinRate
	}

	return rate, nil
}

func parseLimitOffset(limitRaw, offsetRaw string) (int32, int64, error) {
	var limit int32

	if v := strings.TrimSpace(limitRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return 0, 0, errInvalidLimit
		}

		limit = int32(n)
	}

	var offset int64

	if v := strings.TrimSpace(offsetRaw); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, errInvalidOffset
		}

		offset = n
	}

	return storage.PageLimit(limit), offset, nil
}

func parseCurrencySymbol(v string) (types.Currency, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	if len(s) != 3 {
		return "", errors.New("invalid currency (must be 3 letters)")
	}

	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return "", errors.New("invalid currency (must be A-Z)")
		}
	}

	return types.Currency(s), nil
}

func withDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}

	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Error: err.Error(),
	}

	writeJSON(w, status, resp)
}
