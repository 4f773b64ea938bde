//nolint:tagliatelle // Binance API uses camel case
package binance

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/p2prates/provider"
	"github.com/sig-0/p2prates/storage/types"
)

const (
	MarketURL = "https://api.binance.com/api/v3"

	// quoteAsset is the quote asset of the trending pairs
	quoteAsset = "USDT"

	// minTrendingVolume is the minimum 24h quote volume of a trending pair
	minTrendingVolume = 1_000_000
)

// movingAveragePeriods are the chart moving average windows
var movingAveragePeriods = [...]int{7, 25, 99}

type ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
}

// MarketProvider fetches spot market data from the Binance API
type MarketProvider struct {
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewMarketProvider creates a new instance of the Binance market data provider
func NewMarketProvider(baseURL string, timeout time.Duration, logger *slog.Logger) *MarketProvider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &MarketProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// FetchChart fetches the candles for the symbol, with moving averages.
// Errors are logged, and yield an empty series
func (p *MarketProvider) FetchChart(
	ctx context.Context,
	symbol string,
	interval string,
	limit int,
) []types.Candle {
	candles, err := p.fetchChart(ctx, symbol, interval, limit)
	if err != nil {
		p.logger.Error(
			"unable to fetch chart",
			"symbol", symbol,
			"interval", interval,
			"err", err,
		)

		return []types.Candle{}
	}

	return candles
}

// FetchTrending fetches the top movers among liquid USDT pairs.
// Errors are logged, and yield an empty list
func (p *MarketProvider) FetchTrending(ctx context.Context, limit int) []types.Ticker {
	tickers, err := p.fetchTrending(ctx, limit)
	if err != nil {
		p.logger.Error(
			"unable to fetch trending",
			"err", err,
		)

		return []types.Ticker{}
	}

	return tickers
}

func (p *MarketProvider) fetchChart(
	ctx context.Context,
	symbol string,
	interval string,
	limit int,
) ([]types.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	var raw [][]json.RawMessage
	if err := p.get(ctx, "/klines?"+params.Encode(), &raw); err != nil {
		return nil, err
	}

	candles := make([]types.Candle, 0, len(raw))

	for _, k := range raw {
		candle, err := parseKline(k)
		if err != nil {
			return nil, err
		}

		candles = append(candles, candle)
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	var (
		ma7  = MovingAverage(closes, movingAveragePeriods[0])
		ma25 = MovingAverage(closes, movingAveragePeriods[1])
		ma99 = MovingAverage(closes, movingAveragePeriods[2])
	)

	for i := range candles {
		candles[i].MA7 = ma7[i]
		candles[i].MA25 = ma25[i]
		candles[i].MA99 = ma99[i]
	}

	return candles, nil
}

func (p *MarketProvider) fetchTrending(ctx context.Context, limit int) ([]types.Ticker, error) {
	var raw []ticker24h
	if err := p.get(ctx, "/ticker/24hr", &raw); err != nil {
		return nil, err
	}

	tickers := make([]types.Ticker, 0, len(raw))

	for _, t := range raw {
		if !strings.HasSuffix(t.Symbol, quoteAsset) {
			continue
		}

		volume := provider.ParseDecimal(t.QuoteVolume)
		if !volume.GreaterThan(decimal.NewFromInt(minTrendingVolume)) {
			continue
		}

		tickers = append(tickers, types.Ticker{
			Symbol: strings.TrimSuffix(t.Symbol, quoteAsset),
			Price:  provider.ParseDecimal(t.LastPrice).InexactFloat64(),
			Change: provider.ParseDecimal(t.PriceChangePercent).InexactFloat64(),
			Volume: volume.InexactFloat64(),
			High:   provider.ParseDecimal(t.HighPrice).InexactFloat64(),
			Low:    provider.ParseDecimal(t.LowPrice).InexactFloat64(),
		})
	}

	// Biggest movers (either direction) first
	slices.SortStableFunc(tickers, func(a, b types.Ticker) int {
		return cmp.Compare(abs(b.Change), abs(a.Change))
	})

	if limit > 0 && len(tickers) > limit {
		tickers = tickers[:limit]
	}

	return tickers, nil
}

// get executes the GET request and decodes the JSON response
func (p *MarketProvider) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("unable to create GET request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	if err = json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("unable to decode response: %w", err)
	}

	return nil
}

// parseKline parses a single kline row:
// [openTime, open, high, low, close, volume, ...]
func parseKline(row []json.RawMessage) (types.Candle, error) {
	if len(row) < 6 {
		return types.Candle{}, fmt.Errorf("invalid kline length: %d", len(row))
	}

	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return types.Candle{}, fmt.Errorf("unable to parse kline open time: %w", err)
	}

	values := make([]float64, 5)

	for i := range values {
		var v decimal.Decimal
		if err := v.UnmarshalJSON(row[i+1]); err != nil {
			return types.Candle{}, fmt.Errorf("unable to parse kline value: %w", err)
		}

		values[i] = v.InexactFloat64()
	}

	return types.Candle{
		Time:   openTime,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

// MovingAverage computes the simple moving average over the period,
// rounded to 2 decimal places. Points without a full window are nil
func MovingAverage(values []float64, period int) []*float64 {
	out := make([]*float64, len(values))

	if period <= 0 {
		return out
	}

	sum := decimal.Zero

	for i, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))

		if i >= period {
			sum = sum.Sub(decimal.NewFromFloat(values[i-period]))
		}

		if i < period-1 {
			continue
		}

		avg := sum.Div(decimal.NewFromInt(int64(period))).Round(2).InexactFloat64()
		out[i] = &avg
	}

	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}
