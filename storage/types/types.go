package types

import (
	"strings"
	"time"
)

type Currency string

func (c Currency) String() string {
	return string(c)
}

// Side is the trade direction, from the taker's perspective
type Side string

const (
	SideBUY  Side = "BUY"
	SideSELL Side = "SELL"
)

func (s Side) String() string {
	return string(s)
}

// Valid returns true if the side is BUY or SELL
func (s Side) Valid() bool {
	return s == SideBUY || s == SideSELL
}

// ParseSide normalizes the raw side value. The bool is false
// for anything other than BUY or SELL (case-insensitive)
func ParseSide(raw string) (Side, bool) {
	s := Side(strings.ToUpper(strings.TrimSpace(raw)))

	return s, s.Valid()
}

// Offer is a single normalized P2P trade listing
type Offer struct {
	Exchange       string   `json:"exchange"`
	Price          float64  `json:"price"`
	MinAmount      float64  `json:"min_amount"`
	MaxAmount      float64  `json:"max_amount"`
	Currency       Currency `json:"currency"`
	Crypto         Currency `json:"crypto"`
	Side           Side     `json:"side"`
	Advertiser     string   `json:"advertiser"`
	AdvertiserID   string   `json:"advertiser_id"`
	Commission     float64  `json:"commission"`
	URL            string   `json:"url,omitempty"`
	PaymentMethods []string `json:"payment_methods"`
	TradeCount     int      `json:"trade_count"`
	CompletionRate float64  `json:"completion_rate"`
	Trusted        bool     `json:"trusted"`
}

// SpreadResult is the best cross-venue arbitrage opportunity for a fiat
type SpreadResult struct {
	Fiat         Currency `json:"fiat"`
	Crypto       Currency `json:"crypto"`
	BuyPrice     float64  `json:"buy_price"`
	SellPrice    float64  `json:"sell_price"`
	SpreadPct    float64  `json:"spread_pct"`
	BuyExchange  string   `json:"buy_exchange"`
	SellExchange string   `json:"sell_exchange"`
}

// SpreadSnapshot is a recorded spread observation
type SpreadSnapshot struct {
	RecordedAt time.Time `json:"recorded_at"`
	ID         string    `json:"id"`

	SpreadResult
}

type SpreadQuery struct {
	Fiat   *Currency `json:"fiat"`
	Offset int64     `json:"offset"`
	Limit  int32     `json:"limit"`
}

// Candle is a single chart data point, with moving averages
type Candle struct {
	MA7    *float64 `json:"ma7"`
	MA25   *float64 `json:"ma25"`
	MA99   *float64 `json:"ma99"`
	Time   int64    `json:"time"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume float64  `json:"volume"`
}

// Ticker is a 24h market summary for a single asset
type Ticker struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
	Volume float64 `json:"volume"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
}

// Page wraps the results for pagination
type Page[T any] struct {
	Results []T   `json:"results"`
	Total   int64 `json:"total"`
}
