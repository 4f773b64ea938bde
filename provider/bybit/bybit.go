//nolint:tagliatelle // Bybit API uses camel case
package bybit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/p2prates/provider"
	"github.com/sig-0/p2prates/storage/types"
)

// Venue is the Bybit P2P venue identifier
const Venue = "bybit"

const (
	P2PURL = "https://api2.bybit.com/fiat/otc/item/online"

	profileURL = "https://www.bybit.com/fiat/trade/otc/profile/"
)

// Bybit encodes the side from the taker's perspective as "1" (buy) / "0" (sell)
const (
	sideBuy  = "1"
	sideSell = "0"
)

// paymentMethods maps the Bybit payment method IDs to display names
var paymentMethods = map[string]string{
	"14":  "Bank Transfer",
	"9":   "Revolut",
	"133": "Wise",
	"139": "PayPal",
	"154": "SEPA",
	"159": "Faster Payments",
	"355": "BLIK",
	"357": "Paysend",
	"174": "Skrill",
	"147": "Neteller",
	"292": "Crypto.com",
	"22":  "WebMoney",
	"416": "MB WAY",
	"77":  "Payoneer",
	"234": "Neosurf",
}

type onlineRequest struct {
	TokenID       types.Currency `json:"tokenId"`
	CurrencyID    types.Currency `json:"currencyId"`
	Side          string         `json:"side"`
	Size          string         `json:"size"`
	Page          string         `json:"page"`
	Amount        string         `json:"amount"`
	PaymentMethod []string       `json:"paymentMethod"`
}

type onlineResponse struct {
	Result struct {
		Items []onlineItem `json:"items"`
	} `json:"result"`
}

type onlineItem struct {
	UserID            string          `json:"userId"`
	NickName          string          `json:"nickName"`
	Price             string          `json:"price"`
	MinAmount         string          `json:"minAmount"`
	MaxAmount         string          `json:"maxAmount"`
	Payments          []string        `json:"payments"`
	RecentExecuteRate decimal.Decimal `json:"recentExecuteRate"`
	RecentOrderNum    int             `json:"recentOrderNum"`
}

// Provider fetches offers from Bybit P2P
type Provider struct {
	client *http.Client
	trust  provider.TrustClassifier
	logger *slog.Logger
	url    string
}

// NewProvider creates a new instance of the Bybit P2P provider
func NewProvider(
	url string,
	timeout time.Duration,
	trust provider.TrustClassifier,
	logger *slog.Logger,
) *Provider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Provider{
		client: &http.Client{
			Timeout: timeout,
		},
		trust:  trust,
		logger: logger,
		url:    url,
	}
}

func (p *Provider) Name() string {
	return Venue
}

// FetchOffers fetches the first page of offers. Errors are logged,
// and yield an empty list
func (p *Provider) FetchOffers(
	ctx context.Context,
	fiat types.Currency,
	crypto types.Currency,
	side types.Side,
	rows int,
) []types.Offer {
	offers, err := p.fetchOffers(ctx, fiat, crypto, side, rows)
	if err != nil {
		p.logger.Error(
			"unable to fetch Bybit P2P offers",
			"fiat", fiat,
			"crypto", crypto,
			"side", side,
			"err", err,
		)

		return []types.Offer{}
	}

	return offers
}

func (p *Provider) fetchOffers(
	ctx context.Context,
	fiat types.Currency,
	crypto types.Currency,
	side types.Side,
	rows int,
) ([]types.Offer, error) {
	bybitSide := sideSell
	if side == types.SideBUY {
		bybitSide = sideBuy
	}

	reqBody := onlineRequest{
		TokenID:       crypto,
		CurrencyID:    fiat,
		Side:          bybitSide,
		Size:          strconv.Itoa(rows),
		Page:          "1",
		PaymentMethod: []string{},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("unable to create POST request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", provider.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute POST request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	var apiResp onlineResponse
	if err = json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("unable to decode response: %w", err)
	}

	offers := make([]types.Offer, 0, len(apiResp.Result.Items))

	for _, item := range apiResp.Result.Items {
		offers = append(offers, p.normalize(item, fiat, crypto, side))
	}

	return offers, nil
}

// normalize converts the Bybit listing into the common offer shape
func (p *Provider) normalize(
	item onlineItem,
	fiat types.Currency,
	crypto types.Currency,
	side types.Side,
) types.Offer {
	var (
		tradeCount     = max(item.RecentOrderNum, 0)
		completionRate = provider.CompletionRate(item.RecentExecuteRate)
	)

	var url string
	if item.UserID != "" {
		url = profileURL + item.UserID
	}

	return types.Offer{
		Exchange:       Venue,
		Price:          provider.ParseDecimal(item.Price).InexactFloat64(),
		MinAmount:      provider.ParseDecimal(item.MinAmount).InexactFloat64(),
		MaxAmount:      provider.ParseDecimal(item.MaxAmount).InexactFloat64(),
		Currency:       fiat,
		Crypto:         crypto,
		Side:           side,
		Advertiser:     item.NickName,
		AdvertiserID:   item.UserID,
		URL:            url,
		PaymentMethods: paymentNames(item.Payments),
		TradeCount:     tradeCount,
		CompletionRate: completionRate,
		Trusted: p.trust.IsTrusted(
			Venue,
			item.UserID,
			item.NickName,
			tradeCount,
			completionRate,
		),
	}
}

// paymentNames maps the payment IDs to display names, keeping the order.
// Unknown IDs are rendered as "#<id>"
func paymentNames(ids []string) []string {
	names := make([]string, 0, len(ids))

	for _, id := range ids {
		name, ok := paymentMethods[id]
		if !ok {
			name = "#" + id
		}

		names = append(names, name)
	}

	return names
}
