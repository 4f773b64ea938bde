//nolint:tagliatelle // Binance API uses camel case
package binance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/p2prates/provider"
	"github.com/sig-0/p2prates/storage/types"
)

// Venue is the Binance P2P venue identifier
const Venue = "binance"

const (
	P2PURL = "https://p2p.binance.com/bapi/c2c/v2/friendly/c2c/adv/search"

	advertiserURL = "https://p2p.binance.com/en/advertiserDetail?advertiserNo="
)

// p2pRequest is the request body for the Binance P2P API
type p2pRequest struct {
	PublisherType *string        `json:"publisherType"`
	Fiat          types.Currency `json:"fiat"`
	Asset         types.Currency `json:"asset"`
	TradeType     types.Side     `json:"tradeType"`
	PayTypes      []string       `json:"payTypes"`
	Page          int            `json:"page"`
	Rows          int            `json:"rows"`
}

// p2pResponse is the response from the Binance P2P API
type p2pResponse struct {
	Data []p2pItem `json:"data"`
}

type p2pItem struct {
	Adv        p2pAdv        `json:"adv"`
	Advertiser p2pAdvertiser `json:"advertiser"`
}

type p2pAdv struct {
	Price                string           `json:"price"`
	MinSingleTransAmount string           `json:"minSingleTransAmount"`
	MaxSingleTransAmount string           `json:"maxSingleTransAmount"`
	TradeMethods         []p2pTradeMethod `json:"tradeMethods"`
}

type p2pTradeMethod struct {
	TradeMethodName string `json:"tradeMethodName"`
}

type p2pAdvertiser struct {
	UserNo          string          `json:"userNo"`
	NickName        string          `json:"nickName"`
	MonthFinishRate decimal.Decimal `json:"monthFinishRate"`
	MonthOrderCount int             `json:"monthOrderCount"`
}

// P2PProvider fetches offers from Binance P2P
type P2PProvider struct {
	client *http.Client
	trust  provider.TrustClassifier
	logger *slog.Logger
	url    string
}

// NewP2PProvider creates a new instance of the Binance P2P provider
func NewP2PProvider(
	url string,
	timeout time.Duration,
	trust provider.TrustClassifier,
	logger *slog.Logger,
) *P2PProvider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &P2PProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		trust:  trust,
		logger: logger,
		url:    url,
	}
}

func (p *P2PProvider) Name() string {
	return Venue
}

// FetchOffers fetches the first page of offers. Errors are logged,
// and yield an empty list
func (p *P2PProvider) FetchOffers(
	ctx context.Context,
	fiat types.Currency,
	crypto types.Currency,
	side types.Side,
	rows int,
) []types.Offer {
	offers, err := p.fetchOffers(ctx, fiat, crypto, side, rows)
	if err != nil {
		p.logger.Error(
			"unable to fetch Binance P2P offers",
			"fiat", fiat,
			"crypto", crypto,
			"side", side,
			"err", err,
		)

		return []types.Offer{}
	}

	return offers
}

func (p *P2PProvider) fetchOffers(
	ctx context.Context,
	fiat types.Currency,
	crypto types.Currency,
	side types.Side,
	rows int,
) ([]types.Offer, error) {
	reqBody := p2pRequest{
		Fiat:      fiat,
		Asset:     crypto,
		TradeType: side,
		Page:      1,
		Rows:      rows,
		PayTypes:  []string{},
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
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", provider.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute POST request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	var apiResp p2pResponse
	if err = json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("unable to decode response: %w", err)
	}

	offers := make([]types.Offer, 0, len(apiResp.Data))

	for _, item := range apiResp.Data {
		offers = append(offers, p.normalize(item, fiat, crypto, side))
	}

	return offers, nil
}

// normalize converts the Binance listing into the common offer shape
func (p *P2PProvider) normalize(
	item p2pItem,
	fiat types.Currency,
	crypto types.Currency,
	side types.Side,
) types.Offer {
	var (
		advertiser     = item.Advertiser
		tradeCount     = max(advertiser.MonthOrderCount, 0)
		completionRate = provider.CompletionRate(advertiser.MonthFinishRate)
	)

	methods := make([]string, 0, len(item.Adv.TradeMethods))
	for _, m := range item.Adv.TradeMethods {
		methods = append(methods, m.TradeMethodName)
	}

	var url string
	if advertiser.UserNo != "" {
		url = advertiserURL + advertiser.UserNo
	}

	return types.Offer{
		Exchange:       Venue,
		Price:          provider.ParseDecimal(item.Adv.Price).InexactFloat64(),
		MinAmount:      provider.ParseDecimal(item.Adv.MinSingleTransAmount).InexactFloat64(),
		MaxAmount:      provider.ParseDecimal(item.Adv.MaxSingleTransAmount).InexactFloat64(),
		Currency:       fiat,
		Crypto:         crypto,
		Side:           side,
		Advertiser:     advertiser.NickName,
		AdvertiserID:   advertiser.UserNo,
		URL:            url,
		PaymentMethods: methods,
		TradeCount:     tradeCount,
		CompletionRate: completionRate,
		Trusted: p.trust.IsTrusted(
			Venue,
			advertiser.UserNo,
			advertiser.NickName,
			tradeCount,
			completionRate,
		),
	}
}
