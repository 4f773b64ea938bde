package server

import "github.com/sig-0/p2prates/storage/types"

type HealthResponse struct {
	Status         string           `json:"status"`
	SupportedFiats []types.Currency `json:"supported_fiats"`
}

type OffersResponse struct {
	Exchange string        `json:"exchange"`
	Offers   []types.Offer `json:"offers"`
}

type SpreadResponse struct {
	Spread *types.SpreadResult `json:"spread"`
}

type SpreadsResponse struct {
	Spreads []*types.SpreadResult `json:"spreads"`
}

type ChartResponse struct {
	Symbol   string         `json:"symbol"`
	Interval string         `json:"interval"`
	Data     []types.Candle `json:"data"`
}

type TrendingResponse struct {
	Data []types.Ticker `json:"data"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
