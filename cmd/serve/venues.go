package serve

import (
	"log/slog"
	"time"

	"github.com/sig-0/p2prates/offers"
	"github.com/sig-0/p2prates/provider/binance"
	"github.com/sig-0/p2prates/provider/bybit"
	"github.com/sig-0/p2prates/trust"
)

// defaultVenues returns the P2P venue adapters, sharing one trust classifier
func defaultVenues(
	table trust.Table,
	timeout time.Duration,
	logger *slog.Logger,
) []offers.Venue {
	classifier := trust.NewClassifier(table)

	return []offers.Venue{
		bybit.NewProvider(
			bybit.P2PURL,
			timeout,
			classifier,
			logger.With("venue", bybit.Venue),
		),
		binance.NewP2PProvider(
			binance.P2PURL,
			timeout,
			classifier,
			logger.With("venue", binance.Venue),
		),
	}
}
