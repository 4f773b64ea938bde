package currencies

import "github.com/sig-0/p2prates/storage/types"

var (
	USDT types.Currency = "USDT"

	PLN types.Currency = "PLN"
	EUR types.Currency = "EUR"
	USD types.Currency = "USD"
	GBP types.Currency = "GBP"
	CZK types.Currency = "CZK"
	HUF types.Currency = "HUF"
	CAD types.Currency = "CAD"
	NGN types.Currency = "NGN"
	ILS types.Currency = "ILS"
	JPY types.Currency = "JPY"
)

// Supported returns the fiat currencies advertised by the service
func Supported() []types.Currency {
	return []types.Currency{PLN, EUR, USD, GBP, CZK, HUF, CAD, NGN, ILS, JPY}
}
