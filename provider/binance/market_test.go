package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovingAverage(t *testing.T) {
	t.Parallel()

	t.Run("window", func(t *testing.T) {
		t.Parallel()

		out := MovingAverage([]float64{1, 2, 3, 4, 5}, 3)
		require.Len(t, out, 5)

		assert.Nil(t, out[0])
		assert.Nil(t, out[1])

		require.NotNil(t, out[2])
		assert.Equal(t, 2.0, *out[2])
		assert.Equal(t, 3.0, *out[3])
		assert.Equal(t, 4.0, *out[4])
	})

	t.Run("rounded to 2 places", func(t *testing.T) {
		t.Parallel()

		out := MovingAverage([]float64{1, 1, 2}, 3)

		require.NotNil(t, out[2])
		assert.Equal(t, 1.33, *out[2])
	})

	t.Run("series shorter than the period", func(t *testing.T) {
		t.Parallel()

		for _, v := range MovingAverage([]float64{1, 2}, 7) {
			assert.Nil(t, v)
		}
	})

	t.Run("non-positive period", func(t *testing.T) {
		t.Parallel()

		out := MovingAverage([]float64{1, 2}, 0)

		assert.Len(t, out, 2)
		assert.Nil(t, out[0])
	})
}

func TestMarketProvider_FetchChart(t *testing.T) {
	t.Parallel()

	t.Run("candles with moving averages", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/klines", r.URL.Path)
			assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
			assert.Equal(t, "1d", r.URL.Query().Get("interval"))
			assert.Equal(t, "90", r.URL.Query().Get("limit"))

			rows := make([]string, 0, 8)
			for i := range 8 {
				rows = append(rows, fmt.Sprintf(
					`[%d,"%d.0","%d.5","%d.0","%d.0","10.5",0,"0",0,"0","0","0"]`,
					1700000000000+i, i+1, i+1, i, i+1,
				))
			}

			_, _ = w.Write([]byte("[" + strings.Join(rows, ",") + "]"))
		}))
		t.Cleanup(srv.Close)

		p := NewMarketProvider(srv.URL+"/", time.Second, nil)

		candles := p.FetchChart(context.Background(), "BTCUSDT", "1d", 90)
		require.Len(t, candles, 8)

		first := candles[0]
		assert.Equal(t, int64(1700000000000), first.Time)
		assert.Equal(t, 1.0, first.Open)
		assert.Equal(t, 1.5, first.High)
		assert.Equal(t, 0.0, first.Low)
		assert.Equal(t, 1.0, first.Close)
		assert.Equal(t, 10.5, first.Volume)
		assert.Nil(t, first.MA7)

		assert.Nil(t, candles[5].MA7)
		require.NotNil(t, candles[6].MA7)
		assert.Equal(t, 4.0, *candles[6].MA7)
		assert.Equal(t, 5.0, *candles[7].MA7)

		for _, c := range candles {
			assert.Nil(t, c.MA25)
			assert.Nil(t, c.MA99)
		}
	})

	t.Run("malformed kline yields empty series", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[[1700000000000,"1.0"]]`))
		}))
		t.Cleanup(srv.Close)

		p := NewMarketProvider(srv.URL, time.Second, nil)

		candles := p.FetchChart(context.Background(), "BTCUSDT", "1d", 90)

		assert.NotNil(t, candles)
		assert.Empty(t, candles)
	})

	t.Run("upstream error yields empty series", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		t.Cleanup(srv.Close)

		p := NewMarketProvider(srv.URL, time.Second, nil)

		assert.Empty(t, p.FetchChart(context.Background(), "NOPE", "1d", 90))
	})
}

func TestMarketProvider_FetchTrending(t *testing.T) {
	t.Parallel()

	t.Run("liquid usdt pairs by absolute change", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/ticker/24hr", r.URL.Path)

			_, _ = w.Write([]byte(`[
  {"symbol":"BTCUSDT","lastPrice":"65000.10","priceChangePercent":"1.50","quoteVolume":"900000000","highPrice":"66000","lowPrice":"64000"},
  {"symbol":"ETHUSDT","lastPrice":"3000","priceChangePercent":"-7.25","quoteVolume":"500000000","highPrice":"3300","lowPrice":"2950"},
  {"symbol":"DOGEUSDT","lastPrice":"0.1","priceChangePercent":"3.00","quoteVolume":"2000000","highPrice":"0.11","lowPrice":"0.09"},
  {"symbol":"TINYUSDT","lastPrice":"1","priceChangePercent":"50.00","quoteVolume":"1000000","highPrice":"1","lowPrice":"1"},
  {"symbol":"ETHBTC","lastPrice":"0.05","priceChangePercent":"20.00","quoteVolume":"90000000","highPrice":"0.06","lowPrice":"0.04"}
]`))
		}))
		t.Cleanup(srv.Close)

		p := NewMarketProvider(srv.URL, time.Second, nil)

		tickers := p.FetchTrending(context.Background(), 20)
		require.Len(t, tickers, 3)

		assert.Equal(t, "ETH", tickers[0].Symbol)
		assert.Equal(t, -7.25, tickers[0].Change)
		assert.Equal(t, 3300.0, tickers[0].High)
		assert.Equal(t, 2950.0, tickers[0].Low)

		assert.Equal(t, "DOGE", tickers[1].Symbol)

		assert.Equal(t, "BTC", tickers[2].Symbol)
		assert.Equal(t, 65000.10, tickers[2].Price)
		assert.Equal(t, 900000000.0, tickers[2].Volume)
	})

	t.Run("truncated to limit", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			rows := make([]string, 0, 30)
			for i := range 30 {
				rows = append(rows, fmt.Sprintf(
					`{"symbol":"C%dUSDT","lastPrice":"1","priceChangePercent":"%d","quoteVolume":"5000000","highPrice":"1","lowPrice":"1"}`,
					i, i,
				))
			}

			_, _ = w.Write([]byte("[" + strings.Join(rows, ",") + "]"))
		}))
		t.Cleanup(srv.Close)

		p := NewMarketProvider(srv.URL, time.Second, nil)

		tickers := p.FetchTrending(context.Background(), 20)
		require.Len(t, tickers, 20)

		assert.Equal(t, "C29", tickers[0].Symbol)
		assert.Equal(t, "C10", tickers[19].Symbol)
	})

	t.Run("upstream error yields empty list", func(t *testing.T) {
		t.Parallel()

		p := NewMarketProvider("http://127.0.0.1:1", 100*time.Millisecond, nil)

		tickers := p.FetchTrending(context.Background(), 20)

		assert.NotNil(t, tickers)
		assert.Empty(t, tickers)
	})
}
