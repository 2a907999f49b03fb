package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartWithNulls = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "0700.HK", "currency": "HKD", "regularMarketPrice": 380.0, "regularMarketTime": 1714540000},
      "timestamp": [1714539900, 1714539960, 1714540020],
      "indicators": {"quote": [{"close": [381.0, 382.4000244140625, null]}]}
    }],
    "error": null
  }
}`

const chartOnlyMeta = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "0700.HK", "currency": "HKD", "regularMarketPrice": 400.0, "regularMarketTime": 1714540000},
      "timestamp": [1714539900],
      "indicators": {"quote": [{"close": [null]}]}
    }],
    "error": null
  }
}`

const chartNotFound = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewYahooProvider(YahooOptions{BaseURL: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return p
}

func TestYahooProvider_LastNonNullClose(t *testing.T) {
	var gotPath, gotInterval, gotRange, gotUA string
	p := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		gotRange = r.URL.Query().Get("range")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartWithNulls))
	})

	q, err := p.Fetch(context.Background(), "0700.hk")
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/0700.HK", gotPath)
	assert.Equal(t, "1m", gotInterval)
	assert.Equal(t, "1d", gotRange)
	assert.NotEmpty(t, gotUA)

	assert.Equal(t, "0700.HK", q.Symbol)
	assert.Equal(t, "HKD", q.Currency)
	assert.InDelta(t, 382.4, q.Close, 0.001)
	assert.Equal(t, time.Unix(1714539960, 0), q.At)
	assert.Equal(t, "yahoo", q.Source)
	assert.Equal(t, "0700.HK close: 382.4", q.Format())
}

func TestYahooProvider_FallsBackToMeta(t *testing.T) {
	p := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartOnlyMeta))
	})

	q, err := p.Fetch(context.Background(), "0700.HK")
	require.NoError(t, err)
	assert.Equal(t, 400.0, q.Close)
	assert.Equal(t, time.Unix(1714540000, 0), q.At)
}

func TestYahooProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"chart error", http.StatusNotFound, chartNotFound, ErrNoData},
		{"server error", http.StatusInternalServerError, "upstream exploded", ErrNetwork},
		{"rate limited", http.StatusTooManyRequests, "Too Many Requests", ErrNetwork},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, ErrNoData},
		{"garbage", http.StatusOK, `<html>`, ErrNoData},
		{"no closes", http.StatusOK, `{"chart":{"result":[{"meta":{"symbol":"0700.HK"}}],"error":null}}`, ErrNoData},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := p.Fetch(context.Background(), "0700.HK")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestYahooProvider_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	p, err := NewYahooProvider(YahooOptions{BaseURL: base, Timeout: time.Second})
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), "0700.HK")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestYahooProvider_EmptySymbol(t *testing.T) {
	p, err := NewYahooProvider(YahooOptions{})
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNewYahooProvider_InvalidBaseURL(t *testing.T) {
	for _, base := range []string{"not-a-url", "ftp://example.com", "http://"} {
		_, err := NewYahooProvider(YahooOptions{BaseURL: base})
		assert.ErrorIs(t, err, ErrProviderInit, "base=%q", base)
	}
}
