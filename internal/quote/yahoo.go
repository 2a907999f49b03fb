package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultYahooBaseURL  = "https://query1.finance.yahoo.com"
	defaultYahooInterval = "1m"
	defaultYahooRange    = "1d"
	yahooUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// YahooOptions configures a YahooProvider. Zero values select defaults.
type YahooOptions struct {
	BaseURL  string
	Interval string
	Range    string
	Timeout  time.Duration
	Client   *http.Client
}

// YahooProvider reads the latest close from the Yahoo Finance chart API.
type YahooProvider struct {
	baseURL  *url.URL
	interval string
	rng      string
	client   *http.Client
}

// yahooChartResponse is the subset of /v8/finance/chart we use.
type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *yahooChartError   `json:"error"`
	} `json:"chart"`
}

type yahooChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooChartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		Currency           string  `json:"currency"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// NewYahooProvider creates a Yahoo provider. A malformed base URL is reported
// as ErrProviderInit.
func NewYahooProvider(opts YahooOptions) (*YahooProvider, error) {
	base := opts.BaseURL
	if base == "" {
		base = defaultYahooBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, newError("yahoo", "", ErrProviderInit, fmt.Errorf("invalid base url: %w", err))
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, newError("yahoo", "", ErrProviderInit, fmt.Errorf("invalid base url %q", base))
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	p := &YahooProvider{
		baseURL:  u,
		interval: opts.Interval,
		rng:      opts.Range,
		client:   client,
	}
	if p.interval == "" {
		p.interval = defaultYahooInterval
	}
	if p.rng == "" {
		p.rng = defaultYahooRange
	}
	return p, nil
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// Fetch returns the most recent close for symbol.
func (p *YahooProvider) Fetch(ctx context.Context, symbol string) (Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return Quote{}, newError(p.Name(), symbol, ErrNoData, fmt.Errorf("symbol is empty"))
	}

	u := *p.baseURL
	u.Path += "/v8/finance/chart/" + symbol
	q := u.Query()
	q.Set("interval", p.interval)
	q.Set("range", p.rng)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Quote{}, newError(p.Name(), symbol, ErrNetwork, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Quote{}, newError(p.Name(), symbol, ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, newError(p.Name(), symbol, ErrNetwork, fmt.Errorf("read body: %w", err))
	}

	var payload yahooChartResponse
	decodeErr := json.Unmarshal(body, &payload)

	// Yahoo reports unknown symbols as 404 with a chart.error body.
	if decodeErr == nil && payload.Chart.Error != nil {
		return Quote{}, newError(p.Name(), symbol, ErrNoData,
			fmt.Errorf("%s: %s", payload.Chart.Error.Code, payload.Chart.Error.Description))
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, newError(p.Name(), symbol, ErrNetwork, fmt.Errorf("yahoo returned status %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return Quote{}, newError(p.Name(), symbol, ErrNoData, fmt.Errorf("decode chart: %w", decodeErr))
	}
	if len(payload.Chart.Result) == 0 {
		return Quote{}, newError(p.Name(), symbol, ErrNoData, fmt.Errorf("empty chart result"))
	}

	return p.latest(symbol, payload.Chart.Result[0])
}

// latest picks the last non-null close of the series, falling back to the
// regular market price from meta.
func (p *YahooProvider) latest(symbol string, res yahooChartResult) (Quote, error) {
	out := Quote{
		Symbol:   symbol,
		Currency: res.Meta.Currency,
		Source:   p.Name(),
	}
	if res.Meta.Symbol != "" {
		out.Symbol = NormalizeSymbol(res.Meta.Symbol)
	}

	if len(res.Indicators.Quote) > 0 {
		closes := res.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] == nil || *closes[i] <= 0 {
				continue
			}
			out.Close = *closes[i]
			if i < len(res.Timestamp) {
				out.At = time.Unix(res.Timestamp[i], 0)
			}
			return out, nil
		}
	}

	if res.Meta.RegularMarketPrice > 0 {
		out.Close = res.Meta.RegularMarketPrice
		if res.Meta.RegularMarketTime > 0 {
			out.At = time.Unix(res.Meta.RegularMarketTime, 0)
		}
		return out, nil
	}

	return Quote{}, newError(p.Name(), symbol, ErrNoData, fmt.Errorf("no valid close in series"))
}
