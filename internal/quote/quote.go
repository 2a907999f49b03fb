// Package quote fetches stock quotes from finance data providers.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultSymbol is the symbol shown when nothing else is configured.
const DefaultSymbol = "0700.HK"

// Error kinds returned by providers. Match them with errors.Is.
var (
	ErrNetwork      = errors.New("network error")
	ErrNoData       = errors.New("no quote data available")
	ErrProviderInit = errors.New("provider initialization failed")
)

// Quote is a snapshot of a single symbol's closing price.
type Quote struct {
	Symbol   string    `json:"symbol"`
	Currency string    `json:"currency,omitempty"`
	Close    float64   `json:"close"`
	At       time.Time `json:"at"`
	Source   string    `json:"source"`
}

// Format renders the quote the way the overlay displays it, e.g. "0700.HK close: 7".
func (q Quote) Format() string {
	return fmt.Sprintf("%s close: %s", q.Symbol, formatPrice(q.Close))
}

// Placeholder is what the overlay shows for a symbol that has no quote yet.
func Placeholder(symbol string) string {
	return fmt.Sprintf("%s close: --", NormalizeSymbol(symbol))
}

// NormalizeSymbol upper-cases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func formatPrice(v float64) string {
	// Providers return float noise like 383.20001220703125.
	rounded := math.Round(v*1000) / 1000
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Fetcher retrieves the latest quote for a symbol.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (Quote, error)
}

// Provider is a named Fetcher.
type Provider interface {
	Fetcher
	Name() string
}

// FetchError describes a failed fetch. Kind is one of ErrNetwork, ErrNoData
// or ErrProviderInit.
type FetchError struct {
	Provider string
	Symbol   string
	Kind     error
	Err      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.Symbol != "" {
		msg = fmt.Sprintf("%s %s: %s", e.Provider, e.Symbol, e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns a short label for the kind of a fetch error.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, ErrProviderInit):
		return "provider_init"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "network"
	default:
		return "unknown"
	}
}

func newError(provider, symbol string, kind, err error) *FetchError {
	return &FetchError{Provider: provider, Symbol: symbol, Kind: kind, Err: err}
}
