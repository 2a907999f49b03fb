package quote

import (
	"context"
	"fmt"
	"strings"
)

// MultiProvider tries each provider in order and returns the first success.
type MultiProvider struct {
	providers []Provider
}

// NewMultiProvider creates a failover chain over providers.
func NewMultiProvider(providers ...Provider) *MultiProvider {
	return &MultiProvider{providers: providers}
}

// Name returns the provider name
func (m *MultiProvider) Name() string {
	names := make([]string, 0, len(m.providers))
	for _, p := range m.providers {
		names = append(names, p.Name())
	}
	return strings.Join(names, ",")
}

// Fetch returns the first successful quote, or the last provider's error.
func (m *MultiProvider) Fetch(ctx context.Context, symbol string) (Quote, error) {
	if len(m.providers) == 0 {
		return Quote{}, newError("multi", symbol, ErrProviderInit, fmt.Errorf("no providers configured"))
	}
	var lastErr error
	for _, p := range m.providers {
		q, err := p.Fetch(ctx, symbol)
		if err == nil {
			return q, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return Quote{}, lastErr
}

// NewChain builds the provider chain named by names. "yahoo" expands into one
// provider per base URL, so a failing host falls over to the next one.
func NewChain(names []string, yahoo YahooOptions, yahooBaseURLs []string) (*MultiProvider, error) {
	if len(names) == 0 {
		names = []string{"yahoo"}
	}
	var providers []Provider
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "stub":
			providers = append(providers, NewStubProvider())
		case "yahoo":
			bases := yahooBaseURLs
			if len(bases) == 0 {
				bases = []string{yahoo.BaseURL}
			}
			for _, base := range bases {
				opts := yahoo
				opts.BaseURL = base
				p, err := NewYahooProvider(opts)
				if err != nil {
					return nil, err
				}
				providers = append(providers, p)
			}
		default:
			return nil, newError(name, "", ErrProviderInit, fmt.Errorf("unknown provider %q", name))
		}
	}
	return NewMultiProvider(providers...), nil
}
