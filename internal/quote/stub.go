package quote

import (
	"context"
	"time"
)

// StubPrice is the close every StubProvider quote reports.
const StubPrice = 7.0

// StubProvider returns a fixed quote without touching the network.
type StubProvider struct {
	price float64
	now   func() time.Time
}

// NewStubProvider creates a stub provider reporting StubPrice.
func NewStubProvider() *StubProvider {
	return &StubProvider{price: StubPrice, now: time.Now}
}

// Name returns the provider name
func (p *StubProvider) Name() string {
	return "stub"
}

// Fetch returns the static quote for symbol.
func (p *StubProvider) Fetch(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, newError(p.Name(), symbol, ErrNetwork, err)
	}
	return Quote{
		Symbol:   NormalizeSymbol(symbol),
		Currency: "HKD",
		Close:    p.price,
		At:       p.now(),
		Source:   p.Name(),
	}, nil
}
