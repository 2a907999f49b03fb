// Package refresh drives the overlay: it ticks the clock label every tick
// and refreshes the quote label when its gate says the quote is due.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"stock-overlay/internal/cache"
	"stock-overlay/internal/config"
	"stock-overlay/internal/overlay"
	"stock-overlay/internal/quote"
)

// Options configures a Driver. Zero values select defaults.
type Options struct {
	Symbol       string
	Tick         time.Duration
	Gate         Gate
	FetchTimeout time.Duration
	Layout       string
	Clock        Clock
	Logger       *slog.Logger
}

// Driver owns the overlay State. Only the goroutine running Run (or Init,
// before Run starts) touches it; fetches run on worker goroutines and hand
// their results back over a channel.
type Driver struct {
	fetcher      quote.Fetcher
	quotes       *cache.Service
	publishFn    func(overlay.DisplayInfo)
	clock        Clock
	gate         Gate
	logger       *slog.Logger
	tickEvery    time.Duration
	fetchTimeout time.Duration
	layout       string

	state    overlay.State
	symbol   string
	inFlight bool
	refetch  bool // symbol changed while a fetch was in flight

	results chan fetchResult
	symbols chan string
}

// fetchResult is what a worker sends back to the loop.
type fetchResult struct {
	id      string
	symbol  string
	quote   quote.Quote
	err     error
	elapsed time.Duration
}

// New creates a driver. quotes and publish may be nil.
func New(fetcher quote.Fetcher, quotes *cache.Service, publish func(overlay.DisplayInfo), opts Options) *Driver {
	if opts.Symbol == "" {
		opts.Symbol = quote.DefaultSymbol
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	if opts.Gate == nil {
		opts.Gate = NewAlignedGate(30 * time.Second)
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.Layout == "" {
		opts.Layout = config.DefaultClockLayout
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if publish == nil {
		publish = func(overlay.DisplayInfo) {}
	}

	return &Driver{
		fetcher:      fetcher,
		quotes:       quotes,
		publishFn:    publish,
		clock:        opts.Clock,
		gate:         opts.Gate,
		logger:       opts.Logger,
		tickEvery:    opts.Tick,
		fetchTimeout: opts.FetchTimeout,
		layout:       opts.Layout,
		symbol:       quote.NormalizeSymbol(opts.Symbol),
		results:      make(chan fetchResult, 1),
		symbols:      make(chan string, 1),
	}
}

// NewFromConfig builds a driver from the application config.
func NewFromConfig(cfg *config.Config, fetcher quote.Fetcher, quotes *cache.Service, publish func(overlay.DisplayInfo), logger *slog.Logger) (*Driver, error) {
	gate, err := NewGate(cfg.Refresh.Gate, cfg.QuotePeriod(), cfg.TickInterval())
	if err != nil {
		return nil, err
	}
	return New(fetcher, quotes, publish, Options{
		Symbol:       cfg.Symbol,
		Tick:         cfg.TickInterval(),
		Gate:         gate,
		FetchTimeout: cfg.FetchTimeout(),
		Layout:       cfg.Clock.Layout,
		Logger:       logger,
	}), nil
}

// Init builds the initial state with a synchronous fetch so both labels
// are non-empty before the first render. It must be called before Run.
func (d *Driver) Init(ctx context.Context) {
	now := d.clock.Now()
	d.state.CurrentTime = now.Format(d.layout)
	d.state.Stock = quote.Placeholder(d.symbol)

	d.apply(d.fetch(ctx, ulid.Make().String(), d.symbol))
}

// Run processes ticks, fetch results and symbol changes until ctx is done.
func (d *Driver) Run(ctx context.Context) {
	d.logger.Info("refresh driver started", "symbol", d.symbol, "tick", d.tickEvery)
	defer d.logger.Info("refresh driver stopped")

	timer := d.clock.After(d.tickEvery)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-timer:
			d.onTick(ctx, now)
			timer = d.clock.After(d.tickEvery)
			d.publish()
		case res := <-d.results:
			d.inFlight = false
			d.apply(res)
			if d.refetch {
				d.refetch = false
				d.dispatch(ctx)
			}
		case symbol := <-d.symbols:
			d.switchSymbol(ctx, symbol)
		}
	}
}

// SetSymbol asks the loop to switch to symbol. Safe from any goroutine;
// only the latest pending request is kept.
func (d *Driver) SetSymbol(symbol string) {
	for {
		select {
		case d.symbols <- symbol:
			return
		default:
		}
		select {
		case <-d.symbols:
		default:
		}
	}
}

// onTick updates the clock label and dispatches a fetch when the quote is due.
func (d *Driver) onTick(ctx context.Context, now time.Time) {
	d.state.CurrentTime = now.Format(d.layout)
	if d.gate.Due(now) {
		d.dispatch(ctx)
	}
}

// dispatch starts a fetch on a worker goroutine unless one is in flight.
func (d *Driver) dispatch(ctx context.Context) {
	if d.inFlight {
		d.logger.Debug("quote fetch skipped, previous fetch still in flight", "symbol", d.symbol)
		return
	}
	d.inFlight = true

	id := ulid.Make().String()
	symbol := d.symbol
	d.logger.Debug("quote fetch started", "symbol", symbol, "fetch_id", id)
	go func() {
		d.results <- d.fetch(ctx, id, symbol)
	}()
}

// fetch performs one bounded fetch. It never panics.
func (d *Driver) fetch(ctx context.Context, id, symbol string) (res fetchResult) {
	res = fetchResult{id: id, symbol: symbol}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("quote fetch panicked: %v", r)
		}
		res.elapsed = time.Since(start)
	}()

	fctx, cancel := context.WithTimeout(ctx, d.fetchTimeout)
	defer cancel()
	res.quote, res.err = d.fetcher.Fetch(fctx, symbol)
	return res
}

// apply folds a fetch result into the state. Failures keep the last good
// quote on screen.
func (d *Driver) apply(res fetchResult) {
	if res.symbol != d.symbol {
		d.logger.Debug("discarding quote for previous symbol", "symbol", res.symbol, "fetch_id", res.id)
		return
	}

	if res.err != nil {
		d.logger.Warn("quote fetch failed",
			"symbol", res.symbol,
			"kind", quote.KindOf(res.err),
			"fetch_id", res.id,
			"elapsed", res.elapsed,
			"error", res.err)
		d.state.LastError = res.err.Error()
		d.publish()
		return
	}

	d.state.Stock = res.quote.Format()
	d.state.QuoteAt = d.clock.Now()
	d.state.LastError = ""
	if d.quotes != nil {
		d.quotes.Set(res.quote)
	}
	d.logger.Debug("quote updated", "quote", d.state.Stock, "fetch_id", res.id, "elapsed", res.elapsed)
	d.publish()
}

// switchSymbol shows the cached quote for symbol, or a placeholder, and
// fetches it right away.
func (d *Driver) switchSymbol(ctx context.Context, symbol string) {
	symbol = quote.NormalizeSymbol(symbol)
	if symbol == "" || symbol == d.symbol {
		return
	}
	d.logger.Info("switching symbol", "from", d.symbol, "to", symbol)
	d.symbol = symbol
	d.state.LastError = ""
	d.state.QuoteAt = time.Time{}
	d.state.Stock = quote.Placeholder(symbol)
	if d.quotes != nil {
		if q, ok := d.quotes.Get(symbol); ok {
			d.state.Stock = q.Format()
			d.state.QuoteAt = q.At
		}
	}
	d.publish()

	if d.inFlight {
		d.refetch = true
		return
	}
	d.dispatch(ctx)
}

func (d *Driver) publish() {
	d.publishFn(d.state.Display(d.clock.Now()))
}

// Symbol returns the symbol being tracked. Only valid from the loop or
// before Run starts.
func (d *Driver) Symbol() string {
	return d.symbol
}
