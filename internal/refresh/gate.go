package refresh

import (
	"fmt"
	"time"

	"stock-overlay/internal/config"
)

// Gate decides on each tick whether the quote is due for a refresh.
// Gates are owned by the driver loop and are not safe for concurrent use.
type Gate interface {
	Due(now time.Time) bool
}

// AlignedGate fires on ticks whose wall-clock second is a multiple of the
// period. A tick that misses the alignment second skips that refresh.
type AlignedGate struct {
	period int64
	last   int64
	fired  bool
}

// NewAlignedGate creates a wall-clock aligned gate. Periods under a second
// are rounded up to one second.
func NewAlignedGate(period time.Duration) *AlignedGate {
	secs := int64(period / time.Second)
	if secs < 1 {
		secs = 1
	}
	return &AlignedGate{period: secs}
}

// Due reports whether now falls on an alignment second. Sub-second ticks
// fire at most once per alignment second.
func (g *AlignedGate) Due(now time.Time) bool {
	sec := now.Unix()
	if sec%g.period != 0 {
		return false
	}
	if g.fired && sec == g.last {
		return false
	}
	g.last, g.fired = sec, true
	return true
}

// ElapsedGate fires every n ticks regardless of wall-clock alignment, so a
// late tick delays the refresh instead of skipping it.
type ElapsedGate struct {
	every int
	count int
}

// NewElapsedGate creates a gate that fires once per period of ticks.
func NewElapsedGate(period, tick time.Duration) *ElapsedGate {
	every := 1
	if tick > 0 && period > tick {
		every = int(period / tick)
	}
	return &ElapsedGate{every: every}
}

// Due counts a tick and reports whether the period has elapsed.
func (g *ElapsedGate) Due(time.Time) bool {
	g.count++
	if g.count >= g.every {
		g.count = 0
		return true
	}
	return false
}

// NewGate builds the gate named by config.Refresh.Gate.
func NewGate(name string, period, tick time.Duration) (Gate, error) {
	switch name {
	case config.GateAligned, "":
		return NewAlignedGate(period), nil
	case config.GateElapsed:
		return NewElapsedGate(period, tick), nil
	default:
		return nil, fmt.Errorf("unknown refresh gate %q", name)
	}
}
