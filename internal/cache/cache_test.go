package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-overlay/internal/quote"
)

func TestService_SetAndGet(t *testing.T) {
	c := New(3, time.Minute)

	c.Set(quote.Quote{Symbol: "0700.HK", Close: 380})
	c.Set(quote.Quote{Symbol: "9988.HK", Close: 80})

	got, ok := c.Get("0700.hk")
	require.True(t, ok)
	assert.Equal(t, 380.0, got.Close)

	_, ok = c.Get("AAPL")
	assert.False(t, ok)
}

func TestService_Eviction(t *testing.T) {
	c := New(2, time.Minute)

	c.Set(quote.Quote{Symbol: "A", Close: 1})
	c.Set(quote.Quote{Symbol: "B", Close: 2})
	c.Set(quote.Quote{Symbol: "C", Close: 3}) // Should evict "A"

	_, ok := c.Get("A")
	assert.False(t, ok, "Expected 'A' to be evicted")
	_, ok = c.Get("B")
	assert.True(t, ok)
	_, ok = c.Get("C")
	assert.True(t, ok)
}

func TestService_GetRefreshesRecency(t *testing.T) {
	c := New(2, time.Minute)

	c.Set(quote.Quote{Symbol: "A", Close: 1})
	c.Set(quote.Quote{Symbol: "B", Close: 2})
	_, _ = c.Get("A")
	c.Set(quote.Quote{Symbol: "C", Close: 3}) // "B" is now least recently used

	_, ok := c.Get("A")
	assert.True(t, ok)
	_, ok = c.Get("B")
	assert.False(t, ok)
}

func TestService_UpdateExisting(t *testing.T) {
	c := New(2, time.Minute)

	c.Set(quote.Quote{Symbol: "A", Close: 1})
	c.Set(quote.Quote{Symbol: "a", Close: 2})

	got, ok := c.Get("A")
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Close)
	assert.Equal(t, 1, c.Size())
}

func TestService_Expiration(t *testing.T) {
	c := New(10, time.Minute)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(quote.Quote{Symbol: "A", Close: 1})

	now = now.Add(59 * time.Second)
	_, ok := c.Get("A")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("A")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size(), "stale entry should be evicted on read")
}

func TestService_Clear(t *testing.T) {
	c := New(10, time.Minute)
	c.Set(quote.Quote{Symbol: "A", Close: 1})
	c.Set(quote.Quote{Symbol: "B", Close: 2})

	c.Clear()

	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("A")
	assert.False(t, ok)
}

func TestService_Stats(t *testing.T) {
	c := New(0, 0)
	c.Set(quote.Quote{Symbol: "A", Close: 1})

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, DefaultMaxSize, stats.MaxSize)
	assert.Equal(t, DefaultMaxAge, stats.MaxAge)
}
