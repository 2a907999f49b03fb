package cache

import (
	"container/list"
	"sync"
	"time"

	"stock-overlay/internal/quote"
)

// Default limits used when New receives non-positive values.
const (
	DefaultMaxSize = 16
	DefaultMaxAge  = 10 * time.Minute
)

// Service implements an LRU cache of the last good quote per symbol
type Service struct {
	mu      sync.Mutex
	maxSize int
	maxAge  time.Duration
	entries map[string]*list.Element // Symbol to list element
	lruList *list.List               // Front is most recently used
	now     func() time.Time
}

// cacheEntry holds a cached quote with metadata
type cacheEntry struct {
	symbol   string
	quote    quote.Quote
	storedAt time.Time
}

// New creates a new cache service
func New(maxSize int, maxAge time.Duration) *Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	return &Service{
		maxSize: maxSize,
		maxAge:  maxAge,
		entries: make(map[string]*list.Element),
		lruList: list.New(),
		now:     time.Now,
	}
}

// Get retrieves the cached quote for symbol. Stale entries count as misses.
func (s *Service) Get(symbol string) (quote.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := quote.NormalizeSymbol(symbol)
	elem, exists := s.entries[key]
	if !exists {
		return quote.Quote{}, false
	}

	entry := elem.Value.(*cacheEntry)
	if s.now().Sub(entry.storedAt) > s.maxAge {
		s.removeElement(elem)
		return quote.Quote{}, false
	}

	s.lruList.MoveToFront(elem)
	return entry.quote, true
}

// Set caches q under its symbol
func (s *Service) Set(q quote.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := quote.NormalizeSymbol(q.Symbol)
	if elem, exists := s.entries[key]; exists {
		entry := elem.Value.(*cacheEntry)
		entry.quote = q
		entry.storedAt = s.now()
		s.lruList.MoveToFront(elem)
		return
	}

	elem := s.lruList.PushFront(&cacheEntry{
		symbol:   key,
		quote:    q,
		storedAt: s.now(),
	})
	s.entries[key] = elem

	for s.lruList.Len() > s.maxSize {
		s.removeElement(s.lruList.Back())
	}
}

// removeElement drops elem from the list and index (must hold lock)
func (s *Service) removeElement(elem *list.Element) {
	if elem == nil {
		return
	}
	entry := elem.Value.(*cacheEntry)
	s.lruList.Remove(elem)
	delete(s.entries, entry.symbol)
}

// Clear removes all entries from the cache
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*list.Element)
	s.lruList = list.New()
}

// Size returns the current cache size
func (s *Service) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lruList.Len()
}

// Stats returns cache statistics
func (s *Service) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return CacheStats{
		Size:    s.lruList.Len(),
		MaxSize: s.maxSize,
		MaxAge:  s.maxAge,
	}
}

// CacheStats holds cache statistics
type CacheStats struct {
	Size    int           `json:"size"`
	MaxSize int           `json:"max_size"`
	MaxAge  time.Duration `json:"max_age"`
}
