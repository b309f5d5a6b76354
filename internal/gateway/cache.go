package gateway

import (
	"context"
	"sync"
	"time"

	"MarketPulse/internal/model"
)

// DefaultCacheTTL matches the refresh cadence of the dashboard: a snapshot
// is at most one interval stale.
const DefaultCacheTTL = 30 * time.Second

// CachedFetcher wraps a Fetcher with a per-(symbol, period) TTL cache so
// that rapid refreshes and multiple dashboard clients do not hammer the
// upstream provider.
type CachedFetcher struct {
	inner Fetcher
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	histories map[string]cachedHistory
	quotes    map[string]cachedQuote
}

type cachedHistory struct {
	history *model.History
	at      time.Time
}

type cachedQuote struct {
	quote *model.Quote
	at    time.Time
}

// NewCachedFetcher wraps inner with a TTL cache. A non-positive ttl uses
// DefaultCacheTTL.
func NewCachedFetcher(inner Fetcher, ttl time.Duration) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{
		inner:     inner,
		ttl:       ttl,
		now:       time.Now,
		histories: make(map[string]cachedHistory),
		quotes:    make(map[string]cachedQuote),
	}
}

func (c *CachedFetcher) Name() string { return c.inner.Name() }

func (c *CachedFetcher) FetchHistory(ctx context.Context, symbol string, period model.Period) (*model.History, error) {
	key := symbol + "|" + string(period)

	c.mu.Lock()
	if entry, ok := c.histories[key]; ok && c.now().Sub(entry.at) < c.ttl {
		c.mu.Unlock()
		return entry.history, nil
	}
	c.mu.Unlock()

	history, err := c.inner.FetchHistory(ctx, symbol, period)
	if err != nil {
		// Errors are never cached; the next cycle retries upstream.
		return nil, err
	}

	c.mu.Lock()
	c.histories[key] = cachedHistory{history: history, at: c.now()}
	c.mu.Unlock()
	return history, nil
}

func (c *CachedFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	c.mu.Lock()
	if entry, ok := c.quotes[symbol]; ok && c.now().Sub(entry.at) < c.ttl {
		c.mu.Unlock()
		return entry.quote, nil
	}
	c.mu.Unlock()

	quote, err := c.inner.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.quotes[symbol] = cachedQuote{quote: quote, at: c.now()}
	c.mu.Unlock()
	return quote, nil
}
