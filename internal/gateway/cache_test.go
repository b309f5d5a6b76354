package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/model"
)

func TestCachedFetcherHistoryTTL(t *testing.T) {
	mock := &MockFetcher{Price: 100}
	cached := NewCachedFetcher(mock, 30*time.Second)

	clock := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return clock }

	ctx := context.Background()
	first, err := cached.FetchHistory(ctx, "AAPL", model.Period1M)
	require.NoError(t, err)

	// Within TTL: same object, no upstream call.
	clock = clock.Add(10 * time.Second)
	second, err := cached.FetchHistory(ctx, "AAPL", model.Period1M)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, mock.HistoryCalls)

	// Different period misses the cache.
	_, err = cached.FetchHistory(ctx, "AAPL", model.Period1Y)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.HistoryCalls)

	// Past TTL: refetch.
	clock = clock.Add(31 * time.Second)
	_, err = cached.FetchHistory(ctx, "AAPL", model.Period1M)
	require.NoError(t, err)
	assert.Equal(t, 3, mock.HistoryCalls)
}

func TestCachedFetcherQuoteTTL(t *testing.T) {
	mock := &MockFetcher{Price: 100}
	cached := NewCachedFetcher(mock, 30*time.Second)

	clock := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return clock }

	ctx := context.Background()
	_, err := cached.FetchQuote(ctx, "AAPL")
	require.NoError(t, err)
	_, err = cached.FetchQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, mock.QuoteCalls)

	clock = clock.Add(time.Minute)
	_, err = cached.FetchQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, mock.QuoteCalls)
}

func TestCachedFetcherErrorNotCached(t *testing.T) {
	mock := &MockFetcher{Err: errors.New("upstream down")}
	cached := NewCachedFetcher(mock, time.Minute)

	ctx := context.Background()
	_, err := cached.FetchHistory(ctx, "AAPL", model.Period1M)
	require.Error(t, err)
	_, err = cached.FetchHistory(ctx, "AAPL", model.Period1M)
	require.Error(t, err)
	assert.Equal(t, 2, mock.HistoryCalls, "failures must reach upstream again")

	// After recovery the next call succeeds and is cached.
	mock.Err = nil
	_, err = cached.FetchHistory(ctx, "AAPL", model.Period1M)
	require.NoError(t, err)
	_, err = cached.FetchHistory(ctx, "AAPL", model.Period1M)
	require.NoError(t, err)
	assert.Equal(t, 3, mock.HistoryCalls)
}

func TestCachedFetcherDefaultTTL(t *testing.T) {
	cached := NewCachedFetcher(&MockFetcher{Price: 1}, 0)
	assert.Equal(t, DefaultCacheTTL, cached.ttl)
	assert.Equal(t, "mock", cached.Name())
}
