// Package gateway fetches quote and history data from the upstream market
// data provider. It owns caching, retries and every network failure mode;
// callers only ever see a series or an error.
package gateway

import (
	"context"

	"MarketPulse/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchHistory returns the OHLCV series and company info for a symbol
	// over the given period. Bars are ordered by timestamp ascending.
	FetchHistory(ctx context.Context, symbol string, period model.Period) (*model.History, error)
	// FetchQuote returns the most recent traded price for a symbol.
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
	Name() string
}
