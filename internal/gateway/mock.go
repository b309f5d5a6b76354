package gateway

import (
	"context"
	"time"

	"MarketPulse/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price   float64
	Bars    []model.OHLCV
	Company model.CompanyInfo
	Err     error

	// Call counters for cache and retry tests.
	HistoryCalls int
	QuoteCalls   int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, symbol string, period model.Period) (*model.History, error) {
	m.HistoryCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	bars := m.Bars
	if bars == nil {
		bars = GenerateBars(m.Price, barCount(period))
	}
	return &model.History{
		Symbol:    symbol,
		Bars:      bars,
		Company:   m.Company,
		FetchedAt: time.Now(),
	}, nil
}

func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (*model.Quote, error) {
	m.QuoteCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return &model.Quote{Symbol: symbol, Price: m.Price, Time: time.Now()}, nil
}

func barCount(period model.Period) int {
	switch period {
	case model.Period1D:
		return 60
	case model.Period5D:
		return 300
	case model.Period1M:
		return 22
	case model.Period3M:
		return 66
	case model.Period6M:
		return 128
	default:
		return 252
	}
}

// GenerateBars builds a deterministic drifting series around a base price.
func GenerateBars(basePrice float64, count int) []model.OHLCV {
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
