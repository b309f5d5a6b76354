package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Quote is a point-in-time price observation for a symbol.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Time   time.Time `json:"time"`
}

// PricePoint is one sample in the live price buffer.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// CompanyInfo holds descriptive data about the listed company.
// Zero values mean the upstream provider did not report the field.
type CompanyInfo struct {
	Name          string  `json:"name,omitempty"`
	Sector        string  `json:"sector,omitempty"`
	Industry      string  `json:"industry,omitempty"`
	MarketCap     float64 `json:"market_cap,omitempty"`
	TrailingPE    float64 `json:"trailing_pe,omitempty"`
	DividendYield float64 `json:"dividend_yield,omitempty"`
}

// History is one fetched OHLCV series plus company context.
// Bars are ordered strictly by timestamp ascending and immutable after fetch.
type History struct {
	Symbol    string      `json:"symbol"`
	Bars      []OHLCV     `json:"bars"`
	Company   CompanyInfo `json:"company"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// LastClose returns the close of the most recent bar, or 0 for an empty series.
func (h *History) LastClose() float64 {
	if len(h.Bars) == 0 {
		return 0
	}
	return h.Bars[len(h.Bars)-1].Close
}

// PreviousClose returns the close of the second most recent bar. Falls back to
// the last close for a single-bar series and 0 for an empty one.
func (h *History) PreviousClose() float64 {
	if len(h.Bars) >= 2 {
		return h.Bars[len(h.Bars)-2].Close
	}
	return h.LastClose()
}
