package model

import "time"

// MarketStatus is a coarse open/closed heuristic shown on the dashboard.
type MarketStatus string

const (
	MarketOpen   MarketStatus = "open"
	MarketClosed MarketStatus = "closed"
)

// DisplayMetrics are the derived figures shown next to the raw quote.
type DisplayMetrics struct {
	LatestPrice    float64 `json:"latest_price"`
	PriceChange    float64 `json:"price_change"`
	PriceChangePct float64 `json:"price_change_pct"`
	LatestVolume   float64 `json:"latest_volume"`
	VolumeRatio    float64 `json:"volume_ratio"`
}

// Snapshot is one complete refresh-cycle result: everything the presentation
// layer needs to render the dashboard. Rebuilt from scratch every cycle.
type Snapshot struct {
	Symbol     string             `json:"symbol"`
	Period     Period             `json:"period"`
	History    History            `json:"history"`
	Indicators map[string]float64 `json:"indicators"`
	Metrics    DisplayMetrics     `json:"metrics"`
	Signals    map[string]string  `json:"signals"`
	Live       []PricePoint       `json:"live"`
	Market     MarketStatus       `json:"market"`
	UpdatedAt  time.Time          `json:"updated_at"`
	// Err carries the gateway failure message for the cycle that produced
	// this snapshot; empty on success.
	Err string `json:"error,omitempty"`
}
