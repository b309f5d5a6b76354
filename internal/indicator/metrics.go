package indicator

import "MarketPulse/internal/model"

// PriceChange returns the absolute and percentage change between the latest
// price and the previous close. The percentage is 0 when previous is 0.
func PriceChange(latest, previous float64) (change, pct float64) {
	change = latest - previous
	if previous != 0 {
		pct = change / previous * 100
	}
	return change, pct
}

// VolumeRatio compares the last bar's volume to the series average. A series
// with at most one bar, or a non-positive average, has no meaningful baseline
// and yields 1.
func VolumeRatio(bars []model.OHLCV) float64 {
	if len(bars) <= 1 {
		return 1
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Volume
	}
	avg := sum / float64(len(bars))
	if avg <= 0 {
		return 1
	}
	return bars[len(bars)-1].Volume / avg
}

// Metrics assembles the derived display metrics for a series and a live
// quote. A zero quote price falls back to the last close.
func Metrics(bars []model.OHLCV, quotePrice float64) model.DisplayMetrics {
	m := model.DisplayMetrics{VolumeRatio: 1}
	if len(bars) == 0 {
		m.LatestPrice = quotePrice
		return m
	}

	last := bars[len(bars)-1]
	m.LatestPrice = quotePrice
	if m.LatestPrice == 0 {
		m.LatestPrice = last.Close
	}
	// With a single bar there is no previous close to compare against.
	previous := m.LatestPrice
	if len(bars) >= 2 {
		previous = bars[len(bars)-2].Close
	}
	m.PriceChange, m.PriceChangePct = PriceChange(m.LatestPrice, previous)
	m.LatestVolume = last.Volume
	m.VolumeRatio = VolumeRatio(bars)
	return m
}
