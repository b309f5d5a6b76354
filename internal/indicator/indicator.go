// Package indicator computes trailing-window technical indicators and derived
// display metrics from an ordered OHLCV series. All functions are pure: no
// I/O, no retained state, safe for concurrent use.
package indicator

import (
	"math"

	"MarketPulse/internal/model"
)

// Indicator keys as they appear in API responses.
const (
	KeyMA20   = "ma_20"
	KeyMA50   = "ma_50"
	KeyRSI    = "rsi"
	KeyHigh52 = "52_week_high"
	KeyLow52  = "52_week_low"
)

// Window sizes, in bars.
const (
	ma20Window = 20
	ma50Window = 50
	rsiWindow  = 14
	yearWindow = 252 // approximate trading days in a year
	neutralRSI = 50.0
)

// Set maps an indicator key to its value for the most recent bar. A key is
// present only when the series carries enough history to compute it.
type Set map[string]float64

// Compute derives all indicators from the given series. An empty series
// yields an empty set; values are always finite.
func Compute(bars []model.OHLCV) Set {
	set := Set{}
	if len(bars) == 0 {
		return set
	}

	if len(bars) >= ma20Window {
		set[KeyMA20] = trailingMean(closes(bars), ma20Window)
	}
	if len(bars) >= ma50Window {
		set[KeyMA50] = trailingMean(closes(bars), ma50Window)
	}
	if len(bars) >= rsiWindow {
		set[KeyRSI] = rsi(closes(bars), rsiWindow)
	}

	high, low := rangeHighLow(bars, yearWindow)
	set[KeyHigh52] = high
	set[KeyLow52] = low

	return set
}

// trailingMean averages the last window values. Caller guarantees
// len(values) >= window.
func trailingMean(values []float64, window int) float64 {
	sum := 0.0
	for i := len(values) - window; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(window)
}

// rsi computes the simple-average Relative Strength Index for the last bar.
// The first bar has no delta; it contributes a zero gain and zero loss, so a
// series of exactly `window` bars still divides by the full window. When the
// average loss is zero the result is the neutral 50, not the textbook 100.
func rsi(values []float64, window int) float64 {
	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := trailingMean(gains, window)
	avgLoss := trailingMean(losses, window)
	if avgLoss == 0 {
		return neutralRSI
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// rangeHighLow scans the trailing window (or the whole series when shorter)
// and returns the highest high and lowest low. The full-series fallback keeps
// the metric populated for short histories even though it is then not a true
// 52-week figure.
func rangeHighLow(bars []model.OHLCV, window int) (high, low float64) {
	start := len(bars) - window
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < len(bars); i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low
}

func closes(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
