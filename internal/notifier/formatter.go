package notifier

import (
	"fmt"
	"strings"

	"MarketPulse/internal/indicator"
	"MarketPulse/internal/model"
)

// FormatAlert formats a fired price alert.
func FormatAlert(symbol, kind string, threshold, price float64) string {
	switch kind {
	case "above":
		return fmt.Sprintf("🚨 <b>%s</b> crossed above %.2f (now %.2f)", symbol, threshold, price)
	default:
		return fmt.Sprintf("🚨 <b>%s</b> dropped below %.2f (now %.2f)", symbol, threshold, price)
	}
}

// FormatStatus formats the latest snapshot as a short status report.
func FormatStatus(snap *model.Snapshot) string {
	if snap == nil {
		return "No data yet, the first refresh has not completed."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", snap.Symbol, snap.UpdatedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Price: %.2f (%+.2f, %+.2f%%)\n",
		snap.Metrics.LatestPrice, snap.Metrics.PriceChange, snap.Metrics.PriceChangePct))
	b.WriteString(fmt.Sprintf("Volume: %.0f (%.1fx avg)\n", snap.Metrics.LatestVolume, snap.Metrics.VolumeRatio))
	b.WriteString(fmt.Sprintf("Market: %s\n", snap.Market))
	if snap.Err != "" {
		b.WriteString(fmt.Sprintf("\n⚠️ Last fetch error: %s\n", snap.Err))
	}
	return b.String()
}

// FormatIndicators formats the indicator set, marking the unavailable ones.
func FormatIndicators(snap *model.Snapshot) string {
	if snap == nil {
		return "No data yet, the first refresh has not completed."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s indicators</b>\n\n", snap.Symbol))

	line := func(label, key, format string) {
		if v, ok := snap.Indicators[key]; ok {
			b.WriteString(fmt.Sprintf("%s: "+format, label, v))
			if sig, ok := snap.Signals[key]; ok {
				b.WriteString(" (" + sig + ")")
			}
			b.WriteString("\n")
		} else {
			b.WriteString(label + ": n/a\n")
		}
	}
	line("MA20", indicator.KeyMA20, "%.2f")
	line("MA50", indicator.KeyMA50, "%.2f")
	line("RSI(14)", indicator.KeyRSI, "%.1f")
	line("52W High", indicator.KeyHigh52, "%.2f")
	line("52W Low", indicator.KeyLow52, "%.2f")
	return b.String()
}
