package indicator

// RSI threshold conventions for the dashboard badges.
const (
	rsiOverbought = 70.0
	rsiOversold   = 30.0
)

// Signals turns the computed set into the qualitative labels shown beside
// each metric. Keys mirror the indicator keys; a label is present only when
// its indicator is.
func Signals(set Set, latestPrice float64) map[string]string {
	out := map[string]string{}

	if ma, ok := set[KeyMA20]; ok {
		if latestPrice > ma {
			out[KeyMA20] = "above"
		} else {
			out[KeyMA20] = "below"
		}
	}
	if ma, ok := set[KeyMA50]; ok {
		if latestPrice > ma {
			out[KeyMA50] = "above"
		} else {
			out[KeyMA50] = "below"
		}
	}
	if rsi, ok := set[KeyRSI]; ok {
		switch {
		case rsi > rsiOverbought:
			out[KeyRSI] = "overbought"
		case rsi < rsiOversold:
			out[KeyRSI] = "oversold"
		default:
			out[KeyRSI] = "neutral"
		}
	}
	return out
}
