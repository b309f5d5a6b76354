package model

import "fmt"

// Period selects how much history to fetch for the dashboard chart.
type Period string

const (
	Period1D Period = "1d"
	Period5D Period = "5d"
	Period1M Period = "1mo"
	Period3M Period = "3mo"
	Period6M Period = "6mo"
	Period1Y Period = "1y"
)

// Periods lists all selectable periods in display order.
var Periods = []Period{Period1D, Period5D, Period1M, Period3M, Period6M, Period1Y}

// ParsePeriod validates a period string.
func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Interval returns the bar interval used when fetching this period:
// 1-minute bars for intraday views, daily bars otherwise.
func (p Period) Interval() string {
	if p == Period1D || p == Period5D {
		return "1m"
	}
	return "1d"
}

// ChartType selects how the presentation layer draws the price series.
type ChartType string

const (
	ChartCandlestick ChartType = "candlestick"
	ChartLine        ChartType = "line"
	ChartArea        ChartType = "area"
)

// ChartTypes lists all selectable chart types.
var ChartTypes = []ChartType{ChartCandlestick, ChartLine, ChartArea}

// ParseChartType validates a chart type string.
func ParseChartType(s string) (ChartType, error) {
	for _, c := range ChartTypes {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown chart type %q", s)
}
