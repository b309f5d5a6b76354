package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"MarketPulse/internal/model"
)

const (
	yahooChartURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooSummaryURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary"
	maxAttempts     = 3
)

// YahooFetcher implements Fetcher using the Yahoo Finance public API.
type YahooFetcher struct {
	client *http.Client
	logger *zap.SugaredLogger

	// Overridable API roots, used by tests to stand in a fake server.
	chartBase   string
	summaryBase string
}

// NewYahooFetcher creates a Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(proxyURL string, logger *zap.SugaredLogger) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		logger: logger,
	}
}

// newYahooFetcherForTest points the fetcher at a fake API server.
func newYahooFetcherForTest(chartURL, summaryURL string, logger *zap.SugaredLogger) *YahooFetcher {
	f := NewYahooFetcher("", logger)
	f.chartBase = chartURL
	f.summaryBase = summaryURL
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
// Quote arrays use interface{} because the API reports holidays as nulls.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooSummary is the quoteSummary response, trimmed to the modules we read.
type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price *struct {
				LongName  string     `json:"longName"`
				MarketCap yahooValue `json:"marketCap"`
			} `json:"price"`
			AssetProfile *struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
			SummaryDetail *struct {
				TrailingPE    yahooValue `json:"trailingPE"`
				DividendYield yahooValue `json:"dividendYield"`
			} `json:"summaryDetail"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// yahooValue is Yahoo's {"raw": n, "fmt": "..."} number wrapper.
type yahooValue struct {
	Raw float64 `json:"raw"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// get performs a GET with bounded retry on transport failure. HTTP-level
// errors are not retried; the API answers those deterministically.
func (f *YahooFetcher) get(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("yahoo fetch: %w", err)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("yahoo read body: %w", err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
		}
		return body, nil
	}
	return nil, fmt.Errorf("yahoo: %d attempts failed: %w", maxAttempts, lastErr)
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	base := f.chartBase
	if base == "" {
		base = yahooChartURL
	}
	u := fmt.Sprintf("%s/%s?interval=%s&range=%s", base, url.PathEscape(symbol), interval, rng)

	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote data for %s", symbol)
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(quote.Volume[i]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// fetchCompany reads the quoteSummary modules that feed the company panel.
func (f *YahooFetcher) fetchCompany(ctx context.Context, symbol string) (model.CompanyInfo, error) {
	base := f.summaryBase
	if base == "" {
		base = yahooSummaryURL
	}
	u := fmt.Sprintf("%s/%s?modules=price,assetProfile,summaryDetail", base, url.PathEscape(symbol))

	body, err := f.get(ctx, u)
	if err != nil {
		return model.CompanyInfo{}, err
	}

	var summary yahooSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return model.CompanyInfo{}, fmt.Errorf("yahoo summary decode: %w", err)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return model.CompanyInfo{}, fmt.Errorf("yahoo: no summary for %s", symbol)
	}

	res := summary.QuoteSummary.Result[0]
	info := model.CompanyInfo{}
	if res.Price != nil {
		info.Name = res.Price.LongName
		info.MarketCap = res.Price.MarketCap.Raw
	}
	if res.AssetProfile != nil {
		info.Sector = res.AssetProfile.Sector
		info.Industry = res.AssetProfile.Industry
	}
	if res.SummaryDetail != nil {
		info.TrailingPE = res.SummaryDetail.TrailingPE.Raw
		info.DividendYield = res.SummaryDetail.DividendYield.Raw
	}
	return info, nil
}

// FetchHistory fetches the OHLCV series for a period, at 1-minute resolution
// for intraday periods and daily resolution otherwise. A missing company
// panel does not fail the fetch.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string, period model.Period) (*model.History, error) {
	bars, err := f.fetchChart(ctx, symbol, period.Interval(), string(period))
	if err != nil {
		return nil, err
	}

	company, err := f.fetchCompany(ctx, symbol)
	if err != nil {
		f.logger.Debugw("company info unavailable", "symbol", symbol, "err", err)
	}

	return &model.History{
		Symbol:    symbol,
		Bars:      bars,
		Company:   company,
		FetchedAt: time.Now(),
	}, nil
}

// FetchQuote returns the latest 1-minute close of the current session.
func (f *YahooFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	bars, err := f.fetchChart(ctx, symbol, "1m", "1d")
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo: no price data for %s", symbol)
	}
	last := bars[len(bars)-1]
	return &model.Quote{Symbol: symbol, Price: last.Close, Time: last.Time}, nil
}
