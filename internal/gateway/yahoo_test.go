package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MarketPulse/internal/model"
)

const chartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1704207600, 1704294000, 1704380400, 1704466800],
      "indicators": {
        "quote": [{
          "open":   [100.0, 101.0, null, 103.0],
          "high":   [105.0, 106.0, null, 108.0],
          "low":    [99.0, 100.0, null, 102.0],
          "close":  [104.0, 105.0, null, 107.0],
          "volume": [1000, 2000, null, 4000]
        }]
      }
    }],
    "error": null
  }
}`

const summaryBody = `{
  "quoteSummary": {
    "result": [{
      "price": {"longName": "Apple Inc.", "marketCap": {"raw": 3000000000000, "fmt": "3T"}},
      "assetProfile": {"sector": "Technology", "industry": "Consumer Electronics"},
      "summaryDetail": {"trailingPE": {"raw": 29.5}, "dividendYield": {"raw": 0.0055}}
    }]
  }
}`

func fakeYahoo(t *testing.T, chart, summary string) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("modules") != "" {
			w.Write([]byte(summary))
			return
		}
		w.Write([]byte(chart))
	}))
	t.Cleanup(srv.Close)
	return newYahooFetcherForTest(srv.URL, srv.URL, zap.NewNop().Sugar())
}

func TestYahooFetchHistory(t *testing.T) {
	f := fakeYahoo(t, chartBody, summaryBody)

	h, err := f.FetchHistory(context.Background(), "AAPL", model.Period1M)
	require.NoError(t, err)
	require.Len(t, h.Bars, 3, "null bar must be skipped")

	assert.Equal(t, "AAPL", h.Symbol)
	assert.Equal(t, 104.0, h.Bars[0].Close)
	assert.Equal(t, 107.0, h.Bars[2].Close)
	assert.Equal(t, 4000.0, h.Bars[2].Volume)
	assert.True(t, h.Bars[0].Time.Before(h.Bars[1].Time), "bars must be time-ascending")

	assert.Equal(t, "Apple Inc.", h.Company.Name)
	assert.Equal(t, "Technology", h.Company.Sector)
	assert.InDelta(t, 29.5, h.Company.TrailingPE, 1e-9)
}

func TestYahooFetchHistoryCompanyOptional(t *testing.T) {
	f := fakeYahoo(t, chartBody, `{"quoteSummary":{"result":[]}}`)

	h, err := f.FetchHistory(context.Background(), "AAPL", model.Period1M)
	require.NoError(t, err, "missing company info must not fail the fetch")
	assert.Empty(t, h.Company.Name)
	assert.Len(t, h.Bars, 3)
}

func TestYahooFetchQuote(t *testing.T) {
	f := fakeYahoo(t, chartBody, summaryBody)

	q, err := f.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 107.0, q.Price)
	assert.Equal(t, "AAPL", q.Symbol)
}

func TestYahooAPIError(t *testing.T) {
	body := `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`
	f := fakeYahoo(t, body, summaryBody)

	_, err := f.FetchHistory(context.Background(), "NOPE", model.Period1M)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestYahooEmptyResult(t *testing.T) {
	f := fakeYahoo(t, `{"chart":{"result":[],"error":null}}`, summaryBody)

	_, err := f.FetchHistory(context.Background(), "AAPL", model.Period1M)
	require.Error(t, err)
}

func TestYahooHTTPErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)
	f := newYahooFetcherForTest(srv.URL, srv.URL, zap.NewNop().Sugar())

	_, err := f.FetchQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "status errors are deterministic, no retry")
}
