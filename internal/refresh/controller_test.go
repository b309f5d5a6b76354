package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MarketPulse/internal/gateway"
	"MarketPulse/internal/indicator"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"
	"MarketPulse/internal/session"
)

// captureRecorder keeps records in memory for assertions.
type captureRecorder struct {
	mu        sync.Mutex
	snapshots []*recorder.SnapshotRecord
	alerts    []*recorder.AlertRecord
}

func (c *captureRecorder) RecordSnapshot(rec *recorder.SnapshotRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = append(c.snapshots, rec)
	return nil
}

func (c *captureRecorder) RecordAlert(rec *recorder.AlertRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, rec)
	return nil
}

func (c *captureRecorder) PruneBefore(_ time.Time) (int64, error) { return 0, nil }
func (c *captureRecorder) Close() error                           { return nil }

// captureHub records broadcast snapshots.
type captureHub struct {
	mu    sync.Mutex
	snaps []*model.Snapshot
}

func (h *captureHub) Broadcast(snap *model.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snaps = append(h.snaps, snap)
}

type fixture struct {
	fetcher *gateway.MockFetcher
	session *session.Session
	rec     *captureRecorder
	hub     *captureHub
	metrics *metrics.Metrics
	ctrl    *Controller
}

func newFixture(t *testing.T, controls session.Controls) *fixture {
	t.Helper()
	logger := zap.NewNop().Sugar()

	sess, err := session.New("", controls, logger)
	require.NoError(t, err)

	f := &fixture{
		fetcher: &gateway.MockFetcher{Price: 100},
		session: sess,
		rec:     &captureRecorder{},
		hub:     &captureHub{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.ctrl = NewController(f.fetcher, f.session, f.rec, notifier.NewTelegramNotifier("", "", "", logger), f.hub, f.metrics, logger)
	return f
}

func TestCyclePopulatesSnapshot(t *testing.T) {
	f := newFixture(t, session.Controls{Symbol: "AAPL", Period: model.Period1Y})
	f.fetcher.Bars = gateway.GenerateBars(100, 60)

	f.ctrl.Cycle(context.Background())

	snap := f.session.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, "AAPL", snap.Symbol)
	assert.Empty(t, snap.Err)
	assert.Len(t, snap.History.Bars, 60)
	assert.Contains(t, snap.Indicators, indicator.KeyMA20)
	assert.Contains(t, snap.Indicators, indicator.KeyMA50)
	assert.Contains(t, snap.Indicators, indicator.KeyRSI)
	assert.Equal(t, 100.0, snap.Metrics.LatestPrice)

	require.Len(t, f.session.Live(), 1, "one live sample per cycle")
	require.Len(t, f.rec.snapshots, 1)
	require.Len(t, f.hub.snaps, 1)
}

func TestCycleAppendsOneLiveSamplePerCycle(t *testing.T) {
	f := newFixture(t, session.Controls{Symbol: "AAPL"})

	for i := 0; i < 3; i++ {
		f.ctrl.Cycle(context.Background())
	}
	assert.Len(t, f.session.Live(), 3)
}

func TestFailedCycleKeepsPreviousData(t *testing.T) {
	f := newFixture(t, session.Controls{Symbol: "AAPL"})
	f.fetcher.Bars = gateway.GenerateBars(100, 30)

	f.ctrl.Cycle(context.Background())
	require.NotNil(t, f.session.Snapshot())
	require.Empty(t, f.session.Snapshot().Err)

	f.fetcher.Err = errors.New("upstream down")
	f.ctrl.Cycle(context.Background())

	snap := f.session.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, "upstream down", snap.Err)
	assert.Len(t, snap.History.Bars, 30, "stale series kept alongside the error")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RefreshErrorsTotal))
	assert.Len(t, f.session.Live(), 1, "no live sample on a failed cycle")
}

func TestFirstCycleFailure(t *testing.T) {
	f := newFixture(t, session.Controls{Symbol: "AAPL"})
	f.fetcher.Err = errors.New("no route to host")

	f.ctrl.Cycle(context.Background())

	snap := f.session.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, "no route to host", snap.Err)
	assert.Empty(t, snap.History.Bars)
	assert.Empty(t, snap.Indicators, "engine must not run on absent data")
}

func TestAlertsEdgeTriggered(t *testing.T) {
	controls := session.Controls{
		Symbol: "AAPL",
		Alerts: session.AlertConfig{Enabled: true, Above: 90},
	}
	f := newFixture(t, controls)
	f.fetcher.Price = 100

	f.ctrl.Cycle(context.Background())
	f.ctrl.Cycle(context.Background())
	require.Len(t, f.rec.alerts, 1, "alert fires once per crossing, not per cycle")
	assert.Equal(t, "above", f.rec.alerts[0].Kind)
	assert.Equal(t, 90.0, f.rec.alerts[0].Threshold)

	// Price retreats below the threshold, then crosses again: re-arms.
	f.fetcher.Price = 80
	f.ctrl.Cycle(context.Background())
	f.fetcher.Price = 100
	f.ctrl.Cycle(context.Background())
	assert.Len(t, f.rec.alerts, 2)
}

func TestAlertBelowThreshold(t *testing.T) {
	controls := session.Controls{
		Symbol: "AAPL",
		Alerts: session.AlertConfig{Enabled: true, Below: 150},
	}
	f := newFixture(t, controls)
	f.fetcher.Price = 120

	f.ctrl.Cycle(context.Background())
	require.Len(t, f.rec.alerts, 1)
	assert.Equal(t, "below", f.rec.alerts[0].Kind)
}

func TestAlertsDisabled(t *testing.T) {
	f := newFixture(t, session.Controls{Symbol: "AAPL", Alerts: session.AlertConfig{Above: 1}})
	f.fetcher.Price = 100

	f.ctrl.Cycle(context.Background())
	assert.Empty(t, f.rec.alerts, "thresholds without the enabled flag are inert")
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t, session.Controls{Symbol: "AAPL"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.ctrl.Run(ctx)
		close(done)
	}()

	// The immediate first cycle lands before cancellation.
	require.Eventually(t, func() bool { return f.session.Snapshot() != nil },
		2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}

func TestTriggerRefreshCoalesces(t *testing.T) {
	f := newFixture(t, session.Controls{Symbol: "AAPL"})
	f.ctrl.TriggerRefresh()
	f.ctrl.TriggerRefresh() // second request coalesces while one is pending
	assert.Len(t, f.ctrl.refreshCh, 1)
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t, session.Controls{Symbol: "AAPL"})

	assert.Contains(t, f.ctrl.HandleCommand("/price"), "No data yet")
	assert.Contains(t, f.ctrl.HandleCommand("/indicators"), "No data yet")
	assert.Contains(t, f.ctrl.HandleCommand("/refresh"), "Refreshing")
	assert.Contains(t, f.ctrl.HandleCommand("bogus"), "Commands:")

	f.ctrl.Cycle(context.Background())
	assert.Contains(t, f.ctrl.HandleCommand("/price"), "AAPL")
}

func TestMarketStatus(t *testing.T) {
	weekdayOpen := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC) // Monday
	weekdayEve := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, model.MarketOpen, marketStatus(weekdayOpen))
	assert.Equal(t, model.MarketClosed, marketStatus(weekdayEve))
	assert.Equal(t, model.MarketClosed, marketStatus(saturday))
}
