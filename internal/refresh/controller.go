// Package refresh drives the periodic dashboard cycle: fetch, compute,
// publish, persist. The loop is a cancellable timer, not a blocking sleep,
// so shutdown and manual refreshes are immediate.
package refresh

import (
	"context"
	"time"

	"go.uber.org/zap"

	"MarketPulse/internal/gateway"
	"MarketPulse/internal/indicator"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"
	"MarketPulse/internal/session"
)

// fetchTimeout bounds one cycle's upstream calls so a hung fetch can never
// stall the loop past the next tick for long.
const fetchTimeout = 25 * time.Second

// Broadcaster pushes a finished snapshot to connected dashboard clients.
type Broadcaster interface {
	Broadcast(snap *model.Snapshot)
}

// Controller runs the refresh loop.
type Controller struct {
	fetcher  gateway.Fetcher
	session  *session.Session
	recorder recorder.Recorder
	notifier *notifier.TelegramNotifier
	hub      Broadcaster
	metrics  *metrics.Metrics
	logger   *zap.SugaredLogger
	now      func() time.Time

	refreshCh chan struct{}

	// Edge-trigger latches so an alert fires once per crossing, not once
	// per cycle while the condition holds.
	aboveLatched bool
	belowLatched bool
}

// NewController wires the refresh loop.
func NewController(
	fetcher gateway.Fetcher,
	sess *session.Session,
	rec recorder.Recorder,
	tn *notifier.TelegramNotifier,
	hub Broadcaster,
	m *metrics.Metrics,
	logger *zap.SugaredLogger,
) *Controller {
	return &Controller{
		fetcher:   fetcher,
		session:   sess,
		recorder:  rec,
		notifier:  tn,
		hub:       hub,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		refreshCh: make(chan struct{}, 1),
	}
}

// TriggerRefresh requests an immediate cycle. Non-blocking; coalesces with
// an already pending request.
func (c *Controller) TriggerRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// Run executes the refresh loop until ctx is cancelled. The first cycle runs
// immediately.
func (c *Controller) Run(ctx context.Context) {
	c.Cycle(ctx)

	timer := time.NewTimer(c.interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("refresh loop stopped")
			return
		case <-c.refreshCh:
			c.Cycle(ctx)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(c.interval())
		case <-timer.C:
			if c.session.Controls().AutoRefresh {
				c.Cycle(ctx)
			}
			timer.Reset(c.interval())
		}
	}
}

func (c *Controller) interval() time.Duration {
	return time.Duration(c.session.Controls().IntervalSec) * time.Second
}

// Cycle performs one synchronous refresh: fetch, compute, publish, persist.
func (c *Controller) Cycle(ctx context.Context) {
	controls := c.session.Controls()
	cycleStart := c.now()
	c.metrics.RefreshCyclesTotal.Inc()

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	fetchStart := c.now()
	history, err := c.fetcher.FetchHistory(fetchCtx, controls.Symbol, controls.Period)
	var quote *model.Quote
	if err == nil {
		quote, err = c.fetcher.FetchQuote(fetchCtx, controls.Symbol)
	}
	c.metrics.FetchDuration.Observe(c.now().Sub(fetchStart).Seconds())

	if err != nil {
		c.failCycle(controls, err)
		return
	}

	computeStart := c.now()
	set := indicator.Compute(history.Bars)
	m := indicator.Metrics(history.Bars, quote.Price)
	signals := indicator.Signals(set, m.LatestPrice)
	c.metrics.IndicatorComputeDur.Observe(c.now().Sub(computeStart).Seconds())

	c.session.AppendLive(model.PricePoint{Time: quote.Time, Price: quote.Price})

	snap := &model.Snapshot{
		Symbol:     controls.Symbol,
		Period:     controls.Period,
		History:    *history,
		Indicators: map[string]float64(set),
		Metrics:    m,
		Signals:    signals,
		Live:       c.session.Live(),
		Market:     marketStatus(c.now()),
		UpdatedAt:  c.now(),
	}
	c.session.SetSnapshot(snap)
	c.metrics.SnapshotAge.Set(0)

	c.evaluateAlerts(ctx, controls, m.LatestPrice)

	if err := c.recorder.RecordSnapshot(&recorder.SnapshotRecord{
		Symbol:     controls.Symbol,
		Period:     controls.Period,
		Metrics:    m,
		Indicators: set,
	}); err != nil {
		c.logger.Errorw("record snapshot", "err", err)
	}

	if c.hub != nil {
		c.hub.Broadcast(snap)
	}

	c.metrics.RefreshDuration.Observe(c.now().Sub(cycleStart).Seconds())
	c.logger.Debugw("refresh cycle done",
		"symbol", controls.Symbol, "bars", len(history.Bars), "price", m.LatestPrice)
}

// failCycle publishes the gateway error without touching the previous data:
// the dashboard keeps showing the last good series, flagged stale.
func (c *Controller) failCycle(controls session.Controls, err error) {
	c.metrics.RefreshErrorsTotal.Inc()
	c.logger.Errorw("refresh fetch failed", "symbol", controls.Symbol, "err", err)

	snap := &model.Snapshot{
		Symbol:    controls.Symbol,
		Period:    controls.Period,
		Live:      c.session.Live(),
		Market:    marketStatus(c.now()),
		UpdatedAt: c.now(),
		Err:       err.Error(),
	}
	if prev := c.session.Snapshot(); prev != nil && prev.Symbol == controls.Symbol {
		stale := *prev
		stale.Err = err.Error()
		stale.UpdatedAt = c.now()
		snap = &stale
	}
	c.session.SetSnapshot(snap)
	if c.hub != nil {
		c.hub.Broadcast(snap)
	}
}

// evaluateAlerts fires edge-triggered threshold alerts on the latest price.
func (c *Controller) evaluateAlerts(ctx context.Context, controls session.Controls, price float64) {
	alerts := controls.Alerts
	if !alerts.Enabled || price == 0 {
		c.aboveLatched, c.belowLatched = false, false
		return
	}

	above := alerts.Above > 0 && price > alerts.Above
	if above && !c.aboveLatched {
		c.fireAlert(ctx, controls.Symbol, "above", alerts.Above, price)
	}
	c.aboveLatched = above

	below := alerts.Below > 0 && price < alerts.Below
	if below && !c.belowLatched {
		c.fireAlert(ctx, controls.Symbol, "below", alerts.Below, price)
	}
	c.belowLatched = below
}

func (c *Controller) fireAlert(ctx context.Context, symbol, kind string, threshold, price float64) {
	c.metrics.AlertsFiredTotal.WithLabelValues(kind).Inc()
	c.logger.Infow("price alert", "symbol", symbol, "kind", kind, "threshold", threshold, "price", price)

	if err := c.recorder.RecordAlert(&recorder.AlertRecord{
		Symbol: symbol, Kind: kind, Threshold: threshold, Price: price,
	}); err != nil {
		c.logger.Errorw("record alert", "err", err)
	}
	if err := c.notifier.SendWithRetry(ctx, notifier.FormatAlert(symbol, kind, threshold, price), 3); err != nil {
		c.logger.Errorw("send alert", "err", err)
	}
}

// HandleCommand processes a Telegram command and returns a reply.
func (c *Controller) HandleCommand(command string) string {
	switch command {
	case "/price", "/status":
		return notifier.FormatStatus(c.session.Snapshot())
	case "/indicators":
		return notifier.FormatIndicators(c.session.Snapshot())
	case "/refresh":
		c.TriggerRefresh()
		return "Refreshing now."
	default:
		return "Commands:\n• /price\n• /indicators\n• /refresh"
	}
}

// marketStatus is the dashboard's coarse session heuristic: weekdays between
// 09:00 and 16:00 local time count as open.
func marketStatus(now time.Time) model.MarketStatus {
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return model.MarketClosed
	}
	if now.Hour() >= 9 && now.Hour() < 16 {
		return model.MarketOpen
	}
	return model.MarketClosed
}
