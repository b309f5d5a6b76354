package refresh

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"MarketPulse/internal/recorder"
)

// Housekeeping runs the calendar-driven jobs that sit beside the refresh
// loop: history retention pruning and a refresh kick at market open.
type Housekeeping struct {
	cron       *cron.Cron
	recorder   recorder.Recorder
	controller *Controller
	retention  time.Duration
	logger     *zap.SugaredLogger
}

// NewHousekeeping creates the housekeeping scheduler. retentionDays bounds
// how much snapshot/alert history the recorder keeps.
func NewHousekeeping(rec recorder.Recorder, ctrl *Controller, retentionDays int, logger *zap.SugaredLogger) *Housekeeping {
	return &Housekeeping{
		cron:       cron.New(cron.WithSeconds()),
		recorder:   rec,
		controller: ctrl,
		retention:  time.Duration(retentionDays) * 24 * time.Hour,
		logger:     logger,
	}
}

// Register adds all jobs. pruneCron uses the six-field (seconds-first)
// format.
func (h *Housekeeping) Register(pruneCron string) error {
	if _, err := h.cron.AddFunc(pruneCron, h.prune); err != nil {
		return fmt.Errorf("register prune task: %w", err)
	}
	// Kick a refresh right at market open so the first in-session snapshot
	// does not wait for the next tick. Weekdays 09:30.
	if _, err := h.cron.AddFunc("0 30 9 * * 1-5", func() {
		h.logger.Info("market open, refreshing")
		h.controller.TriggerRefresh()
	}); err != nil {
		return fmt.Errorf("register market-open task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (h *Housekeeping) Start() {
	h.cron.Start()
	h.logger.Info("housekeeping scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (h *Housekeeping) Stop() {
	h.cron.Stop()
	h.logger.Info("housekeeping scheduler stopped")
}

func (h *Housekeeping) prune() {
	if h.retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-h.retention)
	removed, err := h.recorder.PruneBefore(cutoff)
	if err != nil {
		h.logger.Errorw("prune history", "err", err)
		return
	}
	h.logger.Infow("pruned history", "removed", removed, "cutoff", cutoff.Format(time.DateOnly))
}
