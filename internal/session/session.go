// Package session holds the cross-refresh dashboard state: the user's
// controls, the bounded live price buffer and the latest snapshot. It is the
// single mutable object shared between the refresh controller (writer) and
// the HTTP server (reader); there is no process-wide singleton.
package session

import (
	"sync"

	"go.uber.org/zap"

	"MarketPulse/internal/model"
)

// LiveBufferCapacity bounds the live price buffer; the oldest sample is
// evicted once it is exceeded.
const LiveBufferCapacity = 100

// Refresh interval bounds, in seconds.
const (
	MinIntervalSec     = 10
	MaxIntervalSec     = 300
	DefaultIntervalSec = 30
)

// AlertConfig holds the price alert thresholds. A zero threshold disables
// that side of the alert.
type AlertConfig struct {
	Enabled bool    `json:"enabled"`
	Above   float64 `json:"above"`
	Below   float64 `json:"below"`
}

// Controls are the user-facing dashboard settings.
type Controls struct {
	Symbol      string          `json:"symbol"`
	Period      model.Period    `json:"period"`
	ChartType   model.ChartType `json:"chart_type"`
	AutoRefresh bool            `json:"auto_refresh"`
	IntervalSec int             `json:"interval_sec"`
	Alerts      AlertConfig     `json:"alerts"`
}

// Normalize fills defaults and clamps the refresh interval into range.
func (c *Controls) Normalize() {
	if c.Symbol == "" {
		c.Symbol = "AAPL"
	}
	if c.Period == "" {
		c.Period = model.Period1M
	}
	if c.ChartType == "" {
		c.ChartType = model.ChartCandlestick
	}
	if c.IntervalSec == 0 {
		c.IntervalSec = DefaultIntervalSec
	}
	if c.IntervalSec < MinIntervalSec {
		c.IntervalSec = MinIntervalSec
	}
	if c.IntervalSec > MaxIntervalSec {
		c.IntervalSec = MaxIntervalSec
	}
}

// Session is the refresh-cycle state holder. All methods are safe for
// concurrent use.
type Session struct {
	mu       sync.RWMutex
	controls Controls
	live     []model.PricePoint
	capacity int
	snapshot *model.Snapshot

	filePath string
	logger   *zap.SugaredLogger
}

// New creates a Session, restoring persisted controls from filePath when one
// exists. defaults apply to any field the persisted state does not set.
func New(filePath string, defaults Controls, logger *zap.SugaredLogger) (*Session, error) {
	defaults.Normalize()

	s := &Session{
		controls: defaults,
		capacity: LiveBufferCapacity,
		filePath: filePath,
		logger:   logger,
	}

	if filePath != "" {
		stored, found, err := loadControls(filePath)
		if err != nil {
			return nil, err
		}
		if found {
			stored.Normalize()
			s.controls = stored
		}
	}
	return s, nil
}

// Controls returns a copy of the current controls.
func (s *Session) Controls() Controls {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controls
}

// SetControls replaces the controls after normalizing them. It reports
// whether the symbol or period changed, which callers use to force an
// immediate refresh, and persists the new state.
func (s *Session) SetControls(c Controls) (dataChanged bool) {
	c.Normalize()

	s.mu.Lock()
	dataChanged = c.Symbol != s.controls.Symbol || c.Period != s.controls.Period
	if dataChanged {
		// A new symbol or period invalidates the live buffer.
		s.live = nil
	}
	s.controls = c
	s.mu.Unlock()

	s.persist()
	return dataChanged
}

// AppendLive records one live price sample, evicting the oldest sample once
// the buffer is full.
func (s *Session) AppendLive(p model.PricePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = append(s.live, p)
	if len(s.live) > s.capacity {
		s.live = s.live[len(s.live)-s.capacity:]
	}
}

// Live returns a copy of the live price buffer, oldest first.
func (s *Session) Live() []model.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PricePoint, len(s.live))
	copy(out, s.live)
	return out
}

// SetSnapshot stores the latest refresh-cycle result.
func (s *Session) SetSnapshot(snap *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

// Snapshot returns the latest refresh-cycle result, or nil before the first
// cycle completes.
func (s *Session) Snapshot() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Session) persist() {
	if s.filePath == "" {
		return
	}
	s.mu.RLock()
	controls := s.controls
	s.mu.RUnlock()
	if err := saveControls(s.filePath, controls); err != nil {
		s.logger.Errorw("persist session controls", "err", err)
	}
}
