// Package recorder persists refresh-cycle history for later analysis
// (e.g. a Grafana board over the SQLite file).
package recorder

import (
	"time"

	"MarketPulse/internal/model"
)

// SnapshotRecord is the persisted subset of one refresh cycle.
type SnapshotRecord struct {
	Symbol     string
	Period     model.Period
	Metrics    model.DisplayMetrics
	Indicators map[string]float64
}

// AlertRecord captures one fired price alert.
type AlertRecord struct {
	Symbol    string
	Kind      string // "above" or "below"
	Threshold float64
	Price     float64
}

// Recorder persists refresh history. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordSnapshot(rec *SnapshotRecord) error
	RecordAlert(rec *AlertRecord) error
	// PruneBefore deletes rows older than the cutoff and reports how many
	// were removed.
	PruneBefore(cutoff time.Time) (int64, error)
	Close() error
}
