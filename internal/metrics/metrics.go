// Package metrics exposes Prometheus instrumentation for the refresh loop
// and the dashboard API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	RefreshCyclesTotal  prometheus.Counter
	RefreshErrorsTotal  prometheus.Counter
	RefreshDuration     prometheus.Histogram
	FetchDuration       prometheus.Histogram
	IndicatorComputeDur prometheus.Histogram
	AlertsFiredTotal    *prometheus.CounterVec
	WSClients           prometheus.Gauge
	SnapshotAge         prometheus.Gauge
}

// New creates and registers all collectors on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RefreshCyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_refresh_cycles_total",
			Help: "Completed refresh cycles, including failed ones.",
		}),
		RefreshErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_refresh_errors_total",
			Help: "Refresh cycles that ended with a gateway error.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketpulse_refresh_duration_seconds",
			Help:    "End-to-end duration of one refresh cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketpulse_fetch_duration_seconds",
			Help:    "Duration of upstream history+quote fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketpulse_indicator_compute_seconds",
			Help:    "Duration of indicator computation per cycle.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 10, 6),
		}),
		AlertsFiredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_alerts_fired_total",
			Help: "Price alerts fired, by direction.",
		}, []string{"kind"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_ws_clients",
			Help: "Currently connected websocket clients.",
		}),
		SnapshotAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_snapshot_age_seconds",
			Help: "Age of the latest successful snapshot.",
		}),
	}

	reg.MustRegister(
		m.RefreshCyclesTotal,
		m.RefreshErrorsTotal,
		m.RefreshDuration,
		m.FetchDuration,
		m.IndicatorComputeDur,
		m.AlertsFiredTotal,
		m.WSClients,
		m.SnapshotAge,
	)
	return m
}
