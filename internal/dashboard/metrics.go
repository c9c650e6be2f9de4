package dashboard

import (
	"github.com/huangsam/stockpulse/schema"
	"github.com/prometheus/client_golang/prometheus"
)

// Skipped record kinds.
const (
	SkippedSession = "session"
	SkippedRow     = "row"
)

// Metrics bundles Prometheus collectors for the refresh loop.
type Metrics struct {
	Registry        *prometheus.Registry
	RefreshTotal    *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	HistoryPoints   prometheus.Gauge
	SkippedRecords  *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	refreshTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_refresh_total",
			Help: "Total refresh ticks by dashboard outcome.",
		},
		[]string{"outcome"},
	)
	refreshDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockpulse_refresh_duration_seconds",
			Help:    "Wall time of one refresh tick.",
			Buckets: prometheus.DefBuckets,
		},
	)
	historyPoints := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockpulse_history_points",
			Help: "Points in the most recent stock history series.",
		},
	)
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_skipped_records_total",
			Help: "Sessions and rows skipped for data quality, summed over refresh ticks.",
		},
		[]string{"kind"},
	)

	registry.MustRegister(refreshTotal, refreshDuration, historyPoints, skipped)

	return &Metrics{
		Registry:        registry,
		RefreshTotal:    refreshTotal,
		RefreshDuration: refreshDuration,
		HistoryPoints:   historyPoints,
		SkippedRecords:  skipped,
	}
}

// ObserveRefresh records one finished refresh tick.
func (m *Metrics) ObserveRefresh(d schema.Dashboard) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(string(d.Outcome())).Inc()
	m.RefreshDuration.Observe(d.Duration.Seconds())
	m.HistoryPoints.Set(float64(len(d.History.Points)))
	m.SkippedRecords.WithLabelValues(SkippedSession).Add(float64(len(d.History.SkippedSessions)))
	m.SkippedRecords.WithLabelValues(SkippedRow).Add(float64(d.History.SkippedRows))
}
