package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks scheduled pipeline cycles.
type Metrics struct {
	// CycleRunsTotal counts cycles by status: success, failure, skipped.
	CycleRunsTotal        *prometheus.CounterVec
	CycleDurationSeconds  prometheus.Histogram
	LastSuccessTimestamp  prometheus.Gauge
	ArticlesIngestedTotal prometheus.Counter
}

// NewMetrics registers on reg, or the default registerer when nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		CycleRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_pipeline_runs_total",
			Help: "Pipeline cycles by status (success/failure/skipped)",
		}, []string{"status"}),
		CycleDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_pipeline_duration_seconds",
			Help:    "Duration of a full pipeline cycle in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800, 3600, 7200},
		}),
		LastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_pipeline_last_success_timestamp",
			Help: "Unix timestamp of the last successful pipeline cycle",
		}),
		ArticlesIngestedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_pipeline_articles_inserted_total",
			Help: "New articles inserted across all cycles",
		}),
	}
}

func (m *Metrics) RecordRun(status string) {
	m.CycleRunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordDuration(seconds float64) {
	m.CycleDurationSeconds.Observe(seconds)
}

func (m *Metrics) RecordInserted(n int) {
	m.ArticlesIngestedTotal.Add(float64(n))
}

func (m *Metrics) RecordLastSuccess() {
	m.LastSuccessTimestamp.SetToCurrentTime()
}
