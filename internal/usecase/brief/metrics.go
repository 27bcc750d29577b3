package brief

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts generation calls and their final results.
type Metrics struct {
	Calls    *prometheus.CounterVec // outcome per backend call
	Results  *prometheus.CounterVec // final result per Generate
	Duration prometheus.Histogram
}

// NewMetrics registers the collectors on reg, or on the default registerer
// when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Calls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsbrief",
			Subsystem: "generation",
			Name:      "calls_total",
			Help:      "Generation backend calls by outcome.",
		}, []string{"outcome"}),
		Results: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsbrief",
			Subsystem: "generation",
			Name:      "results_total",
			Help:      "Policy results by kind (generated, missing_credential, exhausted, failed).",
		}, []string{"kind"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "newsbrief",
			Subsystem: "generation",
			Name:      "call_duration_seconds",
			Help:      "Latency of a single generation backend call.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		}),
	}
}

func (m *Metrics) call(o Outcome) {
	if m != nil {
		m.Calls.WithLabelValues(o.String()).Inc()
	}
}

func (m *Metrics) result(kind string) {
	if m != nil {
		m.Results.WithLabelValues(kind).Inc()
	}
}
