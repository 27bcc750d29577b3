package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics for the read API.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Pipeline metrics.
var (
	// ArticlesIngestedTotal counts candidates by result: new, duplicate, invalid.
	ArticlesIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbrief_articles_ingested_total",
			Help: "Scraped candidates by deduplication result",
		},
		[]string{"source", "result"},
	)

	SourceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbrief_source_errors_total",
			Help: "Failed source fetches",
		},
		[]string{"source"},
	)

	// ArticlesProcessedTotal counts per-article outcomes: approved,
	// rejected, fetch_failed, store_failed.
	ArticlesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbrief_articles_processed_total",
			Help: "Processed articles by outcome",
		},
		[]string{"outcome"},
	)

	ArticlesByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "newsbrief_articles",
			Help: "Stored articles by status",
		},
		[]string{"status"},
	)

	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsbrief_content_fetch_duration_seconds",
			Help:    "Time taken to fetch an article body",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)

	InsightsWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsbrief_insights_written_total",
			Help: "Daily insights appended",
		},
	)

	// DigestsSentTotal counts per-recipient deliveries by status: sent, failed.
	DigestsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbrief_digest_deliveries_total",
			Help: "Digest deliveries by status",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsbrief_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
		[]string{"stage", "result"},
	)
)

// Database metrics.
var (
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
