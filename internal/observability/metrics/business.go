package metrics

import "time"

// RecordIngested counts one deduplication result for a source.
func RecordIngested(source, result string) {
	ArticlesIngestedTotal.WithLabelValues(source, result).Inc()
}

// RecordSourceError counts a source whose fetch failed.
func RecordSourceError(source string) {
	SourceErrorsTotal.WithLabelValues(source).Inc()
}

// RecordProcessed counts one article outcome.
func RecordProcessed(outcome string) {
	ArticlesProcessedTotal.WithLabelValues(outcome).Inc()
}

// RecordContentFetch observes one body fetch.
func RecordContentFetch(duration time.Duration) {
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordInsightWritten counts an appended daily insight.
func RecordInsightWritten() {
	InsightsWrittenTotal.Inc()
}

// RecordDelivery counts one digest delivery.
func RecordDelivery(sent bool) {
	status := "sent"
	if !sent {
		status = "failed"
	}
	DigestsSentTotal.WithLabelValues(status).Inc()
}

// RecordStage observes a pipeline stage duration.
func RecordStage(stage string, ok bool, duration time.Duration) {
	result := "success"
	if !ok {
		result = "failure"
	}
	StageDuration.WithLabelValues(stage, result).Observe(duration.Seconds())
}

// UpdateArticlesByStatus replaces the per-status gauge values.
func UpdateArticlesByStatus(counts map[string]int64) {
	for status, n := range counts {
		ArticlesByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
