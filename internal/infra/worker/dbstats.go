package worker

import (
	"context"
	"database/sql"
	"time"

	"newsbrief/internal/observability/metrics"
)

// StatsSource is satisfied by *sql.DB.
type StatsSource interface {
	Stats() sql.DBStats
}

// SampleDBStats publishes connection pool usage every interval until ctx
// is done.
func SampleDBStats(ctx context.Context, db StatsSource, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s := db.Stats()
		metrics.UpdateDBConnectionStats(s.InUse, s.Idle)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
