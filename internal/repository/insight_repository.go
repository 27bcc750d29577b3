package repository

import (
	"context"
	"time"

	"newsbrief/internal/domain/entity"
)

// InsightRepository stores daily insights. Rows are never updated.
type InsightRepository interface {
	Create(ctx context.Context, insight *entity.DailyInsight) (int64, error)
	// ListSince returns insights created at or after since, newest first.
	ListSince(ctx context.Context, since time.Time) ([]*entity.DailyInsight, error)
}
