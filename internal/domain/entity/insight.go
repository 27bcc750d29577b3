package entity

import (
	"strings"
	"time"
)

// DailyInsight is one generated cross-article brief. Rows are append-only;
// the latest row within a day is the authoritative one.
type DailyInsight struct {
	ID        int64
	Content   string
	CreatedAt time.Time
}

// NewDailyInsight validates and builds an insight.
func NewDailyInsight(content string, createdAt time.Time) (*DailyInsight, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "content", Message: "insight content is required"}
	}
	return &DailyInsight{Content: content, CreatedAt: createdAt}, nil
}

// Latest returns the most recently created insight, or nil.
func Latest(insights []*DailyInsight) *DailyInsight {
	var latest *DailyInsight
	for _, in := range insights {
		if latest == nil || in.CreatedAt.After(latest.CreatedAt) ||
			(in.CreatedAt.Equal(latest.CreatedAt) && in.ID > latest.ID) {
			latest = in
		}
	}
	return latest
}

// DayStart returns midnight of t's calendar day in t's location.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
