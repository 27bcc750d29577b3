// Package process advances PENDING articles to APPROVED or REJECTED and
// writes the daily insight once the batch is done.
package process

import (
	"time"

	"newsbrief/internal/pkg/config"
)

// DefaultTimezone defines the calendar day used for the daily insight.
const DefaultTimezone = "Asia/Seoul"

type Config struct {
	// ArticleDelay separates consecutive articles of a batch.
	ArticleDelay time.Duration
	// Location decides where "today" starts.
	Location *time.Location
}

func DefaultConfig() Config {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	return Config{ArticleDelay: time.Second, Location: loc}
}

// LoadConfig reads PROCESS_ARTICLE_DELAY and WORKER_TIMEZONE.
func LoadConfig(loader *config.Loader) Config {
	cfg := DefaultConfig()
	cfg.ArticleDelay = loader.Duration("PROCESS_ARTICLE_DELAY", cfg.ArticleDelay, config.ValidateNonNegativeDuration)
	tz := loader.String("WORKER_TIMEZONE", DefaultTimezone, config.ValidateTimezone)
	if loc, err := time.LoadLocation(tz); err == nil {
		cfg.Location = loc
	}
	return cfg
}
