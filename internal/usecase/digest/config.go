package digest

import (
	"time"

	"newsbrief/internal/pkg/config"
)

const (
	DefaultSubject  = "📢 [Weekly Fashion] 이번 주 핫 트렌드 뉴스레터"
	DefaultTimezone = "Asia/Seoul"
)

type Config struct {
	Subject string
	// TestReceiver switches Send to preview mode: one mail to this
	// address, nothing recorded.
	TestReceiver string
	// Location decides where a day starts.
	Location *time.Location
}

func DefaultConfig() Config {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	return Config{Subject: DefaultSubject, Location: loc}
}

// LoadConfig reads DIGEST_SUBJECT, TEST_RECEIVER and WORKER_TIMEZONE.
func LoadConfig(loader *config.Loader) Config {
	cfg := DefaultConfig()
	cfg.Subject = loader.String("DIGEST_SUBJECT", cfg.Subject, nil)
	cfg.TestReceiver = loader.String("TEST_RECEIVER", "", nil)
	tz := loader.String("WORKER_TIMEZONE", DefaultTimezone, config.ValidateTimezone)
	if loc, err := time.LoadLocation(tz); err == nil {
		cfg.Location = loc
	}
	return cfg
}
