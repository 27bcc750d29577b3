package worker

import (
	"errors"
	"fmt"
	"time"

	"newsbrief/internal/pkg/config"
)

// Config controls the scheduled pipeline.
type Config struct {
	// CronSchedule is a five-field cron expression evaluated in Timezone.
	CronSchedule string
	// Timezone is the IANA name that defines both the schedule and "today".
	Timezone string
	// PipelineTimeout bounds the ingest and send stages of a cycle. The
	// process stage always runs to completion. Zero disables the bound.
	PipelineTimeout time.Duration
	// HealthPort serves /health, /health/ready and /metrics.
	HealthPort int
	// RunOnStart triggers one cycle right after startup.
	RunOnStart bool
	// SendDigest disables the delivery stage when false.
	SendDigest bool
}

const (
	minPipelineTimeout = time.Minute
	maxPipelineTimeout = 12 * time.Hour
)

func DefaultConfig() Config {
	return Config{
		CronSchedule:    "0 7 * * *",
		Timezone:        "Asia/Seoul",
		HealthPort:      9091,
		SendDigest:      true,
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.OptionalDurationRange(minPipelineTimeout, maxPipelineTimeout)(c.PipelineTimeout); err != nil {
		errs = append(errs, fmt.Errorf("pipeline timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	return errors.Join(errs...)
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfig reads CRON_SCHEDULE, WORKER_TIMEZONE, PIPELINE_TIMEOUT,
// WORKER_HEALTH_PORT, WORKER_RUN_ON_START and WORKER_SEND_DIGEST. Invalid
// values fall back to the defaults.
func LoadConfig(loader *config.Loader) Config {
	d := DefaultConfig()
	return Config{
		CronSchedule:    loader.String("CRON_SCHEDULE", d.CronSchedule, config.ValidateCronSchedule),
		Timezone:        loader.String("WORKER_TIMEZONE", d.Timezone, config.ValidateTimezone),
		PipelineTimeout: loader.Duration("PIPELINE_TIMEOUT", d.PipelineTimeout, config.OptionalDurationRange(minPipelineTimeout, maxPipelineTimeout)),
		HealthPort:      loader.Int("WORKER_HEALTH_PORT", d.HealthPort, config.IntRange(1024, 65535)),
		RunOnStart:      loader.Bool("WORKER_RUN_ON_START", d.RunOnStart),
		SendDigest:      loader.Bool("WORKER_SEND_DIGEST", d.SendDigest),
	}
}
