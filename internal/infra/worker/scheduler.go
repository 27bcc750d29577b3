package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers Pipeline cycles on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *Pipeline
	logger   *slog.Logger
	baseCtx  context.Context
}

// NewScheduler parses cfg.CronSchedule in cfg.Timezone.
func NewScheduler(cfg Config, pipeline *Pipeline, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(cfg.Location())),
		pipeline: pipeline,
		logger:   logger,
		baseCtx:  context.Background(),
	}
	if _, err := s.cron.AddFunc(cfg.CronSchedule, s.Trigger); err != nil {
		return nil, fmt.Errorf("add cron job %q: %w", cfg.CronSchedule, err)
	}
	return s, nil
}

// Start begins scheduling. Cycles inherit ctx, so cancelling it aborts a
// running cycle.
func (s *Scheduler) Start(ctx context.Context) {
	s.baseCtx = ctx
	s.cron.Start()
}

// Stop halts scheduling; the returned context is done once any running
// cycle has returned.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Trigger runs one cycle now. An overlapping trigger is logged and dropped.
func (s *Scheduler) Trigger() {
	_, err := s.pipeline.Run(s.baseCtx)
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		s.logger.Warn("previous pipeline cycle still running, skipping")
	case err != nil:
		s.logger.Error("pipeline cycle failed", slog.Any("error", err))
	}
}
