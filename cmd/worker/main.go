// Command worker runs the ingest, process and digest cycle on a cron
// schedule and serves health and metrics endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsbrief/internal/app"
	"newsbrief/internal/infra/worker"
	"newsbrief/internal/observability/logging"
	"newsbrief/internal/pkg/config"
)

func main() {
	app.LoadDotenv()
	logger := logging.NewLogger(os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("worker stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	a, err := app.New(ctx, app.Options{Logger: logger, Component: "worker", Migrate: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	cfg := worker.LoadConfig(config.NewLoader(logger, nil))
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Duration("pipeline_timeout", cfg.PipelineTimeout),
		slog.Int("health_port", cfg.HealthPort),
		slog.Bool("send_digest", cfg.SendDigest))

	var dispatcher worker.Dispatcher
	if cfg.SendDigest {
		if !a.MailerConfigured {
			logger.Warn("SMTP_SERVER not set, digest delivery will fail until configured")
		}
		dispatcher = a.Digest
	}
	pipeline := worker.NewPipeline(a.Ingest, a.Process, dispatcher,
		worker.WithMetrics(worker.NewMetrics(nil)),
		worker.WithLogger(logger),
		worker.WithTimeout(cfg.PipelineTimeout))

	scheduler, err := worker.NewScheduler(cfg, pipeline, logger)
	if err != nil {
		return err
	}

	health := worker.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger, nil)
	go func() {
		if err := health.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	go worker.SampleDBStats(ctx, a.DB, 30*time.Second)

	scheduler.Start(ctx)
	health.SetReady(true)
	logger.Info("worker started", slog.String("schedule", cfg.CronSchedule), slog.String("timezone", cfg.Timezone))

	if cfg.RunOnStart {
		go scheduler.Trigger()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received, waiting for running cycle")
	health.SetReady(false)

	select {
	case <-scheduler.Stop().Done():
	case <-time.After(30 * time.Second):
		logger.Warn("running cycle did not finish in time")
	}
	logger.Info("worker stopped")
	return nil
}
