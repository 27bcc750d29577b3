// Package worker runs the ingest, process and digest stages as one
// scheduled cycle and serves the worker's health and metrics endpoints.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"newsbrief/internal/observability/logging"
	"newsbrief/internal/observability/metrics"
	"newsbrief/internal/observability/tracing"
	"newsbrief/internal/usecase/digest"
	"newsbrief/internal/usecase/ingest"
	"newsbrief/internal/usecase/process"
)

// ErrAlreadyRunning is returned when a cycle is triggered while another
// one is still in flight.
var ErrAlreadyRunning = errors.New("pipeline cycle already running")

type Ingester interface {
	Run(ctx context.Context) (ingest.Stats, error)
}

type Processor interface {
	Run(ctx context.Context) (process.Result, error)
}

type Dispatcher interface {
	Today() time.Time
	Send(ctx context.Context, day time.Time) (digest.SendResult, error)
}

// Report describes one cycle.
type Report struct {
	RunID     string
	Ingest    ingest.Stats
	IngestErr error
	Process   process.Result
	Digest    digest.SendResult
	// DigestSkipped holds the reason the send stage did nothing.
	DigestSkipped string
	Duration      time.Duration
}

// Pipeline chains the stages. Only one cycle runs at a time.
type Pipeline struct {
	ingester   Ingester
	processor  Processor
	dispatcher Dispatcher
	metrics    *Metrics
	logger     *slog.Logger
	timeout    time.Duration
	running    atomic.Bool
}

type PipelineOption func(*Pipeline)

func WithMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTimeout bounds the ingest and send stages separately. Processing is
// never cut short, so an approved batch always reaches the daily insight.
// Zero means no bound.
func WithTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.timeout = d }
}

// NewPipeline wires the stages. A nil dispatcher skips delivery.
func NewPipeline(ingester Ingester, processor Processor, dispatcher Dispatcher, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		ingester:   ingester,
		processor:  processor,
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// Run executes ingest, process and send once. An ingestion failure is
// logged and processing continues with whatever is already pending; a
// processing failure skips delivery. Nothing to send and no subscribers
// are not errors.
func (p *Pipeline) Run(ctx context.Context) (rep Report, err error) {
	if !p.running.CompareAndSwap(false, true) {
		p.record("skipped", 0)
		return rep, ErrAlreadyRunning
	}
	defer p.running.Store(false)

	ctx, rep.RunID = logging.WithRunID(ctx, p.logger)
	logger := logging.FromContext(ctx)

	start := time.Now()
	ctx, span := tracing.Start(ctx, "pipeline.cycle", attribute.String("run_id", rep.RunID))
	defer func() {
		rep.Duration = time.Since(start)
		tracing.RecordError(span, err)
		span.End()
		status := "success"
		if err != nil {
			status = "failure"
		}
		p.record(status, rep.Duration)
		if err == nil && p.metrics != nil {
			p.metrics.RecordInserted(rep.Ingest.Inserted)
		}
	}()
	logger.Info("pipeline cycle started")

	ingestCtx, cancelIngest := p.bounded(ctx)
	ingestStart := time.Now()
	rep.Ingest, rep.IngestErr = p.ingester.Run(ingestCtx)
	cancelIngest()
	metrics.RecordStage("ingest", rep.IngestErr == nil, time.Since(ingestStart))
	if rep.IngestErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return rep, fmt.Errorf("ingest: %w", ctxErr)
		}
		logger.Warn("ingestion failed, processing existing backlog", slog.Any("error", rep.IngestErr))
	}

	rep.Process, err = p.processor.Run(ctx)
	if err != nil {
		return rep, fmt.Errorf("process: %w", err)
	}

	if p.dispatcher == nil {
		rep.DigestSkipped = "delivery disabled"
	} else {
		sendCtx, cancelSend := p.bounded(ctx)
		rep.Digest, err = p.dispatcher.Send(sendCtx, p.dispatcher.Today())
		cancelSend()
		switch {
		case errors.Is(err, digest.ErrNothingToSend), errors.Is(err, digest.ErrNoSubscribers):
			rep.DigestSkipped = err.Error()
			logger.Info("digest not sent", slog.String("reason", rep.DigestSkipped))
			err = nil
		case err != nil:
			return rep, fmt.Errorf("digest: %w", err)
		}
	}

	logger.Info("pipeline cycle completed",
		slog.Int("inserted", rep.Ingest.Inserted),
		slog.Int("approved", rep.Process.Approved),
		slog.Int("rejected", rep.Process.Rejected),
		slog.Bool("insight_written", rep.Process.InsightWritten),
		slog.Int("digest_sent", rep.Digest.Sent),
		slog.Duration("duration", time.Since(start)))
	return rep, nil
}

func (p *Pipeline) record(status string, d time.Duration) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordRun(status)
	if status == "skipped" {
		return
	}
	p.metrics.RecordDuration(d.Seconds())
	if status == "success" {
		p.metrics.RecordLastSuccess()
	}
}
