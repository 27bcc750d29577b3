package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/observability/logging"
	"newsbrief/internal/observability/metrics"
	"newsbrief/internal/observability/tracing"
)

// sourceParallelism bounds concurrent source fetches.
const sourceParallelism = 4

// Stats summarises one ingestion run.
type Stats struct {
	Sources      int
	SourceErrors int
	Candidates   int
	Inserted     int
	Duplicated   int
	Invalid      int
	Duration     time.Duration
}

// Service fetches all sources concurrently, then feeds the candidates
// through the Deduplicator one at a time.
type Service struct {
	fetchers map[string]Fetcher
	sources  []SourceConfig
	dedup    *Deduplicator
}

func NewService(fetchers map[string]Fetcher, sources []SourceConfig, dedup *Deduplicator) *Service {
	return &Service{fetchers: fetchers, sources: sources, dedup: dedup}
}

type sourceResult struct {
	src        SourceConfig
	candidates []Candidate
	err        error
}

// Run ingests every enabled source. A failing source is logged and
// counted; the error return is reserved for cancellation and store
// failures.
func (s *Service) Run(ctx context.Context) (Stats, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()
	stats := Stats{}

	enabled := make([]SourceConfig, 0, len(s.sources))
	for _, src := range s.sources {
		if !src.Disabled {
			enabled = append(enabled, src)
		}
	}
	if len(enabled) == 0 {
		return stats, ErrNoSources
	}
	stats.Sources = len(enabled)

	results := make([]sourceResult, len(enabled))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sourceParallelism)
	for i, src := range enabled {
		g.Go(func() error {
			cands, err := s.fetchSource(gctx, src)
			results[i] = sourceResult{src: src, candidates: cands, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	// single writer: candidates are deduplicated serially in source order
	for _, res := range results {
		if res.err != nil {
			stats.SourceErrors++
			metrics.RecordSourceError(res.src.Name)
			logger.Warn("source fetch failed",
				slog.String("source", res.src.Name),
				slog.String("url", res.src.URL),
				slog.Any("error", res.err))
			continue
		}

		inserted, duplicated := 0, 0
		for _, raw := range res.candidates {
			stats.Candidates++
			isNew, err := s.dedup.Ingest(ctx, normalize(raw))
			switch {
			case errors.Is(err, entity.ErrValidationFailed):
				stats.Invalid++
				metrics.RecordIngested(res.src.Name, "invalid")
				logger.Debug("candidate rejected",
					slog.String("source", res.src.Name),
					slog.String("link", raw.Link),
					slog.Any("error", err))
			case err != nil:
				return stats, err
			case isNew:
				inserted++
				metrics.RecordIngested(res.src.Name, "new")
			default:
				duplicated++
				metrics.RecordIngested(res.src.Name, "duplicate")
			}
		}
		stats.Inserted += inserted
		stats.Duplicated += duplicated

		logger.Info("source ingested",
			slog.String("source", res.src.Name),
			slog.Int("candidates", len(res.candidates)),
			slog.Int("inserted", inserted),
			slog.Int("duplicated", duplicated))
	}

	stats.Duration = time.Since(start)
	logger.Info("ingestion completed",
		slog.Int("sources", stats.Sources),
		slog.Int("source_errors", stats.SourceErrors),
		slog.Int("candidates", stats.Candidates),
		slog.Int("inserted", stats.Inserted),
		slog.Int("duplicated", stats.Duplicated),
		slog.Int("invalid", stats.Invalid),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (s *Service) fetchSource(ctx context.Context, src SourceConfig) (cands []Candidate, err error) {
	ctx, span := tracing.Start(ctx, "ingest.source",
		attribute.String("source", src.Name),
		attribute.String("kind", src.Kind))
	defer func() {
		span.SetAttributes(attribute.Int("candidates", len(cands)))
		tracing.RecordError(span, err)
		span.End()
	}()

	f, ok := s.fetchers[src.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, src.Kind)
	}
	return f.Fetch(ctx, src)
}
