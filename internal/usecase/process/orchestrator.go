package process

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/observability/logging"
	"newsbrief/internal/observability/metrics"
	"newsbrief/internal/observability/tracing"
	"newsbrief/internal/repository"
	"newsbrief/internal/resilience/retry"
)

// ContentFetcher retrieves an article page and extracts its main text.
// found is false when the page has no content region; err is reserved for
// retrieval or parse failures.
type ContentFetcher interface {
	FetchBody(ctx context.Context, link string) (text string, found bool, err error)
}

// Summarizer and Aggregator return sentinel texts instead of errors for
// backend failures. Their error is non-nil only on cancellation.
type Summarizer interface {
	Summarize(ctx context.Context, fullText string) (string, error)
}

type Aggregator interface {
	Aggregate(ctx context.Context, titles []string) (string, error)
}

// Article outcomes, also used as metric labels.
const (
	OutcomeApproved   = "approved"
	OutcomeRejected   = "rejected"
	OutcomeSkipped    = "skipped"
	OutcomeStoreError = "store_error"
)

// Result summarises one batch.
type Result struct {
	Pending        int
	Approved       int
	Rejected       int
	Skipped        int
	StoreErrors    int
	InsightWritten bool
	InsightTitles  int
	Duration       time.Duration
}

// Orchestrator runs one batch at a time. It assumes it is the only writer
// of article status; overlapping runs are prevented by the caller.
type Orchestrator struct {
	store      repository.Store
	fetcher    ContentFetcher
	summarizer Summarizer
	aggregator Aggregator
	cfg        Config
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(*Orchestrator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSleep replaces the inter-article wait.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

func NewOrchestrator(store repository.Store, fetcher ContentFetcher, summarizer Summarizer, aggregator Aggregator, cfg Config, opts ...Option) *Orchestrator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	o := &Orchestrator{
		store:      store,
		fetcher:    fetcher,
		summarizer: summarizer,
		aggregator: aggregator,
		cfg:        cfg,
		now:        time.Now,
		sleep:      retry.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes every PENDING article in id order, committing each one on
// its own, then aggregates today's summarized titles into a new insight.
// Per-article failures are logged and never abort the batch. The error
// return covers cancellation, the initial PENDING query and the insight
// insert.
func (o *Orchestrator) Run(ctx context.Context) (res Result, err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "pipeline.run")
	defer func() {
		res.Duration = time.Since(start)
		span.SetAttributes(
			attribute.Int("pending", res.Pending),
			attribute.Int("approved", res.Approved),
			attribute.Int("rejected", res.Rejected),
			attribute.Bool("insight_written", res.InsightWritten))
		tracing.RecordError(span, err)
		span.End()
		metrics.RecordStage("process", err == nil, res.Duration)
	}()
	logger := logging.FromContext(ctx)

	var pending []*entity.Article
	err = o.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		pending, err = tx.Articles().ListByStatus(ctx, entity.StatusPending)
		return err
	})
	if err != nil {
		return res, fmt.Errorf("list pending articles: %w", err)
	}
	res.Pending = len(pending)
	logger.Info("processing pending articles", slog.Int("count", len(pending)))

	for i, a := range pending {
		if i > 0 && o.cfg.ArticleDelay > 0 {
			if err := o.sleep(ctx, o.cfg.ArticleDelay); err != nil {
				return res, err
			}
		}
		outcome, err := o.processArticle(ctx, a)
		if err != nil {
			return res, err
		}
		metrics.RecordProcessed(outcome)
		switch outcome {
		case OutcomeApproved:
			res.Approved++
		case OutcomeRejected:
			res.Rejected++
		case OutcomeSkipped:
			res.Skipped++
		case OutcomeStoreError:
			res.StoreErrors++
		}
	}

	written, titles, err := o.writeInsight(ctx)
	res.InsightWritten, res.InsightTitles = written, titles
	if err != nil {
		return res, err
	}

	o.refreshStatusGauge(ctx)
	logger.Info("processing completed",
		slog.Int("pending", res.Pending),
		slog.Int("approved", res.Approved),
		slog.Int("rejected", res.Rejected),
		slog.Int("skipped", res.Skipped),
		slog.Int("store_errors", res.StoreErrors),
		slog.Bool("insight_written", res.InsightWritten),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// processArticle returns an error only when ctx is done.
func (o *Orchestrator) processArticle(ctx context.Context, a *entity.Article) (outcome string, err error) {
	ctx, span := tracing.Start(ctx, "process.article",
		attribute.Int64("article_id", a.ID),
		attribute.String("link", a.Link))
	defer func() {
		span.SetAttributes(attribute.String("outcome", outcome))
		span.End()
	}()
	logger := logging.WithFields(logging.FromContext(ctx), map[string]any{
		"article_id": a.ID,
		"link":       a.Link,
	})

	text, found, err := o.fetcher.FetchBody(ctx, a.Link)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		tracing.RecordError(span, err)
		logger.Warn("body fetch failed, article left pending", slog.Any("error", err))
		return OutcomeSkipped, nil
	}

	if !found {
		if err := a.Reject(); err != nil {
			return "", err
		}
	} else {
		summary, err := o.summarizer.Summarize(ctx, text)
		if err != nil {
			return "", err
		}
		if err := a.Approve(text, summary); err != nil {
			return "", err
		}
	}

	err = o.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Articles().Update(ctx, a)
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		tracing.RecordError(span, err)
		logger.Error("article update failed, rolled back", slog.Any("error", err))
		return OutcomeStoreError, nil
	}

	logger.Info("article processed", slog.String("status", a.Status().String()))
	if a.Status() == entity.StatusRejected {
		return OutcomeRejected, nil
	}
	return OutcomeApproved, nil
}

// writeInsight aggregates the titles of today's summarized articles,
// including those approved by earlier runs. Nothing is written when there
// are none.
func (o *Orchestrator) writeInsight(ctx context.Context) (bool, int, error) {
	logger := logging.FromContext(ctx)
	now := o.now().In(o.cfg.Location)
	since := entity.DayStart(now)

	var articles []*entity.Article
	err := o.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		articles, err = tx.Articles().ListCreatedSince(ctx, since, repository.ArticleFilter{SummarizedOnly: true})
		return err
	})
	if err != nil {
		return false, 0, fmt.Errorf("list today's articles: %w", err)
	}
	if len(articles) == 0 {
		logger.Info("no summarized articles today, insight skipped", slog.Time("since", since))
		return false, 0, nil
	}

	titles := make([]string, 0, len(articles))
	for _, a := range articles {
		titles = append(titles, a.Title)
	}
	content, err := o.aggregator.Aggregate(ctx, titles)
	if err != nil {
		return false, len(titles), err
	}

	insight, err := entity.NewDailyInsight(content, o.now())
	if err != nil {
		return false, len(titles), err
	}
	err = o.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.Insights().Create(ctx, insight)
		return err
	})
	if err != nil {
		logger.Error("insight insert failed, rolled back", slog.Any("error", err))
		return false, len(titles), fmt.Errorf("insert insight: %w", err)
	}

	metrics.RecordInsightWritten()
	logger.Info("daily insight written",
		slog.Int64("insight_id", insight.ID),
		slog.Int("titles", len(titles)))
	return true, len(titles), nil
}

func (o *Orchestrator) refreshStatusGauge(ctx context.Context) {
	var counts map[entity.ArticleStatus]int64
	err := o.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		counts, err = tx.Articles().CountByStatus(ctx)
		return err
	})
	if err != nil {
		logging.FromContext(ctx).Warn("article status count failed", slog.Any("error", err))
		return
	}
	byName := make(map[string]int64, len(counts))
	for status, n := range counts {
		byName[status.String()] = n
	}
	metrics.UpdateArticlesByStatus(byName)
}
