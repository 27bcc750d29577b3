package brief

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"newsbrief/internal/observability/tracing"
	"newsbrief/internal/resilience/retry"
)

// Policy calls the Generator with a warm-up, retries overload with a fixed
// cooldown and turns every other failure into a sentinel text. Summarizer
// and Aggregator share one Policy.
type Policy struct {
	gen      Generator
	cfg      Config
	messages Messages
	logger   *slog.Logger
	metrics  *Metrics

	// sleep replaces retry.Sleep in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// PolicyOption customises a Policy.
type PolicyOption func(*Policy)

func WithLogger(l *slog.Logger) PolicyOption {
	return func(p *Policy) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithMetrics(m *Metrics) PolicyOption {
	return func(p *Policy) { p.metrics = m }
}

func WithMessages(m Messages) PolicyOption {
	return func(p *Policy) { p.messages = m }
}

// WithSleep swaps the wait function, mainly so tests do not sleep.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) PolicyOption {
	return func(p *Policy) {
		if fn != nil {
			p.sleep = fn
		}
	}
}

// NewPolicy builds a Policy. A nil gen is allowed and means no credential
// was configured.
func NewPolicy(gen Generator, cfg Config, opts ...PolicyOption) *Policy {
	p := &Policy{
		gen:      gen,
		cfg:      cfg,
		messages: DefaultMessages(),
		logger:   slog.Default(),
		sleep:    retry.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Messages returns the sentinel texts in use.
func (p *Policy) Messages() Messages { return p.messages }

// Generate returns the trimmed generated text or a sentinel, never an
// empty string. The error is non-nil only when ctx is cancelled.
func (p *Policy) Generate(ctx context.Context, prompt string) (string, error) {
	if p.gen == nil {
		p.metrics.result("missing_credential")
		return p.messages.MissingCredential, nil
	}

	ctx, span := tracing.Start(ctx, "generation.generate",
		attribute.String("model", p.cfg.Model),
		attribute.Int("prompt_runes", len([]rune(prompt))))
	defer span.End()

	var (
		text     string
		attempts int
	)
	cfg := retry.FixedCooldownConfig(p.cfg.MaxAttempts, p.cfg.WarmUp, p.cfg.Cooldown, func(err error) bool {
		return Classify(err, p.cfg.RateLimitMarker) == OutcomeRateLimited
	})
	cfg.Sleep = p.sleep

	err := retry.WithBackoff(ctx, cfg, func() error {
		attempts++
		out, err := p.call(ctx, prompt)
		outcome := Classify(err, p.cfg.RateLimitMarker)
		p.metrics.call(outcome)
		if err != nil {
			p.logger.Warn("generation attempt failed",
				slog.Int("attempt", attempts),
				slog.Int("max_attempts", p.cfg.MaxAttempts),
				slog.String("model", p.cfg.Model),
				slog.String("outcome", outcome.String()),
				slog.Any("error", err))
			return err
		}
		text = strings.TrimSpace(out)
		return nil
	})
	span.SetAttributes(attribute.Int("attempts", attempts))

	switch {
	case err == nil && text == "":
		p.logger.Warn("generation returned no text", slog.String("model", p.cfg.Model))
		p.metrics.result("empty")
		return p.messages.EmptyResponse, nil
	case err == nil:
		p.metrics.result("generated")
		return text, nil
	case ctx.Err() != nil:
		tracing.RecordError(span, ctx.Err())
		return "", ctx.Err()
	case errors.Is(err, ErrMissingCredential):
		p.metrics.result("missing_credential")
		return p.messages.MissingCredential, nil
	case errors.Is(err, retry.ErrMaxAttemptsExceeded):
		tracing.RecordError(span, err)
		p.metrics.result("exhausted")
		return p.messages.RetriesExhausted, nil
	default:
		tracing.RecordError(span, err)
		p.metrics.result("failed")
		return p.messages.FailurePrefix + err.Error(), nil
	}
}

func (p *Policy) call(ctx context.Context, prompt string) (string, error) {
	if p.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.CallTimeout)
		defer cancel()
	}
	start := time.Now()
	out, err := p.gen.Generate(ctx, p.cfg.Model, prompt)
	if p.metrics != nil {
		p.metrics.Duration.Observe(time.Since(start).Seconds())
	}
	return out, err
}
