package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"newsbrief/internal/resilience/retry"
)

// RateLimitError represents a 429 from a webhook.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError is a non-retryable 4xx.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string { return e.Message }

// ServerError is a retryable 5xx.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string { return e.Message }

// isRetryableError accepts server and network errors. 4xx are final;
// 429 is handled separately with its own delay.
func isRetryableError(err error) bool {
	var clientErr *ClientError
	var rateLimitErr *RateLimitError
	if errors.As(err, &clientErr) || errors.As(err, &rateLimitErr) {
		return false
	}
	return true
}

// webhook is the transport shared by the Slack and Discord channels.
type webhook struct {
	name        string
	url         string
	client      *http.Client
	rateLimiter *RateLimiter
	sleep       func(ctx context.Context, d time.Duration) error
}

const (
	webhookMaxAttempts = 2
	webhookBaseDelay   = 5 * time.Second
)

// post sends payload as JSON, retrying once on server and network errors
// and honouring retry_after on 429. Every attempt is logged with a
// request id.
func (w *webhook) post(ctx context.Context, payload any) error {
	requestID := uuid.NewString()
	logger := slog.Default().With(
		slog.String("channel", w.name),
		slog.String("request_id", requestID))

	if err := w.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= webhookMaxAttempts; attempt++ {
		err := w.send(ctx, body)
		if err == nil {
			logger.Info("webhook notification sent", slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		var delay time.Duration
		var rateLimitErr *RateLimitError
		switch {
		case errors.As(err, &rateLimitErr):
			delay = rateLimitErr.RetryAfter
			logger.Warn("webhook rate limit hit, backing off",
				slog.Duration("retry_after", delay),
				slog.Int("attempt", attempt))
		case !isRetryableError(err):
			logger.Error("webhook notification failed with non-retryable error",
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		default:
			delay = webhookBaseDelay * time.Duration(attempt)
			logger.Warn("webhook request failed, retrying",
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
		}

		if attempt < webhookMaxAttempts {
			if err := w.sleep(ctx, delay); err != nil {
				return fmt.Errorf("context canceled during retry backoff: %w", err)
			}
		}
	}

	logger.Error("webhook notification failed after all retries",
		slog.Any("error", lastErr),
		slog.Int("max_attempts", webhookMaxAttempts))
	return fmt.Errorf("%s notification failed after %d attempts: %w", w.name, webhookMaxAttempts, lastErr)
}

func (w *webhook) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		// the URL carries the webhook token; drop it from the error
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    w.name + " rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, respBody),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API client error: %s", w.name, string(respBody)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API server error: %s", w.name, string(respBody)),
		}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
}

// extractRetryAfter reads retry_after (seconds) from a JSON body, then the
// Retry-After header, defaulting to 5s.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.RetryAfter > 0 {
		return time.Duration(payload.RetryAfter * float64(time.Second))
	}
	if h := resp.Header.Get("Retry-After"); h != "" {
		if seconds, err := strconv.Atoi(h); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 5 * time.Second
}

func newWebhook(name string, cfg WebhookConfig, rps float64, burst int) *webhook {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &webhook{
		name:        name,
		url:         cfg.WebhookURL,
		client:      &http.Client{Timeout: timeout},
		rateLimiter: NewRateLimiter(rps, burst),
		sleep:       retry.Sleep,
	}
}

// truncate cuts text to at most maxRunes runes including suffix.
func truncate(text string, maxRunes int, suffix string) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	keep := maxRunes - utf8.RuneCountInString(suffix)
	if keep < 0 {
		keep = 0
	}
	return string([]rune(text)[:keep]) + suffix
}
