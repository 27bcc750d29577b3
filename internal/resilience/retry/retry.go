// Package retry runs operations with warm-up, classified retries and
// bounded backoff. Waits honour context cancellation.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"
)

// ErrMaxAttemptsExceeded is wrapped together with the last attempt's error
// when every attempt failed with a retryable error.
var ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")

// Config holds the configuration for retry logic.
type Config struct {
	// MaxAttempts counts the first call. Values below 1 are treated as 1.
	MaxAttempts int

	// WarmUp is waited once before the first attempt.
	WarmUp time.Duration

	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration

	// MaxDelay caps the delay. Zero means no cap.
	MaxDelay time.Duration

	// Multiplier grows the delay after each retry. 1 gives a fixed cooldown.
	Multiplier float64

	// JitterFraction is the fraction of delay to add as random jitter (0.0 to 1.0)
	JitterFraction float64

	// Retryable decides whether an error earns another attempt.
	// Nil means IsRetryable.
	Retryable func(error) bool

	// Sleep replaces the real wait, mainly in tests. Nil means Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns a default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   1 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// FeedFetchConfig is used for RSS sources.
func FeedFetchConfig() Config {
	return Config{
		MaxAttempts:    5,
		InitialDelay:   1 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// WebScraperConfig is used for list pages and article bodies.
func WebScraperConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   1 * time.Second,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// FixedCooldownConfig waits warmUp once, then retries up to maxAttempts
// total calls with an unjittered cooldown between them, retrying only the
// errors accepted by retryable.
func FixedCooldownConfig(maxAttempts int, warmUp, cooldown time.Duration, retryable func(error) bool) Config {
	return Config{
		MaxAttempts:  maxAttempts,
		WarmUp:       warmUp,
		InitialDelay: cooldown,
		MaxDelay:     cooldown,
		Multiplier:   1,
		Retryable:    retryable,
	}
}

// WithBackoff calls fn until it succeeds, returns a non-retryable error,
// or runs out of attempts. A non-retryable error is returned as is.
// Exhaustion returns an error matching ErrMaxAttemptsExceeded that also
// wraps the last error. Cancellation during a wait returns an error
// wrapping ctx.Err().
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	if cfg.WarmUp > 0 {
		if err := sleep(ctx, cfg.WarmUp); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry",
					slog.Int("attempt", attempt))
			}
			return nil
		}

		if !retryable(lastErr) {
			slog.Warn("non-retryable error, aborting",
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr))
			return lastErr
		}

		// Don't wait after last attempt
		if attempt == maxAttempts {
			break
		}

		slog.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}

		delay = nextDelay(delay, cfg)
	}

	return fmt.Errorf("%w (%d): %w", ErrMaxAttemptsExceeded, maxAttempts, lastErr)
}

func nextDelay(delay time.Duration, cfg Config) time.Duration {
	if cfg.Multiplier > 0 {
		delay = time.Duration(float64(delay) * cfg.Multiplier)
	}
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return addJitter(delay, cfg.JitterFraction)
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRetryable reports transient network and HTTP failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode >= 500 && httpErr.StatusCode < 600:
			return true
		case httpErr.StatusCode == http.StatusTooManyRequests,
			httpErr.StatusCode == http.StatusRequestTimeout:
			return true
		}
	}

	return false
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func addJitter(duration time.Duration, jitterFraction float64) time.Duration {
	if jitterFraction <= 0 {
		return duration
	}
	if jitterFraction > 1.0 {
		jitterFraction = 1.0
	}
	// #nosec G404 -- jitter does not need a cryptographic source.
	jitter := time.Duration(rand.Float64() * float64(duration) * jitterFraction)
	return duration + jitter
}
