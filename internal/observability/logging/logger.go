package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// ParseLevel maps debug, info, warn and error to slog levels. Anything
// else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a JSON logger on stdout.
func NewLogger(level string) *slog.Logger {
	return newJSONLogger(os.Stdout, ParseLevel(level))
}

// NewTextLogger is the human-readable variant used by briefctl.
func NewTextLogger(level string) *slog.Logger {
	lvl := ParseLevel(level)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func newJSONLogger(w io.Writer, lvl slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
		// source locations only when debugging
		AddSource: lvl <= slog.LevelDebug,
	}))
}

// WithFields returns a new logger with additional structured fields.
func WithFields(logger *slog.Logger, fields map[string]any) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return logger.With(args...)
}

// WithRunID stamps logger with a fresh run_id and stores it in ctx.
func WithRunID(ctx context.Context, logger *slog.Logger) (context.Context, string) {
	if logger == nil {
		logger = FromContext(ctx)
	}
	id := uuid.NewString()
	ctx = context.WithValue(ctx, runIDContextKey, id)
	return WithLogger(ctx, logger.With(slog.String("run_id", id))), id
}

// RunID returns the id set by WithRunID, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDContextKey).(string)
	return id
}

// FromContext retrieves the logger from the context, or returns the default logger if not found.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const (
	loggerContextKey contextKey = "logger"
	runIDContextKey  contextKey = "run_id"
)
