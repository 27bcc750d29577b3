// Package logging builds the process slog logger and carries per-run
// loggers through a context.
//
//	logger := logging.NewLogger(os.Getenv("LOG_LEVEL"))
//	slog.SetDefault(logger)
//
//	ctx, runID := logging.WithRunID(ctx, logger)
//	logging.FromContext(ctx).Info("pipeline started")
package logging
