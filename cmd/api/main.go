// Command api serves the read-only HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"newsbrief/internal/app"
	hhttp "newsbrief/internal/handler/http"
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
		logger.Error("api stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	a, err := app.New(ctx, app.Options{Logger: logger, Component: "api", Migrate: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	loader := config.NewLoader(logger, nil)
	addr := loader.String("API_ADDR", ":8080", nil)
	version := loader.String("VERSION", "dev", nil)
	limits := hhttp.LoadRateLimitConfig(loader)

	gin.SetMode(gin.ReleaseMode)
	router := hhttp.NewRouter(hhttp.NewHandler(a.Digest, a.DB, version), logger, hhttp.WithRateLimit(limits))

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("version", version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
