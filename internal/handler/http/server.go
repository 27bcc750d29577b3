// Package http serves the read-only API: liveness, subscriber count and
// today's digest and insight.
package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"newsbrief/internal/handler/http/requestid"
	"newsbrief/internal/observability/metrics"
)

// RouterOption customises NewRouter.
type RouterOption func(*routerOptions)

type routerOptions struct {
	rateLimit RateLimitConfig
}

// WithRateLimit enables per-IP rate limiting.
func WithRateLimit(cfg RateLimitConfig) RouterOption {
	return func(o *routerOptions) { o.rateLimit = cfg }
}

// NewRouter builds the gin engine with request ids, server spans, access
// logging and request metrics.
func NewRouter(h *Handler, logger *slog.Logger, opts ...RouterOption) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestid.Middleware(), traceRequests, accessLog(logger), securityHeaders, rateLimit(o.rateLimit))

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/subscribers/count", h.SubscriberCount)
	r.GET("/digest/today", h.DigestToday)
	r.GET("/insights/today", h.InsightToday)
	r.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

// accessLog logs each request and records it on the HTTP metrics. The
// route template is used as the path label so ids never leak into labels.
func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(status), duration)

		logger.Info("request completed",
			slog.String("request_id", requestid.FromContext(c.Request.Context())),
			slog.String("trace_id", trace.SpanFromContext(c.Request.Context()).SpanContext().TraceID().String()),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", c.Writer.Size()),
			slog.Duration("duration", duration))
	}
}
