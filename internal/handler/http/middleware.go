package http

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"newsbrief/internal/handler/http/requestid"
	"newsbrief/internal/observability/tracing"
	"newsbrief/internal/pkg/config"
)

// DigestCSP is sent with the rendered digest. The page is a self-contained
// email body: inline styles, remote images, nothing else.
const DigestCSP = "default-src 'none'; style-src 'unsafe-inline'; img-src https: data:; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

// RateLimitConfig bounds requests per client IP. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration
}

// LoadRateLimitConfig reads API_RATE_LIMIT_RPS and API_RATE_LIMIT_BURST.
func LoadRateLimitConfig(loader *config.Loader) RateLimitConfig {
	return RateLimitConfig{
		RPS:     float64(loader.Int("API_RATE_LIMIT_RPS", 5, config.IntRange(0, 1000))),
		Burst:   loader.Int("API_RATE_LIMIT_BURST", 20, config.IntRange(1, 10000)),
		IdleTTL: 10 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP and forgets clients
// idle for longer than IdleTTL.
type ipRateLimiter struct {
	cfg       RateLimitConfig
	now       func() time.Time
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

func newIPRateLimiter(cfg RateLimitConfig, now func() time.Time) *ipRateLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &ipRateLimiter{cfg: cfg, now: now, clients: make(map[string]*clientLimiter), lastSweep: now()}
}

// reserve reports whether ip may proceed and, if not, how long to wait.
func (l *ipRateLimiter) reserve(ip string) (bool, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.cfg.IdleTTL {
		for key, c := range l.clients {
			if now.Sub(c.lastSeen) > l.cfg.IdleTTL {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	r := c.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// rateLimit rejects clients over their budget with 429 and Retry-After.
func rateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	l := newIPRateLimiter(cfg, time.Now)
	limit := strconv.Itoa(cfg.Burst)
	return func(c *gin.Context) {
		c.Header("X-RateLimit-Limit", limit)
		ok, wait := l.reserve(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func securityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Referrer-Policy", "no-referrer")
	c.Next()
}

// traceRequests opens a server span per request named after the route
// template and returns the trace id in X-Trace-Id.
func traceRequests(c *gin.Context) {
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	ctx, span := tracing.StartServer(c.Request.Context(), c.Request.Header, c.Request.Method+" "+route,
		attribute.String("http.method", c.Request.Method),
		attribute.String("http.route", route),
		attribute.String("request_id", requestid.FromContext(c.Request.Context())))
	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Trace-Id", span.SpanContext().TraceID().String())

	c.Next()
	tracing.EndServer(span, c.Writer.Status())
}
