// Package fetcher retrieves web pages for the scrapers and the processing
// stage, and extracts the main article text from a fetched page.
package fetcher

import (
	"time"

	"newsbrief/internal/pkg/config"
	"newsbrief/internal/resilience/retry"
)

// Browser-like request headers. Naver serves a reduced page to unknown
// clients.
const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	DefaultAcceptLanguage = "ko-KR,ko;q=0.9,en;q=0.8"
	DefaultReferer        = "https://news.naver.com/"
)

// Config controls page retrieval.
type Config struct {
	Timeout        time.Duration
	MaxBodySize    int64
	MaxRedirects   int
	DenyPrivateIPs bool

	UserAgent      string
	AcceptLanguage string
	Referer        string

	// ReadabilityFallback extracts pages without a known content region
	// with go-readability instead of rejecting them.
	ReadabilityFallback bool

	// Retry applies to 5xx, 429 and network timeouts.
	Retry retry.Config
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      DefaultUserAgent,
		AcceptLanguage: DefaultAcceptLanguage,
		Referer:        DefaultReferer,
		Retry:          retry.WebScraperConfig(),
	}
}

// LoadConfig reads the FETCH_* variables.
func LoadConfig(loader *config.Loader) Config {
	cfg := DefaultConfig()
	cfg.Timeout = loader.Duration("FETCH_TIMEOUT", cfg.Timeout, config.DurationRange(time.Second, 2*time.Minute))
	cfg.MaxBodySize = int64(loader.Int("FETCH_MAX_BODY_SIZE", int(cfg.MaxBodySize), config.IntRange(1024, 100*1024*1024)))
	cfg.MaxRedirects = loader.Int("FETCH_MAX_REDIRECTS", cfg.MaxRedirects, config.IntRange(0, 10))
	cfg.DenyPrivateIPs = loader.Bool("FETCH_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs)
	cfg.UserAgent = loader.String("FETCH_USER_AGENT", cfg.UserAgent, nil)
	cfg.ReadabilityFallback = loader.Bool("FETCH_READABILITY_FALLBACK", cfg.ReadabilityFallback)
	cfg.Retry.MaxAttempts = loader.Int("FETCH_MAX_ATTEMPTS", cfg.Retry.MaxAttempts, config.IntRange(1, 10))
	return cfg
}
