package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"newsbrief/internal/resilience/circuitbreaker"
	"newsbrief/internal/resilience/retry"
)

// Page is a fetched HTML document.
type Page struct {
	// URL is the final URL after redirects.
	URL  *url.URL
	HTML []byte
}

// PageFetcher performs GET requests with browser headers, a per-host
// circuit breaker, bounded retries and a body size limit.
//
// Thread safety: PageFetcher is safe for concurrent use.
type PageFetcher struct {
	client   *http.Client
	breakers *circuitbreaker.Group
	cfg      Config
}

// NewPageFetcher builds a fetcher. A nil client gets a default transport
// with TLS 1.2+ and redirect validation.
func NewPageFetcher(cfg Config, client *http.Client) *PageFetcher {
	f := &PageFetcher{
		breakers: circuitbreaker.NewGroup(circuitbreaker.ArticleFetchConfig),
		cfg:      cfg,
	}
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		}
	}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= f.cfg.MaxRedirects {
			return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
		}
		if err := validateURL(req.URL.String(), f.cfg.DenyPrivateIPs); err != nil {
			return fmt.Errorf("redirect target validation failed: %w", err)
		}
		return nil
	}
	f.client = client
	return f
}

// Fetch returns the page at rawURL. Non-2xx responses are reported as
// *retry.HTTPError.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := validateURL(rawURL, f.cfg.DenyPrivateIPs); err != nil {
		return nil, err
	}
	u, _ := url.Parse(rawURL)
	cb := f.breakers.Get(u.Hostname())

	var page *Page
	err := retry.WithBackoff(ctx, f.cfg.Retry, func() error {
		p, err := circuitbreaker.Do(cb, func() (*Page, error) {
			return f.doFetch(ctx, rawURL)
		})
		if err != nil {
			if errors.Is(err, circuitbreaker.ErrOpen) {
				slog.Warn("fetch circuit breaker open, request rejected",
					slog.String("breaker", cb.Name()),
					slog.String("url", rawURL))
			}
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return page, nil
}

func (f *PageFetcher) doFetch(ctx context.Context, rawURL string) (*Page, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", DefaultAccept)
	if f.cfg.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", f.cfg.AcceptLanguage)
	}
	if f.cfg.Referer != "" {
		req.Header.Set("Referer", f.cfg.Referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: request exceeded %v", ErrTimeout, f.cfg.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBodySize {
		return nil, fmt.Errorf("%w: response size exceeds limit %d bytes", ErrBodyTooLarge, f.cfg.MaxBodySize)
	}

	final := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}
	return &Page{URL: final, HTML: body}, nil
}

// OpenBreakers lists hosts whose breaker is currently open.
func (f *PageFetcher) OpenBreakers() []string {
	return f.breakers.OpenKeys()
}
