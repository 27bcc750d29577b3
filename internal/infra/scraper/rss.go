package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"newsbrief/internal/resilience/circuitbreaker"
	"newsbrief/internal/resilience/retry"
	"newsbrief/internal/usecase/ingest"
)

const feedUserAgent = "NewsBriefBot/1.0"

// RSSSource reads RSS and Atom feeds. Item link, title and description
// become the candidate's link, title and lede.
type RSSSource struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func NewRSSSource(client *http.Client) *RSSSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &RSSSource{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

func (f *RSSSource) Fetch(ctx context.Context, src ingest.SourceConfig) ([]ingest.Candidate, error) {
	var cands []ingest.Candidate

	err := retry.WithBackoff(ctx, f.retryConfig, func() error {
		res, err := circuitbreaker.Do(f.circuitBreaker, func() ([]ingest.Candidate, error) {
			return f.doFetch(ctx, src.URL)
		})
		if err != nil {
			if errors.Is(err, circuitbreaker.ErrOpen) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("url", src.URL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		cands = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", src.Name, err)
	}
	return cands, nil
}

func (f *RSSSource) doFetch(ctx context.Context, feedURL string) ([]ingest.Candidate, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = feedUserAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return nil, err
	}

	cands := make([]ingest.Candidate, 0, len(feed.Items))
	for _, it := range feed.Items {
		cands = append(cands, ingest.Candidate{
			Link:  strings.TrimSpace(it.Link),
			Title: it.Title,
			Lede:  strings.TrimSpace(it.Description),
		})
	}
	return cands, nil
}
