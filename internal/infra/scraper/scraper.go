// Package scraper turns configured sources into ingestion candidates.
// Section list pages are parsed with goquery; feeds with gofeed.
package scraper

import (
	"context"
	"errors"
	"net/http"

	"newsbrief/internal/infra/fetcher"
	"newsbrief/internal/usecase/ingest"
)

// ErrNoItems means none of the item selectors matched. On a list page this
// almost always means the markup changed.
var ErrNoItems = errors.New("no list items matched")

// PageGetter is the part of fetcher.PageFetcher the list-page scraper uses.
type PageGetter interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Page, error)
}

// NewRegistry maps every supported source kind to its fetcher.
func NewRegistry(pages PageGetter, client *http.Client) map[string]ingest.Fetcher {
	return map[string]ingest.Fetcher{
		ingest.KindListPage: NewListPageScraper(pages),
		ingest.KindRSS:      NewRSSSource(client),
	}
}
