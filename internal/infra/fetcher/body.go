package fetcher

import (
	"context"
	"time"

	"newsbrief/internal/observability/metrics"
)

// BodyFetcher fetches an article page and extracts its content region.
type BodyFetcher struct {
	pages     *PageFetcher
	extractor *Extractor
}

func NewBodyFetcher(pages *PageFetcher, extractor *Extractor) *BodyFetcher {
	return &BodyFetcher{pages: pages, extractor: extractor}
}

// FetchBody returns the content region's text. found is false when the
// page has no recognizable content region. The error is reserved for pages
// that could not be retrieved or parsed.
func (b *BodyFetcher) FetchBody(ctx context.Context, link string) (text string, found bool, err error) {
	start := time.Now()
	page, err := b.pages.Fetch(ctx, link)
	metrics.RecordContentFetch(time.Since(start))
	if err != nil {
		return "", false, err
	}
	return b.extractor.Extract(page)
}
