package fetcher

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// Default selectors for Naver news article pages.
var (
	DefaultContentSelectors = []string{"#dic_area", "#newsct_article"}
	DefaultStripSelectors   = []string{".img_desc", ".byline", ".f_share"}
)

// Extractor finds the main content region of an article page.
type Extractor struct {
	contentSelectors []string
	stripSelectors   []string
	readability      bool
}

// NewExtractor builds an extractor. Empty selector lists use the defaults.
// With readabilityFallback set, pages without a known region are passed
// through go-readability.
func NewExtractor(content, strip []string, readabilityFallback bool) *Extractor {
	if len(content) == 0 {
		content = DefaultContentSelectors
	}
	if strip == nil {
		strip = DefaultStripSelectors
	}
	return &Extractor{contentSelectors: content, stripSelectors: strip, readability: readabilityFallback}
}

// Extract returns the region's text with captions, bylines and share
// widgets removed. found is false when no region exists on the page; that
// is a normal result, not an error.
func (e *Extractor) Extract(page *Page) (text string, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.HTML))
	if err != nil {
		return "", false, fmt.Errorf("parse html: %w", err)
	}

	for _, sel := range e.contentSelectors {
		region := doc.Find(sel).First()
		if region.Length() == 0 {
			continue
		}
		for _, strip := range e.stripSelectors {
			region.Find(strip).Remove()
		}
		return regionText(region), true, nil
	}

	if !e.readability {
		return "", false, nil
	}
	article, err := readability.FromReader(bytes.NewReader(page.HTML), page.URL)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrReadabilityFailed, err)
	}
	content := strings.TrimSpace(article.TextContent)
	if content == "" {
		return "", false, nil
	}
	return content, true, nil
}

// regionText concatenates the trimmed text nodes of sel in document order
// with no separator. Length thresholds and the summary input window are
// measured on this form.
func regionText(sel *goquery.Selection) string {
	var parts []string
	collectText(sel, &parts)
	return strings.Join(parts, "")
}

func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			if t := strings.TrimSpace(c.Text()); t != "" {
				*parts = append(*parts, t)
			}
		case "script", "style", "#comment":
		default:
			collectText(c, parts)
		}
	})
}
