package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsbrief/internal/resilience/circuitbreaker"
	"newsbrief/internal/usecase/ingest"
)

// DefaultBaseURL resolves relative links when a source sets no base_url.
const DefaultBaseURL = "https://news.naver.com"

// Naver section page selectors. Item selectors are tried in order and the
// first one that matches anything wins.
var (
	DefaultItemSelectors = []string{
		"ul.sa_list_news > li.sa_item",
		"div.sa_list_news > ul > li.sa_item",
		"div.sa_list > ul > li.sa_item",
		"div.sa_list .sa_item",
		"li.sa_item",
		".sa_item",
	}
	DefaultTitleSelector = ".sa_text_title"
	DefaultLinkSelector  = "a[href*='/article/']"
	DefaultLedeSelector  = ".sa_text_lede"
)

// ListPageScraper extracts candidates from a news section list page.
//
// Thread safety: ListPageScraper is safe for concurrent use.
type ListPageScraper struct {
	pages    PageGetter
	breakers *circuitbreaker.Group
}

func NewListPageScraper(pages PageGetter) *ListPageScraper {
	return &ListPageScraper{
		pages: pages,
		breakers: circuitbreaker.NewGroup(func(name string) circuitbreaker.Config {
			cfg := circuitbreaker.ListPageConfig()
			cfg.Name = "list-page:" + name
			return cfg
		}),
	}
}

// Fetch downloads src.URL and parses its items. A page where no item
// selector matches fails with ErrNoItems and counts against the source's
// breaker.
func (s *ListPageScraper) Fetch(ctx context.Context, src ingest.SourceConfig) ([]ingest.Candidate, error) {
	base, err := resolveBase(src)
	if err != nil {
		return nil, err
	}
	cb := s.breakers.Get(src.Name)

	cands, err := circuitbreaker.Do(cb, func() ([]ingest.Candidate, error) {
		page, err := s.pages.Fetch(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.HTML))
		if err != nil {
			return nil, fmt.Errorf("parse list page: %w", err)
		}
		cands := parseListPage(doc, base, src.Selectors)
		if cands == nil {
			return nil, ErrNoItems
		}
		return cands, nil
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			slog.Warn("list page circuit breaker open, request rejected",
				slog.String("breaker", cb.Name()),
				slog.String("url", src.URL))
		}
		return nil, fmt.Errorf("list page %s: %w", src.Name, err)
	}
	return cands, nil
}

// parseListPage returns nil when no item selector matched and an empty,
// non-nil slice when items matched but none had both a title and a link.
func parseListPage(doc *goquery.Document, base *url.URL, sel ingest.Selectors) []ingest.Candidate {
	itemSelectors := DefaultItemSelectors
	if len(sel.Items) > 0 {
		itemSelectors = sel.Items
	}
	titleSel := orDefault(sel.Title, DefaultTitleSelector)
	linkSel := orDefault(sel.Link, DefaultLinkSelector)
	ledeSel := orDefault(sel.Lede, DefaultLedeSelector)

	var items *goquery.Selection
	for _, css := range itemSelectors {
		if found := doc.Find(css); found.Length() > 0 {
			items = found
			break
		}
	}
	if items == nil {
		return nil
	}

	cands := make([]ingest.Candidate, 0, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		title, href := titleAndHref(item, titleSel, linkSel)
		if title == "" || href == "" {
			return
		}
		link, err := base.Parse(href)
		if err != nil {
			return
		}
		cands = append(cands, ingest.Candidate{
			Link:  link.String(),
			Title: title,
			Lede:  strings.TrimSpace(item.Find(ledeSel).First().Text()),
		})
	})
	return cands
}

// titleAndHref prefers the title element; its link is its own href or
// that of the enclosing anchor. Otherwise the first article anchor
// supplies both.
func titleAndHref(item *goquery.Selection, titleSel, linkSel string) (string, string) {
	if t := item.Find(titleSel).First(); t.Length() > 0 {
		title := strings.TrimSpace(t.Text())
		href, ok := t.Attr("href")
		if !ok {
			href, _ = t.Closest("a").Attr("href")
		}
		return title, strings.TrimSpace(href)
	}
	a := item.Find(linkSel).First()
	href, _ := a.Attr("href")
	return strings.TrimSpace(a.Text()), strings.TrimSpace(href)
}

func resolveBase(src ingest.SourceConfig) (*url.URL, error) {
	raw := orDefault(src.BaseURL, DefaultBaseURL)
	base, err := url.Parse(raw)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("source %s: invalid base_url %q", src.Name, raw)
	}
	return base, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
