// Package ingest scrapes the configured sources and records every new link
// as a PENDING article.
package ingest

import (
	"context"
	"errors"
)

// Source kinds understood by the scraper registry.
const (
	KindListPage = "listpage"
	KindRSS      = "rss"
)

var (
	// ErrUnknownKind is returned for a source whose kind has no fetcher.
	ErrUnknownKind = errors.New("unknown source kind")

	ErrNoSources = errors.New("no enabled sources configured")
)

// Selectors override the list-page defaults. Empty fields keep them.
type Selectors struct {
	Items []string `yaml:"items"`
	Title string   `yaml:"title"`
	Link  string   `yaml:"link"`
	Lede  string   `yaml:"lede"`
}

// SourceConfig describes one place articles are scraped from.
type SourceConfig struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	URL     string `yaml:"url"`
	BaseURL string `yaml:"base_url"`
	// Disabled sources stay in the file but are skipped.
	Disabled  bool      `yaml:"disabled"`
	Selectors Selectors `yaml:"selectors"`
}

// Candidate is one scraped list entry. Link must be absolute by the time
// it reaches the Deduplicator.
type Candidate struct {
	Link  string
	Title string
	Lede  string
}

// Fetcher scrapes one kind of source.
type Fetcher interface {
	Fetch(ctx context.Context, src SourceConfig) ([]Candidate, error)
}
