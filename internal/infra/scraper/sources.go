package scraper

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"newsbrief/internal/usecase/ingest"
)

// DefaultSources is used when no sources file exists: the Naver life and
// culture section, which the digest is written for.
func DefaultSources() []ingest.SourceConfig {
	return []ingest.SourceConfig{{
		Name:    "naver-life",
		Kind:    ingest.KindListPage,
		URL:     "https://news.naver.com/section/103",
		BaseURL: DefaultBaseURL,
	}}
}

type sourcesFile struct {
	Sources []ingest.SourceConfig `yaml:"sources"`
}

// LoadSources reads a YAML sources file. A missing file yields
// DefaultSources; a malformed one is an error.
func LoadSources(path string) ([]ingest.SourceConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSources(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return ParseSources(data)
}

// ParseSources decodes and validates a sources document.
func ParseSources(data []byte) ([]ingest.SourceConfig, error) {
	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	seen := make(map[string]bool, len(f.Sources))
	for i := range f.Sources {
		src := &f.Sources[i]
		src.Name = strings.TrimSpace(src.Name)
		src.Kind = strings.ToLower(strings.TrimSpace(src.Kind))
		if src.Kind == "" {
			src.Kind = ingest.KindListPage
		}
		switch {
		case src.Name == "":
			return nil, fmt.Errorf("source #%d: name is required", i+1)
		case seen[src.Name]:
			return nil, fmt.Errorf("source %s: duplicate name", src.Name)
		case src.URL == "":
			return nil, fmt.Errorf("source %s: url is required", src.Name)
		case src.Kind != ingest.KindListPage && src.Kind != ingest.KindRSS:
			return nil, fmt.Errorf("source %s: %w: %q", src.Name, ingest.ErrUnknownKind, src.Kind)
		}
		seen[src.Name] = true
	}
	return f.Sources, nil
}
