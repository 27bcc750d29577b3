package ingest_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/repository/repotest"
	"newsbrief/internal/usecase/ingest"
)

/* ───────── helpers ───────── */

var now = time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type stubFetcher struct {
	bySource map[string][]ingest.Candidate
	errs     map[string]error
	calls    atomic.Int32
}

func (f *stubFetcher) Fetch(_ context.Context, src ingest.SourceConfig) ([]ingest.Candidate, error) {
	f.calls.Add(1)
	if err := f.errs[src.Name]; err != nil {
		return nil, err
	}
	return f.bySource[src.Name], nil
}

/* ───────── Deduplicator ───────── */

func TestDeduplicator_SecondIngestIsNoop(t *testing.T) {
	store := repotest.New()
	d := ingest.NewDeduplicator(store, clock)
	c := ingest.Candidate{Link: "https://n.news.naver.com/article/001/1", Title: "제목", Lede: "리드"}

	isNew, err := d.Ingest(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = d.Ingest(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, isNew)

	articles := store.Articles()
	require.Len(t, articles, 1)
	a := articles[0]
	assert.Equal(t, entity.StatusPending, a.Status())
	assert.Nil(t, a.Summary)
	assert.Empty(t, a.Content)
	assert.Equal(t, "리드", a.Lede)
	assert.True(t, a.CreatedAt.Equal(now))
}

func TestDeduplicator_RaceOnInsertIsNotNew(t *testing.T) {
	store := repotest.New()
	link := "https://example.com/a"
	existing, err := entity.NewPendingArticle(link, "t", "", now)
	require.NoError(t, err)
	store.SeedArticle(existing)
	store.StaleReads = true

	d := ingest.NewDeduplicator(store, clock)
	isNew, err := d.Ingest(context.Background(), ingest.Candidate{Link: link, Title: "t"})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Len(t, store.Articles(), 1)
}

func TestDeduplicator_InvalidCandidate(t *testing.T) {
	d := ingest.NewDeduplicator(repotest.New(), clock)

	_, err := d.Ingest(context.Background(), ingest.Candidate{Link: "/article/1", Title: "t"})
	assert.ErrorIs(t, err, entity.ErrValidationFailed)

	_, err = d.Ingest(context.Background(), ingest.Candidate{Link: "https://example.com/x", Title: " "})
	assert.ErrorIs(t, err, entity.ErrValidationFailed)
}

func TestDeduplicator_StoreError(t *testing.T) {
	store := repotest.New()
	boom := errors.New("db down")
	store.FailFindByLink = func(string) error { return boom }

	_, err := ingest.NewDeduplicator(store, clock).Ingest(context.Background(),
		ingest.Candidate{Link: "https://example.com/x", Title: "t"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.Rollbacks)
}

/* ───────── Service ───────── */

func TestService_Run(t *testing.T) {
	store := repotest.New()
	fetcher := &stubFetcher{
		bySource: map[string][]ingest.Candidate{
			"fashion": {
				{Link: "https://n.news.naver.com/article/1", Title: "  패션\n위크  "},
				{Link: "https://n.news.naver.com/article/2", Title: "뷰티"},
				{Link: "relative/3", Title: "bad"},
			},
			"feed": {
				{Link: "https://n.news.naver.com/article/2", Title: "뷰티 again"},
			},
		},
		errs: map[string]error{"broken": errors.New("HTTP 503")},
	}
	sources := []ingest.SourceConfig{
		{Name: "fashion", Kind: ingest.KindListPage},
		{Name: "broken", Kind: ingest.KindListPage},
		{Name: "feed", Kind: ingest.KindRSS},
		{Name: "off", Kind: ingest.KindRSS, Disabled: true},
	}
	svc := ingest.NewService(map[string]ingest.Fetcher{
		ingest.KindListPage: fetcher,
		ingest.KindRSS:      fetcher,
	}, sources, ingest.NewDeduplicator(store, clock))

	stats, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Sources)
	assert.Equal(t, 1, stats.SourceErrors)
	assert.Equal(t, 4, stats.Candidates)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 1, stats.Duplicated)
	assert.Equal(t, 1, stats.Invalid)
	assert.Equal(t, int32(3), fetcher.calls.Load())

	articles := store.Articles()
	require.Len(t, articles, 2)
	assert.Equal(t, "패션 위크", articles[0].Title)
}

func TestService_UnknownKindCountsAsSourceError(t *testing.T) {
	svc := ingest.NewService(map[string]ingest.Fetcher{}, []ingest.SourceConfig{{Name: "x", Kind: "atom"}},
		ingest.NewDeduplicator(repotest.New(), clock))

	stats, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SourceErrors)
}

func TestService_NoSources(t *testing.T) {
	svc := ingest.NewService(nil, []ingest.SourceConfig{{Name: "off", Disabled: true}},
		ingest.NewDeduplicator(repotest.New(), clock))
	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, ingest.ErrNoSources)
}

func TestService_StoreFailureAborts(t *testing.T) {
	store := repotest.New()
	boom := errors.New("db down")
	store.FailFindByLink = func(string) error { return boom }
	fetcher := &stubFetcher{bySource: map[string][]ingest.Candidate{
		"s": {{Link: "https://example.com/1", Title: "t"}},
	}}
	svc := ingest.NewService(map[string]ingest.Fetcher{ingest.KindRSS: fetcher},
		[]ingest.SourceConfig{{Name: "s", Kind: ingest.KindRSS}}, ingest.NewDeduplicator(store, clock))

	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}
