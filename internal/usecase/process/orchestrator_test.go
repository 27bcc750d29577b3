package process_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/repository"
	"newsbrief/internal/repository/repotest"
	"newsbrief/internal/usecase/brief"
	"newsbrief/internal/usecase/process"
)

/* ───────── helpers ───────── */

var (
	seoul, _ = time.LoadLocation("Asia/Seoul")
	// 2026-10-18 09:00 KST
	now = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
)

type page struct {
	text  string
	found bool
	err   error
}

type stubFetcher struct {
	pages map[string]page
	calls []string
}

func (f *stubFetcher) FetchBody(_ context.Context, link string) (string, bool, error) {
	f.calls = append(f.calls, link)
	p, ok := f.pages[link]
	if !ok {
		return "", false, errors.New("HTTP 404: Not Found")
	}
	return p.text, p.found, p.err
}

type stubGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type fixture struct {
	store   *repotest.Store
	fetcher *stubFetcher
	gen     *stubGenerator
	waits   []time.Duration
	orch    *process.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   repotest.New(),
		fetcher: &stubFetcher{pages: map[string]page{}},
		gen:     &stubGenerator{reply: "✨ 요약 하나\n👗 요약 둘\n💄 요약 셋"},
	}
	sleep := func(ctx context.Context, d time.Duration) error {
		f.waits = append(f.waits, d)
		return ctx.Err()
	}
	policy := brief.NewPolicy(f.gen, brief.DefaultConfig(), brief.WithSleep(sleep))
	f.orch = process.NewOrchestrator(
		f.store,
		f.fetcher,
		brief.NewSummarizer(policy, brief.DefaultConfig()),
		brief.NewAggregator(policy),
		process.Config{ArticleDelay: time.Second, Location: seoul},
		process.WithClock(func() time.Time { return now }),
		process.WithSleep(sleep),
	)
	return f
}

func (f *fixture) seed(t *testing.T, link, title string, createdAt time.Time) *entity.Article {
	t.Helper()
	a, err := entity.NewPendingArticle(link, title, "", createdAt)
	require.NoError(t, err)
	return f.store.SeedArticle(a)
}

func body(n int) string { return strings.Repeat("본", n) }

func byLink(articles []*entity.Article) map[string]*entity.Article {
	out := make(map[string]*entity.Article, len(articles))
	for _, a := range articles {
		out[a.Link] = a
	}
	return out
}

/* ───────── tests ───────── */

func TestRun_ApprovesArticleWithContent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "https://x/1", "가을 트렌드", now)
	f.fetcher.pages["https://x/1"] = page{text: body(200), found: true}

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Approved)

	a := f.store.Articles()[0]
	assert.Equal(t, entity.StatusApproved, a.Status())
	require.NotNil(t, a.Summary)
	assert.False(t, brief.DefaultMessages().IsSentinel(*a.Summary))
	assert.Equal(t, body(200), a.Content)
}

func TestRun_StateInvariant(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "https://x/ok", "ok", now)
	f.seed(t, "https://x/no-region", "no region", now)
	f.seed(t, "https://x/broken", "broken", now)
	f.seed(t, "https://x/short", "short", now)
	f.fetcher.pages["https://x/ok"] = page{text: body(120), found: true}
	f.fetcher.pages["https://x/no-region"] = page{found: false}
	f.fetcher.pages["https://x/short"] = page{text: "", found: true}

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, process.Result{
		Pending: 4, Approved: 2, Rejected: 1, Skipped: 1,
		InsightWritten: true, InsightTitles: 2, Duration: res.Duration,
	}, res)

	got := byLink(f.store.Articles())
	assert.Equal(t, entity.StatusApproved, got["https://x/ok"].Status())
	assert.Equal(t, entity.StatusRejected, got["https://x/no-region"].Status())
	assert.Nil(t, got["https://x/no-region"].Summary)
	assert.Equal(t, entity.StatusPending, got["https://x/broken"].Status())
	assert.Nil(t, got["https://x/broken"].Summary)
	require.NotNil(t, got["https://x/short"].Summary)
	assert.Equal(t, brief.DefaultMessages().TooShort, *got["https://x/short"].Summary)

	for _, a := range got {
		if a.Status() == entity.StatusApproved {
			assert.NotNil(t, a.Summary, a.Link)
		}
		if a.Status() == entity.StatusRejected {
			assert.Nil(t, a.Summary, a.Link)
		}
	}
}

func TestRun_OrderAndDelay(t *testing.T) {
	f := newFixture(t)
	f.gen.reply = "x"
	for _, l := range []string{"https://x/a", "https://x/b", "https://x/c"} {
		f.seed(t, l, l, now)
		f.fetcher.pages[l] = page{found: false}
	}

	_, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/a", "https://x/b", "https://x/c"}, f.fetcher.calls)
	// two gaps between three articles; rejected articles never reach the backend
	assert.Equal(t, []time.Duration{time.Second, time.Second}, f.waits)
}

func TestRun_IdempotentReRun(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "https://x/1", "one", now)
	f.fetcher.pages["https://x/1"] = page{text: body(80), found: true}

	_, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	f.fetcher.calls = nil

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Pending)
	assert.Empty(t, f.fetcher.calls)
	// today's approved article still feeds a fresh insight
	assert.True(t, res.InsightWritten)
	assert.Len(t, f.store.Insights(), 2)
}

func TestRun_StoreFailureDoesNotStopBatch(t *testing.T) {
	f := newFixture(t)
	first := f.seed(t, "https://x/1", "one", now)
	f.seed(t, "https://x/2", "two", now)
	f.fetcher.pages["https://x/1"] = page{text: body(80), found: true}
	f.fetcher.pages["https://x/2"] = page{text: body(80), found: true}
	f.store.FailUpdate = func(a *entity.Article) error {
		if a.ID == first.ID {
			return errors.New("disk I/O error")
		}
		return nil
	}

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.StoreErrors)
	assert.Equal(t, 1, res.Approved)

	got := byLink(f.store.Articles())
	assert.Equal(t, entity.StatusPending, got["https://x/1"].Status())
	assert.Nil(t, got["https://x/1"].Summary)
	assert.Equal(t, entity.StatusApproved, got["https://x/2"].Status())
}

func TestRun_AggregationGating(t *testing.T) {
	f := newFixture(t)
	yesterday := now.Add(-24 * time.Hour)
	old := f.seed(t, "https://x/old", "old", yesterday)
	require.NoError(t, old.Approve("c", "s"))
	require.NoError(t, f.store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return tx.Articles().Update(ctx, old)
	}))
	f.seed(t, "https://x/new", "new", now)
	f.fetcher.pages["https://x/new"] = page{found: false}

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.InsightWritten)
	assert.Empty(t, f.store.Insights())
	assert.Empty(t, f.gen.prompts)
}

func TestRun_InsightUsesTodaysTitlesInOrder(t *testing.T) {
	f := newFixture(t)
	f.gen.reply = "🌤️ 오늘의 분위기"
	for i, title := range []string{"A", "B", "C"} {
		l := "https://x/" + title
		f.seed(t, l, title, now.Add(time.Duration(i)*time.Minute))
		f.fetcher.pages[l] = page{found: true}
	}

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.InsightWritten)

	// bodies are empty, so only the insight reaches the backend
	require.Len(t, f.gen.prompts, 1)
	assert.Contains(t, f.gen.prompts[0], "- A\n- B\n- C\n")

	insights := f.store.Insights()
	require.Len(t, insights, 1)
	assert.Equal(t, "🌤️ 오늘의 분위기", insights[0].Content)
}

func TestRun_BlankInsightReplyIsStillPersisted(t *testing.T) {
	f := newFixture(t)
	f.gen.reply = "   "
	f.seed(t, "https://x/1", "one", now)
	f.fetcher.pages["https://x/1"] = page{found: true}

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Approved)
	assert.True(t, res.InsightWritten)

	insights := f.store.Insights()
	require.Len(t, insights, 1)
	assert.Equal(t, brief.DefaultMessages().EmptyResponse, insights[0].Content)
}

func TestRun_DayBoundaryFollowsLocation(t *testing.T) {
	f := newFixture(t)
	// 23:30 UTC on the 17th is 08:30 KST on the 18th
	early := time.Date(2026, 10, 17, 23, 30, 0, 0, time.UTC)
	// 14:00 UTC on the 17th is 23:00 KST on the 17th
	previousDay := time.Date(2026, 10, 17, 14, 0, 0, 0, time.UTC)
	f.seed(t, "https://x/today", "today", early)
	f.seed(t, "https://x/yesterday", "yesterday", previousDay)
	f.fetcher.pages["https://x/today"] = page{text: body(60), found: true}
	f.fetcher.pages["https://x/yesterday"] = page{text: body(60), found: true}

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Approved)
	assert.Equal(t, 1, res.InsightTitles)
}

func TestRun_InsightInsertFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "https://x/1", "one", now)
	f.fetcher.pages["https://x/1"] = page{text: body(80), found: true}
	f.store.FailInsight = func(*entity.DailyInsight) error { return errors.New("locked") }

	res, err := f.orch.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, res.Approved)
	assert.Empty(t, f.store.Insights())
	assert.Equal(t, entity.StatusApproved, f.store.Articles()[0].Status())
}

func TestRun_ListPendingFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailListPending = errors.New("no such table")

	_, err := f.orch.Run(context.Background())
	assert.ErrorContains(t, err, "list pending articles")
}

func TestRun_CancelledBetweenArticles(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "https://x/1", "one", now)
	f.seed(t, "https://x/2", "two", now)
	f.fetcher.pages["https://x/1"] = page{found: false}
	f.fetcher.pages["https://x/2"] = page{found: false}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.orch.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	// the first article is committed, the wait before the second one aborts
	assert.Equal(t, []string{"https://x/1"}, f.fetcher.calls)
	got := byLink(f.store.Articles())
	assert.Equal(t, entity.StatusRejected, got["https://x/1"].Status())
	assert.Equal(t, entity.StatusPending, got["https://x/2"].Status())
	assert.Empty(t, f.store.Insights())
}

func TestRun_Spans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	f := newFixture(t)
	f.seed(t, "https://x/1", "one", now)
	f.fetcher.pages["https://x/1"] = page{found: false}

	_, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	names := map[string]int{}
	for _, s := range rec.Ended() {
		names[s.Name()]++
	}
	assert.Equal(t, 1, names["pipeline.run"])
	assert.Equal(t, 1, names["process.article"])
}
