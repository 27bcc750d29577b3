package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/usecase/digest"
)

/* ───────── helpers ───────── */

var announcement = digest.Announcement{
	Subject:      "📢 [Weekly Fashion] 이번 주 핫 트렌드 뉴스레터",
	Day:          time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
	ArticleCount: 7,
	Recipients:   42,
	Insight:      "🌤️ 오늘의 분위기: 가을",
	Headlines: []digest.Headline{
		{Title: "가을 트렌드", Link: "https://n.news.naver.com/article/1"},
		{Title: "뷰티 팝업", Link: "https://n.news.naver.com/article/2"},
	},
}

type sleepRecorder struct{ waits []time.Duration }

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func fastHook(t *testing.T, hook *webhook) *sleepRecorder {
	t.Helper()
	rec := &sleepRecorder{}
	hook.sleep = rec.sleep
	hook.rateLimiter = NewRateLimiter(1000, 10)
	return rec
}

/* ───────── payloads ───────── */

func TestBuildSlackPayload(t *testing.T) {
	p := buildSlackPayload(announcement)

	assert.Equal(t, "📢 [Weekly Fashion] 이번 주 핫 트렌드 뉴스레터 (2026년 10월 18일)", p.Text)
	require.Len(t, p.Blocks, 3)
	assert.Equal(t, "section", p.Blocks[0].Type)
	assert.Contains(t, p.Blocks[0].Text.Text, "🌤️ 오늘의 분위기: 가을")
	assert.Contains(t, p.Blocks[1].Text.Text, "• <https://n.news.naver.com/article/1|가을 트렌드>")
	assert.Equal(t, "context", p.Blocks[2].Type)
	assert.Equal(t, "2026년 10월 18일 • 기사 7건 • 수신자 42명", p.Blocks[2].Elements[0].Text)
}

func TestBuildSlackPayload_TruncatesLongInsight(t *testing.T) {
	a := announcement
	a.Insight = strings.Repeat("가", 5000)
	a.Headlines = nil

	p := buildSlackPayload(a)
	require.Len(t, p.Blocks, 2)
	text := p.Blocks[0].Text.Text
	assert.Equal(t, maxSectionTextLength, len([]rune(text)))
	assert.True(t, strings.HasSuffix(text, truncationSuffix))
}

func TestBuildDiscordPayload(t *testing.T) {
	p := buildDiscordPayload(announcement)

	require.Len(t, p.Embeds, 1)
	e := p.Embeds[0]
	assert.Equal(t, announcement.Subject, e.Title)
	assert.Contains(t, e.Description, "🌤️ 오늘의 분위기: 가을\n\n• [가을 트렌드](https://n.news.naver.com/article/1)")
	assert.Equal(t, discordBlueColor, e.Color)
	assert.Equal(t, "기사 7건 • 수신자 42명", e.Footer.Text)
	assert.Equal(t, "2026-10-18T00:00:00Z", e.Timestamp)
}

/* ───────── transport ───────── */

func TestSlackNotifier_Announce(t *testing.T) {
	var got SlackWebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := NewSlackNotifier(WebhookConfig{WebhookURL: srv.URL, Timeout: time.Second})
	fastHook(t, n.hook)

	require.NoError(t, n.Announce(context.Background(), announcement))
	assert.Len(t, got.Blocks, 3)
	assert.Equal(t, "slack", n.Name())
}

func TestDiscordNotifier_RetriesServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(WebhookConfig{WebhookURL: srv.URL})
	rec := fastHook(t, n.hook)

	require.NoError(t, n.Announce(context.Background(), announcement))
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, []time.Duration{webhookBaseDelay}, rec.waits)
}

func TestWebhook_RateLimitUsesRetryAfter(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"You are being rate limited.","retry_after":1.5}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(WebhookConfig{WebhookURL: srv.URL})
	rec := fastHook(t, n.hook)

	require.NoError(t, n.Announce(context.Background(), announcement))
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, rec.waits)
}

func TestWebhook_ClientErrorIsFinal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no_service"))
	}))
	defer srv.Close()

	n := NewSlackNotifier(WebhookConfig{WebhookURL: srv.URL})
	rec := fastHook(t, n.hook)

	err := n.Announce(context.Background(), announcement)
	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, http.StatusNotFound, clientErr.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
	assert.Empty(t, rec.waits)
}

func TestWebhook_GivesUpAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(WebhookConfig{WebhookURL: srv.URL})
	fastHook(t, n.hook)

	err := n.Announce(context.Background(), announcement)
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestExtractRetryAfter(t *testing.T) {
	header := func(v string) *http.Response {
		return &http.Response{Header: http.Header{"Retry-After": []string{v}}}
	}
	assert.Equal(t, 2*time.Second, extractRetryAfter(header(""), []byte(`{"retry_after":2}`)))
	assert.Equal(t, 7*time.Second, extractRetryAfter(header("7"), nil))
	assert.Equal(t, 5*time.Second, extractRetryAfter(header("soon"), []byte("not json")))
}

func TestAnnouncers(t *testing.T) {
	assert.Empty(t, Announcers(Config{}))

	got := Announcers(Config{
		Slack:   WebhookConfig{WebhookURL: "https://hooks.slack.com/services/x"},
		Discord: WebhookConfig{WebhookURL: "https://discord.com/api/webhooks/x"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "slack", got[0].Name())
	assert.Equal(t, "discord", got[1].Name())
}
