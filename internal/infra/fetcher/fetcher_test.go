package fetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/resilience/retry"
)

/* ───────── helpers ───────── */

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DenyPrivateIPs = false
	cfg.Timeout = 2 * time.Second
	cfg.Retry.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return cfg
}

const articleHTML = `<html><body>
<div id="ct">
  <div id="dic_area">
    첫 문단입니다.
    <span class="img_desc">사진 설명</span>
    <p>둘째 <b>문단</b>입니다.</p>
    <div class="byline">기자 이름</div>
    <div class="f_share">공유하기</div>
    <script>var x = 1;</script>
  </div>
</div>
</body></html>`

/* ───────── PageFetcher ───────── */

func TestPageFetcher_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	page, err := NewPageFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL+"/article/1")
	require.NoError(t, err)
	assert.Contains(t, string(page.HTML), "dic_area")
	assert.Equal(t, DefaultUserAgent, got.Get("User-Agent"))
	assert.Equal(t, DefaultAcceptLanguage, got.Get("Accept-Language"))
	assert.Equal(t, DefaultReferer, got.Get("Referer"))
}

func TestPageFetcher_NonSuccessIsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewPageFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL)
	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestPageFetcher_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	_, err := NewPageFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestPageFetcher_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 4096)))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBodySize = 1024
	_, err := NewPageFetcher(cfg, nil).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestPageFetcher_RejectsBadScheme(t *testing.T) {
	_, err := NewPageFetcher(testConfig(), nil).Fetch(context.Background(), "ftp://example.com/a")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestPageFetcher_DeniesPrivateIPs(t *testing.T) {
	cfg := testConfig()
	cfg.DenyPrivateIPs = true
	_, err := NewPageFetcher(cfg, nil).Fetch(context.Background(), "http://127.0.0.1:1/")
	assert.ErrorIs(t, err, ErrPrivateIP)
}

func TestIsPrivateIP(t *testing.T) {
	for ip, want := range map[string]bool{
		"127.0.0.1":   true,
		"10.1.2.3":    true,
		"192.168.0.1": true,
		"169.254.1.1": true,
		"::1":         true,
		"8.8.8.8":     false,
	} {
		assert.Equal(t, want, isPrivateIP(net.ParseIP(ip)), ip)
	}
}

/* ───────── Extractor ───────── */

func TestExtractor_StripsNoise(t *testing.T) {
	text, found, err := NewExtractor(nil, nil, false).Extract(&Page{HTML: []byte(articleHTML)})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "첫 문단입니다.둘째문단입니다.", text)
}

func TestExtractor_JoinsTextNodesWithoutSeparator(t *testing.T) {
	html := `<div id="dic_area">
  <p> 가 나 </p>
  <p>다</p>
  <br>
  <p>라<i>마</i></p>
</div>`
	text, found, err := NewExtractor(nil, nil, false).Extract(&Page{HTML: []byte(html)})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "가 나다라마", text)
	assert.Equal(t, 6, utf8.RuneCountInString(text))
}

func TestExtractor_SecondSelector(t *testing.T) {
	html := `<div id="newsct_article"><p>본문</p></div>`
	text, found, err := NewExtractor(nil, nil, false).Extract(&Page{HTML: []byte(html)})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "본문", text)
}

func TestExtractor_NoRegion(t *testing.T) {
	text, found, err := NewExtractor(nil, nil, false).Extract(&Page{HTML: []byte(`<p>nothing here</p>`)})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, text)
}

func TestExtractor_EmptyRegionIsStillFound(t *testing.T) {
	text, found, err := NewExtractor(nil, nil, false).Extract(&Page{HTML: []byte(`<div id="dic_area"> </div>`)})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, text)
}

/* ───────── BodyFetcher ───────── */

func TestBodyFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Retry.MaxAttempts = 1
	bf := NewBodyFetcher(NewPageFetcher(cfg, nil), NewExtractor(nil, nil, false))

	text, found, err := bf.FetchBody(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, text, "첫 문단입니다.")

	_, _, err = bf.FetchBody(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidURL))
}
