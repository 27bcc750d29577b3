package generation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/usecase/brief"
)

func newServer(t *testing.T, status int, body string, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

/* ───────── factory ───────── */

func TestNew_MissingCredential(t *testing.T) {
	for _, provider := range []string{ProviderGemini, ProviderClaude, ProviderOpenAI} {
		t.Run(provider, func(t *testing.T) {
			gen, err := New(context.Background(), Config{Provider: provider})
			assert.Nil(t, gen)
			assert.ErrorIs(t, err, brief.ErrMissingCredential)
		})
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "bard"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNew_BuildsAdapter(t *testing.T) {
	gen, err := New(context.Background(), Config{Provider: ProviderClaude, AnthropicAPIKey: "k", MaxTokens: 256})
	require.NoError(t, err)
	assert.IsType(t, &Claude{}, gen)

	gen, err = New(context.Background(), Config{Provider: ProviderOpenAI, OpenAIAPIKey: "k", MaxTokens: 256})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, gen)
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, brief.DefaultConfig().Model, DefaultModel(ProviderGemini))
	assert.NotEqual(t, DefaultModel(ProviderGemini), DefaultModel(ProviderClaude))
	assert.NotEmpty(t, DefaultModel(ProviderOpenAI))
}

func TestAPIError(t *testing.T) {
	cause := errors.New("boom")

	err := apiError(http.StatusTooManyRequests, "slow down", cause)
	assert.ErrorIs(t, err, brief.ErrRateLimited)
	assert.Equal(t, brief.OutcomeRateLimited, brief.Classify(err, "429"))

	err = apiError(http.StatusBadRequest, "API key not valid", cause)
	var perm *brief.PermanentError
	require.ErrorAs(t, err, &perm)
	assert.Equal(t, "400 API key not valid", perm.Detail)
	assert.ErrorIs(t, err, cause)
}

/* ───────── gemini ───────── */

func TestGemini_Generate(t *testing.T) {
	hits := 0
	srv := newServer(t, http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[
		{"text":"thinking...","thought":true},{"text":"첫째 줄\n"},{"text":"둘째 줄"}]}}]}`, &hits)

	g, err := NewGemini(context.Background(), "key", srv.URL+"/")
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), "gemini-flash-latest", "요약해줘")
	require.NoError(t, err)
	assert.Equal(t, "첫째 줄\n둘째 줄", out)
	assert.Equal(t, 1, hits)
}

func TestGemini_RateLimited(t *testing.T) {
	hits := 0
	srv := newServer(t, http.StatusTooManyRequests,
		`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`, &hits)

	g, err := NewGemini(context.Background(), "key", srv.URL+"/")
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "gemini-flash-latest", "p")
	assert.ErrorIs(t, err, brief.ErrRateLimited)
	assert.Equal(t, 1, hits)
}

func TestGemini_Permanent(t *testing.T) {
	hits := 0
	srv := newServer(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, &hits)

	g, err := NewGemini(context.Background(), "key", srv.URL+"/")
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "gemini-flash-latest", "p")
	var perm *brief.PermanentError
	require.ErrorAs(t, err, &perm)
	assert.Equal(t, "400 API key not valid", perm.Detail)
}

/* ───────── claude ───────── */

func TestClaude_Generate(t *testing.T) {
	hits := 0
	srv := newServer(t, http.StatusOK, `{"id":"msg_1","type":"message","role":"assistant",
		"model":"claude-haiku-4-5","content":[{"type":"text","text":"요약"},{"type":"text","text":" 결과"}],
		"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`, &hits)

	out, err := NewClaude("key", srv.URL, 256).Generate(context.Background(), "claude-haiku-4-5", "p")
	require.NoError(t, err)
	assert.Equal(t, "요약 결과", out)
}

func TestClaude_RateLimitedNoSDKRetry(t *testing.T) {
	hits := 0
	srv := newServer(t, http.StatusTooManyRequests,
		`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, &hits)

	_, err := NewClaude("key", srv.URL, 256).Generate(context.Background(), "claude-haiku-4-5", "p")
	assert.ErrorIs(t, err, brief.ErrRateLimited)
	assert.Equal(t, 1, hits)
}

func TestClaude_Permanent(t *testing.T) {
	hits := 0
	srv := newServer(t, http.StatusUnauthorized,
		`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, &hits)

	_, err := NewClaude("key", srv.URL, 256).Generate(context.Background(), "claude-haiku-4-5", "p")
	var perm *brief.PermanentError
	require.ErrorAs(t, err, &perm)
	assert.True(t, strings.HasPrefix(perm.Detail, "401 "))
}

/* ───────── openai ───────── */

func TestOpenAI_Generate(t *testing.T) {
	hits := 0
	srv := newServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","model":"gpt-4o-mini",
		"choices":[{"index":0,"message":{"role":"assistant","content":"세 줄 요약"},"finish_reason":"stop"}]}`, &hits)

	out, err := NewOpenAI("key", srv.URL+"/v1", 256).Generate(context.Background(), "gpt-4o-mini", "p")
	require.NoError(t, err)
	assert.Equal(t, "세 줄 요약", out)
}

func TestOpenAI_Errors(t *testing.T) {
	hits := 0
	srv := newServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`, &hits)
	_, err := NewOpenAI("key", srv.URL+"/v1", 256).Generate(context.Background(), "gpt-4o-mini", "p")
	assert.ErrorIs(t, err, brief.ErrRateLimited)

	srv = newServer(t, http.StatusBadRequest,
		`{"error":{"message":"bad model","type":"invalid_request_error","code":"model_not_found"}}`, &hits)
	_, err = NewOpenAI("key", srv.URL+"/v1", 256).Generate(context.Background(), "gpt-4o-mini", "p")
	var perm *brief.PermanentError
	require.ErrorAs(t, err, &perm)
	assert.Equal(t, "400 bad model", perm.Detail)
}

func TestOpenAI_NoChoices(t *testing.T) {
	hits := 0
	srv := newServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[]}`, &hits)
	out, err := NewOpenAI("key", srv.URL+"/v1", 256).Generate(context.Background(), "gpt-4o-mini", "p")
	require.NoError(t, err)
	assert.Empty(t, out)
}
