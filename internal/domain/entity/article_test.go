package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func TestNewPendingArticle(t *testing.T) {
	a, err := NewPendingArticle("https://n.news.naver.com/article/001/0001", "제목", "리드", fixedNow)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, a.Status())
	assert.Nil(t, a.Summary)
	assert.Empty(t, a.Content)
	assert.Equal(t, "리드", a.Lede)
	assert.Equal(t, fixedNow, a.CreatedAt)
}

func TestNewPendingArticle_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		link  string
		title string
		field string
	}{
		{"empty link", "", "t", "link"},
		{"relative link", "/article/001/0001", "t", "link"},
		{"unsupported scheme", "ftp://example.com/a", "t", "link"},
		{"blank title", "https://example.com/a", "   ", "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPendingArticle(tt.link, tt.title, "", fixedNow)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestArticle_Approve(t *testing.T) {
	a, _ := NewPendingArticle("https://x/1", "A", "", fixedNow)

	require.NoError(t, a.Approve("body", "📌 요약함"))

	assert.Equal(t, StatusApproved, a.Status())
	require.NotNil(t, a.Summary)
	assert.Equal(t, "📌 요약함", *a.Summary)
	assert.Equal(t, "body", a.Content)
}

func TestArticle_Reject(t *testing.T) {
	a, _ := NewPendingArticle("https://x/1", "A", "", fixedNow)

	require.NoError(t, a.Reject())

	assert.Equal(t, StatusRejected, a.Status())
	assert.Nil(t, a.Summary)
	assert.False(t, a.HasSummary())
}

func TestArticle_TerminalStatesAreFinal(t *testing.T) {
	approved, _ := NewPendingArticle("https://x/1", "A", "", fixedNow)
	require.NoError(t, approved.Approve("body", "s"))

	rejected, _ := NewPendingArticle("https://x/2", "B", "", fixedNow)
	require.NoError(t, rejected.Reject())

	assert.ErrorIs(t, approved.Approve("other", "s2"), ErrInvalidTransition)
	assert.ErrorIs(t, approved.Reject(), ErrInvalidTransition)
	assert.ErrorIs(t, rejected.Approve("body", "s"), ErrInvalidTransition)
	assert.ErrorIs(t, rejected.Reject(), ErrInvalidTransition)

	assert.Equal(t, "s", *approved.Summary)
	assert.Nil(t, rejected.Summary)
}

func TestArticleStatus_RoundTrip(t *testing.T) {
	for _, s := range []ArticleStatus{StatusPending, StatusApproved, StatusRejected} {
		parsed, err := ParseArticleStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseArticleStatus("DONE")
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, "ArticleStatus(0)", ArticleStatus(0).String())
	assert.True(t, StatusApproved.Terminal())
	assert.False(t, StatusPending.Terminal())
}

func TestRestoreArticle(t *testing.T) {
	summary := "s"
	a := RestoreArticle(7, "https://x/1", "A", "", &summary, "c", StatusApproved, fixedNow)

	assert.Equal(t, int64(7), a.ID)
	assert.Equal(t, StatusApproved, a.Status())
	assert.True(t, a.HasSummary())
}
