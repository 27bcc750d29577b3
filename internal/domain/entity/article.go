package entity

import (
	"fmt"
	"strings"
	"time"
)

// ArticleStatus is the processing state of an Article. The zero value is
// not a valid status.
type ArticleStatus int

const (
	StatusPending ArticleStatus = iota + 1
	StatusApproved
	StatusRejected
)

var articleStatusNames = map[ArticleStatus]string{
	StatusPending:  "PENDING",
	StatusApproved: "APPROVED",
	StatusRejected: "REJECTED",
}

func (s ArticleStatus) String() string {
	if name, ok := articleStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ArticleStatus(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s ArticleStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseArticleStatus maps the stored text form back to a status.
func ParseArticleStatus(s string) (ArticleStatus, error) {
	for status, name := range articleStatusNames {
		if strings.EqualFold(s, name) {
			return status, nil
		}
	}
	return 0, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown article status %q", s)}
}

// Article is one ingested news item. Its status can only be changed through
// Approve and Reject, which allow exactly one move out of PENDING.
type Article struct {
	ID        int64
	Link      string
	Title     string
	Lede      string  // teaser text from the list page, may be empty
	Summary   *string // nil until approved
	Content   string  // extracted body, empty until approved
	CreatedAt time.Time

	status ArticleStatus
}

// NewPendingArticle builds a freshly ingested article.
func NewPendingArticle(link, title, lede string, createdAt time.Time) (*Article, error) {
	if err := ValidateLink(link); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}
	return &Article{
		Link:      link,
		Title:     title,
		Lede:      lede,
		CreatedAt: createdAt,
		status:    StatusPending,
	}, nil
}

// RestoreArticle rebuilds an article loaded from the store.
func RestoreArticle(id int64, link, title, lede string, summary *string, content string, status ArticleStatus, createdAt time.Time) *Article {
	return &Article{
		ID:        id,
		Link:      link,
		Title:     title,
		Lede:      lede,
		Summary:   summary,
		Content:   content,
		CreatedAt: createdAt,
		status:    status,
	}
}

// Status returns the current processing state.
func (a *Article) Status() ArticleStatus {
	return a.status
}

// Approve records the extracted body and its summary.
func (a *Article) Approve(content, summary string) error {
	if a.status != StatusPending {
		return &TransitionError{Entity: "article", From: a.status.String(), To: StatusApproved.String()}
	}
	a.Content = content
	a.Summary = &summary
	a.status = StatusApproved
	return nil
}

// Reject marks an article whose page had no recognizable body.
// The summary stays nil.
func (a *Article) Reject() error {
	if a.status != StatusPending {
		return &TransitionError{Entity: "article", From: a.status.String(), To: StatusRejected.String()}
	}
	a.Summary = nil
	a.status = StatusRejected
	return nil
}

// HasSummary reports whether a summary has been recorded.
func (a *Article) HasSummary() bool {
	return a.Summary != nil
}
