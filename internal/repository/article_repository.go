package repository

import (
	"context"
	"time"

	"newsbrief/internal/domain/entity"
)

// ArticleFilter narrows ListCreatedSince.
type ArticleFilter struct {
	// SummarizedOnly keeps only articles with a non-null summary.
	SummarizedOnly bool
	// NewestFirst orders by created_at DESC instead of ASC.
	NewestFirst bool
}

type ArticleRepository interface {
	// FindByLink returns (nil, nil) when no article has this exact link.
	FindByLink(ctx context.Context, link string) (*entity.Article, error)
	// Create inserts the article and sets its ID. A link conflict returns
	// an error matching entity.ErrDuplicate.
	Create(ctx context.Context, article *entity.Article) (int64, error)
	// ListByStatus returns matching articles ordered by id ASC.
	ListByStatus(ctx context.Context, status entity.ArticleStatus) ([]*entity.Article, error)
	// Update persists summary, content and status. Returns entity.ErrNotFound
	// when the row does not exist.
	Update(ctx context.Context, article *entity.Article) error
	// ListCreatedSince returns articles with created_at >= since.
	ListCreatedSince(ctx context.Context, since time.Time, filter ArticleFilter) ([]*entity.Article, error)
	// CountByStatus is used for gauges and the read API.
	CountByStatus(ctx context.Context) (map[entity.ArticleStatus]int64, error)
}
