package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/repository"
)

var articleColumns = []string{"id", "link", "title", "lede", "summary", "content", "status", "created_at"}

type ArticleRepo struct{ db DBTX }

func NewArticleRepo(db DBTX) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*entity.Article, error) {
	var (
		id        int64
		link      string
		title     string
		lede      string
		summary   sql.NullString
		content   string
		status    string
		createdAt time.Time
	)
	if err := row.Scan(&id, &link, &title, &lede, &summary, &content, &status, &createdAt); err != nil {
		return nil, err
	}
	st, err := entity.ParseArticleStatus(status)
	if err != nil {
		return nil, err
	}
	var sum *string
	if summary.Valid {
		sum = &summary.String
	}
	return entity.RestoreArticle(id, link, title, lede, sum, content, st, createdAt), nil
}

func (repo *ArticleRepo) query(ctx context.Context, b sq.SelectBuilder) ([]*entity.Article, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ToSql: %w", err)
	}
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 32)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (repo *ArticleRepo) FindByLink(ctx context.Context, link string) (*entity.Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From("crawled_articles").
		Where(sq.Eq{"link": link}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("FindByLink: %w", err)
	}

	a, err := scanArticle(repo.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByLink: %w", err)
	}
	return a, nil
}

func (repo *ArticleRepo) Create(ctx context.Context, a *entity.Article) (int64, error) {
	query, args, err := psql.Insert("crawled_articles").
		Columns("link", "title", "lede", "summary", "content", "status", "created_at").
		Values(a.Link, a.Title, a.Lede, a.Summary, a.Content, a.Status().String(), a.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}

	var id int64
	if err := repo.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("Create: link %q: %w", a.Link, entity.ErrDuplicate)
		}
		return 0, fmt.Errorf("Create: %w", err)
	}
	a.ID = id
	return id, nil
}

func (repo *ArticleRepo) ListByStatus(ctx context.Context, status entity.ArticleStatus) ([]*entity.Article, error) {
	articles, err := repo.query(ctx, psql.Select(articleColumns...).
		From("crawled_articles").
		Where(sq.Eq{"status": status.String()}).
		OrderBy("id ASC"))
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	return articles, nil
}

func (repo *ArticleRepo) Update(ctx context.Context, a *entity.Article) error {
	query, args, err := psql.Update("crawled_articles").
		Set("summary", a.Summary).
		Set("content", a.Content).
		Set("status", a.Status().String()).
		Where(sq.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: RowsAffected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Update: article %d: %w", a.ID, entity.ErrNotFound)
	}
	return nil
}

func (repo *ArticleRepo) ListCreatedSince(ctx context.Context, since time.Time, filter repository.ArticleFilter) ([]*entity.Article, error) {
	b := psql.Select(articleColumns...).
		From("crawled_articles").
		Where(sq.GtOrEq{"created_at": since})
	if filter.SummarizedOnly {
		b = b.Where(sq.NotEq{"summary": nil})
	}
	if filter.NewestFirst {
		b = b.OrderBy("created_at DESC", "id DESC")
	} else {
		b = b.OrderBy("created_at ASC", "id ASC")
	}

	articles, err := repo.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("ListCreatedSince: %w", err)
	}
	return articles, nil
}

func (repo *ArticleRepo) CountByStatus(ctx context.Context) (map[entity.ArticleStatus]int64, error) {
	const query = `
SELECT status, COUNT(*)
FROM crawled_articles
GROUP BY status
`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("CountByStatus: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[entity.ArticleStatus]int64, 3)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("CountByStatus: Scan: %w", err)
		}
		st, err := entity.ParseArticleStatus(status)
		if err != nil {
			return nil, fmt.Errorf("CountByStatus: %w", err)
		}
		counts[st] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CountByStatus: rows.Err: %w", err)
	}
	return counts, nil
}
