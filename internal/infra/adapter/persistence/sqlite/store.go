// Package sqlite implements the repository interfaces on modernc.org/sqlite.
// Timestamps are stored as unix milliseconds in UTC.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"newsbrief/internal/infra/db"
	"newsbrief/internal/repository"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store hands out transaction-scoped repositories.
type Store struct{ conn *sql.DB }

var _ repository.Store = (*Store)(nil)

func NewStore(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return db.RunInTx(ctx, s.conn, func(tx *sql.Tx) error {
		return fn(ctx, txRepos{q: tx})
	})
}

type txRepos struct{ q DBTX }

func (t txRepos) Articles() repository.ArticleRepository       { return NewArticleRepo(t.q) }
func (t txRepos) Insights() repository.InsightRepository       { return NewInsightRepo(t.q) }
func (t txRepos) Subscribers() repository.SubscriberRepository { return NewSubscriberRepo(t.q) }
func (t txRepos) Newsletters() repository.NewsletterRepository { return NewNewsletterRepo(t.q) }

func isUniqueViolation(err error) bool {
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

type rowScanner interface {
	Scan(dest ...any) error
}
