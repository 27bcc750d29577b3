// Package postgres implements the repository interfaces on PostgreSQL via
// the pgx stdlib driver. Queries are built with squirrel using $n
// placeholders.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"newsbrief/internal/infra/db"
	"newsbrief/internal/repository"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store hands out transaction-scoped repositories.
type Store struct{ conn *sql.DB }

var _ repository.Store = (*Store)(nil)

// NewStore wraps an open pgx-backed pool.
func NewStore(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

// WithinTx runs fn with repositories bound to a single transaction.
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
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
