package sqlite

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

var subscriberColumns = []string{"id", "email", "name", "is_active", "subscribed_at", "unsubscribed_at"}

type SubscriberRepo struct{ db DBTX }

func NewSubscriberRepo(db DBTX) repository.SubscriberRepository {
	return &SubscriberRepo{db: db}
}

func scanSubscriber(row rowScanner) (*entity.Subscriber, error) {
	var (
		s          entity.Subscriber
		subscribed int64
		unsub      sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.Email, &s.Name, &s.IsActive, &subscribed, &unsub); err != nil {
		return nil, err
	}
	s.SubscribedAt = fromMillis(subscribed)
	if unsub.Valid {
		t := fromMillis(unsub.Int64)
		s.UnsubscribedAt = &t
	}
	return &s, nil
}

func (repo *SubscriberRepo) Create(ctx context.Context, s *entity.Subscriber) (int64, error) {
	query, args, err := builder.Insert("subscribers").
		Columns("email", "name", "is_active", "subscribed_at").
		Values(s.Email, s.Name, s.IsActive, toMillis(s.SubscribedAt)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("Create: ToSql: %w", err)
	}

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("Create: email %q: %w", s.Email, entity.ErrDuplicate)
		}
		return 0, fmt.Errorf("Create: ExecContext: %w", err)
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return 0, fmt.Errorf("Create: LastInsertId: %w", err)
	}
	return s.ID, nil
}

func (repo *SubscriberRepo) FindByEmail(ctx context.Context, email string) (*entity.Subscriber, error) {
	query, args, err := builder.Select(subscriberColumns...).
		From("subscribers").
		Where(sq.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("FindByEmail: ToSql: %w", err)
	}

	s, err := scanSubscriber(repo.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByEmail: QueryRowContext: %w", err)
	}
	return s, nil
}

func (repo *SubscriberRepo) ListActive(ctx context.Context) ([]*entity.Subscriber, error) {
	query, args, err := builder.Select(subscriberColumns...).
		From("subscribers").
		Where(sq.Eq{"is_active": true}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListActive: ToSql: %w", err)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListActive: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []*entity.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: Scan: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: rows.Err: %w", err)
	}
	return subs, nil
}

func (repo *SubscriberRepo) CountActive(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM subscribers WHERE is_active = 1`

	var n int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountActive: QueryRowContext: %w", err)
	}
	return n, nil
}

func (repo *SubscriberRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM subscribers`

	var n int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: QueryRowContext: %w", err)
	}
	return n, nil
}

func (repo *SubscriberRepo) Deactivate(ctx context.Context, id int64, at time.Time) error {
	query, args, err := builder.Update("subscribers").
		Set("is_active", false).
		Set("unsubscribed_at", toMillis(at)).
		Where(sq.Eq{"id": id, "is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("Deactivate: ToSql: %w", err)
	}

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("Deactivate: ExecContext: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Deactivate: RowsAffected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Deactivate: subscriber %d: %w", id, entity.ErrNotFound)
	}
	return nil
}
