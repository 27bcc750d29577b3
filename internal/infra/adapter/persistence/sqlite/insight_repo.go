package sqlite

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/repository"
)

type InsightRepo struct{ db DBTX }

func NewInsightRepo(db DBTX) repository.InsightRepository {
	return &InsightRepo{db: db}
}

func (repo *InsightRepo) Create(ctx context.Context, in *entity.DailyInsight) (int64, error) {
	query, args, err := builder.Insert("daily_insights").
		Columns("content", "created_at").
		Values(in.Content, toMillis(in.CreatedAt)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("Create: ToSql: %w", err)
	}

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("Create: ExecContext: %w", err)
	}
	if in.ID, err = res.LastInsertId(); err != nil {
		return 0, fmt.Errorf("Create: LastInsertId: %w", err)
	}
	return in.ID, nil
}

func (repo *InsightRepo) ListSince(ctx context.Context, since time.Time) ([]*entity.DailyInsight, error) {
	query, args, err := builder.Select("id", "content", "created_at").
		From("daily_insights").
		Where(sq.GtOrEq{"created_at": toMillis(since)}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListSince: ToSql: %w", err)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListSince: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var insights []*entity.DailyInsight
	for rows.Next() {
		var (
			in entity.DailyInsight
			ms int64
		)
		if err := rows.Scan(&in.ID, &in.Content, &ms); err != nil {
			return nil, fmt.Errorf("ListSince: Scan: %w", err)
		}
		in.CreatedAt = fromMillis(ms)
		insights = append(insights, &in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSince: rows.Err: %w", err)
	}
	return insights, nil
}
