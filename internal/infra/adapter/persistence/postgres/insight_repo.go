package postgres

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
	query, args, err := psql.Insert("daily_insights").
		Columns("content", "created_at").
		Values(in.Content, in.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}

	if err := repo.db.QueryRowContext(ctx, query, args...).Scan(&in.ID); err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}
	return in.ID, nil
}

func (repo *InsightRepo) ListSince(ctx context.Context, since time.Time) ([]*entity.DailyInsight, error) {
	query, args, err := psql.Select("id", "content", "created_at").
		From("daily_insights").
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListSince: %w", err)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListSince: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var insights []*entity.DailyInsight
	for rows.Next() {
		var in entity.DailyInsight
		if err := rows.Scan(&in.ID, &in.Content, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListSince: Scan: %w", err)
		}
		insights = append(insights, &in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSince: rows.Err: %w", err)
	}
	return insights, nil
}
