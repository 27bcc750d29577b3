package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/repository"
)

type NewsletterRepo struct{ db DBTX }

func NewNewsletterRepo(db DBTX) repository.NewsletterRepository {
	return &NewsletterRepo{db: db}
}

func (repo *NewsletterRepo) Create(ctx context.Context, n *entity.Newsletter) (int64, error) {
	query, args, err := psql.Insert("newsletters").
		Columns("subject", "html_content", "status", "created_at").
		Values(n.Subject, n.HTML, string(n.Status), n.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}
	if err := repo.db.QueryRowContext(ctx, query, args...).Scan(&n.ID); err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}

	if len(n.Items) == 0 {
		return n.ID, nil
	}

	ins := psql.Insert("newsletter_items").Columns("newsletter_id", "article_id", "sort_order")
	for _, item := range n.Items {
		ins = ins.Values(n.ID, item.ArticleID, item.SortOrder)
	}
	query, args, err = ins.ToSql()
	if err != nil {
		return 0, fmt.Errorf("Create: items: %w", err)
	}
	if _, err := repo.db.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("Create: items: %w", err)
	}
	return n.ID, nil
}

func (repo *NewsletterRepo) UpdateStatus(ctx context.Context, id int64, status entity.NewsletterStatus) error {
	query, args, err := psql.Update("newsletters").
		Set("status", string(status)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("UpdateStatus: newsletter %d: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (repo *NewsletterRepo) AppendSendLog(ctx context.Context, l *entity.SendLog) (int64, error) {
	query, args, err := psql.Insert("send_logs").
		Columns("newsletter_id", "subscriber_id", "status", "message_id", "error", "sent_at").
		Values(l.NewsletterID, l.SubscriberID, string(l.Status), l.MessageID, l.Error, l.SentAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("AppendSendLog: %w", err)
	}
	if err := repo.db.QueryRowContext(ctx, query, args...).Scan(&l.ID); err != nil {
		return 0, fmt.Errorf("AppendSendLog: %w", err)
	}
	return l.ID, nil
}
