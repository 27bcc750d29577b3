package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/repository"
)

// Deduplicator decides whether a candidate is new and, if so, stores it as
// a PENDING article. It assumes a single ingestion writer; a concurrent
// insert of the same link is caught by the store's unique index and also
// reported as not new.
type Deduplicator struct {
	store repository.Store
	now   func() time.Time
}

func NewDeduplicator(store repository.Store, now func() time.Time) *Deduplicator {
	if now == nil {
		now = time.Now
	}
	return &Deduplicator{store: store, now: now}
}

// Ingest returns true when c was inserted. A known link is a silent no-op.
// Invalid candidates return an error matching entity.ErrValidationFailed.
func (d *Deduplicator) Ingest(ctx context.Context, c Candidate) (bool, error) {
	article, err := entity.NewPendingArticle(c.Link, c.Title, c.Lede, d.now())
	if err != nil {
		return false, err
	}

	isNew := false
	err = d.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		existing, err := tx.Articles().FindByLink(ctx, c.Link)
		if err != nil {
			return fmt.Errorf("find by link: %w", err)
		}
		if existing != nil {
			return nil
		}
		if _, err := tx.Articles().Create(ctx, article); err != nil {
			return err
		}
		isNew = true
		return nil
	})
	if errors.Is(err, entity.ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ingest %s: %w", c.Link, err)
	}
	return isNew, nil
}
