package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/repository"
)

// Subscribe registers email as an active subscriber. An existing row is
// returned unchanged with created=false.
func (s *Service) Subscribe(ctx context.Context, email, name string) (sub *entity.Subscriber, created bool, err error) {
	sub, err = entity.NewSubscriber(email, name, s.now())
	if err != nil {
		return nil, false, err
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		existing, err := tx.Subscribers().FindByEmail(ctx, sub.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			sub = existing
			return nil
		}
		id, err := tx.Subscribers().Create(ctx, sub)
		if errors.Is(err, entity.ErrDuplicate) {
			// lost a race with a concurrent subscribe
			return nil
		}
		if err != nil {
			return err
		}
		sub.ID, created = id, true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("subscribe %s: %w", sub.Email, err)
	}
	return sub, created, nil
}

// Unsubscribe deactivates the subscriber with email.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		sub, err := tx.Subscribers().FindByEmail(ctx, normalizeEmail(email))
		if err != nil {
			return err
		}
		if sub == nil {
			return entity.ErrNotFound
		}
		if !sub.IsActive {
			return nil
		}
		return tx.Subscribers().Deactivate(ctx, sub.ID, s.now())
	})
}

// SubscriberCounts splits the subscriber table by delivery state.
type SubscriberCounts struct {
	Total  int64
	Active int64
}

// CountSubscribers reads both counts in one transaction.
func (s *Service) CountSubscribers(ctx context.Context) (SubscriberCounts, error) {
	var c SubscriberCounts
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if c.Total, err = tx.Subscribers().Count(ctx); err != nil {
			return err
		}
		c.Active, err = tx.Subscribers().CountActive(ctx)
		return err
	})
	return c, err
}

// LatestInsight returns the newest insight created on day, or
// entity.ErrNotFound.
func (s *Service) LatestInsight(ctx context.Context, day time.Time) (*entity.DailyInsight, error) {
	since := entity.DayStart(day.In(s.cfg.Location))
	until := since.AddDate(0, 0, 1)

	var insights []*entity.DailyInsight
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		insights, err = tx.Insights().ListSince(ctx, since)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load insights: %w", err)
	}
	sameDay := insights[:0]
	for _, in := range insights {
		if in.CreatedAt.Before(until) {
			sameDay = append(sameDay, in)
		}
	}
	if latest := entity.Latest(sameDay); latest != nil {
		return latest, nil
	}
	return nil, entity.ErrNotFound
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
