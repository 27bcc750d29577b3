package repository

import (
	"context"
	"time"

	"newsbrief/internal/domain/entity"
)

type SubscriberRepository interface {
	// Create returns an error matching entity.ErrDuplicate for a known email.
	Create(ctx context.Context, subscriber *entity.Subscriber) (int64, error)
	FindByEmail(ctx context.Context, email string) (*entity.Subscriber, error)
	ListActive(ctx context.Context) ([]*entity.Subscriber, error)
	CountActive(ctx context.Context) (int64, error)
	// Count includes unsubscribed rows.
	Count(ctx context.Context) (int64, error)
	Deactivate(ctx context.Context, id int64, at time.Time) error
}
