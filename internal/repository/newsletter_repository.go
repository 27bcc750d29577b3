package repository

import (
	"context"

	"newsbrief/internal/domain/entity"
)

type NewsletterRepository interface {
	// Create inserts the newsletter and its items.
	Create(ctx context.Context, newsletter *entity.Newsletter) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status entity.NewsletterStatus) error
	AppendSendLog(ctx context.Context, log *entity.SendLog) (int64, error)
}
