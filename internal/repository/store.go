// Package repository declares the persistence boundary. Adapters live in
// internal/infra/adapter/persistence.
package repository

import "context"

// Tx is the set of repositories bound to one transaction.
type Tx interface {
	Articles() ArticleRepository
	Insights() InsightRepository
	Subscribers() SubscriberRepository
	Newsletters() NewsletterRepository
}

// Store hands out transaction scopes. WithinTx commits when fn returns nil
// and rolls back on error or panic; the rollback never masks fn's error.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
