package gateway

import (
	// Go Internal Packages
	"context"

	// Local Packages
	models "tx-gateway/models"
)

// TransactionStore loads and persists transactions by id.
//
// Load returns an error of kind NotFound for unknown ids. Save must only
// succeed when the stored version equals tx.Version, and returns an error of
// kind Conflict otherwise; on success tx.Version is incremented.
type TransactionStore interface {
	Load(ctx context.Context, id string, includeLedger bool) (*models.Transaction, error)
	Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	Save(ctx context.Context, tx *models.Transaction) error
}

// EventPublisher receives an event for every committed operation.
type EventPublisher interface {
	Publish(ctx context.Context, event models.LedgerEvent) error
}

// Locker runs fn while holding a lock named key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
