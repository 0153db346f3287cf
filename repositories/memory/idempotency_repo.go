package memory

import (
	// Go Internal Packages
	"context"
	"sync"

	// Local Packages
	models "tx-gateway/models"
)

// IdempotencyRepository keeps idempotency keys in process memory. Keys never
// expire; it is meant for single instance runs and tests.
type IdempotencyRepository struct {
	mu   sync.Mutex
	keys map[string]models.IdempotencyRecord
}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{keys: make(map[string]models.IdempotencyRecord)}
}

// Reserve stores key as in progress. When the key is already known the
// existing record is returned and nothing is stored.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key, requestHash string) (*models.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.keys[key]; ok {
		return &rec, nil
	}
	r.keys[key] = models.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      models.IdempotencyInProgress,
	}
	return nil, nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, key string, status int, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.keys[key]
	rec.Key = key
	rec.Status = models.IdempotencyCompleted
	rec.ResponseStatus = status
	rec.ResponseBody = append([]byte(nil), body...)
	r.keys[key] = rec
	return nil
}

func (r *IdempotencyRepository) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.keys, key)
	return nil
}
