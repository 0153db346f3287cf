package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"time"

	// Local Packages
	models "tx-gateway/models"

	// External Packages
	"github.com/redis/go-redis/v9"
)

// IdempotencyRepository stores Idempotency-Key state under "idem:{key}" with a TTL.
type IdempotencyRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyRepository(client *redis.Client, ttl time.Duration) *IdempotencyRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyRepository{client: client, ttl: ttl}
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idem:%s", key)
}

// Reserve stores key as in progress unless it already exists, in which case
// the stored record is returned.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key, requestHash string) (*models.IdempotencyRecord, error) {
	rec := models.IdempotencyRecord{Key: key, RequestHash: requestHash, Status: models.IdempotencyInProgress}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	ok, err := r.client.SetNX(ctx, idempotencyKey(key), data, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return nil, nil
	}

	raw, err := r.client.Get(ctx, idempotencyKey(key)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	var existing models.IdempotencyRecord
	if err := json.Unmarshal(raw, &existing); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency key: %w", err)
	}
	return &existing, nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, key string, status int, body []byte) error {
	raw, err := r.client.Get(ctx, idempotencyKey(key)).Bytes()
	if err != nil {
		return fmt.Errorf("failed to read idempotency key: %w", err)
	}
	var rec models.IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("failed to decode idempotency key: %w", err)
	}

	rec.Status = models.IdempotencyCompleted
	rec.ResponseStatus = status
	rec.ResponseBody = body
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, idempotencyKey(key), data, r.ttl).Err()
}

func (r *IdempotencyRepository) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKey(key)).Err()
}
