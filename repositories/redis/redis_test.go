package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	// Local Packages
	errors "tx-gateway/errors"
	models "tx-gateway/models"

	// External Packages
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), addr, "")
	assert.Error(t, err)
}

func TestDeadLetterQueue_Send(t *testing.T) {
	_, client := setupTestRedis(t)
	dlq := NewDeadLetterQueue(client, zap.NewNop(), "")
	ctx := context.Background()

	records := []models.Record{
		{Key: []byte("t1"), Value: []byte(`{"event_id":"e1"}`), Topic: "ledger-events"},
		{Key: []byte("t2"), Value: []byte(`not json`), Topic: "ledger-events"},
	}
	require.NoError(t, dlq.Send(ctx, records))
	require.NoError(t, dlq.Send(ctx, nil))

	stored, err := client.LRange(ctx, DefaultDLQList, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, stored, 2)

	var first models.Record
	require.NoError(t, json.Unmarshal([]byte(stored[0]), &first))
	assert.Equal(t, []byte("t1"), first.Key)
	assert.Equal(t, "ledger-events", first.Topic)
}

func TestDeadLetterQueue_SendReportsFailure(t *testing.T) {
	mr, client := setupTestRedis(t)
	dlq := NewDeadLetterQueue(client, zap.NewNop(), "")
	ctx := context.Background()

	mr.SetError("ERR dead letter list unavailable")
	err := dlq.Send(ctx, []models.Record{{Key: []byte("t1"), Value: []byte(`{}`)}})
	assert.ErrorContains(t, err, DefaultDLQList)

	mr.SetError("")
	stored, err := client.LRange(ctx, DefaultDLQList, 0, -1).Result()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestLocker_WithLock(t *testing.T) {
	_, client := setupTestRedis(t)
	locker := NewLocker(client, zap.NewNop(), time.Second, 1)

	executed := false
	err := locker.WithLock(context.Background(), "tx:1", func(ctx context.Context) error {
		executed = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, executed)
}

func TestLocker_PropagatesError(t *testing.T) {
	_, client := setupTestRedis(t)
	locker := NewLocker(client, zap.NewNop(), time.Second, 1)

	err := locker.WithLock(context.Background(), "tx:1", func(ctx context.Context) error {
		return assert.AnError
	})

	assert.ErrorIs(t, err, assert.AnError)
}

func TestLocker_HeldLockIsConflict(t *testing.T) {
	_, client := setupTestRedis(t)
	locker := NewLocker(client, zap.NewNop(), 5*time.Second, 1)
	ctx := context.Background()

	err := locker.WithLock(ctx, "tx:1", func(ctx context.Context) error {
		called := false
		inner := locker.WithLock(ctx, "tx:1", func(ctx context.Context) error {
			called = true
			return nil
		})
		assert.False(t, called)
		return inner
	})

	assert.True(t, errors.Is(errors.Conflict, err))
}

func TestLocker_SerializesSameKey(t *testing.T) {
	_, client := setupTestRedis(t)
	locker := NewLocker(client, zap.NewNop(), 5*time.Second, 200)
	locker.retryDelay = 5 * time.Millisecond

	var inside, overlaps int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), "tx:1", func(ctx context.Context) error {
				if atomic.AddInt32(&inside, 1) > 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Zero(t, overlaps)
}

func TestIdempotencyRepository_Lifecycle(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewIdempotencyRepository(client, time.Hour)
	ctx := context.Background()

	existing, err := repo.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)
	assert.Nil(t, existing)
	assert.True(t, mr.Exists("idem:k1"))
	assert.Equal(t, time.Hour, mr.TTL("idem:k1"))

	existing, err = repo.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, models.IdempotencyInProgress, existing.Status)
	assert.Equal(t, "h1", existing.RequestHash)

	require.NoError(t, repo.Complete(ctx, "k1", 200, []byte(`{"amount":7,"currency":"gbp"}`)))
	existing, err = repo.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)
	assert.Equal(t, models.IdempotencyCompleted, existing.Status)
	assert.Equal(t, 200, existing.ResponseStatus)
	assert.JSONEq(t, `{"amount":7,"currency":"gbp"}`, string(existing.ResponseBody))

	require.NoError(t, repo.Release(ctx, "k1"))
	assert.False(t, mr.Exists("idem:k1"))
}

func TestIdempotencyRepository_Expires(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewIdempotencyRepository(client, time.Minute)
	ctx := context.Background()

	_, err := repo.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	existing, err := repo.Reserve(ctx, "k1", "h2")
	require.NoError(t, err)
	assert.Nil(t, existing)
}
