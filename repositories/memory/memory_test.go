package memory

import (
	// Go Internal Packages
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	// Local Packages
	errors "tx-gateway/errors"
	models "tx-gateway/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTx() *models.Transaction {
	tx := &models.Transaction{Currency: "gbp", CurrentAmount: 10, Status: models.StatusCanCapture}
	tx.Append(models.EntryAuthorize, 10, time.Now())
	return tx
}

func TestTxRepository_CreateAssignsIDAndVersion(t *testing.T) {
	repo := NewTxRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, newTx())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Version)

	loaded, err := repo.Load(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Len(t, loaded.Ledger, 1)

	withoutLedger, err := repo.Load(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Nil(t, withoutLedger.Ledger)
	assert.Equal(t, int64(10), withoutLedger.CurrentAmount)
}

func TestTxRepository_LoadUnknown(t *testing.T) {
	repo := NewTxRepository()

	_, err := repo.Load(context.Background(), "missing", true)
	assert.True(t, errors.Is(errors.NotFound, err))
}

func TestTxRepository_LoadedRecordIsIsolated(t *testing.T) {
	repo := NewTxRepository()
	ctx := context.Background()
	created, err := repo.Create(ctx, newTx())
	require.NoError(t, err)

	loaded, err := repo.Load(ctx, created.ID, true)
	require.NoError(t, err)
	loaded.Status = models.StatusVoid
	loaded.Append(models.EntryVoid, 10, time.Now())

	again, err := repo.Load(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanCapture, again.Status)
	assert.Len(t, again.Ledger, 1)
}

func TestTxRepository_SaveRejectsStaleVersion(t *testing.T) {
	repo := NewTxRepository()
	ctx := context.Background()
	created, err := repo.Create(ctx, newTx())
	require.NoError(t, err)

	first, _ := repo.Load(ctx, created.ID, true)
	second, _ := repo.Load(ctx, created.ID, true)

	first.Status = models.StatusCanRefund
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Status = models.StatusVoid
	err = repo.Save(ctx, second)
	assert.True(t, errors.Is(errors.Conflict, err))

	stored, _ := repo.Load(ctx, created.ID, true)
	assert.Equal(t, models.StatusCanRefund, stored.Status)
}

func TestTxRepository_SaveWithoutLedgerKeepsEntries(t *testing.T) {
	repo := NewTxRepository()
	ctx := context.Background()
	created, err := repo.Create(ctx, newTx())
	require.NoError(t, err)

	summary, err := repo.Load(ctx, created.ID, false)
	require.NoError(t, err)
	summary.Status = models.StatusCanRefund
	require.NoError(t, repo.Save(ctx, summary))

	stored, err := repo.Load(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanRefund, stored.Status)
	require.Len(t, stored.Ledger, 1)
	assert.Equal(t, models.EntryAuthorize, stored.Ledger[0].Type)
}

func TestTxRepository_SaveAppendsNewEntries(t *testing.T) {
	repo := NewTxRepository()
	ctx := context.Background()
	created, err := repo.Create(ctx, newTx())
	require.NoError(t, err)

	loaded, err := repo.Load(ctx, created.ID, true)
	require.NoError(t, err)
	loaded.Append(models.EntryCapture, 4, time.Now())
	require.NoError(t, repo.Save(ctx, loaded))

	stored, err := repo.Load(ctx, created.ID, true)
	require.NoError(t, err)
	require.Len(t, stored.Ledger, 2)
	assert.Equal(t, 2, stored.Ledger[1].Seq)
	assert.Equal(t, models.EntryCapture, stored.Ledger[1].Type)
}

func TestTxRepository_SaveHonoursCancelledContext(t *testing.T) {
	repo := NewTxRepository()
	created, err := repo.Create(context.Background(), newTx())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	created.Status = models.StatusVoid
	assert.ErrorIs(t, repo.Save(ctx, created), context.Canceled)

	stored, _ := repo.Load(context.Background(), created.ID, true)
	assert.Equal(t, models.StatusCanCapture, stored.Status)
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock(context.Background(), "tx:1", func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					cur := atomic.LoadInt32(&maxInside)
					if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, m.locks)
}

func TestKeyedMutex_ContextCancelledWhileWaiting(t *testing.T) {
	m := NewKeyedMutex()
	hold := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = m.WithLock(context.Background(), "tx:1", func(ctx context.Context) error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	called := false
	err := m.WithLock(ctx, "tx:1", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
	close(hold)
}

func TestIdempotencyRepository(t *testing.T) {
	repo := NewIdempotencyRepository()
	ctx := context.Background()

	existing, err := repo.Reserve(ctx, "k1", "hash")
	require.NoError(t, err)
	assert.Nil(t, existing)

	existing, err = repo.Reserve(ctx, "k1", "hash")
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, models.IdempotencyInProgress, existing.Status)

	require.NoError(t, repo.Complete(ctx, "k1", 200, []byte(`{"amount":7}`)))
	existing, _ = repo.Reserve(ctx, "k1", "hash")
	assert.Equal(t, models.IdempotencyCompleted, existing.Status)
	assert.Equal(t, 200, existing.ResponseStatus)
	assert.JSONEq(t, `{"amount":7}`, string(existing.ResponseBody))

	require.NoError(t, repo.Release(ctx, "k1"))
	existing, _ = repo.Reserve(ctx, "k1", "other")
	assert.Nil(t, existing)
}
