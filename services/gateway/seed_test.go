package gateway

import (
	// Go Internal Packages
	"context"
	"testing"
	"time"

	// Local Packages
	errors "tx-gateway/errors"
	models "tx-gateway/models"
	memory "tx-gateway/repositories/memory"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTxRepository()

	n, err := Seed(ctx, repo, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = Seed(ctx, repo, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	refunded, err := repo.Load(ctx, SeedRefundedID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefunded, refunded.Status)
	assert.Equal(t, AmountOf(refunded, models.EntryCapture), AmountOf(refunded, models.EntryRefund))

	void, err := repo.Load(ctx, SeedVoidID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVoid, void.Status)
}

func TestSeed_FinishedTransactionsRejectChanges(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTxRepository()
	_, err := Seed(ctx, repo, time.Now())
	require.NoError(t, err)

	svc := NewService(zap.NewNop(), repo, nil, Settings{})

	_, err = svc.Capture(ctx, models.TransactionRequest{TransactionID: SeedRefundedID, Amount: 1})
	assert.True(t, errors.Is(errors.Invalid, err))

	_, err = svc.Refund(ctx, models.TransactionRequest{TransactionID: SeedVoidID, Amount: 1})
	assert.True(t, errors.Is(errors.Invalid, err))

	_, err = svc.Cancel(ctx, models.TransactionRequest{TransactionID: SeedVoidID})
	assert.True(t, errors.Is(errors.InvalidOperation, err))
}
