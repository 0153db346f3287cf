package gateway

import (
	// Go Internal Packages
	"context"
	"fmt"
	"strconv"
	"time"

	// Local Packages
	errors "tx-gateway/errors"
	models "tx-gateway/models"
)

const (
	SeedRefundedID = "bc97198e-7ff2-45d1-96b8-408781ffb878"
	SeedVoidID     = "e96e72cf-2cc3-4b8c-9dec-b056979dccaa"
)

// SeedTransactions returns two finished demo transactions, one refunded and
// one voided.
func SeedTransactions(now time.Time) []*models.Transaction {
	month, year := strconv.Itoa(int(now.Month())), strconv.Itoa(now.Year())

	refunded := &models.Transaction{
		ID:            SeedRefundedID,
		CardNumber:    "4000 0000 0000 0259",
		ExpiryMonth:   month,
		ExpiryYear:    year,
		CVV:           "123",
		Currency:      "gbp",
		CurrentAmount: 10,
		Status:        models.StatusRefunded,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	refunded.Append(models.EntryAuthorize, 10, now)
	refunded.Append(models.EntryCapture, 10, now)
	refunded.Append(models.EntryRefund, 10, now)

	void := &models.Transaction{
		ID:            SeedVoidID,
		CardNumber:    "4000 0000 0000 3238",
		ExpiryMonth:   month,
		ExpiryYear:    year,
		CVV:           "123",
		Currency:      "gbp",
		CurrentAmount: 10,
		Status:        models.StatusVoid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	void.Append(models.EntryAuthorize, 10, now)
	void.Append(models.EntryVoid, 10, now)

	return []*models.Transaction{refunded, void}
}

// Seed inserts the demo transactions. Ones that already exist are left alone,
// so it is safe to run on every start.
func Seed(ctx context.Context, store TransactionStore, now time.Time) (int, error) {
	created := 0
	for _, tx := range SeedTransactions(now) {
		_, err := store.Create(ctx, tx)
		if errors.Is(errors.Conflict, err) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to seed transaction %s: %w", tx.ID, err)
		}
		created++
	}
	return created, nil
}
