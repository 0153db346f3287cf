package projector

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	models "tx-gateway/models"

	// External Packages
	"go.uber.org/zap"
)

type EventRepository interface {
	UpsertEvents(ctx context.Context, events []models.MongoLedgerEvent) error
}

// LedgerProjector copies ledger events from the topic into the audit store.
type LedgerProjector struct {
	Logger    *zap.Logger
	EventRepo EventRepository
}

func NewLedgerProjector(logger *zap.Logger, eventRepo EventRepository) *LedgerProjector {
	return &LedgerProjector{EventRepo: eventRepo, Logger: logger}
}

// ProcessRecords skips records that do not decode into an event; an error is
// returned only when the batch could not be stored.
func (p *LedgerProjector) ProcessRecords(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	events := make([]models.MongoLedgerEvent, 0, len(records))
	for _, record := range records {
		var ev models.LedgerEvent
		if err := json.Unmarshal(record.Value, &ev); err != nil {
			p.Logger.Error("failed to unmarshal ledger event", zap.ByteString("key", record.Key), zap.Error(err))
			continue
		}
		if ev.EventID == "" || ev.TransactionID == "" {
			p.Logger.Warn("skipping ledger event without ids", zap.ByteString("key", record.Key))
			continue
		}
		events = append(events, ev.Transform())
	}

	if err := p.EventRepo.UpsertEvents(ctx, events); err != nil {
		return fmt.Errorf("failed to upsert ledger events: %w", err)
	}
	p.Logger.Debug("projected ledger events", zap.Int("count", len(events)))
	return nil
}
