package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	models "tx-gateway/models"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultDLQList = "failed-ledger-events"

type DeadLetterQueue struct {
	client   *redis.Client
	logger   *zap.Logger
	listName string
}

func NewDeadLetterQueue(client *redis.Client, logger *zap.Logger, listName string) *DeadLetterQueue {
	if listName == "" {
		listName = DefaultDLQList
	}
	return &DeadLetterQueue{client: client, logger: logger, listName: listName}
}

// Send appends the whole batch to the dead letter list in one push, so a
// batch is either stored completely or not at all.
func (r *DeadLetterQueue) Send(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	values := make([]any, 0, len(records))
	for _, record := range records {
		jsonData, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record %s: %w", record.Key, err)
		}
		values = append(values, jsonData)
	}

	if err := r.client.RPush(ctx, r.listName, values...).Err(); err != nil {
		return fmt.Errorf("failed to push records to %s: %w", r.listName, err)
	}

	r.logger.Info("successfully sent records", zap.Int("count", len(values)), zap.String("list", r.listName))
	return nil
}
