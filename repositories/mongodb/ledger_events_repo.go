package mongodb

import (
	// Go Internal Packages
	"context"

	// Local Packages
	models "tx-gateway/models"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type LedgerEventRepository struct {
	Client     *mongo.Client
	Database   string
	Collection string
}

func NewLedgerEventRepository(client *mongo.Client, database string) *LedgerEventRepository {
	return &LedgerEventRepository{Client: client, Database: database, Collection: "ledger_events"}
}

func (r *LedgerEventRepository) coll() *mongo.Collection {
	return r.Client.Database(r.Database).Collection(r.Collection)
}

// EnsureIndexes creates the lookup index used to read a transaction's history in order
func (r *LedgerEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "transaction_id", Value: 1}, {Key: "seq", Value: 1}},
	})
	return err
}

// UpsertEvents writes a batch of events keyed by event id, so a redelivered
// event overwrites itself instead of duplicating.
func (r *LedgerEventRepository) UpsertEvents(ctx context.Context, events []models.MongoLedgerEvent) error {
	if len(events) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(events))
	for _, ev := range events {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": ev.EventID}).
			SetReplacement(ev).
			SetUpsert(true))
	}

	_, err := r.coll().BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}
