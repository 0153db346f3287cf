package mongodb

import (
	// Go Internal Packages
	"context"
	stderrors "errors"
	"fmt"

	// Local Packages
	errors "tx-gateway/errors"
	models "tx-gateway/models"

	// External Packages
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TxRepository stores each transaction as one document with its ledger embedded.
type TxRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

func NewTxRepository(client *mongo.Client, database string) *TxRepository {
	return &TxRepository{client: client, database: database, collection: "transactions"}
}

func (r *TxRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// Load fetches a transaction; without includeLedger the ledger is projected away.
func (r *TxRepository) Load(ctx context.Context, id string, includeLedger bool) (*models.Transaction, error) {
	opts := options.FindOne()
	if !includeLedger {
		opts.SetProjection(bson.M{"ledger": 0})
	}

	var tx models.Transaction
	err := r.coll().FindOne(ctx, bson.M{"_id": id}, opts).Decode(&tx)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.NotFoundErr("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return &tx, nil
}

// Create inserts a transaction under a new id
func (r *TxRepository) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	doc := tx.Clone()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.Version = 1

	_, err := r.coll().InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil, errors.E(errors.Conflict, "transaction "+doc.ID+" already exists", err)
	}
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	tx.ID = doc.ID
	tx.Version = doc.Version
	return doc, nil
}

// Save updates the document only if nobody saved it since it was loaded.
// Ledger entries are appended server side, never replaced.
func (r *TxRepository) Save(ctx context.Context, tx *models.Transaction) error {
	next := tx.Version + 1

	filter := bson.M{"_id": tx.ID, "version": tx.Version}
	res, err := r.coll().UpdateOne(ctx, filter, saveUpdate(tx, next))
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll().CountDocuments(ctx, bson.M{"_id": tx.ID})
		if err != nil {
			return fmt.Errorf("count transaction: %w", err)
		}
		if n == 0 {
			return errors.NotFoundErr("transaction", tx.ID)
		}
		return errors.ConflictErr(tx.ID, tx.Version)
	}

	tx.Version = next
	return nil
}

// saveUpdate sets the mutable fields and concatenates the entries whose seq is
// past the highest stored seq onto the stored ledger.
func saveUpdate(tx *models.Transaction, version int64) mongo.Pipeline {
	entries := tx.Ledger
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	stored := bson.D{{Key: "$ifNull", Value: bson.A{"$ledger", bson.A{}}}}
	head := bson.D{{Key: "$ifNull", Value: bson.A{bson.D{{Key: "$max", Value: "$ledger.seq"}}, 0}}}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "current_amount", Value: tx.CurrentAmount},
			{Key: "status", Value: tx.Status},
			{Key: "updated_at", Value: tx.UpdatedAt},
			{Key: "version", Value: version},
			{Key: "ledger", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
				stored,
				bson.D{{Key: "$filter", Value: bson.D{
					{Key: "input", Value: bson.D{{Key: "$literal", Value: entries}}},
					{Key: "cond", Value: bson.D{{Key: "$gt", Value: bson.A{"$$this.seq", head}}}},
				}}},
			}}}},
		}}},
	}
}
