package memory

import (
	// Go Internal Packages
	"context"
	"sync"

	// Local Packages
	errors "tx-gateway/errors"
	models "tx-gateway/models"

	// External Packages
	"github.com/google/uuid"
)

// TxRepository keeps transactions in process memory. Records are copied on
// the way in and out so callers never share state with the repository.
type TxRepository struct {
	mu           sync.RWMutex
	transactions map[string]*models.Transaction
}

func NewTxRepository() *TxRepository {
	return &TxRepository{transactions: make(map[string]*models.Transaction)}
}

func (r *TxRepository) Load(ctx context.Context, id string, includeLedger bool) (*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.transactions[id]
	if !ok {
		return nil, errors.NotFoundErr("transaction", id)
	}
	c := tx.Clone()
	if !includeLedger {
		c.Ledger = nil
	}
	return c, nil
}

func (r *TxRepository) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c := tx.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := r.transactions[c.ID]; exists {
		return nil, errors.E(errors.Conflict, "transaction "+c.ID+" already exists", nil)
	}
	c.Version = 1
	r.transactions[c.ID] = c

	tx.ID = c.ID
	tx.Version = c.Version
	return c.Clone(), nil
}

func (r *TxRepository) Save(ctx context.Context, tx *models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.transactions[tx.ID]
	if !ok {
		return errors.NotFoundErr("transaction", tx.ID)
	}
	if stored.Version != tx.Version {
		return errors.ConflictErr(tx.ID, tx.Version)
	}

	c := tx.Clone()
	c.Ledger = appendUnsaved(stored.Ledger, tx.Ledger)
	c.Version++
	r.transactions[c.ID] = c
	tx.Version = c.Version
	return nil
}

// appendUnsaved keeps every stored entry and adds the ones positioned after
// the stored head. A record loaded without its ledger saves no entries.
func appendUnsaved(stored, ledger []models.LedgerEntry) []models.LedgerEntry {
	head := 0
	if len(stored) > 0 {
		head = stored[len(stored)-1].Seq
	}
	out := make([]models.LedgerEntry, len(stored), len(stored)+len(ledger))
	copy(out, stored)
	for _, e := range ledger {
		if e.Seq > head {
			out = append(out, e)
		}
	}
	return out
}
