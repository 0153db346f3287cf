package postgres

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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pool is the part of *pgxpool.Pool the repository uses.
type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// querier is the part of pgx.Tx used inside a database transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// TxRepository keeps transactions in one table and their ledger in another.
// Ledger rows are only ever inserted.
type TxRepository struct {
	db pool
}

func NewTxRepository(db *pgxpool.Pool) *TxRepository {
	return &TxRepository{db: db}
}

func (r *TxRepository) Load(ctx context.Context, id string, includeLedger bool) (*models.Transaction, error) {
	var tx models.Transaction
	var status string
	err := r.db.QueryRow(ctx,
		`SELECT id, card_number, expiry_month, expiry_year, cvv, currency, current_amount, status, version, created_at, updated_at
		 FROM transactions WHERE id = $1`, id,
	).Scan(&tx.ID, &tx.CardNumber, &tx.ExpiryMonth, &tx.ExpiryYear, &tx.CVV, &tx.Currency,
		&tx.CurrentAmount, &status, &tx.Version, &tx.CreatedAt, &tx.UpdatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFoundErr("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select transaction: %w", err)
	}
	tx.Status = models.Status(status)

	if !includeLedger {
		return &tx, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT seq, type, amount, created_at FROM ledger_entries WHERE transaction_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("select ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.LedgerEntry
		var entryType string
		if err := rows.Scan(&entry.Seq, &entryType, &entry.Amount, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entry.Type = models.EntryType(entryType)
		tx.Ledger = append(tx.Ledger, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return &tx, nil
}

func (r *TxRepository) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	doc := tx.Clone()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.Version = 1

	dbTx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer dbTx.Rollback(ctx)

	_, err = dbTx.Exec(ctx,
		`INSERT INTO transactions (id, card_number, expiry_month, expiry_year, cvv, currency, current_amount, status, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		doc.ID, doc.CardNumber, doc.ExpiryMonth, doc.ExpiryYear, doc.CVV, doc.Currency,
		doc.CurrentAmount, string(doc.Status), doc.Version, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, errors.E(errors.Conflict, "transaction "+doc.ID+" already exists", err)
		}
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	if err := insertEntries(ctx, dbTx, doc.ID, doc.Ledger); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}

	tx.ID = doc.ID
	tx.Version = doc.Version
	return doc, nil
}

// Save updates the row guarded by version and inserts the ledger entries not
// yet persisted, in one database transaction.
func (r *TxRepository) Save(ctx context.Context, tx *models.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer dbTx.Rollback(ctx)

	if err := saveInTx(ctx, dbTx, tx); err != nil {
		return err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	tx.Version++
	return nil
}

// saveInTx bumps the version of the row loaded at tx.Version and inserts the
// ledger entries past the persisted head.
func saveInTx(ctx context.Context, q querier, tx *models.Transaction) error {
	tag, err := q.Exec(ctx,
		`UPDATE transactions SET current_amount = $1, status = $2, version = version + 1, updated_at = $3
		 WHERE id = $4 AND version = $5`,
		tx.CurrentAmount, string(tx.Status), tx.UpdatedAt, tx.ID, tx.Version,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)", tx.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check transaction: %w", err)
		}
		if !exists {
			return errors.NotFoundErr("transaction", tx.ID)
		}
		return errors.ConflictErr(tx.ID, tx.Version)
	}

	var persisted int
	err = q.QueryRow(ctx, "SELECT COALESCE(MAX(seq), 0) FROM ledger_entries WHERE transaction_id = $1", tx.ID).Scan(&persisted)
	if err != nil {
		return fmt.Errorf("select ledger head: %w", err)
	}
	return insertEntries(ctx, q, tx.ID, unsavedEntries(tx.Ledger, persisted))
}

// unsavedEntries returns the entries positioned after the last persisted seq.
func unsavedEntries(ledger []models.LedgerEntry, persisted int) []models.LedgerEntry {
	var out []models.LedgerEntry
	for _, e := range ledger {
		if e.Seq > persisted {
			out = append(out, e)
		}
	}
	return out
}

func insertEntries(ctx context.Context, q querier, transactionID string, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			"INSERT INTO ledger_entries (transaction_id, seq, type, amount, created_at) VALUES ($1, $2, $3, $4, $5)",
			transactionID, e.Seq, string(e.Type), e.Amount, e.CreatedAt,
		)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("ledger entry failed: %w", err)
	}
	return nil
}
