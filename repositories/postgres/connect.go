package postgres

import (
	// Go Internal Packages
	"context"
	"fmt"

	// External Packages
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id             TEXT PRIMARY KEY,
	card_number    TEXT NOT NULL,
	expiry_month   TEXT NOT NULL,
	expiry_year    TEXT NOT NULL,
	cvv            TEXT NOT NULL,
	currency       TEXT NOT NULL,
	current_amount BIGINT NOT NULL,
	status         TEXT NOT NULL,
	version        BIGINT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_entries (
	transaction_id TEXT NOT NULL REFERENCES transactions(id),
	seq            INT NOT NULL,
	type           TEXT NOT NULL,
	amount         BIGINT NOT NULL CHECK (amount >= 0),
	created_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (transaction_id, seq)
);
`

// Connect opens a pool, pings it and makes sure the tables exist.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to create schema: %w", err)
	}
	return pool, nil
}
