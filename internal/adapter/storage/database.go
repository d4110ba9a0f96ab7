package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schema holds the five logical tables plus the two archive tables. All
// currency columns are fixed-2-decimal TEXT; due dates are ISO dates so
// day-level comparisons work lexically.
const schema = `
CREATE TABLE IF NOT EXISTS customers (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    apr_tier   INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
    id           TEXT PRIMARY KEY,
    customer_id  TEXT NOT NULL,
    account_type TEXT NOT NULL,
    balance      TEXT NOT NULL,
    date_opened  DATETIME NOT NULL,
    credit_limit TEXT,
    apr          TEXT,
    FOREIGN KEY (customer_id) REFERENCES customers(id)
);

CREATE TABLE IF NOT EXISTS bills (
    id             TEXT PRIMARY KEY,
    customer_id    TEXT NOT NULL,
    payee_name     TEXT NOT NULL,
    payee_address  TEXT NOT NULL DEFAULT '',
    amount         TEXT NOT NULL,
    due_date       TEXT NOT NULL,
    payment_acc_id TEXT NOT NULL,
    min_payment    TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'Pending',
    recurring      INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (payment_acc_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS transactions (
    id               TEXT PRIMARY KEY,
    account_id       TEXT NOT NULL,
    transaction_type TEXT NOT NULL,
    amount           TEXT NOT NULL,
    trans_date       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    actor     TEXT NOT NULL,
    action    TEXT NOT NULL,
    detail    TEXT NOT NULL DEFAULT '',
    logged_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS archived_bills (
    bill_id     TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL,
    payee_name  TEXT NOT NULL,
    amount      TEXT NOT NULL,
    closed_date DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS archived_loans (
    account_id      TEXT PRIMARY KEY,
    customer_id     TEXT NOT NULL,
    original_amount TEXT NOT NULL,
    date_opened     DATETIME NOT NULL,
    closed_date     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bills_due ON bills(due_date, status);
CREATE INDEX IF NOT EXISTS idx_bills_account ON bills(payment_acc_id);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
`

// DBTX is satisfied by both *sql.DB and *sql.Tx so repository methods can
// run standalone or inside an engine's transaction boundary.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the single gateway to the persisted tables. Every logical
// operation that touches more than one row runs inside WithTx; no
// component opens the database directly.
type Store struct {
	db *sql.DB
}

// Open connects to the sqlite database at path and applies the schema.
// Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// sqlite allows one writer; a single pooled connection also keeps
	// ":memory:" databases from splitting across connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// WithTx runs fn inside a transaction, committing on nil error and
// rolling back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
