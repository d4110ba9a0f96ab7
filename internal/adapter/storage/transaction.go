package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
)

// InsertTransaction appends a row to the transaction log. Rows are never
// updated or deleted afterward.
func (s *Store) InsertTransaction(ctx context.Context, q DBTX, t domain.Transaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, transaction_type, amount, trans_date)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID.String(), t.AccountID, t.Type, t.Amount.StringFixed(2), t.Date)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// TransactionsForAccount returns the account's most recent transactions,
// newest first.
func (s *Store) TransactionsForAccount(ctx context.Context, q DBTX, accountID string, limit int) ([]domain.Transaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, account_id, transaction_type, amount, trans_date
		FROM transactions WHERE account_id = ?
		ORDER BY trans_date DESC, id DESC LIMIT ?`,
		accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var (
			t      domain.Transaction
			id     string
			amount string
		)
		if err := rows.Scan(&id, &t.AccountID, &t.Type, &amount, &t.Date); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("transaction %s id: %w", id, domain.ErrMalformedStore)
		}
		if t.Amount, err = domain.Money(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount: %w", id, domain.ErrMalformedStore)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// FirstTransactionOfType returns the earliest logged transaction of the
// given type for an account, or ErrNotFound.
func (s *Store) FirstTransactionOfType(ctx context.Context, q DBTX, accountID, txType string) (domain.Transaction, error) {
	var (
		t      domain.Transaction
		id     string
		amount string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, account_id, transaction_type, amount, trans_date
		FROM transactions WHERE account_id = ? AND transaction_type = ?
		ORDER BY trans_date, id LIMIT 1`,
		accountID, txType).Scan(&id, &t.AccountID, &t.Type, &amount, &t.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transaction{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("first transaction: %w", err)
	}
	if t.ID, err = uuid.Parse(id); err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s id: %w", id, domain.ErrMalformedStore)
	}
	if t.Amount, err = domain.Money(amount); err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s amount: %w", id, domain.ErrMalformedStore)
	}
	return t, nil
}

// CountTransactions reports the total number of logged transactions for an
// account.
func (s *Store) CountTransactions(ctx context.Context, q DBTX, accountID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = ?`, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}
