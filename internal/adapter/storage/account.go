package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
)

const accountColumns = `id, customer_id, account_type, balance, date_opened, credit_limit, apr`

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var (
		a           domain.Account
		balance     string
		creditLimit sql.NullString
		apr         sql.NullString
	)
	err := row.Scan(&a.ID, &a.CustomerID, &a.Type, &balance, &a.DateOpened, &creditLimit, &apr)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("scan account: %w", err)
	}

	if a.Balance, err = domain.Money(balance); err != nil {
		return domain.Account{}, fmt.Errorf("account %s balance: %w", a.ID, domain.ErrMalformedStore)
	}
	if creditLimit.Valid {
		d, err := decimal.NewFromString(creditLimit.String)
		if err != nil {
			return domain.Account{}, fmt.Errorf("account %s credit limit: %w", a.ID, domain.ErrMalformedStore)
		}
		a.CreditLimit = decimal.NewNullDecimal(d)
	}
	if apr.Valid {
		d, err := decimal.NewFromString(apr.String)
		if err != nil {
			return domain.Account{}, fmt.Errorf("account %s apr: %w", a.ID, domain.ErrMalformedStore)
		}
		a.APR = decimal.NewNullDecimal(d)
	}
	return a, nil
}

func nullDecimalString(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func (s *Store) InsertAccount(ctx context.Context, q DBTX, a domain.Account) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (id, customer_id, account_type, balance, date_opened, credit_limit, apr)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CustomerID, a.Type, a.Balance.StringFixed(2), a.DateOpened,
		nullDecimalString(a.CreditLimit), nullDecimalString(a.APR))
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, q DBTX, id string) (domain.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// ListAccountsByType returns all accounts of the given types, oldest first.
func (s *Store) ListAccountsByType(ctx context.Context, q DBTX, types ...domain.AccountType) ([]domain.Account, error) {
	placeholders := strings.TrimRight(strings.Repeat("?,", len(types)), ",")
	args := make([]any, len(types))
	for i, t := range types {
		args[i] = t
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_type IN (`+placeholders+`) ORDER BY date_opened, id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AccountsForCustomer returns every account owned by the customer.
func (s *Store) AccountsForCustomer(ctx context.Context, q DBTX, customerID string) ([]domain.Account, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE customer_id = ? ORDER BY date_opened, id`,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("list customer accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// FirstAccountOfType returns the customer's oldest account of the given
// type, or ErrNotFound.
func (s *Store) FirstAccountOfType(ctx context.Context, q DBTX, customerID string, t domain.AccountType) (domain.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE customer_id = ? AND account_type = ?
		 ORDER BY date_opened, id LIMIT 1`,
		customerID, t)
	return scanAccount(row)
}

func (s *Store) UpdateBalance(ctx context.Context, q DBTX, id string, balance decimal.Decimal) error {
	res, err := q.ExecContext(ctx,
		`UPDATE accounts SET balance = ? WHERE id = ?`, balance.StringFixed(2), id)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, q DBTX, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
