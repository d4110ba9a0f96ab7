package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
)

func (s *Store) InsertCustomer(ctx context.Context, q DBTX, c domain.Customer) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO customers (id, name, apr_tier, created_at)
		VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.APRTier, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, q DBTX, id string) (domain.Customer, error) {
	var c domain.Customer
	err := q.QueryRowContext(ctx, `
		SELECT id, name, apr_tier, created_at FROM customers WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.APRTier, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, q DBTX, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
