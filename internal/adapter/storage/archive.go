package storage

import (
	"context"
	"fmt"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
)

func (s *Store) InsertArchivedBill(ctx context.Context, q DBTX, a domain.ArchivedBill) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO archived_bills (bill_id, customer_id, payee_name, amount, closed_date)
		VALUES (?, ?, ?, ?, ?)`,
		a.BillID, a.CustomerID, a.PayeeName, a.Amount.StringFixed(2), a.ClosedDate)
	if err != nil {
		return fmt.Errorf("insert archived bill: %w", err)
	}
	return nil
}

func (s *Store) InsertArchivedLoan(ctx context.Context, q DBTX, a domain.ArchivedLoan) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO archived_loans (account_id, customer_id, original_amount, date_opened, closed_date)
		VALUES (?, ?, ?, ?, ?)`,
		a.AccountID, a.CustomerID, a.OriginalAmount.StringFixed(2), a.DateOpened, a.ClosedDate)
	if err != nil {
		return fmt.Errorf("insert archived loan: %w", err)
	}
	return nil
}

func (s *Store) ArchivedBillsForCustomer(ctx context.Context, q DBTX, customerID string) ([]domain.ArchivedBill, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT bill_id, customer_id, payee_name, amount, closed_date
		FROM archived_bills WHERE customer_id = ? ORDER BY closed_date DESC`,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("list archived bills: %w", err)
	}
	defer rows.Close()

	var out []domain.ArchivedBill
	for rows.Next() {
		var (
			a      domain.ArchivedBill
			amount string
		)
		if err := rows.Scan(&a.BillID, &a.CustomerID, &a.PayeeName, &amount, &a.ClosedDate); err != nil {
			return nil, fmt.Errorf("scan archived bill: %w", err)
		}
		if a.Amount, err = domain.Money(amount); err != nil {
			return nil, fmt.Errorf("archived bill %s amount: %w", a.BillID, domain.ErrMalformedStore)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ArchivedLoansForCustomer(ctx context.Context, q DBTX, customerID string) ([]domain.ArchivedLoan, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT account_id, customer_id, original_amount, date_opened, closed_date
		FROM archived_loans WHERE customer_id = ? ORDER BY closed_date DESC`,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("list archived loans: %w", err)
	}
	defer rows.Close()

	var out []domain.ArchivedLoan
	for rows.Next() {
		var (
			a      domain.ArchivedLoan
			amount string
		)
		if err := rows.Scan(&a.AccountID, &a.CustomerID, &amount, &a.DateOpened, &a.ClosedDate); err != nil {
			return nil, fmt.Errorf("scan archived loan: %w", err)
		}
		if a.OriginalAmount, err = domain.Money(amount); err != nil {
			return nil, fmt.Errorf("archived loan %s amount: %w", a.AccountID, domain.ErrMalformedStore)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
