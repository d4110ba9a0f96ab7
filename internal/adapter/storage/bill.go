package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
)

const billColumns = `id, customer_id, payee_name, payee_address, amount, due_date, payment_acc_id, min_payment, status, recurring`

const dueDateLayout = "2006-01-02"

func scanBill(row interface{ Scan(...any) error }) (domain.Bill, error) {
	var (
		b       domain.Bill
		amount  string
		due     string
		minPay  string
		recurse int
	)
	err := row.Scan(&b.ID, &b.CustomerID, &b.PayeeName, &b.PayeeAddress,
		&amount, &due, &b.PaymentAccID, &minPay, &b.Status, &recurse)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Bill{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Bill{}, fmt.Errorf("scan bill: %w", err)
	}

	if b.Amount, err = domain.Money(amount); err != nil {
		return domain.Bill{}, fmt.Errorf("bill %s amount: %w", b.ID, domain.ErrMalformedStore)
	}
	if b.MinPayment, err = domain.Money(minPay); err != nil {
		return domain.Bill{}, fmt.Errorf("bill %s min payment: %w", b.ID, domain.ErrMalformedStore)
	}
	if b.DueDate, err = time.Parse(dueDateLayout, due); err != nil {
		return domain.Bill{}, fmt.Errorf("bill %s due date: %w", b.ID, domain.ErrMalformedStore)
	}
	b.Recurring = recurse != 0
	return b, nil
}

func (s *Store) InsertBill(ctx context.Context, q DBTX, b domain.Bill) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO bills (id, customer_id, payee_name, payee_address, amount, due_date, payment_acc_id, min_payment, status, recurring)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.CustomerID, b.PayeeName, b.PayeeAddress,
		b.Amount.StringFixed(2), b.DueDate.Format(dueDateLayout),
		b.PaymentAccID, b.MinPayment.StringFixed(2), b.Status, b.Recurring)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

func (s *Store) GetBill(ctx context.Context, q DBTX, id string) (domain.Bill, error) {
	row := q.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id)
	return scanBill(row)
}

// UpdateBill rewrites the mutable bill fields: amount, due date, minimum
// payment and status.
func (s *Store) UpdateBill(ctx context.Context, q DBTX, b domain.Bill) error {
	res, err := q.ExecContext(ctx, `
		UPDATE bills SET amount = ?, due_date = ?, min_payment = ?, status = ? WHERE id = ?`,
		b.Amount.StringFixed(2), b.DueDate.Format(dueDateLayout),
		b.MinPayment.StringFixed(2), b.Status, b.ID)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBill(ctx context.Context, q DBTX, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) billList(ctx context.Context, q DBTX, query string, args ...any) ([]domain.Bill, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var out []domain.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BillsDue returns every unresolved bill whose due date is on or before
// the given day. Bills that slipped past their due date during an outage
// are still picked up on the next pass.
func (s *Store) BillsDue(ctx context.Context, q DBTX, day time.Time) ([]domain.Bill, error) {
	return s.billList(ctx, q, `
		SELECT `+billColumns+` FROM bills
		WHERE due_date <= ? AND status IN (?, ?, ?)
		ORDER BY due_date, id`,
		day.Format(dueDateLayout), domain.BillPending, domain.BillLate, domain.BillOverLimit)
}

// LateBillsForAccount returns the account's bills with status Late.
func (s *Store) LateBillsForAccount(ctx context.Context, q DBTX, accountID string) ([]domain.Bill, error) {
	return s.billList(ctx, q, `
		SELECT `+billColumns+` FROM bills
		WHERE payment_acc_id = ? AND status = ?
		ORDER BY due_date, id`,
		accountID, domain.BillLate)
}

// CardBillsPastDue returns bills charged to credit card accounts whose due
// date is strictly before the given day, regardless of status. Feeds the
// monthly statement pass.
func (s *Store) CardBillsPastDue(ctx context.Context, q DBTX, day time.Time) ([]domain.Bill, error) {
	return s.billList(ctx, q, `
		SELECT b.id, b.customer_id, b.payee_name, b.payee_address, b.amount, b.due_date,
		       b.payment_acc_id, b.min_payment, b.status, b.recurring
		FROM bills b
		JOIN accounts a ON a.id = b.payment_acc_id
		WHERE a.account_type = ? AND b.due_date < ?
		ORDER BY b.due_date, b.id`,
		domain.CreditCard, day.Format(dueDateLayout))
}

// MarkPendingLate flips Pending bills due strictly before the given day to
// Late and reports how many changed.
func (s *Store) MarkPendingLate(ctx context.Context, q DBTX, day time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE bills SET status = ? WHERE status = ? AND due_date < ?`,
		domain.BillLate, domain.BillPending, day.Format(dueDateLayout))
	if err != nil {
		return 0, fmt.Errorf("mark late bills: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// BillsForAccount returns the account's unresolved bills.
func (s *Store) BillsForAccount(ctx context.Context, q DBTX, accountID string) ([]domain.Bill, error) {
	return s.billList(ctx, q, `
		SELECT `+billColumns+` FROM bills
		WHERE payment_acc_id = ? AND status != ?
		ORDER BY due_date, id`,
		accountID, domain.BillPaid)
}

// CountBillsForAccount counts unresolved bills charged to the account.
// Guards account deletion.
func (s *Store) CountBillsForAccount(ctx context.Context, q DBTX, accountID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bills WHERE payment_acc_id = ? AND status != ?`,
		accountID, domain.BillPaid).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count account bills: %w", err)
	}
	return n, nil
}

// CountBillsForCustomer counts the customer's unresolved bills. Guards
// user deletion.
func (s *Store) CountBillsForCustomer(ctx context.Context, q DBTX, customerID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bills WHERE customer_id = ? AND status != ?`,
		customerID, domain.BillPaid).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count customer bills: %w", err)
	}
	return n, nil
}
