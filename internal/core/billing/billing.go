// Package billing drives the bill lifecycle: scheduling, the daily
// due-date pass with over-limit escalation, minimum-payment recomputation
// for card statements, late marking, and archival of resolved records.
package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	validator "github.com/avrebarra/minivalidator"
	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/shopspring/decimal"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/adapter/storage"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
)

var (
	overLimitFee       = decimal.RequireFromString("35.00")
	statementThreshold = decimal.RequireFromString("1000.00")
	statementFlatMin   = decimal.RequireFromString("25.00")
	statementRate      = decimal.RequireFromString("0.02")
)

// ArchiveKind selects what Archive moves out of the active set.
type ArchiveKind string

const (
	ArchiveBill ArchiveKind = "bill"
	ArchiveLoan ArchiveKind = "loan"
)

type Config struct {
	Store *storage.Store   `validate:"required"`
	Clock func() time.Time `validate:"required"`
}

type Engine struct {
	conf Config
}

func New(conf Config) (*Engine, error) {
	if err := validator.Validate(conf); err != nil {
		return nil, fmt.Errorf("bad config: %w", err)
	}
	return &Engine{conf: conf}, nil
}

type InputScheduleBill struct {
	CustomerID   string `validate:"required"`
	PayeeName    string `validate:"required"`
	PayeeAddress string
	Amount       decimal.Decimal
	DueDate      time.Time `validate:"required"`
	PaymentAccID string    `validate:"required"`
	MinPayment   decimal.Decimal
	Recurring    bool
}

// ScheduleBillPayment records a new Pending bill with a fresh ID.
func (e *Engine) ScheduleBillPayment(ctx context.Context, in InputScheduleBill) (domain.Bill, error) {
	if err := validator.Validate(in); err != nil {
		return domain.Bill{}, fmt.Errorf("bad input: %w", err)
	}
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.Bill{}, domain.ErrInvalidAmount
	}
	if _, err := e.conf.Store.GetCustomer(ctx, e.conf.Store.DB(), in.CustomerID); err != nil {
		return domain.Bill{}, err
	}
	if _, err := e.conf.Store.GetAccount(ctx, e.conf.Store.DB(), in.PaymentAccID); err != nil {
		return domain.Bill{}, err
	}

	bill := domain.Bill{
		ID:           xid.New().String(),
		CustomerID:   in.CustomerID,
		PayeeName:    in.PayeeName,
		PayeeAddress: in.PayeeAddress,
		Amount:       domain.Cents(in.Amount),
		DueDate:      in.DueDate,
		PaymentAccID: in.PaymentAccID,
		MinPayment:   domain.Cents(in.MinPayment),
		Status:       domain.BillPending,
		Recurring:    in.Recurring,
	}
	if err := e.conf.Store.InsertBill(ctx, e.conf.Store.DB(), bill); err != nil {
		return domain.Bill{}, err
	}
	return bill, nil
}

// ProcessScheduledBills runs the due-date pass over every unresolved bill
// due on or before today. Each bill settles in its own transaction; one
// outcome per bill, and a failed bill never aborts the pass.
func (e *Engine) ProcessScheduledBills(ctx context.Context) ([]domain.Outcome, error) {
	today := e.conf.Clock()
	bills, err := e.conf.Store.BillsDue(ctx, e.conf.Store.DB(), today)
	if err != nil {
		return nil, err
	}

	var outcomes []domain.Outcome
	for _, bill := range bills {
		var message string
		var payErr error
		err := e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
			acc, err := e.conf.Store.GetAccount(ctx, tx, bill.PaymentAccID)
			if err != nil {
				return err
			}
			switch acc.Type {
			case domain.CreditCard:
				message, payErr = e.payCardBill(ctx, tx, acc, bill, today)
			case domain.MortgageLoan:
				message, payErr = e.payMortgageBill(ctx, tx, acc, bill, today)
			default:
				message, payErr = e.payAssetBill(ctx, tx, acc, bill, today)
			}
			if errors.Is(payErr, domain.ErrOverLimit) {
				// the fee bill and status flip must outlive the failed charge
				return nil
			}
			return payErr
		})
		if err == nil {
			err = payErr
		}
		if err != nil {
			outcomes = append(outcomes, domain.ErrorOutcome(bill.ID, err))
			continue
		}
		outcomes = append(outcomes, domain.SuccessOutcome(bill.ID, message))
	}
	return outcomes, nil
}

// payCardBill charges a bill to a credit card. If the charge would push
// the card past its limit, a $35.00 fee bill is scheduled instead, once
// per over-limit episode; the original bill stays due.
func (e *Engine) payCardBill(ctx context.Context, tx *sql.Tx, acc domain.Account, bill domain.Bill, today time.Time) (string, error) {
	if !acc.CreditLimit.Valid {
		return "", fmt.Errorf("card missing credit limit: %w", domain.ErrMalformedStore)
	}
	if acc.Balance.Abs().Add(bill.Amount).GreaterThan(acc.CreditLimit.Decimal) {
		if bill.Status != domain.BillOverLimit {
			fee := domain.Bill{
				ID:           xid.New().String(),
				CustomerID:   bill.CustomerID,
				PayeeName:    "Over-Limit Fee",
				Amount:       overLimitFee,
				DueDate:      today.AddDate(0, 0, 30),
				PaymentAccID: acc.ID,
				MinPayment:   overLimitFee,
				Status:       domain.BillPending,
			}
			if err := e.conf.Store.InsertBill(ctx, tx, fee); err != nil {
				return "", err
			}
			bill.Status = domain.BillOverLimit
			if err := e.conf.Store.UpdateBill(ctx, tx, bill); err != nil {
				return "", err
			}
		}
		return "", domain.ErrOverLimit
	}

	newBalance := domain.Cents(acc.Balance.Sub(bill.Amount))
	if err := e.conf.Store.UpdateBalance(ctx, tx, acc.ID, newBalance); err != nil {
		return "", err
	}
	if err := e.log(ctx, tx, acc.ID, domain.TxBillPayment, bill.Amount); err != nil {
		return "", err
	}

	bill.Status = domain.BillPending
	bill.DueDate = bill.DueDate.AddDate(0, 0, 30)
	if err := e.conf.Store.UpdateBill(ctx, tx, bill); err != nil {
		return "", err
	}
	return fmt.Sprintf("charged %s to card %s", bill.Amount.StringFixed(2), acc.ID), nil
}

// payMortgageBill funds a loan payment from the customer's oldest checking
// account: checking is debited, the loan balance moves toward zero. A loan
// that reaches exactly zero is archived along with its bills.
func (e *Engine) payMortgageBill(ctx context.Context, tx *sql.Tx, loan domain.Account, bill domain.Bill, today time.Time) (string, error) {
	funding, err := e.conf.Store.FirstAccountOfType(ctx, tx, bill.CustomerID, domain.Checking)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrInsufficientFunds
	}
	if err != nil {
		return "", err
	}

	// The final installment can be smaller than the fixed payment.
	payment := decimal.Min(bill.Amount, loan.Balance.Abs())
	if funding.Balance.LessThan(payment) {
		return "", domain.ErrInsufficientFunds
	}

	if err := e.conf.Store.UpdateBalance(ctx, tx, funding.ID,
		domain.Cents(funding.Balance.Sub(payment))); err != nil {
		return "", err
	}
	if err := e.log(ctx, tx, funding.ID, domain.TxWithdrawal, payment); err != nil {
		return "", err
	}

	loan.Balance = domain.Cents(loan.Balance.Add(payment))
	if err := e.conf.Store.UpdateBalance(ctx, tx, loan.ID, loan.Balance); err != nil {
		return "", err
	}
	if err := e.log(ctx, tx, loan.ID, domain.TxBillPayment, payment); err != nil {
		return "", err
	}

	if loan.Balance.IsZero() {
		if err := e.archiveLoanTx(ctx, tx, loan); err != nil {
			return "", err
		}
		return fmt.Sprintf("final payment %s, loan %s retired", payment.StringFixed(2), loan.ID), nil
	}

	bill.Status = domain.BillPending
	bill.DueDate = bill.DueDate.AddDate(0, 0, 30)
	if err := e.conf.Store.UpdateBill(ctx, tx, bill); err != nil {
		return "", err
	}
	return fmt.Sprintf("paid %s toward loan %s", payment.StringFixed(2), loan.ID), nil
}

// payAssetBill debits a checking, savings or money market account. On
// insufficient funds the bill's due date is left unchanged so it stays due
// for a future pass; no late-marking happens here.
func (e *Engine) payAssetBill(ctx context.Context, tx *sql.Tx, acc domain.Account, bill domain.Bill, today time.Time) (string, error) {
	if acc.Balance.LessThan(bill.Amount) {
		return "", domain.ErrInsufficientFunds
	}

	if err := e.conf.Store.UpdateBalance(ctx, tx, acc.ID,
		domain.Cents(acc.Balance.Sub(bill.Amount))); err != nil {
		return "", err
	}
	if err := e.log(ctx, tx, acc.ID, domain.TxBillPayment, bill.Amount); err != nil {
		return "", err
	}

	bill.Status = domain.BillPending
	bill.DueDate = bill.DueDate.AddDate(0, 0, 30)
	if err := e.conf.Store.UpdateBill(ctx, tx, bill); err != nil {
		return "", err
	}
	return fmt.Sprintf("paid %s from account %s", bill.Amount.StringFixed(2), acc.ID), nil
}

// GenerateStatements recomputes the minimum payment on every card bill
// whose due date has passed: $25.00 flat under $1000.00, otherwise 2% of
// the amount. Independent of bill status; runs as its own scheduled pass.
func (e *Engine) GenerateStatements(ctx context.Context) ([]domain.Outcome, error) {
	today := e.conf.Clock()
	bills, err := e.conf.Store.CardBillsPastDue(ctx, e.conf.Store.DB(), today)
	if err != nil {
		return nil, err
	}

	var outcomes []domain.Outcome
	for _, bill := range bills {
		if bill.Amount.LessThan(statementThreshold) {
			bill.MinPayment = statementFlatMin
		} else {
			bill.MinPayment = domain.Cents(bill.Amount.Mul(statementRate))
		}
		if err := e.conf.Store.UpdateBill(ctx, e.conf.Store.DB(), bill); err != nil {
			outcomes = append(outcomes, domain.ErrorOutcome(bill.ID, err))
			continue
		}
		outcomes = append(outcomes, domain.SuccessOutcome(bill.ID,
			fmt.Sprintf("minimum payment set to %s", bill.MinPayment.StringFixed(2))))
	}
	return outcomes, nil
}

// MarkLateBills flips Pending bills overdue as of today to Late, the
// trigger condition for penalty interest.
func (e *Engine) MarkLateBills(ctx context.Context) ([]domain.Outcome, error) {
	n, err := e.conf.Store.MarkPendingLate(ctx, e.conf.Store.DB(), e.conf.Clock())
	if err != nil {
		return nil, err
	}
	return []domain.Outcome{domain.SuccessOutcome("bills",
		fmt.Sprintf("%d bill(s) marked late", n))}, nil
}

// Archive moves a canceled bill, or a mortgage loan whose balance has
// reached exactly zero, into the archive tables and out of the active set.
func (e *Engine) Archive(ctx context.Context, kind ArchiveKind, id string) error {
	switch kind {
	case ArchiveBill:
		return e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
			bill, err := e.conf.Store.GetBill(ctx, tx, id)
			if err != nil {
				return err
			}
			return e.archiveBillTx(ctx, tx, bill)
		})
	case ArchiveLoan:
		return e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
			acc, err := e.conf.Store.GetAccount(ctx, tx, id)
			if err != nil {
				return err
			}
			if acc.Type != domain.MortgageLoan {
				return domain.ErrNotFound
			}
			if !acc.Balance.IsZero() {
				return domain.ErrNonZeroBalance
			}
			return e.archiveLoanTx(ctx, tx, acc)
		})
	default:
		return fmt.Errorf("unknown archive kind %q: %w", kind, domain.ErrNotFound)
	}
}

// Archives is a customer's read-only historical view.
type Archives struct {
	Bills []domain.ArchivedBill `json:"bills"`
	Loans []domain.ArchivedLoan `json:"loans"`
}

func (e *Engine) ArchivedForCustomer(ctx context.Context, customerID string) (Archives, error) {
	if _, err := e.conf.Store.GetCustomer(ctx, e.conf.Store.DB(), customerID); err != nil {
		return Archives{}, err
	}
	bills, err := e.conf.Store.ArchivedBillsForCustomer(ctx, e.conf.Store.DB(), customerID)
	if err != nil {
		return Archives{}, err
	}
	loans, err := e.conf.Store.ArchivedLoansForCustomer(ctx, e.conf.Store.DB(), customerID)
	if err != nil {
		return Archives{}, err
	}
	return Archives{Bills: bills, Loans: loans}, nil
}

func (e *Engine) archiveBillTx(ctx context.Context, tx *sql.Tx, bill domain.Bill) error {
	err := e.conf.Store.InsertArchivedBill(ctx, tx, domain.ArchivedBill{
		BillID:     bill.ID,
		CustomerID: bill.CustomerID,
		PayeeName:  bill.PayeeName,
		Amount:     bill.Amount,
		ClosedDate: e.conf.Clock(),
	})
	if err != nil {
		return err
	}
	return e.conf.Store.DeleteBill(ctx, tx, bill.ID)
}

// archiveLoanTx snapshots a retired loan and its remaining bills into the
// archive tables. The original principal comes from the loan-opened entry
// in the transaction log.
func (e *Engine) archiveLoanTx(ctx context.Context, tx *sql.Tx, loan domain.Account) error {
	principal := decimal.Zero
	opened, err := e.conf.Store.FirstTransactionOfType(ctx, tx, loan.ID, domain.TxLoanOpened)
	if err == nil {
		principal = opened.Amount
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	err = e.conf.Store.InsertArchivedLoan(ctx, tx, domain.ArchivedLoan{
		AccountID:      loan.ID,
		CustomerID:     loan.CustomerID,
		OriginalAmount: principal,
		DateOpened:     loan.DateOpened,
		ClosedDate:     e.conf.Clock(),
	})
	if err != nil {
		return err
	}

	bills, err := e.conf.Store.BillsForAccount(ctx, tx, loan.ID)
	if err != nil {
		return err
	}
	for _, bill := range bills {
		if err := e.archiveBillTx(ctx, tx, bill); err != nil {
			return err
		}
	}
	return e.conf.Store.DeleteAccount(ctx, tx, loan.ID)
}

func (e *Engine) log(ctx context.Context, tx *sql.Tx, accountID, txType string, amount decimal.Decimal) error {
	return e.conf.Store.InsertTransaction(ctx, tx, domain.Transaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Type:      txType,
		Amount:    amount,
		Date:      e.conf.Clock(),
	})
}
