// Package lifecycle opens and closes accounts: standard deposit accounts,
// tiered-APR credit cards, amortized mortgage loans, and the guarded
// deletion of accounts and customers.
package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"time"

	validator "github.com/avrebarra/minivalidator"
	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/shopspring/decimal"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/adapter/storage"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
)

// aprRange is a closed interval of annual percentage rates.
type aprRange struct {
	lo, hi float64
}

// APR ranges by customer tier. An unrecognized tier falls back to tier 1.
var (
	cardTiers = map[int]aprRange{
		1: {19.6, 20.0},
		2: {20.1, 24.0},
		3: {24.1, 27.0},
		4: {27.1, 30.0},
	}
	mortgageTiers = map[int]aprRange{
		1: {3.0, 4.0},
		2: {4.1, 5.5},
		3: {5.6, 6.5},
		4: {6.6, 7.5},
	}
	creditLimits = []string{"1000.00", "3000.00", "7000.00", "15000.00"}

	savingsAPR     = decimal.RequireFromString("4.0")
	moneyMarketAPR = decimal.RequireFromString("3.0")
)

type Config struct {
	Store *storage.Store   `validate:"required"`
	Clock func() time.Time `validate:"required"`
	Rand  *rand.Rand       `validate:"required"`
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

// CreateCustomer registers a customer with an APR tier. Tiers outside 1..4
// fall back to tier 1.
func (e *Engine) CreateCustomer(ctx context.Context, name string, aprTier int) (domain.Customer, error) {
	if name == "" {
		return domain.Customer{}, fmt.Errorf("bad input: customer name not defined")
	}
	if aprTier < 1 || aprTier > 4 {
		aprTier = 1
	}

	c := domain.Customer{
		ID:        xid.New().String(),
		Name:      name,
		APRTier:   aprTier,
		CreatedAt: e.conf.Clock(),
	}
	err := e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := e.conf.Store.InsertCustomer(ctx, tx, c); err != nil {
			return err
		}
		return e.conf.Store.AppendAudit(ctx, tx, c.ID, "customer created", c.Name)
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

// OpenStandardAccount opens a checking, savings or money market account
// with the given opening balance. A negative deposit is rejected before
// any state changes.
func (e *Engine) OpenStandardAccount(ctx context.Context, customerID string, accountType domain.AccountType, initialDeposit decimal.Decimal) (domain.Account, error) {
	if !accountType.IsAsset() {
		return domain.Account{}, domain.ErrInvalidAccountType
	}
	if initialDeposit.IsNegative() {
		return domain.Account{}, domain.ErrInvalidDeposit
	}
	if _, err := e.conf.Store.GetCustomer(ctx, e.conf.Store.DB(), customerID); err != nil {
		return domain.Account{}, err
	}

	acc := domain.Account{
		ID:         xid.New().String(),
		CustomerID: customerID,
		Type:       accountType,
		Balance:    domain.Cents(initialDeposit),
		DateOpened: e.conf.Clock(),
	}
	switch accountType {
	case domain.Savings:
		acc.APR = decimal.NewNullDecimal(savingsAPR)
	case domain.MoneyMarket:
		acc.APR = decimal.NewNullDecimal(moneyMarketAPR)
	}

	err := e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := e.conf.Store.InsertAccount(ctx, tx, acc); err != nil {
			return err
		}
		return e.conf.Store.AppendAudit(ctx, tx, customerID, "account opened",
			fmt.Sprintf("%s %s opening balance %s", acc.Type, acc.ID, acc.Balance.StringFixed(2)))
	})
	if err != nil {
		return domain.Account{}, err
	}
	return acc, nil
}

// OpenCreditCardAccount opens a zero-balance card. The APR is drawn
// uniformly within the customer's tier range and the credit limit assigned
// from the fixed set {1000, 3000, 7000, 15000}.
func (e *Engine) OpenCreditCardAccount(ctx context.Context, customerID string) (domain.Account, error) {
	customer, err := e.conf.Store.GetCustomer(ctx, e.conf.Store.DB(), customerID)
	if err != nil {
		return domain.Account{}, err
	}

	limit := domain.MustMoney(creditLimits[e.conf.Rand.Intn(len(creditLimits))])
	acc := domain.Account{
		ID:          xid.New().String(),
		CustomerID:  customerID,
		Type:        domain.CreditCard,
		Balance:     decimal.Zero,
		DateOpened:  e.conf.Clock(),
		CreditLimit: decimal.NewNullDecimal(limit),
		APR:         decimal.NewNullDecimal(e.drawAPR(cardTiers, customer.APRTier)),
	}

	err = e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := e.conf.Store.InsertAccount(ctx, tx, acc); err != nil {
			return err
		}
		return e.conf.Store.AppendAudit(ctx, tx, customerID, "credit card opened",
			fmt.Sprintf("%s apr %s limit %s", acc.ID, acc.APR.Decimal.StringFixed(2), limit.StringFixed(2)))
	})
	if err != nil {
		return domain.Account{}, err
	}
	return acc, nil
}

// OpenMortgageLoan opens a loan with balance -loanAmount, computes the
// amortized monthly payment, and schedules the first recurring bill 30
// days out with that payment as both amount and minimum.
func (e *Engine) OpenMortgageLoan(ctx context.Context, customerID string, loanAmount decimal.Decimal, termYears int) (domain.Account, domain.Bill, error) {
	if loanAmount.LessThanOrEqual(decimal.Zero) || termYears <= 0 {
		return domain.Account{}, domain.Bill{}, domain.ErrInvalidAmount
	}
	customer, err := e.conf.Store.GetCustomer(ctx, e.conf.Store.DB(), customerID)
	if err != nil {
		return domain.Account{}, domain.Bill{}, err
	}

	loanAmount = domain.Cents(loanAmount)
	apr := e.drawAPR(mortgageTiers, customer.APRTier)
	payment := AmortizedMonthlyPayment(loanAmount, apr, termYears)
	now := e.conf.Clock()

	acc := domain.Account{
		ID:         xid.New().String(),
		CustomerID: customerID,
		Type:       domain.MortgageLoan,
		Balance:    loanAmount.Neg(),
		DateOpened: now,
		APR:        decimal.NewNullDecimal(apr),
	}
	bill := domain.Bill{
		ID:           xid.New().String(),
		CustomerID:   customerID,
		PayeeName:    "Mortgage Payment",
		Amount:       payment,
		DueDate:      now.AddDate(0, 0, 30),
		PaymentAccID: acc.ID,
		MinPayment:   payment,
		Status:       domain.BillPending,
		Recurring:    true,
	}

	err = e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := e.conf.Store.InsertAccount(ctx, tx, acc); err != nil {
			return err
		}
		if err := e.conf.Store.InsertTransaction(ctx, tx, domain.Transaction{
			ID:        uuid.New(),
			AccountID: acc.ID,
			Type:      domain.TxLoanOpened,
			Amount:    loanAmount,
			Date:      now,
		}); err != nil {
			return err
		}
		if err := e.conf.Store.InsertBill(ctx, tx, bill); err != nil {
			return err
		}
		return e.conf.Store.AppendAudit(ctx, tx, customerID, "mortgage opened",
			fmt.Sprintf("%s principal %s apr %s payment %s over %d years",
				acc.ID, loanAmount.StringFixed(2), apr.StringFixed(2), payment.StringFixed(2), termYears))
	})
	if err != nil {
		return domain.Account{}, domain.Bill{}, err
	}
	return acc, bill, nil
}

// DeleteAccount removes an account once its balance is exactly zero and no
// unresolved bills reference it.
func (e *Engine) DeleteAccount(ctx context.Context, customerID, accountID string) error {
	return e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
		acc, err := e.conf.Store.GetAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if acc.CustomerID != customerID {
			return domain.ErrNotFound
		}
		if !acc.Balance.IsZero() {
			return domain.ErrNonZeroBalance
		}
		open, err := e.conf.Store.CountBillsForAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.ErrHasActiveObligations
		}

		if err := e.conf.Store.DeleteAccount(ctx, tx, accountID); err != nil {
			return err
		}
		if err := e.conf.Store.InsertTransaction(ctx, tx, domain.Transaction{
			ID:        uuid.New(),
			AccountID: accountID,
			Type:      domain.TxAccountDeleted,
			Amount:    decimal.Zero,
			Date:      e.conf.Clock(),
		}); err != nil {
			return err
		}
		return e.conf.Store.AppendAudit(ctx, tx, customerID, "account deleted", accountID)
	})
}

// DeleteUser removes a customer. It refuses while any account carries a
// balance or any bill remains unresolved; emptied accounts are removed
// along with the customer record.
func (e *Engine) DeleteUser(ctx context.Context, customerID string) error {
	return e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := e.conf.Store.GetCustomer(ctx, tx, customerID); err != nil {
			return err
		}

		accounts, err := e.conf.Store.AccountsForCustomer(ctx, tx, customerID)
		if err != nil {
			return err
		}
		for _, acc := range accounts {
			if !acc.Balance.IsZero() {
				return domain.ErrHasActiveObligations
			}
		}
		open, err := e.conf.Store.CountBillsForCustomer(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.ErrHasActiveObligations
		}

		for _, acc := range accounts {
			if err := e.conf.Store.DeleteAccount(ctx, tx, acc.ID); err != nil {
				return err
			}
		}
		if err := e.conf.Store.DeleteCustomer(ctx, tx, customerID); err != nil {
			return err
		}
		return e.conf.Store.AppendAudit(ctx, tx, customerID, "customer deleted",
			fmt.Sprintf("%d account(s) removed", len(accounts)))
	})
}

// drawAPR picks a uniformly random APR within the tier's range, quantized
// to two places.
func (e *Engine) drawAPR(tiers map[int]aprRange, tier int) decimal.Decimal {
	r, ok := tiers[tier]
	if !ok {
		r = tiers[1]
	}
	apr := r.lo + e.conf.Rand.Float64()*(r.hi-r.lo)
	return decimal.NewFromFloat(apr).Round(2)
}

// AmortizedMonthlyPayment computes the fixed monthly installment
// P*r(1+r)^n / ((1+r)^n - 1) for principal P, monthly rate r and n
// monthly periods. A zero rate degenerates to straight division.
func AmortizedMonthlyPayment(principal, aprPercent decimal.Decimal, termYears int) decimal.Decimal {
	n := float64(termYears * 12)
	p, _ := principal.Float64()
	apr, _ := aprPercent.Float64()

	r := apr / 100 / 12
	if r == 0 {
		return domain.Cents(principal.Div(decimal.NewFromInt(int64(termYears * 12))))
	}

	growth := math.Pow(1+r, n)
	payment := p * r * growth / (growth - 1)
	return domain.Cents(decimal.NewFromFloat(payment))
}
