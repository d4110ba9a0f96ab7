// Package interest implements the two accrual policies: unconditional
// monthly compounding for savings and money market accounts, and
// late-bill-driven penalty interest for credit cards and mortgage loans.
package interest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	validator "github.com/avrebarra/minivalidator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/adapter/storage"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
)

// Fixed annual yields for the compounding policy.
var (
	SavingsAPY     = decimal.RequireFromString("4.0")
	MoneyMarketAPY = decimal.RequireFromString("3.0")

	one            = decimal.NewFromInt(1)
	minPaymentRate = decimal.RequireFromString("0.03")
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

// RunCompounding multiplies every savings and money market balance by
// (1 + APY/12), quantized to cents. It runs whether or not the account had
// any activity. One outcome per account; a single failure never aborts the
// pass.
func (e *Engine) RunCompounding(ctx context.Context) ([]domain.Outcome, error) {
	accounts, err := e.conf.Store.ListAccountsByType(ctx, e.conf.Store.DB(),
		domain.Savings, domain.MoneyMarket)
	if err != nil {
		return nil, err
	}

	var outcomes []domain.Outcome
	for _, acc := range accounts {
		apy := SavingsAPY
		if acc.Type == domain.MoneyMarket {
			apy = MoneyMarketAPY
		}

		factor := one.Add(domain.MonthlyRate(apy))
		newBalance := domain.Cents(acc.Balance.Mul(factor))
		earned := newBalance.Sub(acc.Balance)

		err := e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
			if err := e.conf.Store.UpdateBalance(ctx, tx, acc.ID, newBalance); err != nil {
				return err
			}
			return e.conf.Store.InsertTransaction(ctx, tx, domain.Transaction{
				ID:        uuid.New(),
				AccountID: acc.ID,
				Type:      domain.TxInterestEarned,
				Amount:    earned,
				Date:      e.conf.Clock(),
			})
		})
		if err != nil {
			outcomes = append(outcomes, domain.ErrorOutcome(acc.ID, err))
			continue
		}
		outcomes = append(outcomes, domain.SuccessOutcome(acc.ID,
			fmt.Sprintf("interest earned %s, balance %s", earned.StringFixed(2), newBalance.StringFixed(2))))
	}
	return outcomes, nil
}

// RunPenalty applies penalty interest to credit card and mortgage loan
// accounts that carry debt and have at least one Late bill. Accounts with
// a zero or positive balance, or with no Late bills, are skipped entirely:
// no balance change, no log entry.
func (e *Engine) RunPenalty(ctx context.Context) ([]domain.Outcome, error) {
	accounts, err := e.conf.Store.ListAccountsByType(ctx, e.conf.Store.DB(),
		domain.CreditCard, domain.MortgageLoan)
	if err != nil {
		return nil, err
	}

	var outcomes []domain.Outcome
	for _, acc := range accounts {
		if acc.Balance.GreaterThanOrEqual(decimal.Zero) {
			continue
		}

		lateBills, err := e.conf.Store.LateBillsForAccount(ctx, e.conf.Store.DB(), acc.ID)
		if err != nil {
			outcomes = append(outcomes, domain.ErrorOutcome(acc.ID, err))
			continue
		}
		if len(lateBills) == 0 {
			continue
		}
		if !acc.APR.Valid {
			outcomes = append(outcomes, domain.ErrorOutcome(acc.ID,
				fmt.Errorf("account missing apr: %w", domain.ErrMalformedStore)))
			continue
		}

		rate := domain.MonthlyRate(acc.APR.Decimal)

		var charged decimal.Decimal
		err = e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
			switch acc.Type {
			case domain.MortgageLoan:
				charged, err = e.penalizeMortgage(ctx, tx, acc, rate, lateBills)
			default:
				charged, err = e.penalizeCard(ctx, tx, acc, rate, lateBills)
			}
			if err != nil {
				return err
			}
			return e.conf.Store.InsertTransaction(ctx, tx, domain.Transaction{
				ID:        uuid.New(),
				AccountID: acc.ID,
				Type:      domain.TxInterestCharge,
				Amount:    charged,
				Date:      e.conf.Clock(),
			})
		})
		if err != nil {
			outcomes = append(outcomes, domain.ErrorOutcome(acc.ID, err))
			continue
		}
		outcomes = append(outcomes, domain.SuccessOutcome(acc.ID,
			fmt.Sprintf("interest charged %s on %d late bill(s)", charged.StringFixed(2), len(lateBills))))
	}
	return outcomes, nil
}

// penalizeMortgage charges interest once on the full loan balance. The
// late bills roll forward to Pending with due dates pushed 30 days out;
// their amounts are untouched.
func (e *Engine) penalizeMortgage(ctx context.Context, tx *sql.Tx, acc domain.Account, rate decimal.Decimal, lateBills []domain.Bill) (decimal.Decimal, error) {
	interest := domain.Cents(acc.Balance.Abs().Mul(rate))
	newBalance := domain.Cents(acc.Balance.Sub(interest))
	if err := e.conf.Store.UpdateBalance(ctx, tx, acc.ID, newBalance); err != nil {
		return decimal.Zero, err
	}

	for _, bill := range lateBills {
		bill.Status = domain.BillPending
		bill.DueDate = bill.DueDate.AddDate(0, 0, 30)
		if err := e.conf.Store.UpdateBill(ctx, tx, bill); err != nil {
			return decimal.Zero, err
		}
	}
	return interest, nil
}

// penalizeCard charges interest per late bill, proportional to that bill's
// own amount. Each bill grows by its interest, its minimum payment resets
// to 3% of the new amount, and the account is debited by the sum.
func (e *Engine) penalizeCard(ctx context.Context, tx *sql.Tx, acc domain.Account, rate decimal.Decimal, lateBills []domain.Bill) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, bill := range lateBills {
		interest := domain.Cents(bill.Amount.Mul(rate))
		bill.Amount = domain.Cents(bill.Amount.Add(interest))
		bill.MinPayment = domain.Cents(bill.Amount.Mul(minPaymentRate))
		bill.Status = domain.BillPending
		bill.DueDate = bill.DueDate.AddDate(0, 0, 30)
		if err := e.conf.Store.UpdateBill(ctx, tx, bill); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(interest)
	}

	newBalance := domain.Cents(acc.Balance.Sub(total))
	if err := e.conf.Store.UpdateBalance(ctx, tx, acc.ID, newBalance); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
