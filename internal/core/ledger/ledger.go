// Package ledger implements the money-movement operations: withdraw,
// deposit and transfer. Each operation runs inside one store transaction
// so the balance change and its log entry land together or not at all.
package ledger

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

// Withdraw debits an asset account. Fails with ErrNotFound,
// ErrInvalidAccountType, ErrInvalidAmount or ErrInsufficientFunds; no
// partial state is left on failure.
func (e *Engine) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (domain.Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.Account{}, domain.ErrInvalidAmount
	}
	amount = domain.Cents(amount)

	var out domain.Account
	err := e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
		acc, err := e.conf.Store.GetAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if !acc.Type.IsAsset() {
			return domain.ErrInvalidAccountType
		}
		if amount.GreaterThan(acc.Balance) {
			return domain.ErrInsufficientFunds
		}

		acc.Balance = domain.Cents(acc.Balance.Sub(amount))
		if err := e.conf.Store.UpdateBalance(ctx, tx, acc.ID, acc.Balance); err != nil {
			return err
		}
		if err := e.log(ctx, tx, acc.ID, domain.TxWithdrawal, amount); err != nil {
			return err
		}
		out = acc
		return nil
	})
	return out, err
}

// Deposit credits a Checking or Savings account.
func (e *Engine) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (domain.Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.Account{}, domain.ErrInvalidAmount
	}
	amount = domain.Cents(amount)

	var out domain.Account
	err := e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
		acc, err := e.conf.Store.GetAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if acc.Type != domain.Checking && acc.Type != domain.Savings {
			return domain.ErrInvalidAccountType
		}

		acc.Balance = domain.Cents(acc.Balance.Add(amount))
		if err := e.conf.Store.UpdateBalance(ctx, tx, acc.ID, acc.Balance); err != nil {
			return err
		}
		if err := e.log(ctx, tx, acc.ID, domain.TxDeposit, amount); err != nil {
			return err
		}
		out = acc
		return nil
	})
	return out, err
}

// Transfer moves amount from src to dest. Both accounts are resolved and
// the amount validated before any state changes. The withdraw leg's error
// propagates untouched; if the deposit leg fails the withdrawal is
// refunded and ErrDepositFailed returned.
func (e *Engine) Transfer(ctx context.Context, srcID, destID string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	if _, err := e.conf.Store.GetAccount(ctx, e.conf.Store.DB(), srcID); err != nil {
		return err
	}
	if _, err := e.conf.Store.GetAccount(ctx, e.conf.Store.DB(), destID); err != nil {
		return err
	}

	if _, err := e.Withdraw(ctx, srcID, amount); err != nil {
		return err
	}
	if _, err := e.Deposit(ctx, destID, amount); err != nil {
		if refundErr := e.refund(ctx, srcID, amount); refundErr != nil {
			return fmt.Errorf("refund after failed deposit: %w", refundErr)
		}
		return domain.ErrDepositFailed
	}
	return nil
}

// Activity returns the account's most recent transactions.
func (e *Engine) Activity(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	if _, err := e.conf.Store.GetAccount(ctx, e.conf.Store.DB(), accountID); err != nil {
		return nil, err
	}
	return e.conf.Store.TransactionsForAccount(ctx, e.conf.Store.DB(), accountID, limit)
}

// refund restores a withdrawn amount. Unlike Deposit it accepts any asset
// account type, so money never strands when the dest rejects the deposit.
func (e *Engine) refund(ctx context.Context, accountID string, amount decimal.Decimal) error {
	return e.conf.Store.WithTx(ctx, func(tx *sql.Tx) error {
		acc, err := e.conf.Store.GetAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		acc.Balance = domain.Cents(acc.Balance.Add(amount))
		if err := e.conf.Store.UpdateBalance(ctx, tx, acc.ID, acc.Balance); err != nil {
			return err
		}
		return e.log(ctx, tx, acc.ID, domain.TxDeposit, amount)
	})
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
