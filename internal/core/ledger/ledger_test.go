package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/adapter/storage"
	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
)

var testClock = func() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func setupTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedCustomer(t *testing.T, store *storage.Store) string {
	t.Helper()
	id := xid.New().String()
	require.NoError(t, store.InsertCustomer(context.Background(), store.DB(), domain.Customer{
		ID: id, Name: "Test Customer", APRTier: 1, CreatedAt: testClock(),
	}))
	return id
}

func seedAccount(t *testing.T, store *storage.Store, customerID string, accType domain.AccountType, balance string) domain.Account {
	t.Helper()
	acc := domain.Account{
		ID:         xid.New().String(),
		CustomerID: customerID,
		Type:       accType,
		Balance:    domain.MustMoney(balance),
		DateOpened: testClock(),
	}
	require.NoError(t, store.InsertAccount(context.Background(), store.DB(), acc))
	return acc
}

func newTestEngine(t *testing.T) (*Engine, *storage.Store) {
	t.Helper()
	store := setupTestStore(t)
	eng, err := New(Config{Store: store, Clock: testClock})
	require.NoError(t, err)
	return eng, store
}

func TestNew(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		store := setupTestStore(t)
		eng, err := New(Config{Store: store, Clock: testClock})
		assert.NotEmpty(t, eng)
		assert.NoError(t, err)
	})

	t.Run("invalid_config", func(t *testing.T) {
		eng, err := New(Config{Clock: testClock})
		assert.Empty(t, eng)
		assert.Error(t, err)
	})
}

func TestDepositAndWithdraw(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)
	customerID := seedCustomer(t, store)
	acc := seedAccount(t, store, customerID, domain.Checking, "0.00")

	t.Run("deposit", func(t *testing.T) {
		out, err := eng.Deposit(ctx, acc.ID, domain.MustMoney("100.00"))
		require.NoError(t, err)
		assert.Equal(t, "100.00", out.Balance.StringFixed(2))

		n, err := store.CountTransactions(ctx, store.DB(), acc.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("overdraw_rejected", func(t *testing.T) {
		_, err := eng.Withdraw(ctx, acc.ID, domain.MustMoney("150.00"))
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		stored, err := store.GetAccount(ctx, store.DB(), acc.ID)
		require.NoError(t, err)
		assert.Equal(t, "100.00", stored.Balance.StringFixed(2))

		// the failed withdrawal left no transaction behind
		n, err := store.CountTransactions(ctx, store.DB(), acc.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("withdraw", func(t *testing.T) {
		out, err := eng.Withdraw(ctx, acc.ID, domain.MustMoney("40.25"))
		require.NoError(t, err)
		assert.Equal(t, "59.75", out.Balance.StringFixed(2))
	})
}

func TestDeposit_Errors(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)
	customerID := seedCustomer(t, store)

	t.Run("account_not_found", func(t *testing.T) {
		_, err := eng.Deposit(ctx, "missing", domain.MustMoney("10.00"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("money_market_rejected", func(t *testing.T) {
		mm := seedAccount(t, store, customerID, domain.MoneyMarket, "50.00")
		_, err := eng.Deposit(ctx, mm.ID, domain.MustMoney("10.00"))
		assert.ErrorIs(t, err, domain.ErrInvalidAccountType)
	})

	t.Run("non_positive_amount", func(t *testing.T) {
		checking := seedAccount(t, store, customerID, domain.Checking, "50.00")
		_, err := eng.Deposit(ctx, checking.ID, decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestWithdraw_Errors(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)
	customerID := seedCustomer(t, store)

	t.Run("debt_account_rejected", func(t *testing.T) {
		card := seedAccount(t, store, customerID, domain.CreditCard, "0.00")
		_, err := eng.Withdraw(ctx, card.ID, domain.MustMoney("10.00"))
		assert.ErrorIs(t, err, domain.ErrInvalidAccountType)
	})

	t.Run("account_not_found", func(t *testing.T) {
		_, err := eng.Withdraw(ctx, "missing", domain.MustMoney("10.00"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("conserves_total_balance", func(t *testing.T) {
		eng, store := newTestEngine(t)
		customerID := seedCustomer(t, store)
		src := seedAccount(t, store, customerID, domain.Checking, "200.00")
		dest := seedAccount(t, store, customerID, domain.Savings, "50.00")

		require.NoError(t, eng.Transfer(ctx, src.ID, dest.ID, domain.MustMoney("75.50")))

		srcAfter, err := store.GetAccount(ctx, store.DB(), src.ID)
		require.NoError(t, err)
		destAfter, err := store.GetAccount(ctx, store.DB(), dest.ID)
		require.NoError(t, err)

		assert.Equal(t, "124.50", srcAfter.Balance.StringFixed(2))
		assert.Equal(t, "125.50", destAfter.Balance.StringFixed(2))
		assert.Equal(t, "250.00", srcAfter.Balance.Add(destAfter.Balance).StringFixed(2))
	})

	t.Run("refunds_source_when_deposit_leg_fails", func(t *testing.T) {
		eng, store := newTestEngine(t)
		customerID := seedCustomer(t, store)
		src := seedAccount(t, store, customerID, domain.Checking, "200.00")
		// deposits into money market accounts are not permitted, so the
		// second leg fails after the withdrawal succeeded
		dest := seedAccount(t, store, customerID, domain.MoneyMarket, "50.00")

		err := eng.Transfer(ctx, src.ID, dest.ID, domain.MustMoney("75.50"))
		assert.ErrorIs(t, err, domain.ErrDepositFailed)

		srcAfter, err := store.GetAccount(ctx, store.DB(), src.ID)
		require.NoError(t, err)
		destAfter, err := store.GetAccount(ctx, store.DB(), dest.ID)
		require.NoError(t, err)
		assert.Equal(t, "200.00", srcAfter.Balance.StringFixed(2))
		assert.Equal(t, "50.00", destAfter.Balance.StringFixed(2))
	})

	t.Run("insufficient_funds_propagates_untouched", func(t *testing.T) {
		eng, store := newTestEngine(t)
		customerID := seedCustomer(t, store)
		src := seedAccount(t, store, customerID, domain.Checking, "10.00")
		dest := seedAccount(t, store, customerID, domain.Savings, "0.00")

		err := eng.Transfer(ctx, src.ID, dest.ID, domain.MustMoney("75.50"))
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})

	t.Run("validates_before_touching_state", func(t *testing.T) {
		eng, store := newTestEngine(t)
		customerID := seedCustomer(t, store)
		src := seedAccount(t, store, customerID, domain.Checking, "100.00")

		assert.ErrorIs(t, eng.Transfer(ctx, src.ID, "missing", domain.MustMoney("10.00")), domain.ErrNotFound)
		assert.ErrorIs(t, eng.Transfer(ctx, "missing", src.ID, domain.MustMoney("10.00")), domain.ErrNotFound)
		assert.ErrorIs(t, eng.Transfer(ctx, src.ID, src.ID, decimal.Zero), domain.ErrInvalidAmount)

		srcAfter, err := store.GetAccount(ctx, store.DB(), src.ID)
		require.NoError(t, err)
		assert.Equal(t, "100.00", srcAfter.Balance.StringFixed(2))
	})
}

func TestBalancesStayQuantized(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)
	customerID := seedCustomer(t, store)
	acc := seedAccount(t, store, customerID, domain.Checking, "0.00")

	// sub-cent input is quantized on the way in, half away from zero
	out, err := eng.Deposit(ctx, acc.ID, decimal.RequireFromString("10.005"))
	require.NoError(t, err)
	assert.Equal(t, "10.01", out.Balance.StringFixed(2))

	stored, err := store.GetAccount(ctx, store.DB(), acc.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(out.Balance))
	assert.True(t, stored.Balance.Exponent() >= -2)
}

func TestActivity(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)
	customerID := seedCustomer(t, store)
	acc := seedAccount(t, store, customerID, domain.Checking, "0.00")

	_, err := eng.Deposit(ctx, acc.ID, domain.MustMoney("10.00"))
	require.NoError(t, err)
	_, err = eng.Withdraw(ctx, acc.ID, domain.MustMoney("5.00"))
	require.NoError(t, err)

	history, err := eng.Activity(ctx, acc.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	types := []string{history[0].Type, history[1].Type}
	assert.ElementsMatch(t, []string{domain.TxDeposit, domain.TxWithdrawal}, types)

	_, err = eng.Activity(ctx, "missing", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
