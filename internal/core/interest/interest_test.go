package interest

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
	return time.Date(2025, 7, 1, 0, 5, 0, 0, time.UTC)
}

func setupTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestEngine(t *testing.T) (*Engine, *storage.Store) {
	t.Helper()
	store := setupTestStore(t)
	eng, err := New(Config{Store: store, Clock: testClock})
	require.NoError(t, err)
	return eng, store
}

func seedCustomer(t *testing.T, store *storage.Store) string {
	t.Helper()
	id := xid.New().String()
	require.NoError(t, store.InsertCustomer(context.Background(), store.DB(), domain.Customer{
		ID: id, Name: "Test Customer", APRTier: 1, CreatedAt: testClock(),
	}))
	return id
}

func seedAccount(t *testing.T, store *storage.Store, customerID string, accType domain.AccountType, balance, apr string) domain.Account {
	t.Helper()
	acc := domain.Account{
		ID:         xid.New().String(),
		CustomerID: customerID,
		Type:       accType,
		Balance:    domain.MustMoney(balance),
		DateOpened: testClock(),
	}
	if apr != "" {
		acc.APR = decimal.NewNullDecimal(decimal.RequireFromString(apr))
	}
	if accType == domain.CreditCard {
		acc.CreditLimit = decimal.NewNullDecimal(domain.MustMoney("5000.00"))
	}
	require.NoError(t, store.InsertAccount(context.Background(), store.DB(), acc))
	return acc
}

func seedBill(t *testing.T, store *storage.Store, customerID, accountID, amount string, status domain.BillStatus) domain.Bill {
	t.Helper()
	bill := domain.Bill{
		ID:           xid.New().String(),
		CustomerID:   customerID,
		PayeeName:    "Utility Co",
		Amount:       domain.MustMoney(amount),
		DueDate:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		PaymentAccID: accountID,
		MinPayment:   domain.MustMoney("25.00"),
		Status:       status,
	}
	require.NoError(t, store.InsertBill(context.Background(), store.DB(), bill))
	return bill
}

func TestRunCompounding(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)
	customerID := seedCustomer(t, store)

	savings := seedAccount(t, store, customerID, domain.Savings, "1000.00", "4.0")
	moneyMkt := seedAccount(t, store, customerID, domain.MoneyMarket, "1000.00", "3.0")

	outcomes, err := eng.RunCompounding(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.Equal(t, "success", o.Status)
	}

	// 1000.00 * (1 + 0.04/12) quantized to cents
	savingsAfter, err := store.GetAccount(ctx, store.DB(), savings.ID)
	require.NoError(t, err)
	assert.Equal(t, "1003.33", savingsAfter.Balance.StringFixed(2))

	// 1000.00 * (1 + 0.03/12)
	mmAfter, err := store.GetAccount(ctx, store.DB(), moneyMkt.ID)
	require.NoError(t, err)
	assert.Equal(t, "1002.50", mmAfter.Balance.StringFixed(2))

	for _, id := range []string{savings.ID, moneyMkt.ID} {
		n, err := store.CountTransactions(ctx, store.DB(), id)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}
}

func TestRunCompounding_RunsWithoutActivity(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)
	customerID := seedCustomer(t, store)
	savings := seedAccount(t, store, customerID, domain.Savings, "0.00", "4.0")

	outcomes, err := eng.RunCompounding(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	after, err := store.GetAccount(ctx, store.DB(), savings.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", after.Balance.StringFixed(2))
}

func TestRunPenalty_CreditCard(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)
	customerID := seedCustomer(t, store)

	// APR 24.0 -> monthly rate 0.02
	card := seedAccount(t, store, customerID, domain.CreditCard, "-500.00", "24.0")
	bill := seedBill(t, store, customerID, card.ID, "100.00", domain.BillLate)

	outcomes, err := eng.RunPenalty(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "success", outcomes[0].Status)

	// per-bill interest 100.00 * 0.02 = 2.00
	billAfter, err := store.GetBill(ctx, store.DB(), bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "102.00", billAfter.Amount.StringFixed(2))
	assert.Equal(t, "3.06", billAfter.MinPayment.StringFixed(2)) // 3% of 102.00
	assert.Equal(t, domain.BillPending, billAfter.Status)
	assert.Equal(t, bill.DueDate.AddDate(0, 0, 30), billAfter.DueDate)

	cardAfter, err := store.GetAccount(ctx, store.DB(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, "-502.00", cardAfter.Balance.StringFixed(2))

	n, err := store.CountTransactions(ctx, store.DB(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunPenalty_Mortgage(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)
	customerID := seedCustomer(t, store)

	// APR 6.0 -> monthly rate 0.005, charged once on the full balance
	loan := seedAccount(t, store, customerID, domain.MortgageLoan, "-200000.00", "6.0")
	bill := seedBill(t, store, customerID, loan.ID, "1199.10", domain.BillLate)

	outcomes, err := eng.RunPenalty(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "success", outcomes[0].Status)

	loanAfter, err := store.GetAccount(ctx, store.DB(), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "-201000.00", loanAfter.Balance.StringFixed(2))

	// the bill rolls forward untouched
	billAfter, err := store.GetBill(ctx, store.DB(), bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "1199.10", billAfter.Amount.StringFixed(2))
	assert.Equal(t, domain.BillPending, billAfter.Status)
	assert.Equal(t, bill.DueDate.AddDate(0, 0, 30), billAfter.DueDate)
}

func TestRunPenalty_SkipsQuietAccounts(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)
	customerID := seedCustomer(t, store)

	// debt but no late bills
	card := seedAccount(t, store, customerID, domain.CreditCard, "-500.00", "24.0")
	seedBill(t, store, customerID, card.ID, "100.00", domain.BillPending)

	// late bill but no debt
	paidOff := seedAccount(t, store, customerID, domain.CreditCard, "0.00", "24.0")
	seedBill(t, store, customerID, paidOff.ID, "100.00", domain.BillLate)

	// applying the policy twice produces no balance change and no log
	// entry on either pass
	for i := 0; i < 2; i++ {
		outcomes, err := eng.RunPenalty(ctx)
		require.NoError(t, err)
		assert.Empty(t, outcomes)
	}

	for _, id := range []string{card.ID, paidOff.ID} {
		after, err := store.GetAccount(ctx, store.DB(), id)
		require.NoError(t, err)
		n, err := store.CountTransactions(ctx, store.DB(), id)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		if id == card.ID {
			assert.Equal(t, "-500.00", after.Balance.StringFixed(2))
		} else {
			assert.Equal(t, "0.00", after.Balance.StringFixed(2))
		}
	}
}
