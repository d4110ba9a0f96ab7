package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	Checking     AccountType = "Checking"
	Savings      AccountType = "Savings"
	MoneyMarket  AccountType = "Money Market"
	CreditCard   AccountType = "Credit Card"
	MortgageLoan AccountType = "Mortgage Loan"
)

// IsAsset reports whether the account holds customer funds, as opposed to
// a debt account whose balance is the amount owed (zero or negative).
func (t AccountType) IsAsset() bool {
	return t == Checking || t == Savings || t == MoneyMarket
}

type BillStatus string

const (
	BillPending BillStatus = "Pending"
	BillLate    BillStatus = "Late"
	BillPaid    BillStatus = "Paid"
	// BillOverLimit marks a card bill that has already triggered an
	// over-limit fee, so repeated daily passes do not issue the fee again.
	BillOverLimit BillStatus = "OverLimit"
)

// Transaction type labels as they appear in the transactions table.
const (
	TxWithdrawal     = "Withdrawal"
	TxDeposit        = "Deposit"
	TxBillPayment    = "Bill Payment"
	TxInterestEarned = "Interest Earned"
	TxInterestCharge = "Interest Charged"
	TxCardCharge     = "Credit Card Charge"
	TxAccountDeleted = "Account Deleted"
	TxLoanOpened     = "Loan Opened"
)

type Customer struct {
	ID        string
	Name      string
	APRTier   int // 1..4, drives credit card and mortgage APR ranges
	CreatedAt time.Time
}

type Account struct {
	ID          string
	CustomerID  string
	Type        AccountType
	Balance     decimal.Decimal
	DateOpened  time.Time
	CreditLimit decimal.NullDecimal // credit card only
	APR         decimal.NullDecimal // credit card and mortgage only
}

// Bill is a scheduled obligation. Amount and MinPayment are positive
// magnitudes; PaymentAccID is the account the obligation is charged
// against (the card itself for card bills, the loan for mortgage bills).
type Bill struct {
	ID           string
	CustomerID   string
	PayeeName    string
	PayeeAddress string
	Amount       decimal.Decimal
	DueDate      time.Time
	PaymentAccID string
	MinPayment   decimal.Decimal
	Status       BillStatus
	Recurring    bool
}

// Transaction is an append-only record of a balance-affecting event.
type Transaction struct {
	ID        uuid.UUID
	AccountID string
	Type      string
	Amount    decimal.Decimal
	Date      time.Time
}

type ArchivedBill struct {
	BillID     string
	CustomerID string
	PayeeName  string
	Amount     decimal.Decimal
	ClosedDate time.Time
}

type ArchivedLoan struct {
	AccountID      string
	CustomerID     string
	OriginalAmount decimal.Decimal
	DateOpened     time.Time
	ClosedDate     time.Time
}
