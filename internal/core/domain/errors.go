package domain

import "errors"

// Domain errors surfaced to callers as structured results. None of these
// are fatal: a failed operation leaves prior state unchanged, or fully
// compensated in the transfer case.
var (
	ErrNotFound             = errors.New("record not found")
	ErrInvalidAccountType   = errors.New("operation not permitted for this account type")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInvalidDeposit       = errors.New("initial deposit cannot be negative")
	ErrOverLimit            = errors.New("payment would exceed credit limit")
	ErrNonZeroBalance       = errors.New("account balance must be zero")
	ErrHasActiveObligations = errors.New("user has active accounts or bills")
	ErrDepositFailed        = errors.New("deposit leg failed, withdrawal refunded")
	ErrMalformedStore       = errors.New("store record is malformed")
)
