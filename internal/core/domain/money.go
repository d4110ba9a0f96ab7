package domain

import "github.com/shopspring/decimal"

// Every balance and bill amount in the system is kept to exactly two
// fractional digits. Intermediate interest math runs at full decimal
// precision and is quantized once, on the value that gets persisted.

// Cents quantizes d to two fractional digits, rounding half away from zero.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MonthlyRate converts an annual percentage rate (e.g. 19.75) into the
// periodic monthly rate used for interest accrual.
func MonthlyRate(apr decimal.Decimal) decimal.Decimal {
	return apr.Div(decimal.NewFromInt(1200))
}

// Money parses a fixed-2-decimal string as persisted in the store.
func Money(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return Cents(d), nil
}

// MustMoney is Money for literals in wiring and tests.
func MustMoney(s string) decimal.Decimal {
	return Cents(decimal.RequireFromString(s))
}
