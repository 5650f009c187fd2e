package ledger

import (
	"errors"
	"strings"

	"github.com/govalues/money"
)

var (
	// ErrAmountPrecision is returned for amounts finer than the currency's minor unit.
	ErrAmountPrecision = errors.New("amount has more decimal places than the currency allows")
	// ErrAmountRange is returned for amounts that do not fit in int64 minor units.
	ErrAmountRange = errors.New("amount out of range")
)

// ZeroAmount returns 0 in curr.
func ZeroAmount(curr string) (money.Amount, error) {
	return money.NewAmountFromMinorUnits(curr, 0)
}

// ParseAmount parses a decimal string such as "150.25" in curr. The result is
// exact; amounts that cannot be stored as whole minor units are rejected.
func ParseAmount(curr, s string) (money.Amount, error) {
	a, err := money.ParseAmount(curr, strings.TrimSpace(s))
	if err != nil {
		return money.Amount{}, err
	}
	if _, err := MinorUnits(a); err != nil {
		return money.Amount{}, err
	}
	return a, nil
}

// MustParseAmount is ParseAmount for literals in tests and seeds.
func MustParseAmount(curr, s string) money.Amount {
	a, err := ParseAmount(curr, s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromMinorUnits rebuilds an amount from its stored minor units.
func AmountFromMinorUnits(curr string, minor int64) (money.Amount, error) {
	return money.NewAmountFromMinorUnits(curr, minor)
}

// MinorUnits returns a as whole minor units (cents for USD). It fails instead of
// rounding when a carries sub-minor precision.
func MinorUnits(a money.Amount) (int64, error) {
	m, ok := a.MinorUnits()
	if !ok {
		return 0, ErrAmountRange
	}
	back, err := money.NewAmountFromMinorUnits(a.Curr().Code(), m)
	if err != nil {
		return 0, err
	}
	c, err := back.Cmp(a)
	if err != nil {
		return 0, err
	}
	if c != 0 {
		return 0, ErrAmountPrecision
	}
	return m, nil
}

// FormatAmount renders a as a plain decimal string without the currency code.
func FormatAmount(a money.Amount) string { return a.Decimal().String() }

// EqualAmounts reports whether a and b are the same value in the same currency.
func EqualAmounts(a, b money.Amount) bool {
	c, err := a.Cmp(b)
	return err == nil && c == 0
}
