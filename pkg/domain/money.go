package domain

import (
	"math"

	"github.com/shopspring/decimal"

	dErrors "claimtrail/pkg/domain-errors"
)

var (
	// maxMoney caps cost magnitudes; anything above it is a data error,
	// not a real claim cost.
	maxMoney = decimal.New(1, 12) // 10^12

	// moneyEpsilon is half a cent: two amounts closer than this are the
	// same amount for equality purposes.
	moneyEpsilon = decimal.New(5, -3) // 0.005

	oneHundred = decimal.New(1, 2)
)

// Money is a normalized non-negative monetary amount, rounded to two
// decimal places at construction. The zero value is 0.00.
type Money struct {
	value decimal.Decimal
}

// ParseMoney normalizes and validates an amount given as a string.
func ParseMoney(raw string) (Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, dErrors.Wrap(err, dErrors.CodeInvalidAmount, "amount is not a valid decimal")
	}
	return newMoney(d)
}

// MoneyFromFloat normalizes and validates an amount given as a float64.
// Non-finite input is rejected before it can reach decimal conversion.
func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, dErrors.New(dErrors.CodeInvalidAmount, "amount must be finite")
	}
	return newMoney(decimal.NewFromFloat(f))
}

func newMoney(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, dErrors.New(dErrors.CodeInvalidAmount, "amount must not be negative")
	}
	if d.GreaterThan(maxMoney) {
		return Money{}, dErrors.Newf(dErrors.CodeInvalidAmount, "amount exceeds maximum magnitude %s", maxMoney)
	}
	return Money{value: d.Round(2)}, nil
}

// Decimal returns the underlying two-decimal value.
func (m Money) Decimal() decimal.Decimal { return m.value }

// Float64 returns the amount as a float64 for display and wire payloads.
func (m Money) Float64() float64 {
	f, _ := m.value.Float64()
	return f
}

// String renders the amount with two decimal places.
func (m Money) String() string { return m.value.StringFixed(2) }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.value.IsZero() }

// Equals reports whether two amounts differ by less than half a cent.
func (m Money) Equals(o Money) bool {
	return m.value.Sub(o.value).Abs().LessThanOrEqual(moneyEpsilon)
}

// Cmp compares two amounts: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int { return m.value.Cmp(o.value) }

// GreaterThan reports whether m is strictly greater than o.
func (m Money) GreaterThan(o Money) bool { return m.value.GreaterThan(o.value) }

// AbsDiff returns |m - o|. Both operands are already rounded, so the
// difference is exact at two decimals.
func (m Money) AbsDiff(o Money) decimal.Decimal {
	return m.value.Sub(o.value).Abs()
}

// VariancePercent computes the percentage variance between two amounts:
// |a-b| / max(a,b) * 100, and 0 when both amounts are zero.
func (m Money) VariancePercent(o Money) decimal.Decimal {
	larger := m.value
	if o.value.GreaterThan(larger) {
		larger = o.value
	}
	if larger.IsZero() {
		return decimal.Zero
	}
	return m.value.Sub(o.value).Abs().Div(larger).Mul(oneHundred)
}
