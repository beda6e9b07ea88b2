package ledger

import "github.com/govalues/decimal"

// Tolerance is the accepted rounding slack when comparing debit and credit
// totals of a single entry.
var Tolerance = decimal.MustNew(1, 2) // 0.01

// Add returns a+b. Overflow cannot occur at bookkeeping magnitudes; on the
// theoretical overflow the left operand is returned unchanged.
func Add(a, b decimal.Decimal) decimal.Decimal {
	v, err := a.Add(b)
	if err != nil {
		return a
	}
	return v
}

// Sub returns a-b with the same overflow stance as Add.
func Sub(a, b decimal.Decimal) decimal.Decimal {
	v, err := a.Sub(b)
	if err != nil {
		return a
	}
	return v
}

// WithinTolerance reports whether |a-b| <= Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return Sub(a, b).Abs().Cmp(Tolerance) <= 0
}
