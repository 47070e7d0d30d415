// Package decimal implements the fixed-point decimal value used by the series
// evaluator. A Value keeps a fixed number of fractional digits (its precision
// budget) and an absolute bound on the rounding error accumulated by the
// operations that produced it.
package decimal

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"gopkg.in/inf.v0"
)

// MaxPrecision is the largest precision budget, in fractional digits, a Value
// may carry.
const MaxPrecision = 1 << 22

// boundDigits is the number of extra digits kept when rounding an error bound
// up, so that bounds stay tight relative to half a unit in the last place.
const boundDigits = 4

// maxPow16Step is the largest e for which 16^e fits in an int64 divisor.
const maxPow16Step = 15

var (
	// ErrDivisionByZero is returned when dividing by an exact zero.
	ErrDivisionByZero = errors.New("decimal: division by zero")

	// ErrPrecisionExhausted is returned when a result cannot be kept within
	// its error budget: the divisor is indistinguishable from zero, or the
	// requested precision exceeds MaxPrecision.
	ErrPrecisionExhausted = errors.New("decimal: precision exhausted")
)

var (
	zeroDec = new(inf.Dec)

	// pow16[e] holds 16^e for 1 <= e <= maxPow16Step.
	pow16 = func() [maxPow16Step + 1]*big.Int {
		var p [maxPow16Step + 1]*big.Int
		for e := 1; e <= maxPow16Step; e++ {
			p[e] = big.NewInt(int64(1) << (4 * e))
		}
		return p
	}()
)

// Value is an immutable signed decimal with a fixed number of fractional
// digits. The zero Value is an exact 0 with a precision budget of 0.
//
// Operations never modify their operands; each returns a new Value whose
// budget is the larger of its operands' budgets.
type Value struct {
	d     *inf.Dec // scale always equals prec
	prec  int
	bound *inf.Dec // absolute error bound, nil when exact
}

// CheckPrecision reports whether prec is a usable precision budget.
func CheckPrecision(prec int) error {
	if prec < 0 {
		return fmt.Errorf("decimal: negative precision %d", prec)
	}
	if prec > MaxPrecision {
		return fmt.Errorf("decimal: precision %d exceeds %d digits: %w", prec, MaxPrecision, ErrPrecisionExhausted)
	}
	return nil
}

func mustPrecision(prec int) {
	if err := CheckPrecision(prec); err != nil {
		panic(err)
	}
}

// Zero returns an exact zero carrying prec fractional digits.
func Zero(prec int) Value {
	mustPrecision(prec)
	return Value{d: new(inf.Dec).SetScale(inf.Scale(prec)), prec: prec}
}

// NewFromInt returns the exact value n with a budget of prec fractional
// digits. It panics if prec is not a valid budget.
func NewFromInt(n int64, prec int) Value {
	mustPrecision(prec)
	return Value{d: rescale(inf.NewDec(n, 0), prec), prec: prec}
}

// NewFromUint64 is like NewFromInt for unsigned values.
func NewFromUint64(n uint64, prec int) Value {
	mustPrecision(prec)
	u := new(big.Int).SetUint64(n)
	return Value{d: rescale(inf.NewDecBig(u, 0), prec), prec: prec}
}

// Parse reads a plain decimal string such as "-3.1415" and rounds it half
// away from zero to prec fractional digits. Digits dropped by the rounding are
// recorded in the error bound.
func Parse(s string, prec int) (Value, error) {
	if err := CheckPrecision(prec); err != nil {
		return Value{}, err
	}
	d, ok := new(inf.Dec).SetString(strings.TrimSpace(s))
	if !ok {
		return Value{}, fmt.Errorf("decimal: invalid digit string %q", s)
	}
	r := rescale(d, prec)
	v := Value{d: r, prec: prec}
	if diff := new(inf.Dec).Sub(r, d); diff.Sign() != 0 {
		v.bound = diff.Abs(diff)
	}
	return v, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string, prec int) Value {
	v, err := Parse(s, prec)
	if err != nil {
		panic(err)
	}
	return v
}

func (x Value) dec() *inf.Dec {
	if x.d == nil {
		return zeroDec
	}
	return x.d
}

// Precision returns the number of fractional digits x retains.
func (x Value) Precision() int { return x.prec }

// Sign returns -1, 0 or +1 depending on the sign of x.
func (x Value) Sign() int { return x.dec().Sign() }

// IsZero reports whether x is zero.
func (x Value) IsZero() bool { return x.Sign() == 0 }

// Cmp compares the stored values of x and y, ignoring error bounds.
func (x Value) Cmp(y Value) int { return x.dec().Cmp(y.dec()) }

// Exact reports whether no rounding has affected x.
func (x Value) Exact() bool { return x.bound == nil }

// ExactTo reports whether x is guaranteed correct to k fractional digits,
// that is whether its error bound is at most half a unit of the k-th digit.
func (x Value) ExactTo(k int) bool {
	if x.bound == nil {
		return true
	}
	return x.bound.Cmp(halfUnit(k)) <= 0
}

// ErrorBound returns the absolute error bound of x as a decimal string.
func (x Value) ErrorBound() string {
	if x.bound == nil {
		return "0"
	}
	return x.bound.String()
}

// Neg returns -x.
func (x Value) Neg() Value {
	return Value{d: new(inf.Dec).Neg(x.dec()), prec: x.prec, bound: x.bound}
}

// Abs returns |x|.
func (x Value) Abs() Value {
	return Value{d: new(inf.Dec).Abs(x.dec()), prec: x.prec, bound: x.bound}
}

// Add returns x + y. Both operands are aligned on the larger budget, so the
// sum itself is exact.
func (x Value) Add(y Value) Value {
	return Value{
		d:     new(inf.Dec).Add(x.aligned(y.prec), y.aligned(x.prec)),
		prec:  max(x.prec, y.prec),
		bound: addBounds(x.bound, y.bound),
	}
}

// Sub returns x - y.
func (x Value) Sub(y Value) Value {
	return Value{
		d:     new(inf.Dec).Sub(x.aligned(y.prec), y.aligned(x.prec)),
		prec:  max(x.prec, y.prec),
		bound: addBounds(x.bound, y.bound),
	}
}

// MulInt returns x × k. The product is exact; the error bound grows by |k|.
func (x Value) MulInt(k int64) Value {
	z := Value{d: new(inf.Dec).Mul(x.dec(), inf.NewDec(k, 0)), prec: x.prec}
	if x.bound != nil && k != 0 {
		absK := new(big.Int).Abs(big.NewInt(k))
		z.bound = new(inf.Dec).Mul(x.bound, inf.NewDecBig(absK, 0))
	}
	return z
}

// Div returns x / y rounded half away from zero to the larger of the two
// budgets. It fails with ErrDivisionByZero when y is zero and with
// ErrPrecisionExhausted when y's error bound is not smaller than |y|.
func (x Value) Div(y Value) (Value, error) {
	if y.IsZero() {
		return Value{}, ErrDivisionByZero
	}
	prec := max(x.prec, y.prec)
	q := new(inf.Dec).QuoRound(x.dec(), y.dec(), inf.Scale(prec), inf.RoundHalfUp)

	bound, err := quoBound(x, y, q, prec)
	if err != nil {
		return Value{}, err
	}
	if new(inf.Dec).Mul(q, y.dec()).Cmp(x.dec()) != 0 {
		bound = addBounds(bound, halfUnit(prec))
	}
	return Value{d: q, prec: prec, bound: bound}, nil
}

// DivInt returns x / k for a small integer k.
func (x Value) DivInt(k int64) (Value, error) {
	return x.Div(NewFromInt(k, 0))
}

// ScalePow16 returns x / 16^exp correctly rounded half away from zero. The
// power is never built: the digits of x are divided repeatedly by at most
// 16^15, and the loop ends as soon as the quotient reaches zero.
//
// Nested floor divisions give the floor of the full quotient, so dividing
// 2|x| instead of |x| leaves one extra bit that decides the rounding.
func (x Value) ScalePow16(exp uint64) Value {
	if exp == 0 {
		return x
	}

	q := new(big.Int).Abs(x.dec().UnscaledBig())
	q.Lsh(q, 1)
	r := new(big.Int)
	inexact := false
	for e := exp; e > 0 && q.Sign() != 0; {
		step := min(e, maxPow16Step)
		q.QuoRem(q, pow16[step], r)
		inexact = inexact || r.Sign() != 0
		e -= step
	}
	inexact = inexact || q.Bit(0) == 1
	q.Add(q, big.NewInt(1))
	q.Rsh(q, 1)
	if x.Sign() < 0 {
		q.Neg(q)
	}

	z := Value{d: inf.NewDecBig(q, inf.Scale(x.prec)), prec: x.prec}
	if x.bound != nil {
		z.bound = scaleBound(x.bound, exp, x.prec)
	}
	if inexact {
		z.bound = addBounds(z.bound, halfUnit(x.prec))
	}
	return z
}

// scaleBound returns b / 16^exp rounded up to prec+boundDigits digits. Once
// it reaches one unit of that scale further division cannot lower it.
func scaleBound(b *inf.Dec, exp uint64, prec int) *inf.Dec {
	s := inf.Scale(prec + boundDigits)
	unit := inf.NewDec(1, s)
	z := new(inf.Dec).Round(b, s, inf.RoundUp)
	for e := exp; e > 0 && z.Cmp(unit) > 0; {
		step := min(e, maxPow16Step)
		z = new(inf.Dec).QuoRound(z, inf.NewDecBig(pow16[step], 0), s, inf.RoundUp)
		e -= step
	}
	return z
}

// Round returns x with a budget of prec fractional digits, rounding half away
// from zero when digits are dropped.
func (x Value) Round(prec int) Value {
	mustPrecision(prec)
	r := rescale(x.dec(), prec)
	z := Value{d: r, prec: prec, bound: x.bound}
	if diff := new(inf.Dec).Sub(r, x.dec()); diff.Sign() != 0 {
		z.bound = addBounds(z.bound, diff.Abs(diff))
	}
	return z
}

// FixedString renders x with exactly digits fractional digits, rounding half
// away from zero. With digits == 0 no decimal point is written.
func (x Value) FixedString(digits int) string {
	if digits < 0 {
		digits = 0
	}
	return rescale(x.dec(), digits).String()
}

// TruncatedString renders x with exactly digits fractional digits, dropping
// the rest. This matches digit strings of constants that are cut rather than
// rounded.
func (x Value) TruncatedString(digits int) string {
	if digits < 0 {
		digits = 0
	}
	return new(inf.Dec).Round(x.dec(), inf.Scale(digits), inf.RoundDown).String()
}

// String renders x with all the digits of its budget.
func (x Value) String() string {
	return x.dec().String()
}

// aligned returns x's digits at the larger of its own budget and prec.
func (x Value) aligned(prec int) *inf.Dec {
	if prec <= x.prec {
		return x.dec()
	}
	return rescale(x.dec(), prec)
}

// quoBound propagates the operands' error bounds through q = x / y:
// (bx + (|q| + ulp)·by) / (|y| - by), rounded up.
func quoBound(x, y Value, q *inf.Dec, prec int) (*inf.Dec, error) {
	if x.bound == nil && y.bound == nil {
		return nil, nil
	}
	s := inf.Scale(prec + boundDigits)
	den := new(inf.Dec).Abs(y.dec())
	if y.bound == nil {
		return new(inf.Dec).QuoRound(x.bound, den, s, inf.RoundUp), nil
	}

	den.Sub(den, y.bound)
	if den.Sign() <= 0 {
		return nil, fmt.Errorf("decimal: divisor %s within its error bound %s: %w", y, y.ErrorBound(), ErrPrecisionExhausted)
	}
	num := new(inf.Dec).Abs(q)
	num.Add(num, inf.NewDec(1, inf.Scale(prec)))
	num.Mul(num, y.bound)
	if x.bound != nil {
		num.Add(num, x.bound)
	}
	return new(inf.Dec).QuoRound(num, den, s, inf.RoundUp), nil
}

func addBounds(a, b *inf.Dec) *inf.Dec {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return new(inf.Dec).Add(a, b)
}

// halfUnit returns ½·10^-k.
func halfUnit(k int) *inf.Dec {
	return inf.NewDec(5, inf.Scale(k+1))
}

func rescale(d *inf.Dec, prec int) *inf.Dec {
	return new(inf.Dec).Round(d, inf.Scale(prec), inf.RoundHalfUp)
}
