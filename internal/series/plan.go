package series

import (
	"fmt"
	"math"
	"strconv"

	"pi-series/internal/decimal"
)

// MinGuardDigits is the smallest number of digits carried beyond the
// requested precision.
const MinGuardDigits = 10

// maxLeibnizDigits is the largest digit count whose Leibniz term count,
// 2·10^D, fits in a uint64.
const maxLeibnizDigits = 18

// Plan fixes the precision of one evaluation.
type Plan struct {
	// Digits is the number of fractional digits requested.
	Digits int `json:"digits"`
	// Guard is the number of extra digits carried to absorb rounding.
	Guard int `json:"guard"`
	// Budget is Digits+Guard, the precision of every intermediate value.
	Budget int `json:"budget"`
	// Terms is the number of terms after which the series tail is below
	// one unit of the last requested digit.
	Terms uint64 `json:"terms"`
}

// NewPlan returns the plan for evaluating s to digits fractional digits,
// including the term count its tail bound requires.
func NewPlan(s Series, digits int) (Plan, error) {
	terms, err := s.TermsFor(digits)
	if err != nil {
		return Plan{}, err
	}
	return PlanForTerms(digits, terms)
}

// PlanForTerms returns a plan for digits fractional digits over a range of
// the given number of terms. The guard grows with the term count since the
// accumulated rounding error of BBP grows quadratically with it.
func PlanForTerms(digits int, terms uint64) (Plan, error) {
	if digits < 0 {
		return Plan{}, fmt.Errorf("series: negative digit count %d", digits)
	}
	guard := max(MinGuardDigits, 2*len(strconv.FormatUint(terms, 10))+2)
	p := Plan{
		Digits: digits,
		Guard:  guard,
		Budget: digits + guard,
		Terms:  terms,
	}
	if err := decimal.CheckPrecision(p.Budget); err != nil {
		return Plan{}, fmt.Errorf("series: plan for %d digits: %w", digits, err)
	}
	return p, nil
}

// TermsFor returns the number of terms needed for the tail of s to drop
// below 10^-digits.
//
// BBP converges geometrically: the tail after N terms is below 16^-N, so
// N = ceil((D+1)/log10(16)) + 1 suffices. Leibniz is alternating with tail
// at most 4/(2N+1), so it needs N = 2·10^D terms: exponential in D.
func (s Series) TermsFor(digits int) (uint64, error) {
	if digits < 0 {
		return 0, fmt.Errorf("series: negative digit count %d", digits)
	}
	switch s {
	case BBP:
		return uint64(math.Ceil(float64(digits+1)/math.Log10(16))) + 1, nil
	case Leibniz:
		if digits > maxLeibnizDigits {
			return 0, fmt.Errorf("%w: leibniz needs 2·10^%d terms", ErrTooManyTerms, digits)
		}
		n := uint64(2)
		for range digits {
			n *= 10
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownSeries, int(s))
}
