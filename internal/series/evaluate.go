package series

import (
	"fmt"

	"go.uber.org/zap"

	"pi-series/internal/decimal"
)

// Evaluate sums s over the term indices [start, end) at the plan's budget.
// An empty range yields an exact zero. The result is checked against the
// plan: if its accumulated rounding error could reach the last requested
// digit the evaluation fails with decimal.ErrPrecisionExhausted.
func Evaluate(s Series, start, end uint64, plan Plan) (decimal.Value, error) {
	sum, err := s.sum(start, end, plan.Budget)
	if err != nil {
		return decimal.Value{}, err
	}
	return checked(sum, plan)
}

// EvaluateLeibniz returns 4·Σ (-1)^i/(2i+1) for i in [start, end). Every term
// of the range is summed: only the range controls accuracy.
func EvaluateLeibniz(start, end uint64, plan Plan) (decimal.Value, error) {
	return Evaluate(Leibniz, start, end, plan)
}

// EvaluateBBP returns Σ 16^-i (4/(8i+1) - 2/(8i+4) - 1/(8i+5) - 1/(8i+6))
// for i in [start, end). Summation stops at the first term that rounds to
// zero at the plan's budget; terms are positive and decreasing, so the rest
// of the range only widens the error bound.
func EvaluateBBP(start, end uint64, plan Plan) (decimal.Value, error) {
	return Evaluate(BBP, start, end, plan)
}

// Combine adds partial sums in the order given and checks the total
// against the plan.
func Combine(plan Plan, partials ...decimal.Value) (decimal.Value, error) {
	sum := decimal.Zero(plan.Budget)
	for _, p := range partials {
		sum = sum.Add(p)
	}
	return checked(sum, plan)
}

func (s Series) sum(start, end uint64, prec int) (decimal.Value, error) {
	switch s {
	case Leibniz:
		return leibnizSum(start, end, prec)
	case BBP:
		return bbpSum(start, end, prec)
	}
	return decimal.Value{}, fmt.Errorf("%w: %d", ErrUnknownSeries, int(s))
}

func checked(sum decimal.Value, plan Plan) (decimal.Value, error) {
	if !sum.ExactTo(plan.Digits) {
		return decimal.Value{}, fmt.Errorf("series: error bound %s exceeds %d digits with %d guard digits: %w",
			sum.ErrorBound(), plan.Digits, plan.Guard, decimal.ErrPrecisionExhausted)
	}
	return sum, nil
}

func leibnizSum(start, end uint64, prec int) (decimal.Value, error) {
	sum := decimal.Zero(prec)
	if end <= start {
		return sum, nil
	}

	one := decimal.NewFromInt(1, prec)
	nume := one
	if start%2 == 1 {
		nume = nume.Neg()
	}
	for i := start; i < end; i++ {
		deno := decimal.NewFromUint64(i, prec).MulInt(2).Add(one)
		term, err := nume.Div(deno)
		if err != nil {
			return decimal.Value{}, fmt.Errorf("series: leibniz term %d: %w", i, err)
		}
		sum = sum.Add(term)
		nume = nume.MulInt(-1)
	}

	logger.Debug("leibniz range summed",
		zap.Uint64("start", start),
		zap.Uint64("end", end),
		zap.Int("precision", prec),
		zap.String("error_bound", sum.ErrorBound()),
	)
	return sum.MulInt(4), nil
}

func bbpSum(start, end uint64, prec int) (decimal.Value, error) {
	sum := decimal.Zero(prec)
	for i := start; i < end; i++ {
		term, err := bbpTerm(i, prec)
		if err != nil {
			return decimal.Value{}, fmt.Errorf("series: bbp term %d: %w", i, err)
		}
		if term.IsZero() {
			logger.Debug("bbp range stopped early",
				zap.Uint64("start", start),
				zap.Uint64("end", end),
				zap.Uint64("stopped_at", i),
				zap.Int("precision", prec),
			)
			// term i is at most its own bound and each later term is below
			// a sixteenth of the previous one, so twice the bound covers
			// the skipped tail
			return sum.Add(term.MulInt(2)), nil
		}
		sum = sum.Add(term)
	}

	logger.Debug("bbp range summed",
		zap.Uint64("start", start),
		zap.Uint64("end", end),
		zap.Int("precision", prec),
		zap.String("error_bound", sum.ErrorBound()),
	)
	return sum, nil
}

// bbpTerm returns the i-th BBP term. comm = 8i is derived from the index, not
// accumulated, so a term does not depend on where its range starts.
func bbpTerm(i uint64, prec int) (decimal.Value, error) {
	comm := decimal.NewFromUint64(i, prec).MulInt(8)

	a, err := decimal.NewFromInt(4, prec).Div(comm.Add(decimal.NewFromInt(1, prec)))
	if err != nil {
		return decimal.Value{}, err
	}
	b, err := decimal.NewFromInt(2, prec).Div(comm.Add(decimal.NewFromInt(4, prec)))
	if err != nil {
		return decimal.Value{}, err
	}
	c, err := decimal.NewFromInt(1, prec).Div(comm.Add(decimal.NewFromInt(5, prec)))
	if err != nil {
		return decimal.Value{}, err
	}
	d, err := decimal.NewFromInt(1, prec).Div(comm.Add(decimal.NewFromInt(6, prec)))
	if err != nil {
		return decimal.Value{}, err
	}

	return a.Sub(b).Sub(c).Sub(d).ScalePow16(i), nil
}
