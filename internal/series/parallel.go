package series

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"pi-series/internal/decimal"
)

// Range is a half-open interval of term indices.
type Range struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// Len returns the number of terms in r.
func (r Range) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Split divides [start, end) into at most parts contiguous, non-empty ranges
// in ascending order. Sizes differ by at most one term.
func Split(start, end uint64, parts int) []Range {
	n := Range{Start: start, End: end}.Len()
	if n == 0 {
		return nil
	}
	k := uint64(max(parts, 1))
	k = min(k, n)

	size, rem := n/k, n%k
	ranges := make([]Range, 0, k)
	lo := start
	for i := uint64(0); i < k; i++ {
		hi := lo + size
		if i < rem {
			hi++
		}
		ranges = append(ranges, Range{Start: lo, End: hi})
		lo = hi
	}
	return ranges
}

// EvaluateParallel evaluates s over [start, end) split into workers
// sub-ranges evaluated concurrently. Partial sums are added in ascending
// start order, so the result does not depend on scheduling.
func EvaluateParallel(s Series, start, end uint64, plan Plan, workers int) (decimal.Value, error) {
	ranges := Split(start, end, workers)
	if len(ranges) <= 1 {
		return Evaluate(s, start, end, plan)
	}

	partials := make([]decimal.Value, len(ranges))
	errs := make([]error, len(ranges))

	var wg sync.WaitGroup
	for i, r := range ranges {
		wg.Add(1)
		go func() {
			defer wg.Done()
			partials[i], errs[i] = s.sum(r.Start, r.End, plan.Budget)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return decimal.Value{}, err
	}

	logger.Debug("parallel evaluation reduced",
		zap.Stringer("series", s),
		zap.Int("ranges", len(ranges)),
	)
	return Combine(plan, partials...)
}
