package pi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pi-series/internal/decimal"
	"pi-series/internal/observability"
	"pi-series/internal/reference"
	"pi-series/internal/series"
)

var testLimits = Limits{MaxDigits: 2000, MaxTerms: 100000, MaxWorkers: 8}

func newTestService(t *testing.T) *Service {
	t.Helper()
	observability.Logger = zap.NewNop()
	if err := InitMetrics(); err != nil {
		t.Fatalf("initializing pi metrics: %v", err)
	}
	return NewService(testLimits, 20)
}

func TestRunBBP(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Run(context.Background(), Request{Series: series.BBP, End: 20, Digits: 20, Workers: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Value != "3.14159265358979323846" {
		t.Fatalf("expected value %q, got %q", "3.14159265358979323846", res.Value)
	}
	if res.Comparison.Outcome != reference.LengthMismatch || res.Comparison.Position != 22 {
		t.Fatalf("expected length mismatch at 22, got %v", res.Comparison)
	}
	if res.Matched != 22 {
		t.Fatalf("expected 22 matching characters, got %d", res.Matched)
	}
	if res.AbsError != "2.64E-21" {
		t.Fatalf("expected abs error %q, got %q", "2.64E-21", res.AbsError)
	}
	if res.Plan.Budget != 30 || res.Plan.Terms != 20 {
		t.Fatalf("unexpected plan %+v", res.Plan)
	}
}

func TestRunMatchesReferenceAtExactDigits(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Run(context.Background(), Request{Series: series.BBP, End: 900, Digits: 998})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Value != reference.Pi1000 {
		t.Fatalf("expected the reference digits, got first difference %v", res.Comparison)
	}
	want := "Strings are identical up to length 1000"
	if got := res.Comparison.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if res.AbsError != "0" {
		t.Fatalf("expected zero abs error, got %q", res.AbsError)
	}
}

func TestRunLeibnizReportsFirstDifference(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Run(context.Background(), Request{Series: series.Leibniz, End: 1000, Digits: 5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 4·Σ over 1000 terms is 3.14059265...
	if res.Value != "3.14059" {
		t.Fatalf("expected value %q, got %q", "3.14059", res.Value)
	}
	want := "First difference at position 4: '0' vs '1'"
	if got := res.Comparison.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRunEmptyRangeIsZero(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Run(context.Background(), Request{Series: series.BBP, Start: 7, End: 7, Digits: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Value != "0.000" {
		t.Fatalf("expected %q, got %q", "0.000", res.Value)
	}
	if res.ErrorBound != "0" {
		t.Fatalf("expected exact zero, got bound %q", res.ErrorBound)
	}
}

func TestRunRejectsRequestsOverLimits(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"unknown series", Request{Series: 0, End: 10, Digits: 5}},
		{"negative digits", Request{Series: series.BBP, End: 10, Digits: -1}},
		{"too many digits", Request{Series: series.BBP, End: 10, Digits: 2001}},
		{"too many terms", Request{Series: series.Leibniz, Start: 1, End: 100002, Digits: 5}},
		{"too many workers", Request{Series: series.BBP, End: 10, Digits: 5, Workers: 9}},
		{"negative workers", Request{Series: series.BBP, End: 10, Digits: 5, Workers: -1}},
	}

	svc := newTestService(t)
	core, logs := observer.New(zap.InfoLevel)
	observability.Logger = zap.New(core)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Run(context.Background(), tc.req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}

	if n := logs.FilterMessage("pi evaluation failed").Len(); n != len(tests) {
		t.Fatalf("expected %d failure logs, got %d", len(tests), n)
	}
}

func TestRunLogsCompletion(t *testing.T) {
	svc := newTestService(t)
	core, logs := observer.New(zap.InfoLevel)
	observability.Logger = zap.New(core)

	if _, err := svc.Run(context.Background(), Request{Series: series.BBP, End: 5, Digits: 4}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries := logs.FilterMessage("pi evaluation completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 completion log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["series"] != "bbp" {
		t.Fatalf("expected series %q, got %#v", "bbp", fields["series"])
	}
	if fields["outcome"] != "length_mismatch" {
		t.Fatalf("expected outcome %q, got %#v", "length_mismatch", fields["outcome"])
	}
}

func TestUnlimitedService(t *testing.T) {
	observability.Logger = zap.NewNop()
	if err := InitMetrics(); err != nil {
		t.Fatalf("initializing pi metrics: %v", err)
	}
	svc := NewService(Limits{}, 10)

	if err := svc.Validate(Request{Series: series.BBP, End: 1 << 40, Digits: 5000, Workers: 64}); err != nil {
		t.Fatalf("expected no limits, got %v", err)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrInvalidRequest, http.StatusBadRequest},
		{series.ErrUnknownSeries, http.StatusBadRequest},
		{decimal.ErrPrecisionExhausted, http.StatusUnprocessableEntity},
		{series.ErrTooManyTerms, http.StatusUnprocessableEntity},
		{decimal.ErrDivisionByZero, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestTermAttrSaturates(t *testing.T) {
	tests := []struct {
		in   uint64
		want int64
	}{
		{0, 0},
		{42, 42},
		{math.MaxInt64, math.MaxInt64},
		{math.MaxInt64 + 1, math.MaxInt64},
		{math.MaxUint64, math.MaxInt64},
	}
	for _, tc := range tests {
		if got := termAttr("pi.start", tc.in).Value.AsInt64(); got != tc.want {
			t.Fatalf("termAttr(%d): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestRunRecordsHugeIndicesAsNonNegative(t *testing.T) {
	sr := recordSpans()
	observability.Logger = zap.NewNop()
	if err := InitMetrics(); err != nil {
		t.Fatalf("initializing pi metrics: %v", err)
	}
	svc := NewService(Limits{}, 5)

	start := uint64(math.MaxUint64 - 3)
	if _, err := svc.Run(context.Background(), Request{Series: series.BBP, Start: start, End: start, Digits: 5}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var found bool
	for _, s := range sr.Ended() {
		if s.Name() != "pi.evaluate" {
			continue
		}
		for _, kv := range s.Attributes() {
			if kv.Key == "pi.start" && kv.Value.AsInt64() == math.MaxInt64 {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected a pi.evaluate span with pi.start saturated at MaxInt64")
	}
}
