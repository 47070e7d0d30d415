// Package pi runs π series evaluations against the reference string and
// exposes them over HTTP.
package pi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"pi-series/internal/decimal"
	"pi-series/internal/observability"
	"pi-series/internal/reference"
	"pi-series/internal/series"
)

// tracer is the harness's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("pi")

// ErrInvalidRequest marks a request rejected before any evaluation starts.
var ErrInvalidRequest = errors.New("invalid request")

// absErrorDigits is the number of significant digits in Result.AbsError.
const absErrorDigits = 3

// saturate converts a term count or index to int64, capping at math.MaxInt64.
func saturate(v uint64) int64 {
	return int64(min(v, math.MaxInt64))
}

func termAttr(key string, v uint64) attribute.KeyValue {
	return attribute.Int64(key, saturate(v))
}

// Limits caps the work a single request may ask for. Zero means unlimited.
type Limits struct {
	MaxDigits  int
	MaxTerms   uint64
	MaxWorkers int
}

// Service evaluates π series within fixed limits.
type Service struct {
	limits        Limits
	defaultDigits int
}

// NewService returns a Service applying limits. Requests that leave the digit
// count unset render defaultDigits fractional digits.
func NewService(limits Limits, defaultDigits int) *Service {
	return &Service{limits: limits, defaultDigits: defaultDigits}
}

// DefaultDigits returns the digit count used when a request leaves it unset.
func (s *Service) DefaultDigits() int {
	return s.defaultDigits
}

// Request describes one evaluation: the terms [Start, End) of Series, rendered
// with Digits fractional digits and split over Workers goroutines.
type Request struct {
	Series  series.Series
	Start   uint64
	End     uint64
	Digits  int
	Workers int
}

// Result is a completed evaluation.
type Result struct {
	Series     series.Series
	Start      uint64
	End        uint64
	Plan       series.Plan
	Value      string
	ErrorBound string
	Comparison reference.Comparison
	Matched    int
	AbsError   string
	Duration   time.Duration
}

// Validate checks req against the service limits.
func (s *Service) Validate(req Request) error {
	if _, err := req.Series.MarshalText(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := s.checkDigits(req.Digits); err != nil {
		return err
	}
	if err := s.checkTerms(series.Range{Start: req.Start, End: req.End}.Len()); err != nil {
		return err
	}
	if req.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidRequest, req.Workers)
	}
	if s.limits.MaxWorkers > 0 && req.Workers > s.limits.MaxWorkers {
		return fmt.Errorf("%w: %d workers exceeds limit %d", ErrInvalidRequest, req.Workers, s.limits.MaxWorkers)
	}
	return nil
}

func (s *Service) checkDigits(digits int) error {
	if digits < 0 {
		return fmt.Errorf("%w: negative digit count %d", ErrInvalidRequest, digits)
	}
	if s.limits.MaxDigits > 0 && digits > s.limits.MaxDigits {
		return fmt.Errorf("%w: %d digits exceeds limit %d", ErrInvalidRequest, digits, s.limits.MaxDigits)
	}
	return nil
}

func (s *Service) checkTerms(terms uint64) error {
	if s.limits.MaxTerms > 0 && terms > s.limits.MaxTerms {
		return fmt.Errorf("%w: %d terms exceeds limit %d", ErrInvalidRequest, terms, s.limits.MaxTerms)
	}
	return nil
}

// Plan returns the precision plan for evaluating ser to digits fractional
// digits.
func (s *Service) Plan(ser series.Series, digits int) (series.Plan, error) {
	if err := s.checkDigits(digits); err != nil {
		return series.Plan{}, err
	}
	plan, err := series.NewPlan(ser, digits)
	if errors.Is(err, series.ErrUnknownSeries) {
		return series.Plan{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return plan, err
}

// Run evaluates req, renders the sum and compares it to the reference.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "pi.evaluate",
		trace.WithAttributes(
			attribute.String("pi.series", req.Series.String()),
			termAttr("pi.start", req.Start),
			termAttr("pi.end", req.End),
			attribute.Int("pi.digits", req.Digits),
			attribute.Int("pi.workers", req.Workers),
		),
	)
	defer span.End()

	logger := observability.LoggerWithTrace(ctx)
	attrs := metric.WithAttributes(attribute.String("series", req.Series.String()))

	fail := func(err error) (Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		errorCounter.Add(ctx, 1, attrs)
		logger.Error("pi evaluation failed",
			zap.Stringer("series", req.Series),
			zap.Uint64("start", req.Start),
			zap.Uint64("end", req.End),
			zap.Int("digits", req.Digits),
			zap.Error(err),
		)
		return Result{}, err
	}

	if err := s.Validate(req); err != nil {
		return fail(err)
	}

	terms := series.Range{Start: req.Start, End: req.End}.Len()
	plan, err := series.PlanForTerms(req.Digits, terms)
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(
		attribute.Int("pi.guard", plan.Guard),
		attribute.Int("pi.budget", plan.Budget),
	)

	start := time.Now()
	v, err := series.EvaluateParallel(req.Series, req.Start, req.End, plan, req.Workers)
	elapsed := time.Since(start)
	if err != nil {
		return fail(err)
	}

	res := s.result(ctx, req, plan, v)
	res.Duration = elapsed
	ms := float64(elapsed.Microseconds()) / 1000.0

	evalCounter.Add(ctx, 1, attrs)
	evalHistogram.Record(ctx, ms, attrs)
	termsHistogram.Record(ctx, saturate(terms), attrs)
	matchedGauge.Record(ctx, int64(res.Matched), attrs)

	span.AddEvent("evaluation.complete", trace.WithAttributes(
		attribute.String("outcome", res.Comparison.Outcome.String()),
		attribute.Int("matched", res.Matched),
		attribute.Float64("duration_ms", ms),
	))
	span.SetStatus(codes.Ok, "")

	logger.Info("pi evaluation completed",
		zap.Stringer("series", req.Series),
		zap.Uint64("start", req.Start),
		zap.Uint64("end", req.End),
		zap.Int("digits", req.Digits),
		zap.Int("budget", plan.Budget),
		zap.Stringer("outcome", res.Comparison.Outcome),
		zap.Int("matched", res.Matched),
		zap.String("abs_error", res.AbsError),
		zap.Float64("duration_ms", ms),
	)
	return res, nil
}

func (s *Service) result(ctx context.Context, req Request, plan series.Plan, v decimal.Value) Result {
	// Pi1000 is a truncated expansion, so the value is rendered the same way.
	text := v.TruncatedString(req.Digits)
	res := Result{
		Series:     req.Series,
		Start:      req.Start,
		End:        req.End,
		Plan:       plan,
		Value:      text,
		ErrorBound: v.ErrorBound(),
		Comparison: reference.Compare(text),
		Matched:    reference.MatchingPrefix(text),
	}

	abs, err := reference.AbsError(text, absErrorDigits)
	if err != nil {
		observability.LoggerWithTrace(ctx).Warn("absolute error unavailable", zap.Error(err))
		return res
	}
	res.AbsError = abs
	return res
}

// Response converts r to its JSON form.
func (r Result) Response() EvaluateResponse {
	return EvaluateResponse{
		Series:     r.Series,
		Start:      r.Start,
		End:        r.End,
		Plan:       r.Plan,
		Value:      r.Value,
		ErrorBound: r.ErrorBound,
		Comparison: r.Comparison,
		Matched:    r.Matched,
		AbsError:   r.AbsError,
		DurationMS: float64(r.Duration.Microseconds()) / 1000.0,
	}
}
