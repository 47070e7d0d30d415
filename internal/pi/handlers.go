package pi

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"pi-series/internal/decimal"
	"pi-series/internal/handlers"
	"pi-series/internal/observability"
	"pi-series/internal/reference"
	"pi-series/internal/series"
)

// Handler serves the /pi endpoints.
type Handler struct {
	svc *Service
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// statusFor maps an evaluation error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, series.ErrUnknownSeries):
		return http.StatusBadRequest
	case errors.Is(err, decimal.ErrPrecisionExhausted), errors.Is(err, series.ErrTooManyTerms):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// messageFor hides internal errors from clients.
func messageFor(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "evaluation failed"
	}
	return err.Error()
}

func (h *Handler) digits(d *int) int {
	if d == nil {
		return h.svc.DefaultDigits()
	}
	return *d
}

// Evaluate handles POST /pi/evaluate.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	span := trace.SpanFromContext(ctx)

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "evaluate", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	res, err := h.svc.Run(ctx, Request{
		Series:  req.Series,
		Start:   req.Start,
		End:     req.End,
		Digits:  h.digits(req.Digits),
		Workers: req.Workers,
	})
	if err != nil {
		status := statusFor(err)
		observability.RecordError(ctx, span, logger, errorCounter, "evaluate", messageFor(err, status), err, status, w)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, res.Response())
}

// Ranges handles POST /pi/ranges. Each sub-range is evaluated in its own
// child span; the partial sums are combined in ascending start order.
func (h *Handler) Ranges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "pi.ranges",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req RangesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "ranges", "invalid request body", err, http.StatusBadRequest, w)
		return
	}
	if len(req.Ranges) == 0 {
		observability.RecordError(ctx, span, logger, errorCounter, "ranges", "no ranges provided", fmt.Errorf("ranges array is empty"), http.StatusBadRequest, w)
		return
	}

	ranges := slices.Clone(req.Ranges)
	slices.SortFunc(ranges, func(a, b series.Range) int {
		return cmp.Compare(a.Start, b.Start)
	})

	total, err := checkDisjoint(ranges)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "ranges", err.Error(), err, http.StatusBadRequest, w)
		return
	}

	digits := h.digits(req.Digits)
	if err := h.svc.Validate(Request{Series: req.Series, End: total, Digits: digits}); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "ranges", err.Error(), err, http.StatusBadRequest, w)
		return
	}

	plan, err := series.PlanForTerms(digits, total)
	if err != nil {
		status := statusFor(err)
		observability.RecordError(ctx, span, logger, errorCounter, "ranges", messageFor(err, status), err, status, w)
		return
	}

	span.SetAttributes(
		attribute.String("pi.series", req.Series.String()),
		attribute.Int("pi.ranges_count", len(ranges)),
		attribute.Int("pi.budget", plan.Budget),
	)

	logger.Info("starting ranged evaluation",
		zap.Stringer("series", req.Series),
		zap.Int("ranges", len(ranges)),
		zap.Int("digits", digits),
		zap.String("request_id", requestID),
	)

	attrs := metric.WithAttributes(attribute.String("series", req.Series.String()))
	partials := make([]decimal.Value, 0, len(ranges))
	results := make([]RangeResult, 0, len(ranges))

	for i, rg := range ranges {
		_, rangeSpan := tracer.Start(ctx, fmt.Sprintf("pi.ranges.range.%d", i),
			trace.WithAttributes(
				attribute.Int("pi.range.index", i),
				termAttr("pi.range.start", rg.Start),
				termAttr("pi.range.end", rg.End),
			),
		)

		rangeStart := time.Now()
		v, err := series.Evaluate(req.Series, rg.Start, rg.End, plan)
		rangeElapsed := float64(time.Since(rangeStart).Microseconds()) / 1000.0

		if err != nil {
			rangeSpan.RecordError(err)
			rangeSpan.SetStatus(codes.Error, err.Error())
			rangeSpan.End()

			status := statusFor(err)
			observability.RecordError(ctx, span, logger, errorCounter, "ranges", messageFor(err, status), err, status, w)
			return
		}

		evalCounter.Add(ctx, 1, attrs)
		evalHistogram.Record(ctx, rangeElapsed, attrs)
		termsHistogram.Record(ctx, saturate(rg.Len()), attrs)

		rangeSpan.AddEvent("range.complete", trace.WithAttributes(
			attribute.String("error_bound", v.ErrorBound()),
		))
		rangeSpan.SetStatus(codes.Ok, "")
		rangeSpan.End()

		logger.Info("range evaluated",
			zap.Int("index", i),
			zap.Uint64("start", rg.Start),
			zap.Uint64("end", rg.End),
			zap.Float64("duration_ms", rangeElapsed),
		)

		partials = append(partials, v)
		results = append(results, RangeResult{
			Start:      rg.Start,
			End:        rg.End,
			Value:      v.TruncatedString(digits),
			ErrorBound: v.ErrorBound(),
		})
	}

	sum, err := series.Combine(plan, partials...)
	if err != nil {
		status := statusFor(err)
		observability.RecordError(ctx, span, logger, errorCounter, "ranges", messageFor(err, status), err, status, w)
		return
	}

	text := sum.TruncatedString(digits)
	comparison := reference.Compare(text)
	matchedGauge.Record(ctx, int64(reference.MatchingPrefix(text)), attrs)

	span.AddEvent("ranges.complete", trace.WithAttributes(
		attribute.String("outcome", comparison.Outcome.String()),
	))
	span.SetStatus(codes.Ok, "")

	logger.Info("ranged evaluation completed",
		zap.Stringer("series", req.Series),
		zap.Int("ranges", len(ranges)),
		zap.Stringer("outcome", comparison.Outcome),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusOK, RangesResponse{
		Series:     req.Series,
		Plan:       plan,
		Partials:   results,
		Value:      text,
		ErrorBound: sum.ErrorBound(),
		Comparison: comparison,
	})
}

// checkDisjoint returns the number of terms covered by ranges, which must be
// sorted by start. Empty ranges are ignored; any other range starting before
// the furthest end seen so far is an overlap.
func checkDisjoint(ranges []series.Range) (uint64, error) {
	var total uint64
	var reach series.Range
	for _, rg := range ranges {
		if rg.Len() == 0 {
			continue
		}
		if total > 0 && rg.Start < reach.End {
			return 0, fmt.Errorf("range [%d, %d) overlaps [%d, %d)", rg.Start, rg.End, reach.Start, reach.End)
		}
		total += rg.Len()
		reach = rg
	}
	return total, nil
}

// Plan handles GET /pi/plan?series=bbp&digits=D.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	span := trace.SpanFromContext(ctx)

	q := r.URL.Query()
	ser, err := series.ParseSeries(q.Get("series"))
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "plan", err.Error(), err, http.StatusBadRequest, w)
		return
	}

	digits := h.svc.DefaultDigits()
	if s := q.Get("digits"); s != "" {
		digits, err = strconv.Atoi(s)
		if err != nil {
			observability.RecordError(ctx, span, logger, errorCounter, "plan", "invalid digits", err, http.StatusBadRequest, w)
			return
		}
	}

	plan, err := h.svc.Plan(ser, digits)
	if err != nil {
		status := statusFor(err)
		observability.RecordError(ctx, span, logger, errorCounter, "plan", messageFor(err, status), err, status, w)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, PlanResponse{Series: ser, Plan: plan})
}
