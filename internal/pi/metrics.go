package pi

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metric instruments, initialized once via InitMetrics().
var (
	evalCounter    metric.Int64Counter
	evalHistogram  metric.Float64Histogram
	errorCounter   metric.Int64Counter
	termsHistogram metric.Int64Histogram
	matchedGauge   metric.Int64Gauge
)

// InitMetrics registers the OTel instruments for π evaluations.
// Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("pi")

	var err error

	evalCounter, err = meter.Int64Counter("pi.evaluations.total",
		metric.WithDescription("Total number of series evaluations performed"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return fmt.Errorf("creating evaluations counter: %w", err)
	}

	evalHistogram, err = meter.Float64Histogram("pi.evaluation.duration",
		metric.WithDescription("Duration of series evaluations in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 1, 10, 100, 1000, 10000, 60000),
	)
	if err != nil {
		return fmt.Errorf("creating duration histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("pi.errors.total",
		metric.WithDescription("Total number of failed evaluations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	termsHistogram, err = meter.Int64Histogram("pi.terms",
		metric.WithDescription("Number of series terms requested per evaluation"),
		metric.WithUnit("{term}"),
		metric.WithExplicitBucketBoundaries(10, 100, 1000, 1e4, 1e5, 1e6, 1e7),
	)
	if err != nil {
		return fmt.Errorf("creating terms histogram: %w", err)
	}

	matchedGauge, err = meter.Int64Gauge("pi.digits_matched",
		metric.WithDescription("Leading characters of the last result matching the reference"),
		metric.WithUnit("{char}"),
	)
	if err != nil {
		return fmt.Errorf("creating digits gauge: %w", err)
	}

	return nil
}
