package pi

import (
	"pi-series/internal/reference"
	"pi-series/internal/series"
)

// EvaluateRequest is the JSON body for POST /pi/evaluate.
type EvaluateRequest struct {
	Series  series.Series `json:"series"`
	Start   uint64        `json:"start"`
	End     uint64        `json:"end"`               // exclusive term index
	Digits  *int          `json:"digits,omitempty"`  // defaults to the configured digit count
	Workers int           `json:"workers,omitempty"` // sub-ranges evaluated concurrently
}

// EvaluateResponse is the JSON response for POST /pi/evaluate.
type EvaluateResponse struct {
	Series     series.Series        `json:"series"`
	Start      uint64               `json:"start"`
	End        uint64               `json:"end"`
	Plan       series.Plan          `json:"plan"`
	Value      string               `json:"value"`
	ErrorBound string               `json:"error_bound"`
	Comparison reference.Comparison `json:"comparison"`
	Matched    int                  `json:"matched"`
	AbsError   string               `json:"abs_error,omitempty"`
	DurationMS float64              `json:"duration_ms"`
}

// RangesRequest is the JSON body for POST /pi/ranges.
type RangesRequest struct {
	Series series.Series  `json:"series"`
	Digits *int           `json:"digits,omitempty"`
	Ranges []series.Range `json:"ranges"`
}

// RangesResponse is the JSON response for POST /pi/ranges.
type RangesResponse struct {
	Series     series.Series        `json:"series"`
	Plan       series.Plan          `json:"plan"`
	Partials   []RangeResult        `json:"partials"`
	Value      string               `json:"value"`
	ErrorBound string               `json:"error_bound"`
	Comparison reference.Comparison `json:"comparison"`
}

// RangeResult records the partial sum of one sub-range.
type RangeResult struct {
	Start      uint64 `json:"start"`
	End        uint64 `json:"end"`
	Value      string `json:"value"`
	ErrorBound string `json:"error_bound"`
}

// PlanResponse is the JSON response for GET /pi/plan.
type PlanResponse struct {
	Series series.Series `json:"series"`
	Plan   series.Plan   `json:"plan"`
}
