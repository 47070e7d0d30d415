package main

import (
	"context"

	"pi-series/internal/observability"
	"pi-series/internal/pi"
)

// initMetrics initialises the meter provider and the evaluation instruments.
func initMetrics(ctx context.Context) (func(context.Context) error, error) {
	shutdown, err := observability.InitMetrics(ctx)
	if err != nil {
		return nil, err
	}

	if err := pi.InitMetrics(); err != nil {
		return nil, err
	}

	return shutdown, nil
}
