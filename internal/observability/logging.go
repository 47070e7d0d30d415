package observability

import (
	"context"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogging tees Logger into an OTLP log exporter so records reach both
// stdout and the collector. The returned function flushes and stops the
// exporter.
func InitLogging(ctx context.Context) (func(context.Context) error, error) {
	exporter, err := otlploghttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx)
	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(
			sdklog.NewBatchProcessor(exporter),
		),
	)

	Logger = teeLogger(Logger, otelzap.NewCore(ServiceName(), otelzap.WithLoggerProvider(provider)))

	return provider.Shutdown, nil
}

// teeLogger returns a logger writing to both the cores of base and extra.
// The extra core only sees entries base would have logged.
func teeLogger(base *zap.Logger, extra zapcore.Core) *zap.Logger {
	core := base.Core()
	filtered, err := zapcore.NewIncreaseLevelCore(extra, core)
	if err != nil {
		filtered = extra
	}
	return zap.New(zapcore.NewTee(core, filtered))
}
