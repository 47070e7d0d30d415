package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"pi-series/internal/config"
	"pi-series/internal/observability"
	"pi-series/internal/pi"
	"pi-series/internal/series"
	"pi-series/internal/server"
)

func main() {
	ctx := context.Background()

	if err := loadDotEnv(); err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Logger
	if err := observability.InitLogger(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer observability.SyncLogger()
	logger := observability.Logger

	// Tracing
	traceShutdown, err := observability.InitTracing(ctx)
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(ctx)

	// Metrics
	metricShutdown, err := initMetrics(ctx)
	if err != nil {
		logger.Fatal("init metrics", zap.Error(err))
	}
	defer metricShutdown(ctx)

	// OTLP logs
	if cfg.OTLPLogs {
		logShutdown, err := observability.InitLogging(ctx)
		if err != nil {
			logger.Fatal("init logging", zap.Error(err))
		}
		defer logShutdown(ctx)
		logger = observability.Logger
	}
	series.SetLogger(logger.Named("series"))

	svc := pi.NewService(pi.Limits{
		MaxDigits:  cfg.MaxDigits,
		MaxTerms:   cfg.MaxTerms,
		MaxWorkers: cfg.MaxWorkers,
	}, cfg.DefaultDigits)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.NewRouter(svc),
	}

	go func() {
		logger.Info("server started",
			zap.String("addr", cfg.Addr),
			zap.Int("max_digits", cfg.MaxDigits),
			zap.Uint64("max_terms", cfg.MaxTerms),
			zap.Int("max_workers", cfg.MaxWorkers),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(srv, cfg)
}

func waitForShutdown(srv *http.Server, cfg config.Config) {
	stop := make(chan os.Signal, 1)

	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Warn("shutdown incomplete", zap.Error(err))
	}
}
