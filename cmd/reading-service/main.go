package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/weather-reading-service/internal/adapter/http"
	"github.com/couchcryptid/weather-reading-service/internal/config"
	"github.com/couchcryptid/weather-reading-service/internal/observability"
	"github.com/couchcryptid/weather-reading-service/internal/pipeline"
	"github.com/couchcryptid/weather-reading-service/internal/sink"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := sink.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open sink", "error", err, "sink", cfg.Sink)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}

	publisher := pipeline.New(pipeline.NewTransformer(), s.Loader, logger, metrics, cfg.BatchSize, cfg.LoadMaxAttempts)

	var lister httpadapter.ReportLister
	if s.Lister != nil {
		lister = s.Lister
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, publisher, s, lister, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := s.Close(); err != nil {
		logger.Error("sink close error", "error", err, "sink", s.Kind)
	}

	logger.Info("shutdown complete")
}
