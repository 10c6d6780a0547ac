package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/api"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/app"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/config"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting Neotriage API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build detectors and services
	pipeline, err := app.New(ctx, cfg, logger, metrics.NewManager())
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.Error("failed to release detectors", slog.Any("error", err))
		}
	}()

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Images:    pipeline.Images,
		Videos:    pipeline.Videos,
		Detectors: pipeline.Detectors,
		Metrics:   pipeline.Metrics,
		Webhooks:  pipeline.Webhooks,
		Limits: handler.AnalyzeConfig{
			MaxImageBytes: cfg.MaxImageBytes,
			MaxVideoBytes: cfg.MaxVideoBytes,
			DefaultFPS:    cfg.ExtractionFPS,
		},
		RateLimit: middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: cfg.RateLimitWindow,
		},
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")

	return nil
}
