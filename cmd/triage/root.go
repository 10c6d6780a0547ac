package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/app"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/config"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/metrics"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// pipeline is built once per invocation by commands that analyze
	pipeline *app.Pipeline
	cfg      *config.Config
	logger   *slog.Logger

	logLevel string
	jsonOut  bool
)

var rootCmd = &cobra.Command{
	Use:           "triage",
	Short:         "Quality and occlusion triage for NICU frames and recordings",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadPipeline builds detectors and services from the environment.
func loadPipeline(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger = config.NewLoggerTo(os.Stderr, cfg.Environment, level)

	pipeline, err = app.New(cmd.Context(), cfg, logger, metrics.NewManager())
	if err != nil {
		return err
	}
	return nil
}

func closePipeline(_ *cobra.Command, _ []string) {
	if pipeline != nil {
		_ = pipeline.Close()
	}
}

func Execute() {
	// Ctrl+C cancels the running analysis
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print the full result as JSON")
}
