// Package app assembles the triage pipeline from configuration. It is shared
// by the HTTP server and the command-line tool.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/assessment"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/audit"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/config"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/face"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/metrics"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/occlusion"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/service"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/video"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/webhook"
)

// Pipeline holds every long-lived component. Build it once per process.
type Pipeline struct {
	Detectors *face.Detectors
	Metrics   *metrics.Manager
	Images    *service.AnalysisService
	Videos    *service.VideoService
	// Webhooks is nil unless WEBHOOK_URL is set
	Webhooks *webhook.Worker
}

// New builds the detectors and services. Detector construction failures
// degrade the pipeline instead of failing it; only misconfiguration errors.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Manager) (*Pipeline, error) {
	if m == nil {
		m = metrics.NewManager()
	}
	auditLogger := audit.NewSlogLogger(logger)

	detectors, err := face.NewDetectors(ctx, cfg, logger, auditLogger)
	if err != nil {
		return nil, fmt.Errorf("build detectors: %w", err)
	}

	analyzer := occlusion.NewAnalyzer(detectors.Primary, detectors.Fallback, logger, m)
	assessor := assessment.New(analyzer)
	detectorName := DetectorLabel(detectors.Names())

	images := service.NewAnalysisService(assessor, auditLogger, m, logger).
		WithMaxBatchSize(cfg.MaxBatchSize).
		WithDetectorName(detectorName)

	extractor := video.NewExtractor(video.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath), cfg.TempDir, logger)
	videos := service.NewVideoService(extractor, assessor, service.VideoConfig{
		MaxFrames: cfg.MaxExtractedFrames,
		Timeout:   cfg.VideoTimeout,
		Workers:   cfg.AnalysisWorkers,
		Thumbnail: imaging.ThumbnailOptions{
			Width:   cfg.ThumbnailWidth,
			Height:  cfg.ThumbnailHeight,
			Quality: cfg.ThumbnailQuality,
		},
	}, auditLogger, m, logger).WithDetectorName(detectorName)

	p := &Pipeline{
		Detectors: detectors,
		Metrics:   m,
		Images:    images,
		Videos:    videos,
	}

	if cfg.WebhookEnabled() {
		p.Webhooks = webhook.NewWorker(webhook.NewService(cfg.WebhookURL, cfg.WebhookSecret), logger, m)
		videos.WithPublisher(p.Webhooks)
		logger.Info("webhook delivery enabled", slog.String("url", cfg.WebhookURL))
	}

	return p, nil
}

// Close releases native detector resources.
func (p *Pipeline) Close() error {
	return p.Detectors.Close()
}

// DetectorLabel renders the active pair as "primary+fallback" for audit events.
func DetectorLabel(names map[string]string) string {
	return names["primary"] + "+" + names["fallback"]
}
