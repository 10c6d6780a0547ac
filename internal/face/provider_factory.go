package face

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/audit"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/config"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/provider"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/provider/haar"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/provider/rekognition"
)

// DetectorType names a detector implementation selectable from config
type DetectorType string

const (
	// DetectorTypeDeepFace is the remote RetinaFace detector (local stack, high sensitivity)
	DetectorTypeDeepFace DetectorType = "deepface"
	// DetectorTypeRekognition is the AWS Rekognition detector (cloud)
	DetectorTypeRekognition DetectorType = "rekognition"
	// DetectorTypeHaar is the OpenCV frontal-face cascade
	DetectorTypeHaar DetectorType = "haar"
	// DetectorTypeMock is the deterministic heuristic detector
	DetectorTypeMock DetectorType = "mock"
	// DetectorTypeNone disables the slot
	DetectorTypeNone DetectorType = "none"
)

// Detectors is the primary/fallback pair built once at start-up.
// Either slot may be nil: a nil primary means fallback-only mode.
type Detectors struct {
	Primary  provider.FaceDetector
	Fallback provider.FaceDetector

	closers []io.Closer
}

// Names lists the active detectors for readiness reporting.
func (d *Detectors) Names() map[string]string {
	names := map[string]string{"primary": "none", "fallback": "none"}
	if d.Primary != nil {
		names["primary"] = d.Primary.Name()
	}
	if d.Fallback != nil {
		names["fallback"] = d.Fallback.Name()
	}
	return names
}

// Degraded reports whether the high-sensitivity detector is missing.
func (d *Detectors) Degraded() bool {
	return d.Primary == nil
}

// Close releases native resources held by the detectors.
func (d *Detectors) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	d.closers = nil
	return errors.Join(errs...)
}

// NewDetectors builds both detectors from configuration. A detector that
// cannot be constructed is logged and left nil; start-up never fails on it.
func NewDetectors(ctx context.Context, cfg *config.Config, logger *slog.Logger, auditLogger audit.Logger) (*Detectors, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	logger = logger.With("component", "detector_factory")

	d := &Detectors{}

	primary, err := newPrimary(ctx, cfg, logger)
	if err != nil {
		var unknown *UnknownDetectorError
		if errors.As(err, &unknown) {
			return nil, err
		}
		logger.Warn("primary detector unavailable, running fallback-only",
			slog.String("detector", cfg.PrimaryDetector),
			slog.String("error", err.Error()),
		)
		_ = auditLogger.Log(ctx, audit.Event{
			EventType: audit.EventDetectorDegraded,
			Detector:  cfg.PrimaryDetector,
			Success:   false,
			Error:     err.Error(),
		})
	} else {
		d.Primary = primary
	}

	fallback, err := newFallback(cfg)
	if err != nil {
		var unknown *UnknownDetectorError
		if errors.As(err, &unknown) {
			_ = d.Close()
			return nil, err
		}
		logger.Warn("fallback detector unavailable",
			slog.String("detector", cfg.FallbackDetector),
			slog.String("error", err.Error()),
		)
		_ = auditLogger.Log(ctx, audit.Event{
			EventType: audit.EventDetectorDegraded,
			Detector:  cfg.FallbackDetector,
			Success:   false,
			Error:     err.Error(),
		})
	} else if fallback != nil {
		d.Fallback = fallback
		if c, ok := fallback.(io.Closer); ok {
			d.closers = append(d.closers, c)
		}
	}

	logger.Info("detectors ready",
		slog.String("primary", d.Names()["primary"]),
		slog.String("fallback", d.Names()["fallback"]),
	)

	return d, nil
}

// UnknownDetectorError is a configuration mistake, not an availability problem.
type UnknownDetectorError struct {
	Slot string
	Name string
}

func (e *UnknownDetectorError) Error() string {
	return fmt.Sprintf("unknown %s detector: %q", e.Slot, e.Name)
}

func newPrimary(ctx context.Context, cfg *config.Config, logger *slog.Logger) (provider.FaceDetector, error) {
	switch DetectorType(cfg.PrimaryDetector) {
	case DetectorTypeDeepFace, "":
		return createDeepFaceProvider(cfg, logger), nil
	case DetectorTypeRekognition:
		return createRekognitionProvider(ctx, cfg)
	case DetectorTypeMock:
		return mock.New(provider.KindPrimary), nil
	case DetectorTypeNone:
		return nil, errors.New("primary detector disabled by configuration")
	default:
		return nil, &UnknownDetectorError{Slot: "primary", Name: cfg.PrimaryDetector}
	}
}

func newFallback(cfg *config.Config) (provider.FaceDetector, error) {
	switch DetectorType(cfg.FallbackDetector) {
	case DetectorTypeHaar, "":
		hcfg := haar.DefaultConfig()
		hcfg.CascadePath = cfg.HaarCascadePath
		det, err := haar.New(hcfg)
		if err != nil {
			return nil, fmt.Errorf("create haar detector: %w", err)
		}
		return det, nil
	case DetectorTypeMock:
		return mock.New(provider.KindFallback), nil
	case DetectorTypeNone:
		return nil, nil
	default:
		return nil, &UnknownDetectorError{Slot: "fallback", Name: cfg.FallbackDetector}
	}
}

// createRekognitionProvider creates an AWS Rekognition provider instance
func createRekognitionProvider(ctx context.Context, cfg *config.Config) (provider.FaceDetector, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig)
	if err != nil {
		return nil, err
	}

	return prov, nil
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config, logger *slog.Logger) provider.FaceDetector {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = cfg.DeepFaceDetector
	}
	if cfg.DeepFaceTimeout > 0 {
		deepfaceConfig.Timeout = cfg.DeepFaceTimeout
	}
	deepfaceConfig.RetryCount = cfg.DeepFaceRetryCount

	return deepface.NewProvider(deepfaceConfig, logger)
}
