package occlusion

import (
	"context"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/metrics"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/provider"
)

// Analyzer runs both detectors on a frame and scores the fused result.
// Either detector may be nil. Detectors are shared by every caller and
// must be safe for concurrent use.
type Analyzer struct {
	primary  provider.FaceDetector
	fallback provider.FaceDetector
	logger   *slog.Logger
	metrics  *metrics.Manager
}

func NewAnalyzer(primary, fallback provider.FaceDetector, logger *slog.Logger, m *metrics.Manager) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With("component", "occlusion_analyzer"),
		metrics:  m,
	}
}

// Analyze returns unrounded occlusion metrics. A detector failure is
// logged and counts as that detector finding nothing.
func (a *Analyzer) Analyze(ctx context.Context, frame *imaging.Frame) (domain.OcclusionMetrics, error) {
	primary, err := a.detect(ctx, a.primary, frame)
	if err != nil {
		return domain.OcclusionMetrics{}, err
	}
	fallback, err := a.detect(ctx, a.fallback, frame)
	if err != nil {
		return domain.OcclusionMetrics{}, err
	}

	v := Fuse(primary, fallback)
	a.metrics.ObserveDetection(v.Status)

	return Score(v), nil
}

// detect only returns an error when ctx is done.
func (a *Analyzer) detect(ctx context.Context, d provider.FaceDetector, frame *imaging.Frame) (*provider.Detection, error) {
	if d == nil {
		return nil, nil
	}

	det, err := d.Detect(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.WarnContext(ctx, "detector failed, treating as no detection",
			slog.String("detector", d.Name()),
			slog.String("kind", string(d.Kind())),
			slog.String("error", err.Error()),
		)
		a.metrics.ObserveDetectorError(d.Name())
		return nil, nil
	}

	return det, nil
}
