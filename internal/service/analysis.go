package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/audit"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/metrics"
)

const defaultMaxBatchSize = 100

// FrameAssessor is satisfied by *assessment.Assessor.
type FrameAssessor interface {
	Assess(ctx context.Context, frame *imaging.Frame) (domain.FrameAssessment, error)
}

// AnalysisService triages single images and batches of images.
type AnalysisService struct {
	assessor     FrameAssessor
	auditLogger  audit.Logger
	metrics      *metrics.Manager
	logger       *slog.Logger
	detector     string
	maxBatchSize int
}

func NewAnalysisService(assessor FrameAssessor, auditLogger audit.Logger, m *metrics.Manager, logger *slog.Logger) *AnalysisService {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		assessor:     assessor,
		auditLogger:  auditLogger,
		metrics:      m,
		logger:       logger.With("component", "analysis_service"),
		maxBatchSize: defaultMaxBatchSize,
	}
}

func (s *AnalysisService) WithMaxBatchSize(n int) *AnalysisService {
	s.maxBatchSize = n
	return s
}

// WithDetectorName sets the detector label recorded in audit events.
func (s *AnalysisService) WithDetectorName(name string) *AnalysisService {
	s.detector = name
	return s
}

// AnalyzeImage decodes raw image bytes and assesses them.
func (s *AnalysisService) AnalyzeImage(ctx context.Context, data []byte) (*domain.FrameAssessment, error) {
	if len(data) == 0 {
		return nil, domain.ErrNoImageProvided
	}

	frame, err := imaging.Decode(data)
	if err != nil {
		s.logAudit(ctx, audit.Event{EventType: audit.EventImageAnalyzed, Error: err.Error()})
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return s.assess(ctx, frame)
}

// AnalyzeBase64 accepts an optionally data-URL prefixed base64 image.
func (s *AnalysisService) AnalyzeBase64(ctx context.Context, encoded string) (*domain.FrameAssessment, error) {
	if encoded == "" {
		return nil, domain.ErrNoImageProvided
	}

	frame, err := imaging.DecodeBase64(encoded)
	if err != nil {
		s.logAudit(ctx, audit.Event{EventType: audit.EventImageAnalyzed, Error: err.Error()})
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return s.assess(ctx, frame)
}

func (s *AnalysisService) assess(ctx context.Context, frame *imaging.Frame) (*domain.FrameAssessment, error) {
	start := time.Now()

	a, err := s.assessor.Assess(ctx, frame)
	if err != nil {
		s.logAudit(ctx, audit.Event{EventType: audit.EventImageAnalyzed, Error: err.Error()})
		return nil, fmt.Errorf("assess image: %w", err)
	}

	s.metrics.ObserveImageLatency(time.Since(start))
	s.metrics.ObserveFrame(a.Overall.Usability)
	s.logAudit(ctx, audit.Event{
		EventType: audit.EventImageAnalyzed,
		Success:   true,
		Metadata: map[string]string{
			"usability":        string(a.Overall.Usability),
			"score":            strconv.FormatFloat(a.Overall.Score, 'f', 1, 64),
			"detection_status": string(a.Occlusion.Status),
		},
	})

	return &a, nil
}

// AnalyzeBatch assesses every image in order. An image that fails to decode
// yields an error entry at its index instead of failing the batch.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, images []string) (*domain.BatchAnalysis, error) {
	if len(images) == 0 {
		return nil, domain.ErrNoImagesProvided
	}
	if s.maxBatchSize > 0 && len(images) > s.maxBatchSize {
		return nil, domain.ErrBatchTooLarge.WithError(
			fmt.Errorf("%d images, maximum is %d", len(images), s.maxBatchSize))
	}

	result := &domain.BatchAnalysis{
		Summary: domain.BatchSummary{Total: len(images)},
		Results: make([]domain.BatchItem, 0, len(images)),
	}

	for i, encoded := range images {
		item := domain.BatchItem{Index: i}

		frame, err := imaging.DecodeBase64(encoded)
		if err != nil {
			item.Error = domain.ErrInvalidImage.Message
			result.Results = append(result.Results, item)
			continue
		}

		start := time.Now()
		a, err := s.assessor.Assess(ctx, frame)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.WarnContext(ctx, "batch item failed", slog.Int("index", i), slog.String("error", err.Error()))
			item.Error = domain.ErrInternal.Message
			result.Results = append(result.Results, item)
			continue
		}
		s.metrics.ObserveImageLatency(time.Since(start))
		s.metrics.ObserveFrame(a.Overall.Usability)

		item.FrameAssessment = &a
		result.Results = append(result.Results, item)
		tallyBatch(&result.Summary, a)
	}

	s.logAudit(ctx, audit.Event{
		EventType: audit.EventBatchAnalyzed,
		Subject:   strconv.Itoa(len(images)),
		Success:   true,
		Metadata: map[string]string{
			"usable":   strconv.Itoa(result.Summary.Usable),
			"marginal": strconv.Itoa(result.Summary.Marginal),
			"unusable": strconv.Itoa(result.Summary.Unusable),
		},
	})

	return result, nil
}

func tallyBatch(sum *domain.BatchSummary, a domain.FrameAssessment) {
	switch a.Overall.Usability {
	case domain.UsabilityUsable:
		sum.Usable++
	case domain.UsabilityMarginal:
		sum.Marginal++
	default:
		sum.Unusable++
	}

	q := a.Quality
	if q.Brightness.IsTooDark {
		sum.Issues.TooDark++
	}
	if q.Brightness.IsTooBright {
		sum.Issues.TooBright++
	}
	if q.Blur.IsBlurry {
		sum.Issues.Blurry++
	}
	if q.Contrast.IsLowContrast {
		sum.Issues.LowContrast++
	}

	if !a.Occlusion.FaceDetected {
		sum.Issues.NoFace++
	} else if isOccluded(a.Occlusion.Level) {
		sum.Issues.Occluded++
	}
}

func isOccluded(level domain.OcclusionLevel) bool {
	return level == domain.OcclusionPartial || level == domain.OcclusionSevere
}

func (s *AnalysisService) logAudit(ctx context.Context, event audit.Event) {
	event.Detector = s.detector
	logAuditEvent(ctx, s.auditLogger, s.logger, event)
}

func logAuditEvent(ctx context.Context, auditLogger audit.Logger, logger *slog.Logger, event audit.Event) {
	if err := auditLogger.Log(ctx, audit.FromContext(ctx, event)); err != nil {
		logger.WarnContext(ctx, "failed to write audit event",
			slog.String("event_type", string(event.EventType)),
			slog.String("error", err.Error()),
		)
	}
}
