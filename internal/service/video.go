package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/audit"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/metrics"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/video"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/webhook"
)

// VideoExtractor is satisfied by *video.Extractor.
type VideoExtractor interface {
	Extract(ctx context.Context, data []byte, filename string, opts video.Options, emit func(video.Sample) error) (video.Result, error)
	ExtractFile(ctx context.Context, path string, opts video.Options, emit func(video.Sample) error) (video.Result, error)
}

// EventPublisher is satisfied by *webhook.Worker.
type EventPublisher interface {
	Enqueue(event webhook.EventPayload) error
}

type VideoConfig struct {
	MaxFrames int
	Timeout   time.Duration
	Workers   int
	Thumbnail imaging.ThumbnailOptions
}

// ProgressFunc reports extracted frames against the expected total.
type ProgressFunc func(extracted, expected int)

// VideoService runs the full video triage: extraction, per-frame
// assessment, smoothing and summary.
type VideoService struct {
	extractor   VideoExtractor
	assessor    FrameAssessor
	publisher   EventPublisher
	auditLogger audit.Logger
	metrics     *metrics.Manager
	logger      *slog.Logger
	cfg         VideoConfig
	detector    string
}

func NewVideoService(extractor VideoExtractor, assessor FrameAssessor, cfg VideoConfig, auditLogger audit.Logger, m *metrics.Manager, logger *slog.Logger) *VideoService {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VideoService{
		extractor:   extractor,
		assessor:    assessor,
		auditLogger: auditLogger,
		metrics:     m,
		logger:      logger.With("component", "video_service"),
		cfg:         cfg,
	}
}

// WithPublisher notifies p after every successful analysis.
func (s *VideoService) WithPublisher(p EventPublisher) *VideoService {
	s.publisher = p
	return s
}

func (s *VideoService) WithDetectorName(name string) *VideoService {
	s.detector = name
	return s
}

// AnalyzeVideo triages an uploaded video.
func (s *VideoService) AnalyzeVideo(ctx context.Context, data []byte, filename string, fps float64) (*domain.VideoAnalysis, error) {
	if len(data) == 0 {
		return nil, domain.ErrNoVideoProvided
	}
	return s.analyze(ctx, filename, fps, nil, func(ctx context.Context, opts video.Options, emit func(video.Sample) error) (video.Result, error) {
		return s.extractor.Extract(ctx, data, filename, opts, emit)
	})
}

// AnalyzeVideoFile triages a video already on disk.
func (s *VideoService) AnalyzeVideoFile(ctx context.Context, path string, fps float64, progress ProgressFunc) (*domain.VideoAnalysis, error) {
	return s.analyze(ctx, path, fps, progress, func(ctx context.Context, opts video.Options, emit func(video.Sample) error) (video.Result, error) {
		return s.extractor.ExtractFile(ctx, path, opts, emit)
	})
}

type extractFunc func(ctx context.Context, opts video.Options, emit func(video.Sample) error) (video.Result, error)

func (s *VideoService) analyze(ctx context.Context, filename string, fps float64, progress ProgressFunc, extract extractFunc) (*domain.VideoAnalysis, error) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return nil, domain.ErrInvalidExtractionRate
	}

	start := time.Now()
	videoID := uuid.New().String()
	logger := s.logger.With(slog.String("video_id", videoID), slog.String("filename", filename))

	opts := video.Options{
		FPS:       fps,
		MaxFrames: s.cfg.MaxFrames,
		Timeout:   s.cfg.Timeout,
		Thumbnail: s.cfg.Thumbnail,
		Progress:  progress,
	}

	res, records, err := s.extractAndAssess(ctx, opts, extract)
	if err != nil {
		err = s.mapError(err)
		s.logAudit(ctx, audit.Event{
			EventType: audit.EventVideoAnalyzed,
			Subject:   videoID,
			Error:     err.Error(),
			Metadata:  map[string]string{"filename": filename},
		})
		return nil, err
	}

	analysis := buildAnalysis(videoID, filename, fps, res, records)

	for _, f := range analysis.Frames {
		s.metrics.ObserveFrame(f.Usability)
	}
	s.metrics.ObserveBoosts(analysis.Summary.BoostedByAdjacent)
	s.metrics.ObserveVideoLatency(time.Since(start))
	if analysis.Truncated {
		s.metrics.ObserveTruncation(analysis.TruncationReason)
	}

	logger.InfoContext(ctx, "video analyzed",
		slog.Int("frames_extracted", analysis.TotalFramesExtracted),
		slog.Int("usable", analysis.Summary.Usable),
		slog.Int("boosted", analysis.Summary.BoostedByAdjacent),
		slog.Bool("truncated", analysis.Truncated),
		slog.Duration("duration", time.Since(start)),
	)

	s.logAudit(ctx, audit.Event{
		EventType: audit.EventVideoAnalyzed,
		Subject:   videoID,
		Success:   true,
		Metadata: map[string]string{
			"filename":          filename,
			"frames_extracted":  strconv.Itoa(analysis.TotalFramesExtracted),
			"usable_percentage": strconv.FormatFloat(analysis.Summary.UsablePercentage, 'f', 1, 64),
			"truncated":         strconv.FormatBool(analysis.Truncated),
		},
	})

	if s.publisher != nil {
		if err := s.publisher.Enqueue(webhook.NewVideoAnalyzedEvent(analysis)); err != nil {
			logger.WarnContext(ctx, "failed to enqueue webhook", slog.String("error", err.Error()))
		}
	}

	return analysis, nil
}

// extractAndAssess streams sampled frames into a bounded pool of assessors.
// Decoding stays sequential; only assessment runs in parallel.
func (s *VideoService) extractAndAssess(ctx context.Context, opts video.Options, extract extractFunc) (video.Result, []domain.FrameRecord, error) {
	samples := make(chan video.Sample, s.cfg.Workers)

	var (
		mu      sync.Mutex
		records []domain.FrameRecord
		res     video.Result
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(samples)
		r, err := extract(gctx, opts, func(sample video.Sample) error {
			select {
			case samples <- sample:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		res = r
		return err
	})

	for i := 0; i < s.cfg.Workers; i++ {
		g.Go(func() error {
			for sample := range samples {
				a, err := s.assessor.Assess(gctx, sample.Frame)
				if err != nil {
					return fmt.Errorf("frame %d: %w", sample.Index, err)
				}
				rec := domain.NewFrameRecord(sample.Index, sample.SourceFrame, sample.Timestamp, sample.Thumbnail, a)

				mu.Lock()
				records = append(records, rec)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].FrameNumber < records[j].FrameNumber
	})

	return res, records, nil
}

func (s *VideoService) mapError(err error) error {
	switch {
	case errors.Is(err, video.ErrInvalidRate):
		return domain.ErrInvalidExtractionRate
	case errors.Is(err, video.ErrOpen):
		return domain.ErrInvalidVideo.WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ErrVideoTimeout.WithError(err)
	default:
		return err
	}
}

func (s *VideoService) logAudit(ctx context.Context, event audit.Event) {
	event.Detector = s.detector
	logAuditEvent(ctx, s.auditLogger, s.logger, event)
}
