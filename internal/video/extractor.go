// Package video samples frames from a video stream at a target rate.
package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
)

// Truncation reasons.
const (
	TruncatedMaxFrames = "max_frames"
	TruncatedTimeout   = "timeout"
	TruncatedReadError = "read_error"
)

// Options bounds a single extraction.
type Options struct {
	// FPS is the target extraction rate in frames per second.
	FPS float64
	// MaxFrames caps the number of sampled frames. Zero means no cap.
	MaxFrames int
	// Timeout caps extraction wall time. Zero means no deadline.
	Timeout   time.Duration
	Thumbnail imaging.ThumbnailOptions
	// Progress is called after each sampled frame with the running count
	// and the expected total.
	Progress func(extracted, expected int)
}

// Sample is one extracted frame.
type Sample struct {
	Index       int
	SourceFrame int
	Timestamp   float64
	Frame       *imaging.Frame
	Thumbnail   string
}

// Result describes a finished extraction.
type Result struct {
	Info             Info
	Interval         int
	Extracted        int
	FramesRead       int
	Truncated        bool
	TruncationReason string
}

// TotalFrames is the source frame count, falling back to the frames actually
// read when the container did not report one.
func (r Result) TotalFrames() int {
	if r.Info.TotalFrames > 0 {
		return r.Info.TotalFrames
	}
	return r.FramesRead
}

type Extractor struct {
	opener  Opener
	tempDir string
	logger  *slog.Logger
}

func NewExtractor(opener Opener, tempDir string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		opener:  opener,
		tempDir: tempDir,
		logger:  logger.With("component", "frame_extractor"),
	}
}

// Interval is how many source frames separate two samples.
func Interval(sourceFPS, targetFPS float64) int {
	if targetFPS < sourceFPS {
		if n := int(sourceFPS / targetFPS); n > 1 {
			return n
		}
	}
	return 1
}

// Extract stages the uploaded bytes in a temp file and extracts from it. The
// temp file is removed on every return path.
func (e *Extractor) Extract(ctx context.Context, data []byte, filename string, opts Options, emit func(Sample) error) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("%w: empty input", ErrOpen)
	}

	f, err := os.CreateTemp(e.tempDir, "neotriage-*"+filepath.Ext(filename))
	if err != nil {
		return Result{}, fmt.Errorf("stage video: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn("failed to remove staged video", slog.String("path", path), slog.Any("error", err))
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return Result{}, fmt.Errorf("stage video: %w", err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("stage video: %w", err)
	}

	return e.ExtractFile(ctx, path, opts, emit)
}

// ExtractFile walks the stream sequentially and calls emit for every
// Interval-th frame. Reaching MaxFrames, the timeout or a mid-stream read
// failure stops extraction early and marks the result truncated. A stream
// that cannot be opened or yields no frames fails with ErrOpen.
func (e *Extractor) ExtractFile(ctx context.Context, path string, opts Options, emit func(Sample) error) (Result, error) {
	if opts.FPS <= 0 || math.IsNaN(opts.FPS) {
		return Result{}, ErrInvalidRate
	}
	if opts.Thumbnail == (imaging.ThumbnailOptions{}) {
		opts.Thumbnail = imaging.DefaultThumbnailOptions()
	}

	extractCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	src, err := e.opener.Open(extractCtx, path)
	if err != nil {
		if errors.Is(err, ErrOpen) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			e.logger.Warn("failed to close frame source", slog.Any("error", err))
		}
	}()

	res := Result{
		Info:     src.Info(),
		Interval: Interval(src.Info().FPS, opts.FPS),
	}
	expected := expectedSamples(res.Info.TotalFrames, res.Interval, opts.MaxFrames)

	for {
		data, err := src.Next(extractCtx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			if extractCtx.Err() != nil {
				res.truncate(TruncatedTimeout)
				break
			}
			if res.FramesRead == 0 {
				return res, fmt.Errorf("%w: %v", ErrOpen, err)
			}
			e.logger.Warn("frame read failed, stopping extraction",
				slog.Int("frames_read", res.FramesRead),
				slog.Int("extracted", res.Extracted),
				slog.Any("error", err),
			)
			res.truncate(TruncatedReadError)
			break
		}

		sourceFrame := res.FramesRead
		res.FramesRead++
		if sourceFrame%res.Interval != 0 {
			continue
		}
		if opts.MaxFrames > 0 && res.Extracted >= opts.MaxFrames {
			res.truncate(TruncatedMaxFrames)
			break
		}

		frame, err := imaging.Decode(data)
		if err != nil {
			if res.Extracted == 0 {
				return res, fmt.Errorf("%w: %v", ErrOpen, err)
			}
			e.logger.Warn("frame decode failed, stopping extraction",
				slog.Int("source_frame", sourceFrame),
				slog.Any("error", err),
			)
			res.truncate(TruncatedReadError)
			break
		}

		thumb, err := imaging.Thumbnail(frame, opts.Thumbnail)
		if err != nil {
			e.logger.Warn("thumbnail failed", slog.Int("source_frame", sourceFrame), slog.Any("error", err))
		}

		sample := Sample{
			Index:       res.Extracted,
			SourceFrame: sourceFrame,
			Timestamp:   float64(sourceFrame) / res.Info.FPS,
			Frame:       frame,
			Thumbnail:   thumb,
		}
		if err := emit(sample); err != nil {
			return res, err
		}
		res.Extracted++

		if opts.Progress != nil {
			opts.Progress(res.Extracted, max(expected, res.Extracted))
		}
	}

	if res.Extracted == 0 {
		return res, fmt.Errorf("%w: no frames decoded", ErrOpen)
	}
	if res.Truncated {
		e.logger.Warn("extraction truncated",
			slog.String("reason", res.TruncationReason),
			slog.Int("extracted", res.Extracted),
		)
	}

	return res, nil
}

func (r *Result) truncate(reason string) {
	r.Truncated = true
	r.TruncationReason = reason
}

func expectedSamples(total, interval, maxFrames int) int {
	if total <= 0 {
		return 0
	}
	n := (total + interval - 1) / interval
	if maxFrames > 0 && n > maxFrames {
		return maxFrames
	}
	return n
}
