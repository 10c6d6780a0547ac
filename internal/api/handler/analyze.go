package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/quality"
)

// ImageAnalyzer is implemented by service.AnalysisService
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, data []byte) (*domain.FrameAssessment, error)
	AnalyzeBase64(ctx context.Context, encoded string) (*domain.FrameAssessment, error)
	AnalyzeBatch(ctx context.Context, images []string) (*domain.BatchAnalysis, error)
}

// VideoAnalyzer is implemented by service.VideoService
type VideoAnalyzer interface {
	AnalyzeVideo(ctx context.Context, data []byte, filename string, fps float64) (*domain.VideoAnalysis, error)
}

// AnalyzeConfig holds the upload limits enforced before any decoding.
type AnalyzeConfig struct {
	MaxImageBytes int
	MaxVideoBytes int
	DefaultFPS    float64
}

// AnalyzeHandler handles the /v1/analyze endpoints
type AnalyzeHandler struct {
	images ImageAnalyzer
	videos VideoAnalyzer
	cfg    AnalyzeConfig
	logger *slog.Logger
}

func NewAnalyzeHandler(images ImageAnalyzer, videos VideoAnalyzer, cfg AnalyzeConfig, logger *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		images: images,
		videos: videos,
		cfg:    cfg,
		logger: logger.With("component", "analyze_handler"),
	}
}

// ImageRequest is the JSON form of POST /v1/analyze/image
type ImageRequest struct {
	Image string `json:"image"`
}

// BatchRequest is the body of POST /v1/analyze/batch
type BatchRequest struct {
	Images []string `json:"images"`
}

// Image POST /v1/analyze/image - quality and occlusion of a single frame.
// Accepts multipart "file" or JSON {"image": base64}.
func (h *AnalyzeHandler) Image(c *fiber.Ctx) error {
	if isMultipart(c) {
		file, err := c.FormFile("file")
		if err != nil {
			return domain.ErrNoImageProvided.WithError(err)
		}
		data, err := readUpload(file, h.cfg.MaxImageBytes, domain.ErrImageTooLarge)
		if err != nil {
			return err
		}

		result, err := h.images.AnalyzeImage(c.UserContext(), data)
		if err != nil {
			return err
		}
		return c.JSON(result)
	}

	var req ImageRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if h.cfg.MaxImageBytes > 0 && base64Size(req.Image) > h.cfg.MaxImageBytes {
		return domain.ErrImageTooLarge
	}

	result, err := h.images.AnalyzeBase64(c.UserContext(), req.Image)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Batch POST /v1/analyze/batch - analyze several base64 images
func (h *AnalyzeHandler) Batch(c *fiber.Ctx) error {
	var req BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	for _, img := range req.Images {
		if h.cfg.MaxImageBytes > 0 && base64Size(img) > h.cfg.MaxImageBytes {
			return domain.ErrImageTooLarge
		}
	}

	result, err := h.images.AnalyzeBatch(c.UserContext(), req.Images)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Video POST /v1/analyze/video - extract, assess and smooth a recording
func (h *AnalyzeHandler) Video(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return domain.ErrNoVideoProvided.WithError(err)
	}

	fps := h.cfg.DefaultFPS
	if raw := strings.TrimSpace(c.FormValue("extraction_fps")); raw != "" {
		fps, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.ErrInvalidExtractionRate.WithError(err)
		}
	}

	data, err := readUpload(file, h.cfg.MaxVideoBytes, domain.ErrVideoTooLarge)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return domain.ErrNoVideoProvided
	}

	h.logger.Info("video received",
		slog.String("filename", file.Filename),
		slog.Int64("size", file.Size),
		slog.Float64("extraction_fps", fps),
	)

	result, err := h.videos.AnalyzeVideo(c.UserContext(), data, file.Filename, fps)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Thresholds GET /v1/analyze/thresholds - the constants behind every verdict
func (h *AnalyzeHandler) Thresholds(c *fiber.Ctx) error {
	return c.JSON(quality.Thresholds())
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// readUpload reads a form file, rejecting it with tooLarge past limit bytes
func readUpload(file *multipart.FileHeader, limit int, tooLarge *domain.AppError) ([]byte, error) {
	if limit > 0 && file.Size > int64(limit) {
		return nil, tooLarge
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrBadRequest.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := io.Reader(f)
	if limit > 0 {
		r = io.LimitReader(f, int64(limit)+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.ErrBadRequest.WithError(err)
	}
	if limit > 0 && len(data) > limit {
		return nil, tooLarge.WithError(errors.New("upload exceeds declared size"))
	}
	return data, nil
}

// base64Size estimates the decoded size of a base64 payload, data-URL header included
func base64Size(s string) int {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}
	return len(s) * 3 / 4
}
