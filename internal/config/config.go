package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Detectors
	PrimaryDetector    string        `envconfig:"PRIMARY_DETECTOR" default:"deepface"`
	FallbackDetector   string        `envconfig:"FALLBACK_DETECTOR" default:"haar"`
	DeepFaceURL        string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceDetector   string        `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`
	DeepFaceTimeout    time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	DeepFaceRetryCount int           `envconfig:"DEEPFACE_RETRY_COUNT" default:"2"`
	AWSRegion          string        `envconfig:"AWS_REGION" default:"us-east-1"`
	HaarCascadePath    string        `envconfig:"HAAR_CASCADE_PATH"`

	// Video
	FFmpegPath         string        `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	FFprobePath        string        `envconfig:"FFPROBE_PATH" default:"ffprobe"`
	TempDir            string        `envconfig:"TEMP_DIR"`
	ExtractionFPS      float64       `envconfig:"EXTRACTION_FPS" default:"1.0"`
	MaxExtractedFrames int           `envconfig:"MAX_EXTRACTED_FRAMES" default:"3600"`
	VideoTimeout       time.Duration `envconfig:"VIDEO_TIMEOUT" default:"10m"`

	// Limits
	MaxImageBytes int `envconfig:"MAX_IMAGE_BYTES" default:"10485760"`
	MaxVideoBytes int `envconfig:"MAX_VIDEO_BYTES" default:"536870912"`
	MaxBatchSize  int `envconfig:"MAX_BATCH_SIZE" default:"100"`

	// Thumbnails
	ThumbnailWidth   int `envconfig:"THUMBNAIL_WIDTH" default:"120"`
	ThumbnailHeight  int `envconfig:"THUMBNAIL_HEIGHT" default:"90"`
	ThumbnailQuality int `envconfig:"THUMBNAIL_QUALITY" default:"70"`

	AnalysisWorkers int `envconfig:"ANALYSIS_WORKERS" default:"2"`

	// Webhook
	WebhookURL    string `envconfig:"WEBHOOK_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`

	// Rate limiting
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"120"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

var (
	primaryDetectors  = map[string]bool{"deepface": true, "rekognition": true, "mock": true, "none": true}
	fallbackDetectors = map[string]bool{"haar": true, "mock": true, "none": true}
)

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.ExtractionFPS <= 0 {
		errs = append(errs, fmt.Errorf("EXTRACTION_FPS must be greater than 0, got %v", c.ExtractionFPS))
	}
	if !primaryDetectors[c.PrimaryDetector] {
		errs = append(errs, fmt.Errorf("unknown PRIMARY_DETECTOR %q", c.PrimaryDetector))
	}
	if !fallbackDetectors[c.FallbackDetector] {
		errs = append(errs, fmt.Errorf("unknown FALLBACK_DETECTOR %q", c.FallbackDetector))
	}
	if c.AnalysisWorkers <= 0 {
		errs = append(errs, errors.New("ANALYSIS_WORKERS must be at least 1"))
	}
	if c.MaxExtractedFrames <= 0 {
		errs = append(errs, errors.New("MAX_EXTRACTED_FRAMES must be at least 1"))
	}
	if c.MaxBatchSize <= 0 {
		errs = append(errs, errors.New("MAX_BATCH_SIZE must be at least 1"))
	}
	if c.ThumbnailWidth <= 0 || c.ThumbnailHeight <= 0 {
		errs = append(errs, errors.New("thumbnail dimensions must be positive"))
	}
	if c.ThumbnailQuality < 1 || c.ThumbnailQuality > 100 {
		errs = append(errs, fmt.Errorf("THUMBNAIL_QUALITY must be within 1..100, got %d", c.ThumbnailQuality))
	}

	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) WebhookEnabled() bool {
	return c.WebhookURL != ""
}
