// Package haar is the classical fallback detector: an OpenCV frontal-face
// Haar cascade that only answers found / not found.
package haar

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/provider"
)

const cascadeFile = "haarcascade_frontalface_default.xml"

var (
	ErrCascadeNotFound = errors.New("haar cascade file not found")
	ErrClosed          = errors.New("haar detector closed")
)

// Config carries the DetectMultiScale parameters.
type Config struct {
	// CascadePath is a cascade XML file or a directory containing one.
	CascadePath  string
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int
}

func DefaultConfig() Config {
	return Config{
		ScaleFactor:  1.1,
		MinNeighbors: 3,
		MinSize:      30,
	}
}

// searchPaths are tried when CascadePath is empty or does not load.
var searchPaths = []string{
	cascadeFile,
	"/usr/local/share/opencv4/haarcascades/" + cascadeFile,
	"/usr/share/opencv4/haarcascades/" + cascadeFile,
	"/usr/share/opencv/haarcascades/" + cascadeFile,
	"/opt/homebrew/share/opencv4/haarcascades/" + cascadeFile,
}

// Detector wraps a CascadeClassifier. The classifier is not safe for
// concurrent use, so Detect serializes on mu.
type Detector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	config     Config
	closed     bool
}

var _ provider.FaceDetector = (*Detector)(nil)

// New loads the cascade. Callers must Close the detector.
func New(cfg Config) (*Detector, error) {
	classifier := gocv.NewCascadeClassifier()

	for _, path := range candidatePaths(cfg.CascadePath) {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if classifier.Load(path) {
			return &Detector{classifier: classifier, config: cfg}, nil
		}
	}

	_ = classifier.Close()
	return nil, fmt.Errorf("%w: tried %q and system paths", ErrCascadeNotFound, cfg.CascadePath)
}

func candidatePaths(configured string) []string {
	paths := make([]string, 0, len(searchPaths)+2)
	if configured != "" {
		if info, err := os.Stat(configured); err == nil && info.IsDir() {
			paths = append(paths, filepath.Join(configured, cascadeFile))
		} else {
			paths = append(paths, configured)
		}
	}
	return append(paths, searchPaths...)
}

func (d *Detector) Name() string { return "haar" }

func (d *Detector) Kind() provider.Kind { return provider.KindFallback }

// Detect runs the cascade on the luma plane.
func (d *Detector) Detect(ctx context.Context, frame *imaging.Frame) (*provider.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame == nil || frame.Width == 0 || frame.Height == 0 {
		return provider.NotFound(), nil
	}

	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8U, frame.Gray)
	if err != nil {
		return nil, fmt.Errorf("haar: build mat: %w", err)
	}
	defer mat.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	rects := d.classifier.DetectMultiScaleWithParams(
		mat,
		d.config.ScaleFactor,
		d.config.MinNeighbors,
		0,
		image.Pt(d.config.MinSize, d.config.MinSize),
		image.Pt(0, 0),
	)

	return fromRects(rects), nil
}

// Close releases the native classifier.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.classifier.Close()
}

// fromRects reports the largest rectangle. Haar gives no confidence.
func fromRects(rects []image.Rectangle) *provider.Detection {
	if len(rects) == 0 {
		return provider.NotFound()
	}

	largest := rects[0]
	for _, r := range rects[1:] {
		if r.Dx()*r.Dy() > largest.Dx()*largest.Dy() {
			largest = r
		}
	}

	return &provider.Detection{
		Found:    true,
		NumFaces: len(rects),
		BoundingBox: &domain.BoundingBox{
			X:      largest.Min.X,
			Y:      largest.Min.Y,
			Width:  largest.Dx(),
			Height: largest.Dy(),
		},
	}
}
