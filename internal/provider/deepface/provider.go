package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/provider"
)

// jpegQuality used when a frame has to be re-encoded before upload
const jpegQuality = 90

// Provider implements provider.FaceDetector using DeepFace API
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config, logger *slog.Logger) *Provider {
	return &Provider{
		client: NewClient(config, logger),
	}
}

func (p *Provider) Name() string { return "deepface" }

func (p *Provider) Kind() provider.Kind { return provider.KindPrimary }

// Client exposes the underlying client for readiness checks.
func (p *Provider) Client() *Client { return p.client }

// Detect sends the frame to /represent and keeps the most confident face.
func (p *Provider) Detect(ctx context.Context, frame *imaging.Frame) (*provider.Detection, error) {
	if frame == nil {
		return nil, ErrInvalidImageFormat
	}

	data, err := frame.JPEG(jpegQuality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageFormat, err)
	}

	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(data))
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	return toDetection(resp), nil
}

func toDetection(resp *RepresentResponse) *provider.Detection {
	var (
		best  *RepresentResult
		found int
	)
	for i := range resp.Results {
		r := &resp.Results[i]
		// enforce_detection=false returns the whole frame with confidence 0
		if r.FaceConfidence <= 0 {
			continue
		}
		found++
		if best == nil || r.FaceConfidence > best.FaceConfidence {
			best = r
		}
	}

	if best == nil {
		return provider.NotFound()
	}

	det := &provider.Detection{
		Found:      true,
		NumFaces:   found,
		Confidence: min(best.FaceConfidence, 1),
		BoundingBox: &domain.BoundingBox{
			X:      best.FacialArea.X,
			Y:      best.FacialArea.Y,
			Width:  best.FacialArea.W,
			Height: best.FacialArea.H,
		},
	}
	if best.FacialArea.HasKeypoints() {
		det.Landmarks = &provider.LandmarkSet{
			Visible:  best.FacialArea.VisibleKeypoints(),
			Expected: expectedKeypoints,
		}
	}

	return det
}
