package rekognition

import (
	"context"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100

	jpegQuality = 90
)

// Provider implements provider.FaceDetector using AWS Rekognition DetectFaces
type Provider struct {
	client *Client
}

// Ensure Provider implements provider.FaceDetector interface at compile time
var _ provider.FaceDetector = (*Provider)(nil)

// NewProvider creates a new Rekognition provider
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return &Provider{client: client}, nil
}

// NewProviderWithClient is used by tests and callers that build their own client.
func NewProviderWithClient(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string { return "rekognition" }

func (p *Provider) Kind() provider.Kind { return provider.KindPrimary }

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) == 0 {
		return ErrInvalidImage
	}
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// Detect runs DetectFaces on the frame and keeps the most confident face.
// No faces is a normal result, not an error.
func (p *Provider) Detect(ctx context.Context, frame *imaging.Frame) (*provider.Detection, error) {
	if frame == nil {
		return nil, ErrInvalidImage
	}

	image, err := frame.JPEG(jpegQuality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if err := validateImage(image); err != nil {
		return nil, err
	}

	output, err := p.client.rekognition.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: image,
		},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", ParseError(err))
	}

	return p.toDetection(output.FaceDetails, frame.Width, frame.Height), nil
}

func (p *Provider) toDetection(details []types.FaceDetail, width, height int) *provider.Detection {
	var (
		best    *types.FaceDetail
		bestCon float32
		count   int
	)
	for i := range details {
		d := &details[i]
		conf := float32Value(d.Confidence)
		if conf <= 0 || conf < p.client.config.MinConfidence {
			continue
		}
		count++
		if best == nil || conf > bestCon {
			best, bestCon = d, conf
		}
	}

	if best == nil {
		return provider.NotFound()
	}

	det := &provider.Detection{
		Found:      true,
		NumFaces:   count,
		Confidence: math.Min(1, float64(bestCon)/100),
	}
	if best.BoundingBox != nil {
		det.BoundingBox = scaleBox(best.BoundingBox, width, height)
	}
	if len(best.Landmarks) > 0 {
		det.Landmarks = &provider.LandmarkSet{
			Visible:  visibleLandmarks(best.Landmarks),
			Expected: len(best.Landmarks),
		}
	}

	return det
}

// scaleBox converts Rekognition's frame ratios to a pixel box clipped to the frame.
func scaleBox(b *types.BoundingBox, width, height int) *domain.BoundingBox {
	left := clamp01(float64(float32Value(b.Left)))
	top := clamp01(float64(float32Value(b.Top)))
	right := clamp01(float64(float32Value(b.Left) + float32Value(b.Width)))
	bottom := clamp01(float64(float32Value(b.Top) + float32Value(b.Height)))

	x := int(math.Round(left * float64(width)))
	y := int(math.Round(top * float64(height)))
	return &domain.BoundingBox{
		X:      x,
		Y:      y,
		Width:  int(math.Round(right*float64(width))) - x,
		Height: int(math.Round(bottom*float64(height))) - y,
	}
}

// visibleLandmarks counts landmarks whose coordinates fall inside the frame.
// Rekognition extrapolates occluded points, often outside [0,1].
func visibleLandmarks(landmarks []types.Landmark) int {
	n := 0
	for _, l := range landmarks {
		if l.X == nil || l.Y == nil {
			continue
		}
		x, y := *l.X, *l.Y
		if x >= 0 && x <= 1 && y >= 0 && y <= 1 {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func float32Value(v *float32) float32 {
	if v == nil {
		return 0
	}
	return *v
}
