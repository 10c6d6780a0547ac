package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
)

// Kind distingue o detector primário (alta sensibilidade, com confiança)
// do detector clássico de fallback (apenas encontrado/não encontrado).
type Kind string

const (
	KindPrimary  Kind = "primary"
	KindFallback Kind = "fallback"
)

// FaceDetector define a interface para detectores de visibilidade facial
type FaceDetector interface {
	// Name identifica o detector em logs e métricas
	Name() string

	// Kind informa se o detector é primário ou fallback
	Kind() Kind

	// Detect procura faces no frame. Não encontrar face não é erro.
	Detect(ctx context.Context, frame *imaging.Frame) (*Detection, error)
}

// Detection is what a detector observed in one frame.
type Detection struct {
	// Found is true when at least one face region was returned.
	Found    bool
	NumFaces int
	// Confidence of the best face in [0,1]. Fallback detectors leave it at 0.
	Confidence  float64
	BoundingBox *domain.BoundingBox
	// Landmarks is nil when the detector has no landmark model.
	Landmarks *LandmarkSet
}

// LandmarkSet counts how many of a detector's expected landmarks were observed.
type LandmarkSet struct {
	Visible  int
	Expected int
}

// Ratio returns Visible/Expected clamped to [0,1].
func (l *LandmarkSet) Ratio() float64 {
	if l == nil || l.Expected <= 0 {
		return 0
	}
	r := float64(l.Visible) / float64(l.Expected)
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

// NotFound is the empty detection.
func NotFound() *Detection {
	return &Detection{}
}
