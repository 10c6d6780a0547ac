// Package occlusion fuses the primary and fallback face detectors and
// turns the fused verdict into an occlusion assessment.
package occlusion

import (
	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/provider"
)

const (
	ConfidenceDetected  = 0.5
	ConfidenceUncertain = 0.2

	// FallbackOnlyConfidence is assigned when only the fallback found a face.
	FallbackOnlyConfidence = 0.35
	corroborationBoost     = 0.15
	corroborationCap       = 0.6
)

// Verdict is the fused detection for one frame.
type Verdict struct {
	Status       domain.DetectionStatus
	FaceDetected bool
	NumFaces     int
	Confidence   float64
	BoundingBox  *domain.BoundingBox
	// Landmarks come from the primary and are only kept when a face was accepted.
	Landmarks *provider.LandmarkSet
}

// Fuse combines the two detector results. A nil detection means the
// detector is not available or failed for this frame.
//
// The fallback only corroborates: it lifts not_detected to uncertain and
// nudges an uncertain primary, but never produces detected on its own nor
// downgrades a confident primary.
func Fuse(primary, fallback *provider.Detection) Verdict {
	v := Verdict{Status: domain.StatusNotDetected}

	if primary != nil && primary.Found {
		v.NumFaces = primary.NumFaces
		v.Confidence = primary.Confidence
		v.BoundingBox = primary.BoundingBox

		switch {
		case primary.Confidence >= ConfidenceDetected:
			v.Status = domain.StatusDetected
			v.FaceDetected = true
		case primary.Confidence >= ConfidenceUncertain:
			v.Status = domain.StatusUncertain
			v.FaceDetected = true
		}
	}

	fallbackFound := fallback != nil && fallback.Found

	switch {
	case !v.FaceDetected && fallbackFound:
		v.Status = domain.StatusUncertain
		v.FaceDetected = true
		v.NumFaces = fallback.NumFaces
		v.Confidence = FallbackOnlyConfidence
		v.BoundingBox = fallback.BoundingBox
	case v.Status == domain.StatusUncertain && fallbackFound:
		v.Confidence = min(corroborationCap, v.Confidence+corroborationBoost)
		if v.Confidence >= ConfidenceDetected {
			v.Status = domain.StatusDetected
		}
	}

	if v.FaceDetected && primary != nil {
		v.Landmarks = primary.Landmarks
	}

	return v
}
