package occlusion

import (
	"math"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
)

const (
	minConfidentDetection = 0.6
	minLandmarkRatio      = 0.7
)

const (
	CauseNotDetected = "Face not detected - possibly fully occluded"
	CauseBorderline  = "Face detection borderline - may need manual review"
)

// Score applies the ordered occlusion decision table to a fused verdict.
// Values are unrounded; see Rounded.
func Score(v Verdict) domain.OcclusionMetrics {
	ratio := 0.0
	if v.FaceDetected {
		ratio = v.Landmarks.Ratio()
	}

	m := domain.OcclusionMetrics{
		FaceDetected: v.FaceDetected,
		Status:       v.Status,
		NumFaces:     v.NumFaces,
		Confidence:   v.Confidence,
		BoundingBox:  v.BoundingBox,
		Landmarks: domain.LandmarkVisibility{
			VisibilityRatio: ratio,
		},
		Causes:          []string{},
		Recommendations: []string{},
	}
	if v.FaceDetected && v.Landmarks != nil {
		m.Landmarks.Detected = true
		m.Landmarks.Visible = v.Landmarks.Visible
		m.Landmarks.Expected = v.Landmarks.Expected
	}

	switch {
	case v.Status == domain.StatusNotDetected:
		m.OcclusionScore = 100
		m.Level = domain.OcclusionSevere
		m.Causes = append(m.Causes,
			CauseNotDetected,
			"May be due to medical equipment (tubes, tape, monitors)",
			"Extreme head pose or face out of frame",
		)
		m.Recommendations = append(m.Recommendations,
			"Reposition camera or wait for clearer view",
			"Check for equipment obstruction",
		)
	case v.Status == domain.StatusUncertain:
		m.OcclusionScore = 50
		m.Level = domain.OcclusionUncertain
		m.Causes = append(m.Causes,
			CauseBorderline,
			"Could be slight head turn, motion blur, or partial occlusion",
		)
		m.Recommendations = append(m.Recommendations,
			"Consider checking adjacent frames",
			"May be usable with manual verification",
		)
	case v.Confidence < minConfidentDetection:
		m.OcclusionScore = 40
		m.Level = domain.OcclusionPartial
		m.Causes = append(m.Causes,
			"Low detection confidence suggests partial occlusion",
			"Possible causes: CPAP mask, nasal cannula, medical tape",
		)
		m.Recommendations = append(m.Recommendations, "Frame may still be usable but flag for manual review")
	case ratio < minLandmarkRatio:
		m.OcclusionScore = 30
		m.Level = domain.OcclusionPartial
		m.Causes = append(m.Causes,
			"Some facial landmarks not visible",
			"Partial equipment occlusion or head rotation",
		)
		m.Recommendations = append(m.Recommendations, "Consider for annotation with 'partial visibility' flag")
	default:
		m.OcclusionScore = math.Max(0, (1-v.Confidence)*20)
		m.Level = domain.OcclusionNone
		m.Recommendations = append(m.Recommendations, "Face clearly visible - suitable for annotation")
	}

	m.FaceUsable = v.FaceDetected && m.Level != domain.OcclusionSevere

	return m
}

// Rounded returns a copy rounded for presentation.
func Rounded(m domain.OcclusionMetrics) domain.OcclusionMetrics {
	m.Confidence = domain.Round(m.Confidence, 3)
	m.Landmarks.VisibilityRatio = domain.Round(m.Landmarks.VisibilityRatio, 3)
	m.OcclusionScore = domain.Round(m.OcclusionScore, 1)
	return m
}
