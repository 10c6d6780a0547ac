// Package assessment merges the quality and occlusion verdicts of a frame.
package assessment

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/occlusion"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/quality"
)

const (
	maxRecommendations = 5
	unusableScoreCap   = 35.0
	qualityWeight      = 0.7
	visibilityWeight   = 0.3
)

const (
	RecTooDarkCritical = "CRITICAL: Image too dark for reliable analysis"
	RecNoFaceCritical  = "CRITICAL: No face detected - check for occlusion"
	RecUncertainFace   = "Face detection uncertain - may need manual review"
)

// OcclusionAnalyzer is satisfied by *occlusion.Analyzer.
type OcclusionAnalyzer interface {
	Analyze(ctx context.Context, frame *imaging.Frame) (domain.OcclusionMetrics, error)
}

// Assessor produces the full per-frame verdict.
type Assessor struct {
	analyzer OcclusionAnalyzer
}

func New(analyzer OcclusionAnalyzer) *Assessor {
	return &Assessor{analyzer: analyzer}
}

// Assess scores quality and occlusion and combines them. The returned
// assessment is rounded for presentation.
func (a *Assessor) Assess(ctx context.Context, frame *imaging.Frame) (domain.FrameAssessment, error) {
	q := quality.Score(frame)

	o, err := a.analyzer.Analyze(ctx, frame)
	if err != nil {
		return domain.FrameAssessment{}, fmt.Errorf("occlusion: %w", err)
	}

	return Combine(q, o), nil
}

// Combine applies the ordered usability rules to unrounded metrics.
func Combine(q domain.QualityMetrics, o domain.OcclusionMetrics) domain.FrameAssessment {
	var overall domain.OverallAssessment

	visibility := 100 - o.OcclusionScore
	switch {
	case q.Usability == domain.UsabilityUnusable || o.Status == domain.StatusNotDetected:
		overall.Usability = domain.UsabilityUnusable
		overall.Score = min(q.OverallScore, unusableScoreCap)
	case o.Status == domain.StatusUncertain:
		overall.Usability = domain.UsabilityMarginal
		overall.Score = q.OverallScore*qualityWeight + visibility*visibilityWeight
	case q.Usability == domain.UsabilityMarginal || o.Level == domain.OcclusionPartial:
		overall.Usability = domain.UsabilityMarginal
		overall.Score = (q.OverallScore + visibility) / 2
	default:
		overall.Usability = domain.UsabilityUsable
		overall.Score = (q.OverallScore + visibility) / 2
	}

	overall.Issues = make([]string, 0, len(q.Issues)+len(o.Causes))
	overall.Issues = append(overall.Issues, q.Issues...)
	overall.Issues = append(overall.Issues, o.Causes...)

	overall.Recommendations = recommendations(q, o)
	overall.Score = domain.Round(overall.Score, 1)

	return domain.FrameAssessment{
		Quality:   quality.Rounded(q),
		Occlusion: occlusion.Rounded(o),
		Overall:   overall,
	}
}

// recommendations puts critical items first and keeps the top five.
func recommendations(q domain.QualityMetrics, o domain.OcclusionMetrics) []string {
	recs := make([]string, 0, 2+len(q.Recommendations)+len(o.Recommendations))

	if q.Brightness.IsTooDark {
		recs = append(recs, RecTooDarkCritical)
	}
	switch o.Status {
	case domain.StatusNotDetected:
		recs = append(recs, RecNoFaceCritical)
	case domain.StatusUncertain:
		recs = append(recs, RecUncertainFace)
	}

	recs = append(recs, q.Recommendations...)
	recs = append(recs, o.Recommendations...)

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
