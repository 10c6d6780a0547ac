package service

import (
	"fmt"
	"strings"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/smoothing"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/video"
)

// buildAnalysis smooths the pre-smoothing records and summarizes the final
// sequence. Issue tallies come from the pre-smoothing verdicts.
func buildAnalysis(videoID, filename string, extractionFPS float64, res video.Result, records []domain.FrameRecord) *domain.VideoAnalysis {
	issues := tallyIssues(records)
	frames := smoothing.Smooth(records)
	summary := summarize(frames)

	total := res.TotalFrames()
	var duration float64
	if res.Info.FPS > 0 {
		duration = float64(total) / res.Info.FPS
	}

	return &domain.VideoAnalysis{
		VideoID:              videoID,
		Filename:             filename,
		DurationSeconds:      domain.Round(duration, 2),
		FPS:                  domain.Round(res.Info.FPS, 2),
		TotalFramesInVideo:   total,
		TotalFramesExtracted: len(frames),
		ExtractionFPS:        extractionFPS,
		Truncated:            res.Truncated,
		TruncationReason:     res.TruncationReason,
		VideoAnalysisSummary: domain.VideoAnalysisSummary{
			Summary:            summary.VideoSummary,
			Issues:             issues,
			UsableFrameIndices: summary.usableIndices,
			Recommendation:     Recommend(summary.Usable, summary.Marginal, summary.Unusable, issues),
		},
		Frames: frames,
	}
}

type frameSummary struct {
	domain.VideoSummary
	usableIndices []int
}

func summarize(frames []domain.FrameRecord) frameSummary {
	s := frameSummary{usableIndices: []int{}}

	for i, f := range frames {
		switch f.Usability {
		case domain.UsabilityUsable:
			s.Usable++
			s.usableIndices = append(s.usableIndices, i)
		case domain.UsabilityMarginal:
			s.Marginal++
		default:
			s.Unusable++
		}
	}

	if len(frames) > 0 {
		s.UsablePercentage = domain.Round(float64(s.Usable)/float64(len(frames))*100, 1)
	}
	s.BoostedByAdjacent = smoothing.Boosted(frames)

	return s
}

func tallyIssues(records []domain.FrameRecord) domain.VideoIssueCounts {
	var c domain.VideoIssueCounts
	for _, r := range records {
		if r.IsTooDark {
			c.TooDark++
		}
		if r.IsBlurry {
			c.Blurry++
		}
		if !r.FaceDetected {
			c.NoFace++
		} else if isOccluded(r.OcclusionLevel) {
			c.Occluded++
		}
	}
	return c
}

// Recommend turns the final counts into annotator guidance.
func Recommend(usable, marginal, unusable int, issues domain.VideoIssueCounts) string {
	total := usable + marginal + unusable
	var pct float64
	if total > 0 {
		pct = float64(usable) / float64(total) * 100
	}

	var b strings.Builder
	switch {
	case pct >= 80:
		return "Good quality video. Most frames are suitable for annotation."
	case pct >= 50:
		b.WriteString("Moderate quality. ")
		if float64(issues.TooDark) > float64(unusable)*0.5 {
			b.WriteString("Consider improving lighting conditions. ")
		}
		if float64(issues.Blurry) > float64(unusable)*0.5 {
			b.WriteString("Camera focus or motion blur issues detected. ")
		}
		fmt.Fprintf(&b, "%d frames are ready for annotation.", usable)
	default:
		b.WriteString("Quality issues detected. ")
		if float64(issues.TooDark) > float64(total)*0.3 {
			b.WriteString("CRITICAL: Lighting is too dark in many frames. ")
		}
		if float64(issues.NoFace) > float64(total)*0.3 {
			b.WriteString("Face detection failing frequently - check camera angle and occlusion. ")
		}
		b.WriteString("Consider re-recording or adjusting NICU camera setup.")
	}
	return b.String()
}
