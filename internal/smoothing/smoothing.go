// Package smoothing corrects borderline face detections using the
// detections of the immediately adjacent extracted frames.
package smoothing

import (
	"strings"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
)

// MinFrames is the shortest sequence that is smoothed.
const MinFrames = 3

// Boosted scores use a more lenient marginal floor than single frames.
const (
	BoostedUsableScore   = 70.0
	BoostedMarginalScore = 45.0
)

const (
	IssueBoostedBoth     = "Face detection boosted by adjacent frames"
	IssueBoostedOne      = "Face detection partially boosted by adjacent frame"
	IssueUncertainBacked = "Uncertain detection confirmed by adjacent frames"

	notDetectedMarker = "Face not detected"
	borderlineMarker  = "borderline"
)

// blend is how much of the neighbor average replaces the frame's own score.
type blend struct {
	keep, neighbors float64
}

var (
	blendBothStrong = blend{0.4, 0.6}
	blendBothWeak   = blend{0.5, 0.5}
	blendOne        = blend{0.6, 0.4}
	blendUncertain  = blend{0.7, 0.3}
)

// Smooth returns a new slice where not_detected and uncertain frames whose
// neighbors show a face are boosted. Neighbor lookups always read the input,
// so no correction feeds into another. Sequences shorter than MinFrames are
// returned unchanged.
func Smooth(frames []domain.FrameRecord) []domain.FrameRecord {
	if len(frames) < MinFrames {
		return frames
	}

	out := make([]domain.FrameRecord, len(frames))
	for i := range frames {
		out[i] = frames[i]

		status := frames[i].FaceDetectionStatus
		if status != domain.StatusNotDetected && status != domain.StatusUncertain {
			continue
		}

		var (
			strong int
			scores []float64
		)
		for _, j := range []int{i - 1, i + 1} {
			if j < 0 || j >= len(frames) {
				continue
			}
			n := frames[j]
			if !n.FaceDetectionStatus.HasFaceEvidence() {
				continue
			}
			if n.FaceDetectionStatus == domain.StatusDetected {
				strong++
			}
			scores = append(scores, n.QualityScore)
		}
		if len(scores) == 0 {
			continue
		}

		var (
			w     blend
			note  string
			strip func(string) bool
		)
		switch {
		case status == domain.StatusNotDetected && len(scores) == 2:
			w = blendBothWeak
			if strong >= 1 {
				w = blendBothStrong
			}
			note, strip = IssueBoostedBoth, isNotDetectedIssue
		case status == domain.StatusNotDetected:
			w = blendOne
			note, strip = IssueBoostedOne, isNotDetectedIssue
		default:
			w = blendUncertain
			note, strip = IssueUncertainBacked, isBorderlineIssue
		}

		out[i] = boost(frames[i], w, average(scores), note, strip)
	}

	return out
}

func boost(f domain.FrameRecord, w blend, neighborAvg float64, note string, strip func(string) bool) domain.FrameRecord {
	original := f.QualityScore
	score := original*w.keep + neighborAvg*w.neighbors

	f.AdjacentBoost = true
	f.OriginalScore = &original
	f.OriginalUsability = f.Usability
	f.QualityScore = domain.Round(score, 1)

	if u := bucket(score); u.Rank() > f.Usability.Rank() {
		f.Usability = u
	}

	issues := make([]string, 0, len(f.Issues)+1)
	for _, issue := range f.Issues {
		if !strip(issue) {
			issues = append(issues, issue)
		}
	}
	f.Issues = append(issues, note)

	return f
}

func bucket(score float64) domain.Usability {
	switch {
	case score >= BoostedUsableScore:
		return domain.UsabilityUsable
	case score >= BoostedMarginalScore:
		return domain.UsabilityMarginal
	default:
		return domain.UsabilityUnusable
	}
}

func average(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func isNotDetectedIssue(issue string) bool {
	return strings.Contains(issue, notDetectedMarker)
}

func isBorderlineIssue(issue string) bool {
	return strings.Contains(strings.ToLower(issue), borderlineMarker)
}

// Boosted counts frames corrected by Smooth.
func Boosted(frames []domain.FrameRecord) int {
	n := 0
	for _, f := range frames {
		if f.AdjacentBoost {
			n++
		}
	}
	return n
}
