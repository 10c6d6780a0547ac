package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAssessment(w io.Writer, name string, a *domain.FrameAssessment) {
	fmt.Fprintf(w, "%s: %s (score %.1f)\n", name, strings.ToUpper(string(a.Overall.Usability)), a.Overall.Score)
	fmt.Fprintf(w, "  brightness %.1f  sharpness %.1f  contrast %.1f\n",
		a.Quality.Brightness.Mean, a.Quality.Blur.LaplacianVariance, a.Quality.Contrast.Score)
	fmt.Fprintf(w, "  face %s (confidence %.2f), occlusion %s\n",
		a.Occlusion.Status, a.Occlusion.Confidence, a.Occlusion.Level)
	printList(w, "issues", a.Overall.Issues)
	printList(w, "recommendations", a.Overall.Recommendations)
}

func printVideo(w io.Writer, v *domain.VideoAnalysis) {
	fmt.Fprintf(w, "%s: %d frames sampled at %.2g fps from %d (%.2fs @ %.2f fps)\n",
		v.Filename, v.TotalFramesExtracted, v.ExtractionFPS, v.TotalFramesInVideo, v.DurationSeconds, v.FPS)
	if v.Truncated {
		fmt.Fprintf(w, "  truncated: %s\n", v.TruncationReason)
	}
	fmt.Fprintf(w, "  usable %d  marginal %d  unusable %d  (%.1f%% usable, %d boosted by adjacent frames)\n",
		v.Summary.Usable, v.Summary.Marginal, v.Summary.Unusable, v.Summary.UsablePercentage, v.Summary.BoostedByAdjacent)
	fmt.Fprintf(w, "  issues: too_dark %d  blurry %d  no_face %d  occluded %d\n",
		v.Issues.TooDark, v.Issues.Blurry, v.Issues.NoFace, v.Issues.Occluded)
	fmt.Fprintf(w, "  %s\n", v.Recommendation)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "    - %s\n", it)
	}
}
