package domain

import "math"

// Usability is the discretized verdict of a 0-100 score.
type Usability string

const (
	UsabilityUsable   Usability = "usable"
	UsabilityMarginal Usability = "marginal"
	UsabilityUnusable Usability = "unusable"
)

// Rank orders usability buckets so they can be compared: higher is better.
func (u Usability) Rank() int {
	switch u {
	case UsabilityUsable:
		return 2
	case UsabilityMarginal:
		return 1
	default:
		return 0
	}
}

// DetectionStatus is the fused output of the primary and fallback face detectors.
type DetectionStatus string

const (
	StatusDetected    DetectionStatus = "detected"
	StatusUncertain   DetectionStatus = "uncertain"
	StatusNotDetected DetectionStatus = "not_detected"
)

// HasFaceEvidence reports whether the status carries any sign of a face.
func (s DetectionStatus) HasFaceEvidence() bool {
	return s == StatusDetected || s == StatusUncertain
}

// OcclusionLevel describes how obscured a face is, or how reliable its detection was.
type OcclusionLevel string

const (
	OcclusionNone      OcclusionLevel = "none"
	OcclusionPartial   OcclusionLevel = "partial"
	OcclusionUncertain OcclusionLevel = "uncertain"
	OcclusionSevere    OcclusionLevel = "severe"
)

// BoundingBox is a face region in pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type BrightnessMetrics struct {
	Mean          float64 `json:"mean"`
	Std           float64 `json:"std"`
	IsTooDark     bool    `json:"is_too_dark"`
	IsTooBright   bool    `json:"is_too_bright"`
	ThresholdDark float64 `json:"threshold_dark"`
}

type BlurMetrics struct {
	LaplacianVariance float64 `json:"laplacian_variance"`
	IsBlurry          bool    `json:"is_blurry"`
	Threshold         float64 `json:"threshold"`
}

type ContrastMetrics struct {
	Score         float64 `json:"score"`
	IsLowContrast bool    `json:"is_low_contrast"`
}

type ResolutionMetrics struct {
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	Adequate bool `json:"adequate"`
}

// QualityMetrics is the photometric assessment of a single image.
// OverallScore is always within [0,100].
type QualityMetrics struct {
	Brightness      BrightnessMetrics `json:"brightness"`
	Blur            BlurMetrics       `json:"blur"`
	Contrast        ContrastMetrics   `json:"contrast"`
	Resolution      ResolutionMetrics `json:"resolution"`
	OverallScore    float64           `json:"overall_score"`
	Usability       Usability         `json:"usability"`
	Issues          []string          `json:"issues"`
	Recommendations []string          `json:"recommendations"`
}

type LandmarkVisibility struct {
	Detected        bool    `json:"detected"`
	Visible         int     `json:"visible"`
	Expected        int     `json:"expected"`
	VisibilityRatio float64 `json:"visibility_ratio"`
}

// OcclusionMetrics is the face-visibility assessment of a single image.
// FaceUsable is false iff Level is severe.
type OcclusionMetrics struct {
	FaceDetected    bool               `json:"face_detected"`
	Status          DetectionStatus    `json:"face_detection_status"`
	NumFaces        int                `json:"num_faces"`
	Confidence      float64            `json:"confidence"`
	BoundingBox     *BoundingBox       `json:"bbox"`
	Landmarks       LandmarkVisibility `json:"landmarks"`
	OcclusionScore  float64            `json:"occlusion_score"`
	Level           OcclusionLevel     `json:"occlusion_level"`
	Causes          []string           `json:"likely_causes"`
	FaceUsable      bool               `json:"face_usable"`
	Recommendations []string           `json:"recommendations"`
}

type OverallAssessment struct {
	Score           float64   `json:"score"`
	Usability       Usability `json:"usability"`
	Issues          []string  `json:"issues"`
	Recommendations []string  `json:"recommendations"`
}

// FrameAssessment merges quality and occlusion into one per-frame verdict.
type FrameAssessment struct {
	Quality   QualityMetrics    `json:"quality"`
	Occlusion OcclusionMetrics  `json:"occlusion"`
	Overall   OverallAssessment `json:"overall"`
}

// FrameRecord is one extracted video frame with its assessment. The flattened
// score, usability and issues reflect the final (post-smoothing) verdict while
// Assessment keeps the pre-smoothing one.
type FrameRecord struct {
	FrameNumber         int             `json:"frame_number"`
	OriginalFrame       int             `json:"original_frame"`
	TimestampSeconds    float64         `json:"timestamp_seconds"`
	QualityScore        float64         `json:"quality_score"`
	Usability           Usability       `json:"usability"`
	Brightness          float64         `json:"brightness"`
	IsTooDark           bool            `json:"is_too_dark"`
	IsBlurry            bool            `json:"is_blurry"`
	FaceDetected        bool            `json:"face_detected"`
	FaceDetectionStatus DetectionStatus `json:"face_detection_status"`
	FaceConfidence      float64         `json:"face_confidence"`
	OcclusionLevel      OcclusionLevel  `json:"occlusion_level"`
	Thumbnail           string          `json:"thumbnail"`
	Issues              []string        `json:"issues"`
	Recommendations     []string        `json:"recommendations"`

	AdjacentBoost     bool      `json:"adjacent_boost,omitempty"`
	OriginalUsability Usability `json:"original_usability,omitempty"`
	OriginalScore     *float64  `json:"original_score,omitempty"`

	Assessment FrameAssessment `json:"-"`
}

// NewFrameRecord flattens an assessment into a frame record.
func NewFrameRecord(index, originalFrame int, timestamp float64, thumbnail string, a FrameAssessment) FrameRecord {
	return FrameRecord{
		FrameNumber:         index,
		OriginalFrame:       originalFrame,
		TimestampSeconds:    Round(timestamp, 2),
		QualityScore:        a.Overall.Score,
		Usability:           a.Overall.Usability,
		Brightness:          a.Quality.Brightness.Mean,
		IsTooDark:           a.Quality.Brightness.IsTooDark,
		IsBlurry:            a.Quality.Blur.IsBlurry,
		FaceDetected:        a.Occlusion.FaceDetected,
		FaceDetectionStatus: a.Occlusion.Status,
		FaceConfidence:      a.Occlusion.Confidence,
		OcclusionLevel:      a.Occlusion.Level,
		Thumbnail:           thumbnail,
		Issues:              append([]string(nil), a.Overall.Issues...),
		Recommendations:     append([]string(nil), a.Overall.Recommendations...),
		Assessment:          a,
	}
}

type VideoSummary struct {
	Usable            int     `json:"usable"`
	Marginal          int     `json:"marginal"`
	Unusable          int     `json:"unusable"`
	UsablePercentage  float64 `json:"usable_percentage"`
	BoostedByAdjacent int     `json:"boosted_by_adjacent"`
}

type VideoIssueCounts struct {
	TooDark  int `json:"too_dark"`
	Blurry   int `json:"blurry"`
	NoFace   int `json:"no_face"`
	Occluded int `json:"occluded"`
}

// VideoAnalysisSummary is computed once, after smoothing.
type VideoAnalysisSummary struct {
	Summary            VideoSummary     `json:"summary"`
	Issues             VideoIssueCounts `json:"issues"`
	UsableFrameIndices []int            `json:"usable_frame_indices"`
	Recommendation     string           `json:"recommendation"`
}

// VideoAnalysis is the full result of a video triage run.
type VideoAnalysis struct {
	VideoID              string  `json:"video_id"`
	Filename             string  `json:"filename"`
	DurationSeconds      float64 `json:"duration_seconds"`
	FPS                  float64 `json:"fps"`
	TotalFramesInVideo   int     `json:"total_frames_in_video"`
	TotalFramesExtracted int     `json:"total_frames_extracted"`
	ExtractionFPS        float64 `json:"extraction_fps"`
	Truncated            bool    `json:"truncated"`
	TruncationReason     string  `json:"truncation_reason,omitempty"`

	VideoAnalysisSummary

	Frames []FrameRecord `json:"frames"`
}

type BatchIssueCounts struct {
	TooDark     int `json:"too_dark"`
	TooBright   int `json:"too_bright"`
	Blurry      int `json:"blurry"`
	LowContrast int `json:"low_contrast"`
	NoFace      int `json:"no_face"`
	Occluded    int `json:"occluded"`
}

type BatchSummary struct {
	Total    int              `json:"total"`
	Usable   int              `json:"usable"`
	Marginal int              `json:"marginal"`
	Unusable int              `json:"unusable"`
	Issues   BatchIssueCounts `json:"issues"`
}

// BatchItem is one batch entry, tagged with its input index. Exactly one of
// the embedded assessment and Error is set.
type BatchItem struct {
	Index int `json:"index"`
	*FrameAssessment
	Error string `json:"error,omitempty"`
}

type BatchAnalysis struct {
	Summary BatchSummary `json:"summary"`
	Results []BatchItem  `json:"results"`
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
