package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
)

const EventVideoAnalyzed = "video.analyzed"

const defaultMaxAttempts = 5

// Job is a queued delivery.
type Job struct {
	ID          uuid.UUID
	EventType   string
	Payload     []byte
	Attempts    int
	MaxAttempts int
	NextRetryAt time.Time
	LastError   string
	CreatedAt   time.Time
}

type EventPayload struct {
	ID        uuid.UUID   `json:"id"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// VideoAnalyzedData is what the annotation store needs to decide which
// frames to surface for labeling.
type VideoAnalyzedData struct {
	VideoID              string              `json:"video_id"`
	Filename             string              `json:"filename"`
	DurationSeconds      float64             `json:"duration_seconds"`
	TotalFramesExtracted int                 `json:"total_frames_extracted"`
	Truncated            bool                `json:"truncated"`
	Summary              domain.VideoSummary `json:"summary"`
	UsableFrameIndices   []int               `json:"usable_frame_indices"`
	Frames               []FrameMetrics      `json:"frames"`
}

// FrameMetrics is a frame record without its thumbnail.
type FrameMetrics struct {
	FrameNumber         int                    `json:"frame_number"`
	OriginalFrame       int                    `json:"original_frame"`
	TimestampSeconds    float64                `json:"timestamp_seconds"`
	QualityScore        float64                `json:"quality_score"`
	Usability           domain.Usability       `json:"usability"`
	Brightness          float64                `json:"brightness"`
	IsTooDark           bool                   `json:"is_too_dark"`
	IsBlurry            bool                   `json:"is_blurry"`
	FaceDetectionStatus domain.DetectionStatus `json:"face_detection_status"`
	FaceConfidence      float64                `json:"face_confidence"`
	OcclusionLevel      domain.OcclusionLevel  `json:"occlusion_level"`
	AdjacentBoost       bool                   `json:"adjacent_boost,omitempty"`
}

// NewVideoAnalyzedEvent builds the video.analyzed payload from a finished analysis.
func NewVideoAnalyzedEvent(a *domain.VideoAnalysis) EventPayload {
	frames := make([]FrameMetrics, len(a.Frames))
	for i, f := range a.Frames {
		frames[i] = FrameMetrics{
			FrameNumber:         f.FrameNumber,
			OriginalFrame:       f.OriginalFrame,
			TimestampSeconds:    f.TimestampSeconds,
			QualityScore:        f.QualityScore,
			Usability:           f.Usability,
			Brightness:          f.Brightness,
			IsTooDark:           f.IsTooDark,
			IsBlurry:            f.IsBlurry,
			FaceDetectionStatus: f.FaceDetectionStatus,
			FaceConfidence:      f.FaceConfidence,
			OcclusionLevel:      f.OcclusionLevel,
			AdjacentBoost:       f.AdjacentBoost,
		}
	}

	return EventPayload{
		ID:   uuid.New(),
		Type: EventVideoAnalyzed,
		Data: VideoAnalyzedData{
			VideoID:              a.VideoID,
			Filename:             a.Filename,
			DurationSeconds:      a.DurationSeconds,
			TotalFramesExtracted: a.TotalFramesExtracted,
			Truncated:            a.Truncated,
			Summary:              a.Summary,
			UsableFrameIndices:   a.UsableFrameIndices,
			Frames:               frames,
		},
		Timestamp: time.Now().UTC(),
	}
}
