package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error" example:"Failed to decode image"`
	Code  string `json:"code" example:"INVALID_IMAGE"`
}

// ImageRequest is the JSON body of the image endpoint
type ImageRequest struct {
	Image string `json:"image" example:"data:image/jpeg;base64,/9j/4AAQSkZJRg..."`
}

// BatchRequest is the body of the batch endpoint
type BatchRequest struct {
	Images []string `json:"images"`
}

// QualityData summarizes the photometric checks of a frame
type QualityData struct {
	Brightness   float64 `json:"brightness" example:"112.4"`
	IsTooDark    bool    `json:"is_too_dark" example:"false"`
	IsTooBright  bool    `json:"is_too_bright" example:"false"`
	BlurScore    float64 `json:"blur_score" example:"341.7"`
	IsBlurry     bool    `json:"is_blurry" example:"false"`
	Contrast     float64 `json:"contrast" example:"48.2"`
	OverallScore float64 `json:"overall_score" example:"91.3"`
	Usability    string  `json:"usability" example:"usable"`
}

// OcclusionData summarizes face visibility of a frame
type OcclusionData struct {
	FaceDetected        bool     `json:"face_detected" example:"true"`
	FaceDetectionStatus string   `json:"face_detection_status" example:"detected"`
	Confidence          float64  `json:"confidence" example:"0.97"`
	OcclusionScore      float64  `json:"occlusion_score" example:"10"`
	OcclusionLevel      string   `json:"occlusion_level" example:"none"`
	LikelyCauses        []string `json:"likely_causes"`
	FaceUsable          bool     `json:"face_usable" example:"true"`
	Recommendations     []string `json:"recommendations"`
}

// OverallData is the combined verdict
type OverallData struct {
	Score           float64  `json:"score" example:"90.9"`
	Usability       string   `json:"usability" example:"usable"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// FrameAssessmentResponse is the result of the image endpoint
type FrameAssessmentResponse struct {
	Quality   QualityData   `json:"quality"`
	Occlusion OcclusionData `json:"occlusion"`
	Overall   OverallData   `json:"overall"`
}

// BatchIssues counts batch items per issue
type BatchIssues struct {
	TooDark     int `json:"too_dark" example:"1"`
	TooBright   int `json:"too_bright" example:"0"`
	Blurry      int `json:"blurry" example:"2"`
	LowContrast int `json:"low_contrast" example:"0"`
	NoFace      int `json:"no_face" example:"1"`
	Occluded    int `json:"occluded" example:"1"`
}

// BatchSummaryData is the batch-level tally
type BatchSummaryData struct {
	Total    int         `json:"total" example:"10"`
	Usable   int         `json:"usable" example:"6"`
	Marginal int         `json:"marginal" example:"2"`
	Unusable int         `json:"unusable" example:"1"`
	Issues   BatchIssues `json:"issues"`
}

// BatchItemData is one batch entry; failed entries carry only index and error
type BatchItemData struct {
	Index     int           `json:"index" example:"0"`
	Quality   QualityData   `json:"quality"`
	Occlusion OcclusionData `json:"occlusion"`
	Overall   OverallData   `json:"overall"`
	Error     string        `json:"error,omitempty" example:""`
}

// BatchResponse is the result of the batch endpoint
type BatchResponse struct {
	Summary BatchSummaryData `json:"summary"`
	Results []BatchItemData  `json:"results"`
}

// FrameData is one extracted video frame after smoothing
type FrameData struct {
	FrameNumber         int      `json:"frame_number" example:"3"`
	OriginalFrame       int      `json:"original_frame" example:"90"`
	TimestampSeconds    float64  `json:"timestamp_seconds" example:"3"`
	QualityScore        float64  `json:"quality_score" example:"57.5"`
	Usability           string   `json:"usability" example:"marginal"`
	Brightness          float64  `json:"brightness" example:"98.1"`
	IsTooDark           bool     `json:"is_too_dark" example:"false"`
	IsBlurry            bool     `json:"is_blurry" example:"false"`
	FaceDetected        bool     `json:"face_detected" example:"false"`
	FaceDetectionStatus string   `json:"face_detection_status" example:"not_detected"`
	FaceConfidence      float64  `json:"face_confidence" example:"0"`
	OcclusionLevel      string   `json:"occlusion_level" example:"severe"`
	Thumbnail           string   `json:"thumbnail" example:"data:image/jpeg;base64,/9j/4AAQ..."`
	Issues              []string `json:"issues"`
	Recommendations     []string `json:"recommendations"`
	AdjacentBoost       bool     `json:"adjacent_boost,omitempty" example:"true"`
	OriginalUsability   string   `json:"original_usability,omitempty" example:"unusable"`
	OriginalScore       float64  `json:"original_score,omitempty" example:"20"`
}

// VideoSummaryData tallies the final verdicts
type VideoSummaryData struct {
	Usable            int     `json:"usable" example:"4"`
	Marginal          int     `json:"marginal" example:"1"`
	Unusable          int     `json:"unusable" example:"0"`
	UsablePercentage  float64 `json:"usable_percentage" example:"80"`
	BoostedByAdjacent int     `json:"boosted_by_adjacent" example:"1"`
}

// VideoIssues counts frames per issue before smoothing
type VideoIssues struct {
	TooDark  int `json:"too_dark" example:"0"`
	Blurry   int `json:"blurry" example:"0"`
	NoFace   int `json:"no_face" example:"1"`
	Occluded int `json:"occluded" example:"1"`
}

// VideoAnalysisResponse is the result of the video endpoint
type VideoAnalysisResponse struct {
	VideoID              string           `json:"video_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Filename             string           `json:"filename" example:"crib-07.mp4"`
	DurationSeconds      float64          `json:"duration_seconds" example:"5"`
	FPS                  float64          `json:"fps" example:"30"`
	TotalFramesInVideo   int              `json:"total_frames_in_video" example:"150"`
	TotalFramesExtracted int              `json:"total_frames_extracted" example:"5"`
	ExtractionFPS        float64          `json:"extraction_fps" example:"1"`
	Truncated            bool             `json:"truncated" example:"false"`
	TruncationReason     string           `json:"truncation_reason,omitempty" example:""`
	Summary              VideoSummaryData `json:"summary"`
	Issues               VideoIssues      `json:"issues"`
	UsableFrameIndices   []int            `json:"usable_frame_indices"`
	Recommendation       string           `json:"recommendation" example:"Good quality video. Most frames are suitable for annotation."`
	Frames               []FrameData      `json:"frames"`
}

// BrightnessThresholdsData documents the brightness bounds
type BrightnessThresholdsData struct {
	DarkThreshold   float64 `json:"dark_threshold" example:"25"`
	BrightThreshold float64 `json:"bright_threshold" example:"230"`
	Description     string  `json:"description"`
}

// MethodThresholdData documents one measured threshold
type MethodThresholdData struct {
	Threshold   float64 `json:"threshold" example:"100"`
	Method      string  `json:"method" example:"Laplacian variance"`
	Description string  `json:"description"`
}

// ResolutionThresholdData documents the minimum frame size
type ResolutionThresholdData struct {
	Minimum     int    `json:"minimum" example:"64"`
	Description string `json:"description"`
}

// ThresholdSetData groups the quality thresholds
type ThresholdSetData struct {
	Brightness BrightnessThresholdsData `json:"brightness"`
	Blur       MethodThresholdData      `json:"blur"`
	Contrast   MethodThresholdData      `json:"contrast"`
	Resolution ResolutionThresholdData  `json:"resolution"`
}

// ScoringData holds the usability bands
type ScoringData struct {
	UsableMin   float64 `json:"usable_min" example:"70"`
	MarginalMin float64 `json:"marginal_min" example:"40"`
}

// ReferenceData cites a finding behind a threshold
type ReferenceData struct {
	Title   string `json:"title"`
	Journal string `json:"journal"`
	Year    int    `json:"year" example:"2023"`
	Finding string `json:"finding"`
}

// ThresholdsResponse is the result of the thresholds endpoint
type ThresholdsResponse struct {
	Thresholds ThresholdSetData `json:"thresholds"`
	Scoring    ScoringData      `json:"scoring"`
	References []ReferenceData  `json:"references"`
}

// HealthResponse is returned by the health and readiness probes
type HealthResponse struct {
	Status    string            `json:"status" example:"ready"`
	Version   string            `json:"version,omitempty" example:"0.1.0"`
	Detectors map[string]string `json:"detectors,omitempty"`
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Neotriage API",
		Version:     "v1.0.0",
		Description: "Frame and video quality and face occlusion triage for NICU recordings, ahead of annotation",
		Host:        "localhost:3000",
	})

	internalError := response.New(ErrorResponse{Code: "INTERNAL_ERROR", Error: "An unexpected error occurred"}, "500", "Internal Server Error")
	rateLimited := response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Error: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests")

	endpoints := []*endpoint.EndPoint{
		// POST /v1/analyze/image - Analyze a single frame
		endpoint.New(
			endpoint.POST,
			"/v1/analyze/image",
			endpoint.WithTags("Analyze"),
			endpoint.WithSummary("Analyze a single image"),
			endpoint.WithDescription("Scores brightness, blur, contrast and resolution, detects face visibility and returns the combined usability verdict. Send JSON {\"image\": base64} or a multipart \"file\"."),
			endpoint.WithBody(ImageRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON, mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FrameAssessmentResponse{}, "200", "Image analyzed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NO_IMAGE_PROVIDED", Error: "No image provided"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "IMAGE_TOO_LARGE", Error: "Image exceeds the maximum upload size"}, "413", "Payload Too Large"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Error: "Failed to decode image"}, "422", "Unprocessable Entity"),
				rateLimited,
				internalError,
			}),
		),

		// POST /v1/analyze/batch - Analyze several frames
		endpoint.New(
			endpoint.POST,
			"/v1/analyze/batch",
			endpoint.WithTags("Analyze"),
			endpoint.WithSummary("Analyze a batch of images"),
			endpoint.WithDescription("Analyzes each base64 image independently. Items that fail to decode are reported by index with an error and still count toward the total."),
			endpoint.WithBody(BatchRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(BatchResponse{}, "200", "Batch analyzed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NO_IMAGES_PROVIDED", Error: "No images provided"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "IMAGE_TOO_LARGE", Error: "Image exceeds the maximum upload size"}, "413", "Payload Too Large"),
				response.New(ErrorResponse{Code: "BATCH_TOO_LARGE", Error: "Too many images in batch"}, "422", "Unprocessable Entity"),
				rateLimited,
				internalError,
			}),
		),

		// POST /v1/analyze/video - Triage a recording
		endpoint.New(
			endpoint.POST,
			"/v1/analyze/video",
			endpoint.WithTags("Analyze"),
			endpoint.WithSummary("Analyze a video"),
			endpoint.WithDescription("Samples the multipart \"file\" at extraction_fps frames per second, assesses every sample and smooths face detection across adjacent frames. Long videos are truncated at the configured frame or time limit and flagged."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("extraction_fps", parameter.Query, parameter.WithDescription("Frames sampled per second, sent as a form field (default: EXTRACTION_FPS)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VideoAnalysisResponse{}, "200", "Video analyzed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NO_VIDEO_PROVIDED", Error: "No video provided"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "VIDEO_TOO_LARGE", Error: "Video exceeds the maximum upload size"}, "413", "Payload Too Large"),
				response.New(ErrorResponse{Code: "INVALID_VIDEO", Error: "Failed to open video"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INVALID_EXTRACTION_RATE", Error: "extraction_fps must be greater than 0"}, "422", "Unprocessable Entity"),
				rateLimited,
				internalError,
				response.New(ErrorResponse{Code: "VIDEO_TIMEOUT", Error: "Video analysis exceeded the time limit"}, "504", "Gateway Timeout"),
			}),
		),

		// GET /v1/analyze/thresholds - Scoring constants
		endpoint.New(
			endpoint.GET,
			"/v1/analyze/thresholds",
			endpoint.WithTags("Analyze"),
			endpoint.WithSummary("Get quality thresholds"),
			endpoint.WithDescription("Returns the thresholds, usability bands and research references used for scoring"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ThresholdsResponse{}, "200", "Thresholds"),
			}),
		),

		// GET /health
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is up"),
			}),
		),

		// GET /ready
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Reports the active primary and fallback detectors. Status is \"degraded\" when only the fallback detector is running."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is ready"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
