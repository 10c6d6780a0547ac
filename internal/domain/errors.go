package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code, so copies made by WithError still match
// the predefined values.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNoImageProvided = &AppError{
		Code:       "NO_IMAGE_PROVIDED",
		Message:    "No image provided",
		StatusCode: 400,
	}

	ErrNoImagesProvided = &AppError{
		Code:       "NO_IMAGES_PROVIDED",
		Message:    "No images provided",
		StatusCode: 400,
	}

	ErrNoVideoProvided = &AppError{
		Code:       "NO_VIDEO_PROVIDED",
		Message:    "No video provided",
		StatusCode: 400,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Failed to decode image",
		StatusCode: 422,
	}

	ErrInvalidVideo = &AppError{
		Code:       "INVALID_VIDEO",
		Message:    "Failed to open video",
		StatusCode: 422,
	}

	ErrImageTooLarge = &AppError{
		Code:       "IMAGE_TOO_LARGE",
		Message:    "Image exceeds the maximum upload size",
		StatusCode: 413,
	}

	ErrVideoTooLarge = &AppError{
		Code:       "VIDEO_TOO_LARGE",
		Message:    "Video exceeds the maximum upload size",
		StatusCode: 413,
	}

	ErrBatchTooLarge = &AppError{
		Code:       "BATCH_TOO_LARGE",
		Message:    "Too many images in batch",
		StatusCode: 422,
	}

	ErrInvalidExtractionRate = &AppError{
		Code:       "INVALID_EXTRACTION_RATE",
		Message:    "extraction_fps must be greater than 0",
		StatusCode: 422,
	}

	ErrVideoTimeout = &AppError{
		Code:       "VIDEO_TIMEOUT",
		Message:    "Video analysis exceeded the time limit",
		StatusCode: 504,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}
)
