package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrInvalidImage,
			expected: "Failed to decode image",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := &AppError{
		Code:       "TEST",
		Message:    "test",
		StatusCode: 500,
		Err:        underlying,
	}

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	// Test with nil error
	appErrNoWrap := ErrInvalidVideo
	if got := appErrNoWrap.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("ffmpeg exited with status 1")
	newErr := ErrInternal.WithError(underlying)

	if newErr.Code != ErrInternal.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrInternal.Code)
	}

	if newErr.StatusCode != ErrInternal.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrInternal.StatusCode)
	}

	if newErr.Err != underlying {
		t.Errorf("Err = %v, want %v", newErr.Err, underlying)
	}

	// Check errors.Is still works
	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}
}

func TestErrorsIs(t *testing.T) {
	// Test that errors.As works with AppError
	err := ErrInvalidVideo.WithError(errors.New("moov atom not found"))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Errorf("errors.As should match AppError")
	}

	if appErr.Code != "INVALID_VIDEO" {
		t.Errorf("Code = %v, want INVALID_VIDEO", appErr.Code)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *AppError
		code       string
		statusCode int
	}{
		{ErrInternal, "INTERNAL_ERROR", 500},
		{ErrBadRequest, "BAD_REQUEST", 400},
		{ErrNoImageProvided, "NO_IMAGE_PROVIDED", 400},
		{ErrNoVideoProvided, "NO_VIDEO_PROVIDED", 400},
		{ErrInvalidImage, "INVALID_IMAGE", 422},
		{ErrInvalidVideo, "INVALID_VIDEO", 422},
		{ErrImageTooLarge, "IMAGE_TOO_LARGE", 413},
		{ErrVideoTooLarge, "VIDEO_TOO_LARGE", 413},
		{ErrBatchTooLarge, "BATCH_TOO_LARGE", 422},
		{ErrInvalidExtractionRate, "INVALID_EXTRACTION_RATE", 422},
		{ErrVideoTimeout, "VIDEO_TIMEOUT", 504},
		{ErrRateLimitExceeded, "RATE_LIMIT_EXCEEDED", 429},
		{ErrValidationFailed, "VALIDATION_FAILED", 422},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %v, want %v", tt.err.StatusCode, tt.statusCode)
			}
		})
	}
}

func TestAppError_Is(t *testing.T) {
	wrapped := fmt.Errorf("analyze: %w", ErrInvalidVideo.WithError(errors.New("moov atom not found")))

	if !errors.Is(wrapped, ErrInvalidVideo) {
		t.Error("expected wrapped copy to match ErrInvalidVideo")
	}
	if errors.Is(wrapped, ErrInvalidImage) {
		t.Error("did not expect match with ErrInvalidImage")
	}
}
