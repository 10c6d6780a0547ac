package video

import "errors"

var (
	// ErrOpen means the stream could not be opened or yielded no frames.
	ErrOpen = errors.New("failed to open video")
	// ErrRead is a frame read failure after the stream was opened.
	ErrRead = errors.New("failed to read video frame")
	// ErrInvalidRate is returned for a non-positive extraction rate.
	ErrInvalidRate = errors.New("extraction rate must be greater than 0")
)
