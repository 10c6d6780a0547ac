package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventImageAnalyzed    EventType = "IMAGE_ANALYZED"
	EventBatchAnalyzed    EventType = "BATCH_ANALYZED"
	EventVideoAnalyzed    EventType = "VIDEO_ANALYZED"
	EventDetectorDegraded EventType = "DETECTOR_DEGRADED"
)

// Event is one analysis outcome. Frames themselves are never logged.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	EventType EventType `json:"event_type"`
	// Subject identifies what was analyzed: a video id, a filename or a batch size.
	Subject   string            `json:"subject,omitempty"`
	Detector  string            `json:"detector"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	IPAddress string            `json:"ip_address,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	l.logger.InfoContext(ctx, "audit_event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.String("subject", event.Subject),
		slog.String("detector", event.Detector),
		slog.Bool("success", event.Success),
		slog.String("event_data", string(eventJSON)),
	)

	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}

type requestKey struct{}

type requestInfo struct {
	ip        string
	requestID string
}

// WithRequest attaches the caller address and request id to ctx so events
// logged further down the call chain carry them.
func WithRequest(ctx context.Context, ip, requestID string) context.Context {
	return context.WithValue(ctx, requestKey{}, requestInfo{ip: ip, requestID: requestID})
}

// FromContext fills the request fields of an event from ctx when unset.
func FromContext(ctx context.Context, event Event) Event {
	info, ok := ctx.Value(requestKey{}).(requestInfo)
	if !ok {
		return event
	}
	if event.IPAddress == "" {
		event.IPAddress = info.ip
	}
	if event.RequestID == "" {
		event.RequestID = info.requestID
	}
	return event
}
