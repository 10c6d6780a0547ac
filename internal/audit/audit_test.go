package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_Log(t *testing.T) {
	tests := []struct {
		name          string
		event         Event
		wantEventType string
		wantDetector  string
		wantHasError  bool
	}{
		{
			name: "image analyzed event",
			event: Event{
				EventType: EventImageAnalyzed,
				Subject:   "frame.jpg",
				Detector:  "deepface",
				Success:   true,
				Metadata:  map[string]string{"usability": "usable"},
			},
			wantEventType: string(EventImageAnalyzed),
			wantDetector:  "deepface",
		},
		{
			name: "failed video analysis",
			event: Event{
				EventType: EventVideoAnalyzed,
				Subject:   "bed-4.mp4",
				Detector:  "haar",
				Success:   false,
				Error:     "failed to open video",
			},
			wantEventType: string(EventVideoAnalyzed),
			wantDetector:  "haar",
			wantHasError:  true,
		},
		{
			name: "detector degraded",
			event: Event{
				EventType: EventDetectorDegraded,
				Detector:  "rekognition",
				Success:   false,
				Error:     "invalid or missing AWS credentials",
			},
			wantEventType: string(EventDetectorDegraded),
			wantDetector:  "rekognition",
			wantHasError:  true,
		},
		{
			name: "batch with request metadata",
			event: Event{
				EventType: EventBatchAnalyzed,
				Subject:   "12",
				Detector:  "deepface",
				Success:   true,
				IPAddress: "10.0.0.7",
				RequestID: "req-1",
			},
			wantEventType: string(EventBatchAnalyzed),
			wantDetector:  "deepface",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			auditLogger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

			err := auditLogger.Log(context.Background(), tt.event)
			require.NoError(t, err)

			output := buf.String()
			assert.Contains(t, output, tt.wantEventType)
			assert.Contains(t, output, tt.wantDetector)
			assert.Contains(t, output, "audit_event")
			assert.Contains(t, output, `"component":"audit"`)

			if tt.wantHasError {
				assert.Contains(t, output, tt.event.Error)
			}
		})
	}
}

func TestSlogLogger_Log_GeneratesIDAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	auditLogger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := auditLogger.Log(context.Background(), Event{EventType: EventImageAnalyzed, Success: true})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &logEntry))

	eventID, ok := logEntry["event_id"].(string)
	require.True(t, ok)
	_, err = uuid.Parse(eventID)
	assert.NoError(t, err)

	var data Event
	require.NoError(t, json.Unmarshal([]byte(logEntry["event_data"].(string)), &data))
	assert.False(t, data.Timestamp.IsZero())
}

func TestSlogLogger_Log_UsesProvidedID(t *testing.T) {
	var buf bytes.Buffer
	auditLogger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	expectedID := uuid.New()

	err := auditLogger.Log(context.Background(), Event{
		ID:        expectedID,
		Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		EventType: EventVideoAnalyzed,
		Success:   true,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), expectedID.String())
}

func TestNoOpLogger_Log(t *testing.T) {
	logger := &NoOpLogger{}
	assert.NoError(t, logger.Log(context.Background(), Event{EventType: EventImageAnalyzed}))
}

func TestLoggerInterface_Compliance(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
	var _ Logger = (*NoOpLogger)(nil)
}

func TestEvent_JSONSerialization_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Event{EventType: EventImageAnalyzed, Detector: "haar", Success: true})
	require.NoError(t, err)

	jsonStr := string(data)
	assert.NotContains(t, jsonStr, "subject")
	assert.NotContains(t, jsonStr, "error")
	assert.NotContains(t, jsonStr, "ip_address")
	assert.NotContains(t, jsonStr, "request_id")
	assert.Contains(t, jsonStr, `"detector":"haar"`)
}

func TestFromContext(t *testing.T) {
	ctx := WithRequest(context.Background(), "10.0.0.7", "req-42")

	event := FromContext(ctx, Event{EventType: EventImageAnalyzed})
	assert.Equal(t, "10.0.0.7", event.IPAddress)
	assert.Equal(t, "req-42", event.RequestID)

	event = FromContext(ctx, Event{RequestID: "explicit"})
	assert.Equal(t, "explicit", event.RequestID)

	event = FromContext(context.Background(), Event{EventType: EventImageAnalyzed})
	assert.Empty(t, event.IPAddress)
}
