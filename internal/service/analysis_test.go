package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/audit"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
)

type MockAssessor struct {
	mock.Mock
}

func (m *MockAssessor) Assess(ctx context.Context, frame *imaging.Frame) (domain.FrameAssessment, error) {
	args := m.Called(ctx, frame)
	return args.Get(0).(domain.FrameAssessment), args.Error(1)
}

// recordingAudit keeps every event it is given.
type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingAudit) last() audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func pngBytes(t *testing.T, v uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 96, 96))
	for y := 0; y < 96; y++ {
		for x := 0; x < 96; x++ {
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func assessment(status domain.DetectionStatus, score float64, u domain.Usability) domain.FrameAssessment {
	a := domain.FrameAssessment{
		Occlusion: domain.OcclusionMetrics{
			FaceDetected: status != domain.StatusNotDetected,
			Status:       status,
			Level:        domain.OcclusionNone,
		},
		Overall: domain.OverallAssessment{Score: score, Usability: u},
	}
	switch status {
	case domain.StatusNotDetected:
		a.Occlusion.Level = domain.OcclusionSevere
		a.Overall.Issues = []string{"Face not detected - possibly fully occluded"}
	case domain.StatusUncertain:
		a.Occlusion.Level = domain.OcclusionUncertain
		a.Overall.Issues = []string{"Face detection borderline - may need manual review"}
	}
	return a
}

func TestAnalysisService_AnalyzeImage(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		setupMocks func(*MockAssessor)
		wantErr    error
	}{
		{
			name: "successful analysis",
			data: pngBytes(t, 128),
			setupMocks: func(m *MockAssessor) {
				m.On("Assess", mock.Anything, mock.AnythingOfType("*imaging.Frame")).
					Return(assessment(domain.StatusDetected, 82, domain.UsabilityUsable), nil)
			},
		},
		{
			name:    "no image",
			data:    nil,
			wantErr: domain.ErrNoImageProvided,
		},
		{
			name:    "undecodable bytes",
			data:    []byte("definitely not an image"),
			wantErr: domain.ErrInvalidImage,
		},
		{
			name: "assessor fails",
			data: pngBytes(t, 128),
			setupMocks: func(m *MockAssessor) {
				m.On("Assess", mock.Anything, mock.Anything).
					Return(domain.FrameAssessment{}, context.Canceled)
			},
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessor := new(MockAssessor)
			if tt.setupMocks != nil {
				tt.setupMocks(assessor)
			}
			auditLog := &recordingAudit{}
			svc := NewAnalysisService(assessor, auditLog, nil, nil).WithDetectorName("mock-primary")

			result, err := svc.AnalyzeImage(context.Background(), tt.data)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.UsabilityUsable, result.Overall.Usability)

				event := auditLog.last()
				assert.Equal(t, audit.EventImageAnalyzed, event.EventType)
				assert.True(t, event.Success)
				assert.Equal(t, "mock-primary", event.Detector)
				assert.Equal(t, "82.0", event.Metadata["score"])
			}

			assessor.AssertExpectations(t)
		})
	}
}

func TestAnalysisService_AnalyzeBase64(t *testing.T) {
	assessor := new(MockAssessor)
	assessor.On("Assess", mock.Anything, mock.Anything).
		Return(assessment(domain.StatusUncertain, 60, domain.UsabilityMarginal), nil).Once()

	svc := NewAnalysisService(assessor, nil, nil, nil)
	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 90))

	ctx := audit.WithRequest(context.Background(), "10.1.1.1", "req-9")
	result, err := svc.AnalyzeBase64(ctx, encoded)
	require.NoError(t, err)
	assert.Equal(t, domain.UsabilityMarginal, result.Overall.Usability)

	_, err = svc.AnalyzeBase64(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNoImageProvided)

	_, err = svc.AnalyzeBase64(ctx, "data:image/png;base64,!!!")
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	assessor.AssertExpectations(t)
}

func TestAnalysisService_AuditCarriesRequest(t *testing.T) {
	assessor := new(MockAssessor)
	assessor.On("Assess", mock.Anything, mock.Anything).
		Return(assessment(domain.StatusDetected, 75, domain.UsabilityUsable), nil)
	auditLog := &recordingAudit{}

	svc := NewAnalysisService(assessor, auditLog, nil, nil)
	ctx := audit.WithRequest(context.Background(), "10.1.1.1", "req-9")

	_, err := svc.AnalyzeImage(ctx, pngBytes(t, 100))
	require.NoError(t, err)

	event := auditLog.last()
	assert.Equal(t, "10.1.1.1", event.IPAddress)
	assert.Equal(t, "req-9", event.RequestID)
}

func TestAnalysisService_AnalyzeBatch(t *testing.T) {
	dark := assessment(domain.StatusNotDetected, 30, domain.UsabilityUnusable)
	dark.Quality.Brightness.IsTooDark = true
	dark.Quality.Blur.IsBlurry = true
	dark.Quality.Contrast.IsLowContrast = true

	partial := assessment(domain.StatusDetected, 60, domain.UsabilityMarginal)
	partial.Occlusion.Level = domain.OcclusionPartial

	good := assessment(domain.StatusDetected, 85, domain.UsabilityUsable)

	darkPNG := pngBytes(t, 10)
	partialPNG := pngBytes(t, 120)
	goodPNG := pngBytes(t, 130)

	assessor := new(MockAssessor)
	matchSize := func(v uint8) interface{} {
		return mock.MatchedBy(func(f *imaging.Frame) bool { return f.Gray[0] == v })
	}
	assessor.On("Assess", mock.Anything, matchSize(10)).Return(dark, nil)
	assessor.On("Assess", mock.Anything, matchSize(120)).Return(partial, nil)
	assessor.On("Assess", mock.Anything, matchSize(130)).Return(good, nil)

	auditLog := &recordingAudit{}
	svc := NewAnalysisService(assessor, auditLog, nil, nil)

	images := []string{
		base64.StdEncoding.EncodeToString(darkPNG),
		"not-base64-$$$",
		base64.StdEncoding.EncodeToString(partialPNG),
		"data:image/png;base64," + base64.StdEncoding.EncodeToString(goodPNG),
	}

	result, err := svc.AnalyzeBatch(context.Background(), images)
	require.NoError(t, err)

	require.Len(t, result.Results, 4)
	for i, item := range result.Results {
		assert.Equal(t, i, item.Index)
	}
	assert.Equal(t, "Failed to decode image", result.Results[1].Error)
	assert.Nil(t, result.Results[1].FrameAssessment)
	require.NotNil(t, result.Results[3].FrameAssessment)
	assert.Equal(t, domain.UsabilityUsable, result.Results[3].Overall.Usability)

	assert.Equal(t, domain.BatchSummary{
		Total:    4,
		Usable:   1,
		Marginal: 1,
		Unusable: 1,
		Issues: domain.BatchIssueCounts{
			TooDark:     1,
			Blurry:      1,
			LowContrast: 1,
			NoFace:      1,
			Occluded:    1,
		},
	}, result.Summary)

	event := auditLog.last()
	assert.Equal(t, audit.EventBatchAnalyzed, event.EventType)
	assert.Equal(t, "4", event.Subject)
}

func TestAnalysisService_AnalyzeBatch_Limits(t *testing.T) {
	svc := NewAnalysisService(new(MockAssessor), nil, nil, nil).WithMaxBatchSize(2)

	_, err := svc.AnalyzeBatch(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoImagesProvided)

	_, err = svc.AnalyzeBatch(context.Background(), []string{"a", "b", "c"})
	assert.ErrorIs(t, err, domain.ErrBatchTooLarge)

	var appErr *domain.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 422, appErr.StatusCode)
}
