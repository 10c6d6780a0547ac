package quality

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
)

func flatFrame(w, h int, v uint8) *imaging.Frame {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return imaging.FromImage(img)
}

// stripeFrame alternates 0/255 columns.
func stripeFrame(w, h int) *imaging.Frame {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x%2 == 1 {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return imaging.FromImage(img)
}

func TestBrightness(t *testing.T) {
	mean, std := Brightness(flatFrame(10, 10, 42))
	assert.Equal(t, 42.0, mean)
	assert.Equal(t, 0.0, std)

	mean, std = Brightness(stripeFrame(4, 4))
	assert.InDelta(t, 127.5, mean, 1e-9)
	assert.InDelta(t, 127.5, std, 1e-9)
}

func TestLaplacianVariance(t *testing.T) {
	assert.Equal(t, 0.0, LaplacianVariance(flatFrame(20, 20, 200)))

	// Every pixel responds with +-510 under reflect-101 borders.
	assert.InDelta(t, 510.0*510.0, LaplacianVariance(stripeFrame(4, 4)), 1e-6)

	assert.Equal(t, 0.0, LaplacianVariance(flatFrame(1, 1, 9)))
}

func TestReflect101(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{-1, 5, 1},
		{5, 5, 3},
		{0, 5, 0},
		{4, 5, 4},
		{-1, 2, 1},
		{2, 2, 0},
		{-1, 1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, reflect101(tt.i, tt.n), "reflect101(%d, %d)", tt.i, tt.n)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name          string
		frame         *imaging.Frame
		wantScore     float64
		wantUsability domain.Usability
		wantIssues    []string
		wantRecs      []string
	}{
		{
			name:          "flat dark frame",
			frame:         flatFrame(100, 100, 10),
			wantScore:     30,
			wantUsability: domain.UsabilityUnusable,
			wantIssues: []string{
				"Image too dark (intensity: 10.0, threshold: 25)",
				"Image is blurry (sharpness: 0.0, threshold: 100)",
				"Low contrast (score: 0.0)",
			},
			wantRecs: []string{
				"Improve lighting conditions during capture",
				"Consider histogram equalization preprocessing",
				"Ensure camera is focused properly",
				"Reduce motion blur with faster shutter speed",
				"Apply contrast enhancement (CLAHE)",
			},
		},
		{
			name:          "overexposed flat frame",
			frame:         flatFrame(100, 100, 250),
			wantScore:     55,
			wantUsability: domain.UsabilityMarginal,
			wantIssues: []string{
				"Image overexposed (intensity: 250.0)",
				"Image is blurry (sharpness: 0.0, threshold: 100)",
				"Low contrast (score: 0.0)",
			},
			wantRecs: []string{
				"Reduce lighting or camera exposure",
				"Ensure camera is focused properly",
				"Reduce motion blur with faster shutter speed",
				"Apply contrast enhancement (CLAHE)",
			},
		},
		{
			name:          "sharp well exposed frame",
			frame:         stripeFrame(64, 64),
			wantScore:     99.975,
			wantUsability: domain.UsabilityUsable,
			wantIssues:    []string{},
			wantRecs:      []string{AcceptableRecommendation},
		},
		{
			name:          "sharp but tiny frame",
			frame:         stripeFrame(32, 32),
			wantScore:     79.975,
			wantUsability: domain.UsabilityUsable,
			wantIssues:    []string{"Resolution too low (32x32)"},
			wantRecs:      []string{"Use higher resolution camera or move closer"},
		},
		{
			name:          "black tiny frame clamps at zero",
			frame:         flatFrame(10, 10, 0),
			wantScore:     0,
			wantUsability: domain.UsabilityUnusable,
			wantIssues: []string{
				"Image too dark (intensity: 0.0, threshold: 25)",
				"Image is blurry (sharpness: 0.0, threshold: 100)",
				"Low contrast (score: 0.0)",
				"Resolution too low (10x10)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Score(tt.frame)

			assert.InDelta(t, tt.wantScore, m.OverallScore, 1e-9)
			assert.Equal(t, tt.wantUsability, m.Usability)
			assert.Equal(t, tt.wantIssues, m.Issues)
			if tt.wantRecs != nil {
				assert.Equal(t, tt.wantRecs, m.Recommendations)
			}
		})
	}
}

func TestScore_DarkFlags(t *testing.T) {
	for v := 0; v <= 25; v++ {
		m := Score(flatFrame(80, 80, uint8(v)))
		assert.True(t, m.Brightness.IsTooDark, "mean %d must be too dark", v)
	}
	assert.False(t, Score(flatFrame(80, 80, 26)).Brightness.IsTooDark)
}

func TestScore_BoundedAndDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 25; i++ {
		w, h := 16+rng.Intn(100), 16+rng.Intn(100)
		img := image.NewGray(image.Rect(0, 0, w, h))
		base := rng.Intn(256)
		spread := rng.Intn(256)
		for p := range img.Pix {
			v := base + rng.Intn(spread+1) - spread/2
			img.Pix[p] = uint8(max(0, min(255, v)))
		}

		f := imaging.FromImage(img)
		first := Score(f)
		second := Score(f)

		require.Equal(t, first, second)
		assert.GreaterOrEqual(t, first.OverallScore, 0.0)
		assert.LessOrEqual(t, first.OverallScore, 100.0)
		assert.Equal(t, UsabilityFor(first.OverallScore), first.Usability)
	}
}

func TestUsabilityFor(t *testing.T) {
	assert.Equal(t, domain.UsabilityUsable, UsabilityFor(70))
	assert.Equal(t, domain.UsabilityMarginal, UsabilityFor(69.99))
	assert.Equal(t, domain.UsabilityMarginal, UsabilityFor(40))
	assert.Equal(t, domain.UsabilityUnusable, UsabilityFor(39.99))
}

func TestRounded(t *testing.T) {
	m := Score(stripeFrame(64, 64))
	r := Rounded(m)

	assert.Equal(t, 127.5, r.Brightness.Mean)
	assert.Equal(t, 100.0, r.OverallScore)
	assert.InDelta(t, 99.975, m.OverallScore, 1e-9, "input left untouched")
}

func TestThresholds(t *testing.T) {
	report := Thresholds()

	assert.Equal(t, 25.0, report.Thresholds.Brightness.DarkThreshold)
	assert.Equal(t, 240.0, report.Thresholds.Brightness.BrightThreshold)
	assert.Equal(t, 100.0, report.Thresholds.Blur.Threshold)
	assert.Equal(t, 30.0, report.Thresholds.Contrast.Threshold)
	assert.Equal(t, 64, report.Thresholds.Resolution.Minimum)
	assert.Equal(t, 70.0, report.Scoring.UsableMin)
	assert.Equal(t, 40.0, report.Scoring.MarginalMin)
	require.Len(t, report.References, 1)
	assert.Equal(t, 2024, report.References[0].Year)
}
