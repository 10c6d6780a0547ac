package quality

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
)

const (
	DarkThreshold     = 25.0
	BrightThreshold   = 240.0
	BlurThreshold     = 100.0
	ContrastThreshold = 30.0
	MinResolution     = 64

	optimalBrightness = 128.0

	UsableScore   = 70.0
	MarginalScore = 40.0
)

const AcceptableRecommendation = "Image quality is acceptable for annotation"

// UsabilityFor buckets a quality score.
func UsabilityFor(score float64) domain.Usability {
	switch {
	case score >= UsableScore:
		return domain.UsabilityUsable
	case score >= MarginalScore:
		return domain.UsabilityMarginal
	default:
		return domain.UsabilityUnusable
	}
}

// Score runs every analyzer on the frame and folds the results into a
// 0-100 score. Values are unrounded.
func Score(f *imaging.Frame) domain.QualityMetrics {
	mean, std := Brightness(f)
	lapVar := LaplacianVariance(f)

	m := domain.QualityMetrics{
		Brightness: domain.BrightnessMetrics{
			Mean:          mean,
			Std:           std,
			IsTooDark:     mean <= DarkThreshold,
			IsTooBright:   mean >= BrightThreshold,
			ThresholdDark: DarkThreshold,
		},
		Blur: domain.BlurMetrics{
			LaplacianVariance: lapVar,
			IsBlurry:          lapVar < BlurThreshold,
			Threshold:         BlurThreshold,
		},
		Contrast: domain.ContrastMetrics{
			Score:         std,
			IsLowContrast: std < ContrastThreshold,
		},
		Resolution: domain.ResolutionMetrics{
			Width:    f.Width,
			Height:   f.Height,
			Adequate: ResolutionAdequate(f.Width, f.Height),
		},
		Issues:          []string{},
		Recommendations: []string{},
	}

	b := m.Brightness
	switch {
	case b.IsTooDark:
		m.Issues = append(m.Issues, fmt.Sprintf("Image too dark (intensity: %.1f, threshold: %d)", mean, int(DarkThreshold)))
		m.Recommendations = append(m.Recommendations,
			"Improve lighting conditions during capture",
			"Consider histogram equalization preprocessing",
		)
	case b.IsTooBright:
		m.Issues = append(m.Issues, fmt.Sprintf("Image overexposed (intensity: %.1f)", mean))
		m.Recommendations = append(m.Recommendations, "Reduce lighting or camera exposure")
	}

	if m.Blur.IsBlurry {
		m.Issues = append(m.Issues, fmt.Sprintf("Image is blurry (sharpness: %.1f, threshold: %d)", lapVar, int(BlurThreshold)))
		m.Recommendations = append(m.Recommendations,
			"Ensure camera is focused properly",
			"Reduce motion blur with faster shutter speed",
		)
	}

	if m.Contrast.IsLowContrast {
		m.Issues = append(m.Issues, fmt.Sprintf("Low contrast (score: %.1f)", std))
		m.Recommendations = append(m.Recommendations, "Apply contrast enhancement (CLAHE)")
	}

	if !m.Resolution.Adequate {
		m.Issues = append(m.Issues, fmt.Sprintf("Resolution too low (%dx%d)", f.Width, f.Height))
		m.Recommendations = append(m.Recommendations, "Use higher resolution camera or move closer")
	}

	m.OverallScore = overallScore(m)
	m.Usability = UsabilityFor(m.OverallScore)

	if len(m.Recommendations) == 0 {
		m.Recommendations = append(m.Recommendations, AcceptableRecommendation)
	}

	return m
}

func overallScore(m domain.QualityMetrics) float64 {
	score := 100.0
	mean := m.Brightness.Mean

	switch {
	case m.Brightness.IsTooDark:
		score -= math.Min(40, (DarkThreshold-mean)*2)
	case m.Brightness.IsTooBright:
		score -= math.Min(30, (mean-BrightThreshold)/2)
	default:
		score -= math.Min(10, math.Abs(mean-optimalBrightness)/20)
	}

	if m.Blur.IsBlurry {
		score -= math.Min(30, (BlurThreshold-m.Blur.LaplacianVariance)/5)
	}

	if m.Contrast.IsLowContrast {
		score -= math.Min(20, ContrastThreshold-m.Contrast.Score)
	}

	if !m.Resolution.Adequate {
		score -= 20
	}

	return math.Max(0, math.Min(100, score))
}

// Rounded returns a copy with metrics rounded for presentation.
func Rounded(m domain.QualityMetrics) domain.QualityMetrics {
	m.Brightness.Mean = domain.Round(m.Brightness.Mean, 2)
	m.Brightness.Std = domain.Round(m.Brightness.Std, 2)
	m.Blur.LaplacianVariance = domain.Round(m.Blur.LaplacianVariance, 2)
	m.Contrast.Score = domain.Round(m.Contrast.Score, 2)
	m.OverallScore = domain.Round(m.OverallScore, 1)
	return m
}
