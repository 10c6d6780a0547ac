package quality

type BrightnessThresholds struct {
	DarkThreshold   float64 `json:"dark_threshold"`
	BrightThreshold float64 `json:"bright_threshold"`
	Description     string  `json:"description"`
}

type MethodThreshold struct {
	Threshold   float64 `json:"threshold"`
	Method      string  `json:"method"`
	Description string  `json:"description"`
}

type ResolutionThreshold struct {
	Minimum     int    `json:"minimum"`
	Description string `json:"description"`
}

type ThresholdSet struct {
	Brightness BrightnessThresholds `json:"brightness"`
	Blur       MethodThreshold      `json:"blur"`
	Contrast   MethodThreshold      `json:"contrast"`
	Resolution ResolutionThreshold  `json:"resolution"`
}

type Reference struct {
	Title   string `json:"title"`
	Journal string `json:"journal"`
	Year    int    `json:"year"`
	Finding string `json:"finding"`
}

// ThresholdReport lets calling tooling display or justify the scoring constants.
type ThresholdReport struct {
	Thresholds ThresholdSet `json:"thresholds"`
	Scoring    ScoringBands `json:"scoring"`
	References []Reference  `json:"references"`
}

type ScoringBands struct {
	UsableMin   float64 `json:"usable_min"`
	MarginalMin float64 `json:"marginal_min"`
}

func Thresholds() ThresholdReport {
	return ThresholdReport{
		Thresholds: ThresholdSet{
			Brightness: BrightnessThresholds{
				DarkThreshold:   DarkThreshold,
				BrightThreshold: BrightThreshold,
				Description:     "Images with pixel intensity ≤25 are unusable per research findings",
			},
			Blur: MethodThreshold{
				Threshold:   BlurThreshold,
				Method:      "Laplacian variance",
				Description: "Lower values indicate more blur",
			},
			Contrast: MethodThreshold{
				Threshold:   ContrastThreshold,
				Method:      "Standard deviation of pixel values",
				Description: "Low contrast makes facial features hard to distinguish",
			},
			Resolution: ResolutionThreshold{
				Minimum:     MinResolution,
				Description: "Minimum dimension in pixels for reliable face detection",
			},
		},
		Scoring: ScoringBands{
			UsableMin:   UsableScore,
			MarginalMin: MarginalScore,
		},
		References: []Reference{
			{
				Title:   "Accurate Neonatal Face Detection for Improved Pain Classification in the Challenging NICU Setting",
				Journal: "IEEE Access",
				Year:    2024,
				Finding: "Images with average pixel intensity of 25 or lower are unusable",
			},
		},
	}
}
