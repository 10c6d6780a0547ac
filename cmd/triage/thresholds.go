package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/quality"
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Print the scoring thresholds and their references",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		report := quality.Thresholds()
		out := cmd.OutOrStdout()
		if jsonOut {
			return writeJSON(out, report)
		}

		t := report.Thresholds
		fmt.Fprintf(out, "brightness: dark <= %.0f, bright >= %.0f\n", t.Brightness.DarkThreshold, t.Brightness.BrightThreshold)
		fmt.Fprintf(out, "blur: %s < %.0f\n", t.Blur.Method, t.Blur.Threshold)
		fmt.Fprintf(out, "contrast: %s < %.0f\n", t.Contrast.Method, t.Contrast.Threshold)
		fmt.Fprintf(out, "resolution: min dimension %d\n", t.Resolution.Minimum)
		fmt.Fprintf(out, "usability: usable >= %.0f, marginal >= %.0f\n", report.Scoring.UsableMin, report.Scoring.MarginalMin)
		for _, r := range report.References {
			fmt.Fprintf(out, "  [%d] %s (%s): %s\n", r.Year, r.Title, r.Journal, r.Finding)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(thresholdsCmd)
}
