package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var imageCmd = &cobra.Command{
	Use:               "image <path>...",
	Short:             "Assess quality and face visibility of one or more images",
	Args:              cobra.MinimumNArgs(1),
	PersistentPreRunE: loadPipeline,
	PostRun:           closePipeline,
	RunE:              runImage,
}

func init() {
	rootCmd.AddCommand(imageCmd)
}

func runImage(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		result, err := pipeline.Images.AnalyzeImage(cmd.Context(), data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if jsonOut {
			if err := writeJSON(out, result); err != nil {
				return err
			}
			continue
		}
		printAssessment(out, filepath.Base(path), result)
	}
	return nil
}
