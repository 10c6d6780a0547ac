package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	videoFPS   float64
	videoNoBar bool
)

var videoCmd = &cobra.Command{
	Use:               "video <path>",
	Short:             "Sample a recording and triage every extracted frame",
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: loadPipeline,
	PostRun:           closePipeline,
	RunE:              runVideo,
}

func init() {
	videoCmd.Flags().Float64Var(&videoFPS, "fps", 0, "Frames sampled per second (default: EXTRACTION_FPS)")
	videoCmd.Flags().BoolVar(&videoNoBar, "no-progress", false, "Disable the progress bar")
	rootCmd.AddCommand(videoCmd)
}

func runVideo(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	fps := cfg.ExtractionFPS
	if cmd.Flags().Changed("fps") {
		fps = videoFPS
	}

	var bar *progressbar.ProgressBar
	progress := func(extracted, expected int) {}
	if !videoNoBar {
		// total is refined once the stream is probed
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Extracting frames"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		progress = func(extracted, expected int) {
			bar.ChangeMax(expected)
			_ = bar.Set(extracted)
		}
	}

	result, err := pipeline.Videos.AnalyzeVideoFile(cmd.Context(), path, fps, progress)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return writeJSON(out, result)
	}
	printVideo(out, result)
	return nil
}
