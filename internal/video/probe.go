package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Info describes the source stream.
type Info struct {
	FPS         float64
	TotalFrames int
	Duration    float64
	Width       int
	Height      int
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads stream metadata with ffprobe.
func Probe(ctx context.Context, ffprobePath, path string) (Info, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate,r_frame_rate,nb_frames,duration:format=duration",
		"-of", "json",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Info{}, fmt.Errorf("%w: ffprobe: %v: %s", ErrOpen, err, strings.TrimSpace(stderr.String()))
	}

	return parseProbe(stdout.Bytes())
}

func parseProbe(data []byte) (Info, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Info{}, fmt.Errorf("%w: parse ffprobe output: %v", ErrOpen, err)
	}
	if len(out.Streams) == 0 {
		return Info{}, fmt.Errorf("%w: no video stream", ErrOpen)
	}

	s := out.Streams[0]
	info := Info{
		Width:  s.Width,
		Height: s.Height,
		FPS:    parseRate(s.AvgFrameRate),
	}
	if info.FPS <= 0 {
		info.FPS = parseRate(s.RFrameRate)
	}
	if info.FPS <= 0 {
		return Info{}, fmt.Errorf("%w: unknown frame rate", ErrOpen)
	}

	info.Duration = parseFloat(s.Duration)
	if info.Duration <= 0 {
		info.Duration = parseFloat(out.Format.Duration)
	}

	if n, err := strconv.Atoi(s.NbFrames); err == nil && n > 0 {
		info.TotalFrames = n
	} else if info.Duration > 0 {
		info.TotalFrames = int(info.Duration*info.FPS + 0.5)
	}

	return info, nil
}

// parseRate parses ffprobe rationals such as "30000/1001".
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return parseFloat(s)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
