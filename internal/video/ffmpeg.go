package video

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// maxFrameBytes bounds a single encoded frame read from ffmpeg.
const maxFrameBytes = 64 << 20

// FrameSource yields the encoded frames of one stream in order. Next returns
// io.EOF after the last frame.
type FrameSource interface {
	Info() Info
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Opener opens a frame source for a file on disk.
type Opener interface {
	Open(ctx context.Context, path string) (FrameSource, error)
}

// FFmpeg opens videos by probing with ffprobe and decoding with ffmpeg,
// which re-encodes every frame as MJPEG on stdout.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
}

func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

func (f *FFmpeg) Open(ctx context.Context, path string) (FrameSource, error) {
	info, err := Probe(ctx, f.FFprobePath, path)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, f.FFmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-map", "0:v:0",
		"-vsync", "passthrough",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	stderr := &limitedBuffer{max: 4096}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", ErrOpen, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 1<<20), maxFrameBytes)
	scanner.Split(SplitJPEG)

	return &ffmpegSource{
		info:    info,
		cmd:     cmd,
		stdout:  stdout,
		stderr:  stderr,
		scanner: scanner,
	}, nil
}

type ffmpegSource struct {
	info    Info
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stderr  *limitedBuffer
	scanner *bufio.Scanner

	closeOnce sync.Once
	waitErr   error
	done      bool
}

func (s *ffmpegSource) Info() Info {
	return s.info
}

func (s *ffmpegSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done {
		return nil, io.EOF
	}

	if s.scanner.Scan() {
		// the scanner reuses its buffer
		return bytes.Clone(s.scanner.Bytes()), nil
	}

	s.done = true
	scanErr := s.scanner.Err()
	if err := s.wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: ffmpeg: %v: %s", ErrRead, err, strings.TrimSpace(s.stderr.String()))
	}
	if scanErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, scanErr)
	}
	return nil, io.EOF
}

func (s *ffmpegSource) Close() error {
	s.closeOnce.Do(func() {
		if !s.done && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
	})
	err := s.wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// killed or failed mid-stream, already reported by Next
		return nil
	}
	return err
}

// wait reaps the process once; Next and Close both call it.
func (s *ffmpegSource) wait() error {
	if s.cmd.ProcessState == nil {
		// drain so ffmpeg does not block on a full pipe
		_, _ = io.Copy(io.Discard, s.stdout)
		s.waitErr = s.cmd.Wait()
	}
	return s.waitErr
}

// limitedBuffer keeps the first max bytes written to it.
type limitedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
