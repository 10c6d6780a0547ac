package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJPEG(t *testing.T, v uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 80, 60))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}))
	return buf.Bytes()
}

// fakeSource serves the same encoded frame n times. failAt >= 0 returns
// ErrRead at that frame; blockAt >= 0 blocks until the context is done.
type fakeSource struct {
	info    Info
	frame   []byte
	frames  map[int][]byte
	n       int
	failAt  int
	blockAt int
	pos     int
	closed  bool
}

func newFakeSource(t *testing.T, fps float64, n int) *fakeSource {
	return &fakeSource{
		info:    Info{FPS: fps, TotalFrames: n, Width: 80, Height: 60},
		frame:   testJPEG(t, 128),
		n:       n,
		failAt:  -1,
		blockAt: -1,
	}
}

func (s *fakeSource) Info() Info { return s.info }

func (s *fakeSource) Next(ctx context.Context) ([]byte, error) {
	if s.pos == s.blockAt {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.pos == s.failAt {
		return nil, fmt.Errorf("%w: corrupt packet", ErrRead)
	}
	if s.pos >= s.n {
		return nil, io.EOF
	}
	data := s.frame
	if f, ok := s.frames[s.pos]; ok {
		data = f
	}
	s.pos++
	return data, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeOpener struct {
	src      *fakeSource
	err      error
	path     string
	contents []byte
}

func (o *fakeOpener) Open(_ context.Context, path string) (FrameSource, error) {
	o.path = path
	o.contents, _ = os.ReadFile(path)
	if o.err != nil {
		return nil, o.err
	}
	return o.src, nil
}

func collect(samples *[]Sample) func(Sample) error {
	return func(s Sample) error {
		*samples = append(*samples, s)
		return nil
	}
}

func TestInterval(t *testing.T) {
	tests := []struct {
		source, target float64
		want           int
	}{
		{30, 1, 30},
		{30, 30, 1},
		{30, 60, 1},
		{29.97, 1, 29},
		{25, 2, 12},
		{30, 0.5, 60},
		{24, 23.5, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v/%v", tt.source, tt.target), func(t *testing.T) {
			assert.Equal(t, tt.want, Interval(tt.source, tt.target))
		})
	}
}

func TestExtractFile_SamplesAtInterval(t *testing.T) {
	src := newFakeSource(t, 30, 300)
	ext := NewExtractor(&fakeOpener{src: src}, "", nil)

	var samples []Sample
	res, err := ext.ExtractFile(context.Background(), "clip.mp4", Options{FPS: 1}, collect(&samples))
	require.NoError(t, err)

	assert.Equal(t, 30, res.Interval)
	assert.Equal(t, 10, res.Extracted)
	assert.Equal(t, 300, res.FramesRead)
	assert.Equal(t, 300, res.TotalFrames())
	assert.False(t, res.Truncated)
	assert.True(t, src.closed)

	require.Len(t, samples, 10)
	for i, s := range samples {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, i*30, s.SourceFrame)
		assert.Equal(t, float64(i), s.Timestamp)
		assert.NotNil(t, s.Frame)
		assert.True(t, strings.HasPrefix(s.Thumbnail, "data:image/jpeg;base64,"))
	}
}

func TestExtractFile_CountIsCeilOfInterval(t *testing.T) {
	for _, n := range []int{1, 29, 30, 31, 299, 301} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			ext := NewExtractor(&fakeOpener{src: newFakeSource(t, 30, n)}, "", nil)

			var samples []Sample
			res, err := ext.ExtractFile(context.Background(), "clip.mp4", Options{FPS: 1}, collect(&samples))
			require.NoError(t, err)
			assert.Equal(t, (n+29)/30, res.Extracted)

			for i := 1; i < len(samples); i++ {
				assert.Greater(t, samples[i].Timestamp, samples[i-1].Timestamp)
			}
		})
	}
}

func TestExtractFile_MaxFrames(t *testing.T) {
	t.Run("truncates", func(t *testing.T) {
		ext := NewExtractor(&fakeOpener{src: newFakeSource(t, 30, 300)}, "", nil)

		var samples []Sample
		res, err := ext.ExtractFile(context.Background(), "clip.mp4", Options{FPS: 1, MaxFrames: 4}, collect(&samples))
		require.NoError(t, err)
		assert.Len(t, samples, 4)
		assert.True(t, res.Truncated)
		assert.Equal(t, TruncatedMaxFrames, res.TruncationReason)
	})

	t.Run("exact fit is not truncated", func(t *testing.T) {
		ext := NewExtractor(&fakeOpener{src: newFakeSource(t, 30, 300)}, "", nil)

		var samples []Sample
		res, err := ext.ExtractFile(context.Background(), "clip.mp4", Options{FPS: 1, MaxFrames: 10}, collect(&samples))
		require.NoError(t, err)
		assert.Len(t, samples, 10)
		assert.False(t, res.Truncated)
	})
}

func TestExtractFile_MidStreamFailure(t *testing.T) {
	src := newFakeSource(t, 30, 300)
	src.failAt = 45
	ext := NewExtractor(&fakeOpener{src: src}, "", nil)

	var samples []Sample
	res, err := ext.ExtractFile(context.Background(), "clip.mp4", Options{FPS: 1}, collect(&samples))
	require.NoError(t, err)

	assert.Len(t, samples, 2)
	assert.Equal(t, 45, res.FramesRead)
	assert.True(t, res.Truncated)
	assert.Equal(t, TruncatedReadError, res.TruncationReason)
}

func TestExtractFile_CorruptSampledFrame(t *testing.T) {
	src := newFakeSource(t, 30, 300)
	src.frames = map[int][]byte{60: []byte("not a jpeg")}
	ext := NewExtractor(&fakeOpener{src: src}, "", nil)

	var samples []Sample
	res, err := ext.ExtractFile(context.Background(), "clip.mp4", Options{FPS: 1}, collect(&samples))
	require.NoError(t, err)
	assert.Len(t, samples, 2)
	assert.Equal(t, TruncatedReadError, res.TruncationReason)
}

func TestExtractFile_OpenFailures(t *testing.T) {
	tests := []struct {
		name   string
		opener func(t *testing.T) *fakeOpener
	}{
		{
			name: "opener fails",
			opener: func(t *testing.T) *fakeOpener {
				return &fakeOpener{err: errors.New("moov atom not found")}
			},
		},
		{
			name: "first read fails",
			opener: func(t *testing.T) *fakeOpener {
				src := newFakeSource(t, 30, 300)
				src.failAt = 0
				return &fakeOpener{src: src}
			},
		},
		{
			name: "no frames",
			opener: func(t *testing.T) *fakeOpener {
				return &fakeOpener{src: newFakeSource(t, 30, 0)}
			},
		},
		{
			name: "first frame corrupt",
			opener: func(t *testing.T) *fakeOpener {
				src := newFakeSource(t, 30, 300)
				src.frames = map[int][]byte{0: {0xFF, 0xD8, 0x00}}
				return &fakeOpener{src: src}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := NewExtractor(tt.opener(t), "", nil)

			var samples []Sample
			_, err := ext.ExtractFile(context.Background(), "clip.mp4", Options{FPS: 1}, collect(&samples))
			assert.ErrorIs(t, err, ErrOpen)
			assert.Empty(t, samples)
		})
	}
}

func TestExtractFile_InvalidRate(t *testing.T) {
	ext := NewExtractor(&fakeOpener{src: newFakeSource(t, 30, 10)}, "", nil)

	for _, fps := range []float64{0, -1} {
		_, err := ext.ExtractFile(context.Background(), "clip.mp4", Options{FPS: fps}, collect(new([]Sample)))
		assert.ErrorIs(t, err, ErrInvalidRate)
	}
}

func TestExtractFile_Timeout(t *testing.T) {
	src := newFakeSource(t, 30, 300)
	src.blockAt = 61
	ext := NewExtractor(&fakeOpener{src: src}, "", nil)

	var samples []Sample
	res, err := ext.ExtractFile(context.Background(), "clip.mp4",
		Options{FPS: 1, Timeout: 50 * time.Millisecond}, collect(&samples))
	require.NoError(t, err)

	assert.Len(t, samples, 3)
	assert.True(t, res.Truncated)
	assert.Equal(t, TruncatedTimeout, res.TruncationReason)
}

func TestExtractFile_ParentCanceled(t *testing.T) {
	src := newFakeSource(t, 30, 300)
	src.blockAt = 61
	ext := NewExtractor(&fakeOpener{src: src}, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := ext.ExtractFile(ctx, "clip.mp4", Options{FPS: 1}, collect(new([]Sample)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractFile_EmitErrorStops(t *testing.T) {
	ext := NewExtractor(&fakeOpener{src: newFakeSource(t, 30, 300)}, "", nil)
	stop := errors.New("stop")

	calls := 0
	_, err := ext.ExtractFile(context.Background(), "clip.mp4", Options{FPS: 1}, func(Sample) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)
}

func TestExtractFile_Progress(t *testing.T) {
	ext := NewExtractor(&fakeOpener{src: newFakeSource(t, 30, 300)}, "", nil)

	var got [][2]int
	_, err := ext.ExtractFile(context.Background(), "clip.mp4", Options{
		FPS: 1,
		Progress: func(extracted, expected int) {
			got = append(got, [2]int{extracted, expected})
		},
	}, collect(new([]Sample)))
	require.NoError(t, err)

	require.Len(t, got, 10)
	assert.Equal(t, [2]int{1, 10}, got[0])
	assert.Equal(t, [2]int{10, 10}, got[9])
}

func TestExtract_StagesAndRemovesTempFile(t *testing.T) {
	payload := []byte("fake mp4 bytes")

	t.Run("success", func(t *testing.T) {
		dir := t.TempDir()
		opener := &fakeOpener{src: newFakeSource(t, 30, 60)}
		ext := NewExtractor(opener, dir, nil)

		_, err := ext.Extract(context.Background(), payload, "bed-4.mp4", Options{FPS: 1}, collect(new([]Sample)))
		require.NoError(t, err)

		assert.Equal(t, payload, opener.contents)
		assert.True(t, strings.HasSuffix(opener.path, ".mp4"))
		assert.NoFileExists(t, opener.path)
	})

	t.Run("open failure", func(t *testing.T) {
		dir := t.TempDir()
		opener := &fakeOpener{err: fmt.Errorf("%w: invalid data", ErrOpen)}
		ext := NewExtractor(opener, dir, nil)

		_, err := ext.Extract(context.Background(), payload, "bed-4.avi", Options{FPS: 1}, collect(new([]Sample)))
		assert.ErrorIs(t, err, ErrOpen)
		assert.NotEmpty(t, opener.path)
		assert.NoFileExists(t, opener.path)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("empty input", func(t *testing.T) {
		ext := NewExtractor(&fakeOpener{}, t.TempDir(), nil)
		_, err := ext.Extract(context.Background(), nil, "x.mp4", Options{FPS: 1}, collect(new([]Sample)))
		assert.ErrorIs(t, err, ErrOpen)
	})
}
