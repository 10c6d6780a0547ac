package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbe(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Info
		wantErr bool
	}{
		{
			name: "mp4 with frame count",
			input: `{"streams":[{"width":1280,"height":720,"avg_frame_rate":"30/1","r_frame_rate":"30/1",
				"nb_frames":"300","duration":"10.000000"}],"format":{"duration":"10.020000"}}`,
			want: Info{FPS: 30, TotalFrames: 300, Duration: 10, Width: 1280, Height: 720},
		},
		{
			name: "ntsc rate without frame count",
			input: `{"streams":[{"width":640,"height":480,"avg_frame_rate":"30000/1001",
				"r_frame_rate":"30000/1001"}],"format":{"duration":"2.002"}}`,
			want: Info{FPS: 30000.0 / 1001, TotalFrames: 60, Duration: 2.002, Width: 640, Height: 480},
		},
		{
			name:  "avg rate unknown",
			input: `{"streams":[{"width":320,"height":240,"avg_frame_rate":"0/0","r_frame_rate":"25/1","nb_frames":"50"}]}`,
			want:  Info{FPS: 25, TotalFrames: 50, Width: 320, Height: 240},
		},
		{
			name:    "no video stream",
			input:   `{"streams":[],"format":{"duration":"3.0"}}`,
			wantErr: true,
		},
		{
			name:    "no frame rate",
			input:   `{"streams":[{"avg_frame_rate":"0/0","r_frame_rate":"0/0"}]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			input:   `Invalid data found when processing input`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProbe([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOpen)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.FPS, got.FPS, 1e-9)
			assert.Equal(t, tt.want.TotalFrames, got.TotalFrames)
			assert.InDelta(t, tt.want.Duration, got.Duration, 1e-9)
			assert.Equal(t, tt.want.Width, got.Width)
			assert.Equal(t, tt.want.Height, got.Height)
		})
	}
}

func TestParseRate(t *testing.T) {
	assert.Equal(t, 25.0, parseRate("25/1"))
	assert.Equal(t, 0.0, parseRate("0/0"))
	assert.Equal(t, 12.5, parseRate("12.5"))
	assert.Equal(t, 0.0, parseRate(""))
}
