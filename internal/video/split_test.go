package video

import (
	"bufio"
	"bytes"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitJPEG(t *testing.T) {
	a := testJPEG(t, 40)
	b := testJPEG(t, 200)

	var stream bytes.Buffer
	stream.Write([]byte{0x00, 0xFF, 0x12})
	stream.Write(a)
	stream.Write(b)
	stream.Write([]byte{0xFF, 0xD8, 0x01, 0x02}) // truncated trailing image

	tests := []struct {
		name   string
		reader func() *bufio.Scanner
	}{
		{
			name: "whole buffer",
			reader: func() *bufio.Scanner {
				return bufio.NewScanner(bytes.NewReader(stream.Bytes()))
			},
		},
		{
			name: "one byte at a time",
			reader: func() *bufio.Scanner {
				return bufio.NewScanner(iotest.OneByteReader(bytes.NewReader(stream.Bytes())))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := tt.reader()
			sc.Buffer(make([]byte, 0, 64), maxFrameBytes)
			sc.Split(SplitJPEG)

			var frames [][]byte
			for sc.Scan() {
				frames = append(frames, bytes.Clone(sc.Bytes()))
			}
			require.NoError(t, sc.Err())
			require.Len(t, frames, 2)
			assert.Equal(t, a, frames[0])
			assert.Equal(t, b, frames[1])
		})
	}
}
