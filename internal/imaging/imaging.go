// Package imaging decodes uploaded images and video frames into the luma
// representation the quality analyzers and detectors work on.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var ErrDecode = errors.New("failed to decode image")

// Frame is an in-memory pixel grid owned by the call that decoded it.
type Frame struct {
	Width    int
	Height   int
	Channels int
	// Gray is the row-major 8-bit luma plane, len = Width*Height.
	Gray []uint8
	// Source is the decoded image, used for thumbnails and re-encoding.
	Source image.Image

	encoded []byte
	format  string
}

// Decode parses JPEG, PNG, GIF, BMP or WebP bytes.
func Decode(data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	f := FromImage(img)
	f.encoded = data
	f.format = format
	return f, nil
}

// DecodeBase64 strips an optional data-URL header and decodes the payload.
func DecodeBase64(s string) (*Frame, error) {
	data, err := decodeBase64Payload(s)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func decodeBase64Payload(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if _, after, found := strings.Cut(s, ","); found {
		s = after
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty base64 payload", ErrDecode)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}

	data, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if rawErr != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrDecode, err)
	}
	return data, nil
}

// FromImage builds a Frame from an already decoded image.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	f := &Frame{
		Width:    w,
		Height:   h,
		Channels: 3,
		Gray:     make([]uint8, w*h),
		Source:   img,
	}

	switch src := img.(type) {
	case *image.Gray:
		f.Channels = 1
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(f.Gray[y*w:(y+1)*w], src.Pix[off:off+w])
		}
	case *image.YCbCr:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				yi := src.YOffset(b.Min.X+x, b.Min.Y+y)
				ci := src.COffset(b.Min.X+x, b.Min.Y+y)
				r, g, bl := color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
				f.Gray[y*w+x] = luma(r, g, bl)
			}
		}
	case *image.RGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < w; x++ {
				f.Gray[y*w+x] = luma(row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	default:
		if _, ok := img.(*image.Gray16); ok {
			f.Channels = 1
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				f.Gray[y*w+x] = luma(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			}
		}
	}

	return f
}

// luma uses the fixed-point BT.601 weights of OpenCV's BGR->GRAY conversion.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*4899 + uint32(g)*9617 + uint32(b)*1868 + 8192) >> 14)
}

// GrayAt returns the luma value at (x, y).
func (f *Frame) GrayAt(x, y int) uint8 {
	return f.Gray[y*f.Width+x]
}

// JPEG returns the frame as JPEG bytes, reusing the original encoding when possible.
func (f *Frame) JPEG(quality int) ([]byte, error) {
	if f.format == "jpeg" && len(f.encoded) > 0 {
		return f.encoded, nil
	}
	return encodeJPEG(f.Source, quality)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
