package imaging

import (
	"encoding/base64"
	"image"

	"golang.org/x/image/draw"
)

const thumbnailPrefix = "data:image/jpeg;base64,"

// ThumbnailOptions sizes the compact preview stored on each frame record.
type ThumbnailOptions struct {
	Width   int
	Height  int
	Quality int
}

func DefaultThumbnailOptions() ThumbnailOptions {
	return ThumbnailOptions{Width: 120, Height: 90, Quality: 70}
}

// Thumbnail resizes the frame to a fixed size and returns it as a JPEG data URL.
func Thumbnail(f *Frame, opts ThumbnailOptions) (string, error) {
	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.BiLinear.Scale(dst, dst.Bounds(), f.Source, f.Source.Bounds(), draw.Src, nil)

	data, err := encodeJPEG(dst, opts.Quality)
	if err != nil {
		return "", err
	}

	return thumbnailPrefix + base64.StdEncoding.EncodeToString(data), nil
}
