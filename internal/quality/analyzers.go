// Package quality scores the photometric quality of a single frame:
// brightness, sharpness, contrast and resolution.
package quality

import (
	"math"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
)

// Brightness returns the population mean and standard deviation of the luma plane.
func Brightness(f *imaging.Frame) (mean, std float64) {
	n := len(f.Gray)
	if n == 0 {
		return 0, 0
	}

	var sum, sumSq int64
	for _, v := range f.Gray {
		sum += int64(v)
		sumSq += int64(v) * int64(v)
	}

	mean = float64(sum) / float64(n)
	variance := float64(sumSq)/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// Contrast is the spread of luma values around the mean.
func Contrast(f *imaging.Frame) float64 {
	_, std := Brightness(f)
	return std
}

// LaplacianVariance is the variance of the 4-neighbour Laplacian response
// with reflect-101 borders. Low values mean few edges, i.e. blur.
func LaplacianVariance(f *imaging.Frame) float64 {
	w, h := f.Width, f.Height
	n := w * h
	if n == 0 {
		return 0
	}

	var sum, sumSq int64
	for y := 0; y < h; y++ {
		up := reflect101(y-1, h) * w
		down := reflect101(y+1, h) * w
		row := y * w
		for x := 0; x < w; x++ {
			left := reflect101(x-1, w)
			right := reflect101(x+1, w)

			lap := int64(f.Gray[up+x]) + int64(f.Gray[down+x]) +
				int64(f.Gray[row+left]) + int64(f.Gray[row+right]) -
				4*int64(f.Gray[row+x])

			sum += lap
			sumSq += lap * lap
		}
	}

	mean := float64(sum) / float64(n)
	variance := float64(sumSq)/float64(n) - mean*mean
	if variance < 0 {
		return 0
	}
	return variance
}

// reflect101 mirrors an out-of-range index without repeating the edge pixel.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// ResolutionAdequate reports whether the smaller dimension reaches MinResolution.
func ResolutionAdequate(width, height int) bool {
	return min(width, height) >= MinResolution
}
