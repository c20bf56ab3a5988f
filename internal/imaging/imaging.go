// Package imaging gates and enhances scanned page images before OCR.
package imaging

import (
	"errors"
	"image"
)

const (
	// SharpnessThreshold is the Laplacian variance under which a page is
	// treated as blurry. Empirical value; tune against real scans.
	SharpnessThreshold = 100.0

	// Enhancement parameters (the median filter is fixed at 3x3).
	CLAHEClipLimit  = 2.0
	CLAHETileGrid   = 8
	ThresholdBlock  = 11
	ThresholdOffset = 2
)

// ErrEmptyImage is returned when an image is missing or has no pixels.
var ErrEmptyImage = errors.New("imaging: empty image")

// Prepared is a page image ready for OCR.
type Prepared struct {
	Image    *image.Gray
	Enhanced bool
	Variance float64
}

// LaplacianVariance returns the focus measure of img. Higher is sharper.
func LaplacianVariance(img image.Image) float64 {
	if isEmpty(img) {
		return 0
	}
	return laplacianVariance(toGray(img))
}

// NeedsEnhancement reports whether img is blurry enough to be cleaned up
// before OCR. Uniform images always need it.
func NeedsEnhancement(img image.Image) bool {
	return LaplacianVariance(img) < SharpnessThreshold
}

// Prepare converts img to grayscale and, when it fails the sharpness gate,
// denoises, equalizes and binarizes it. Sharp pages are returned as plain
// grayscale so OCR is not fed an over-processed image.
func Prepare(img image.Image) (Prepared, error) {
	if isEmpty(img) {
		return Prepared{}, ErrEmptyImage
	}

	gray := toGray(img)
	variance := laplacianVariance(gray)
	if variance >= SharpnessThreshold {
		return Prepared{Image: gray, Variance: variance}, nil
	}

	out := medianBlur3(gray)
	out = clahe(out, CLAHEClipLimit, CLAHETileGrid, CLAHETileGrid)
	out = adaptiveThreshold(out, ThresholdBlock, ThresholdOffset)
	return Prepared{Image: out, Enhanced: true, Variance: variance}, nil
}

// PrepareForOCR is Prepare without the diagnostics.
func PrepareForOCR(img image.Image) (*image.Gray, error) {
	p, err := Prepare(img)
	if err != nil {
		return nil, err
	}
	return p.Image, nil
}

func isEmpty(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}
