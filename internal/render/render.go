// Package render turns uploaded files into page images: one image per PDF
// page, or the decoded picture itself.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// DefaultDPI is the PDF rendering resolution.
const DefaultDPI = 200

// ErrUnsupportedFormat is returned for uploads that are neither PDF nor a
// supported image.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// PageFunc receives each page image with its 1-based page number. Returning
// an error stops the walk.
type PageFunc func(page int, img image.Image) error

// Options configure a Rasterizer.
type Options struct {
	DPI      int
	MaxPages int // 0 means unlimited
}

// Rasterizer renders uploads into page images.
type Rasterizer struct {
	dpi      int
	maxPages int
	pdf      opener
}

// New creates a Rasterizer backed by MuPDF.
func New(opts Options) *Rasterizer {
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	maxPages := opts.MaxPages
	if maxPages < 0 {
		maxPages = 0
	}
	return &Rasterizer{dpi: dpi, maxPages: maxPages, pdf: fitzOpener{}}
}

// DPI returns the PDF rendering resolution.
func (r *Rasterizer) DPI() int { return r.dpi }

// Walk calls fn for every page of the named upload, in order.
func (r *Rasterizer) Walk(name string, data []byte, fn PageFunc) error {
	format := Detect(name, data)
	switch format {
	case FormatPDF:
		return r.walkPDF(name, data, fn)
	case FormatUnknown:
		return fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}

	img, err := decodeImage(format, data)
	if err != nil {
		return fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	return fn(1, img)
}

func (r *Rasterizer) walkPDF(name string, data []byte, fn PageFunc) error {
	doc, err := r.pdf.Open(data)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if n, err := PageCount(data); err != nil {
		log.Debug().Err(err).Str("file", name).Msg("pdfcpu page count unavailable, using renderer count")
	} else if n != total {
		log.Warn().Str("file", name).Int("pdfcpu_pages", n).Int("renderer_pages", total).Msg("page count mismatch")
	}

	if r.maxPages > 0 && total > r.maxPages {
		log.Warn().
			Str("file", name).
			Int("pages", total).
			Int("max_pages", r.maxPages).
			Msg("page limit reached, remaining pages skipped")
		total = r.maxPages
	}

	for i := 0; i < total; i++ {
		img, err := doc.ImageDPI(i, float64(r.dpi))
		if err != nil {
			return fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		log.Debug().
			Str("file", name).
			Int("page", i+1).
			Int("width", img.Bounds().Dx()).
			Int("height", img.Bounds().Dy()).
			Int("dpi", r.dpi).
			Msg("rendered page")
		if err := fn(i+1, img); err != nil {
			return err
		}
	}
	return nil
}

func decodeImage(format Format, data []byte) (image.Image, error) {
	rd := bytes.NewReader(data)
	switch format {
	case FormatPNG:
		return png.Decode(rd)
	case FormatJPEG:
		return jpeg.Decode(rd)
	case FormatBMP:
		return bmp.Decode(rd)
	case FormatTIFF:
		return tiff.Decode(rd)
	}
	return nil, ErrUnsupportedFormat
}
