// Package ocr wraps the Tesseract engine.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguages are the models loaded for French administrative documents.
var DefaultLanguages = []string{"fra", "eng"}

// DefaultPageSegMode treats the page as a single uniform block of text.
const DefaultPageSegMode = int(gosseract.PSM_SINGLE_BLOCK)

// Options configure the engine.
type Options struct {
	Languages      []string
	PageSegMode    int
	TessdataPrefix string
}

// Tesseract extracts text from page images. A fresh client is created per
// call, so a Tesseract value can be shared.
type Tesseract struct {
	languages []string
	psm       gosseract.PageSegMode
	prefix    string
}

// New creates a Tesseract with defaults filled in.
func New(opts Options) *Tesseract {
	langs := opts.Languages
	if len(langs) == 0 {
		langs = DefaultLanguages
	}
	psm := opts.PageSegMode
	if psm <= 0 {
		psm = DefaultPageSegMode
	}
	return &Tesseract{
		languages: langs,
		psm:       gosseract.PageSegMode(psm),
		prefix:    strings.TrimSpace(opts.TessdataPrefix),
	}
}

// Languages returns the configured models.
func (t *Tesseract) Languages() []string { return t.languages }

// TessdataPrefix returns the configured model directory, possibly empty.
func (t *Tesseract) TessdataPrefix() string { return t.prefix }

// Recognize returns the raw text Tesseract reads from img.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.prefix != "" {
		if err := client.SetTessdataPrefix(t.prefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("failed to set languages: %w", err)
	}
	if err := client.SetPageSegMode(t.psm); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract OCR failed: %w", err)
	}
	return text, nil
}

// Version reports the linked Tesseract version.
func Version() string {
	return gosseract.Version()
}

func encodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to recognize")
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
