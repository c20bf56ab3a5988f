package render

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Format is an upload format the rasterizer understands.
type Format string

const (
	FormatUnknown Format = ""
	FormatPDF     Format = "pdf"
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
)

var mimeFormats = map[string]Format{
	"application/pdf": FormatPDF,
	"image/png":       FormatPNG,
	"image/jpeg":      FormatJPEG,
	"image/bmp":       FormatBMP,
	"image/x-ms-bmp":  FormatBMP,
	"image/tiff":      FormatTIFF,
}

var extFormats = map[string]Format{
	".pdf":  FormatPDF,
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
}

// Extensions lists the accepted file extensions, for the upload form.
func Extensions() []string {
	return []string{".pdf", ".png", ".jpg", ".jpeg", ".tiff", ".bmp"}
}

// Detect identifies the format from magic bytes, falling back to the file
// extension when the content is not recognized.
func Detect(name string, data []byte) Format {
	mtype := mimetype.Detect(data)
	for m := mtype; m != nil; m = m.Parent() {
		if f, ok := mimeFormats[m.String()]; ok {
			return f
		}
	}

	ext := strings.ToLower(filepath.Ext(name))
	f := extFormats[ext]
	log.Debug().
		Str("file", name).
		Str("mime", mtype.String()).
		Str("ext", ext).
		Str("format", string(f)).
		Msg("content not recognized, using extension")
	return f
}
