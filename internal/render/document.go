package render

import (
	"image"

	fitz "github.com/gen2brain/go-fitz"
)

// document is the part of a PDF backend the rasterizer needs.
type document interface {
	NumPage() int
	ImageDPI(page int, dpi float64) (*image.RGBA, error)
	Close() error
}

// opener turns PDF bytes into a document.
type opener interface {
	Open(data []byte) (document, error)
}

type fitzOpener struct{}

func (fitzOpener) Open(data []byte) (document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
