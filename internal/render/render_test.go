package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func sample(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	return img
}

func encode(t *testing.T, format Format, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, nil)
	case FormatBMP:
		err = bmp.Encode(&buf, img)
	case FormatTIFF:
		err = tiff.Encode(&buf, img, nil)
	default:
		t.Fatalf("no encoder for %q", format)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	img := sample(8, 8)
	tests := []struct {
		name string
		file string
		data []byte
		want Format
	}{
		{"png", "scan.png", encode(t, FormatPNG, img), FormatPNG},
		{"jpeg", "scan.jpg", encode(t, FormatJPEG, img), FormatJPEG},
		{"bmp", "scan.bmp", encode(t, FormatBMP, img), FormatBMP},
		{"tiff", "scan.tiff", encode(t, FormatTIFF, img), FormatTIFF},
		{"pdf", "doc.pdf", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n"), FormatPDF},
		{"content wins over extension", "scan.pdf", encode(t, FormatPNG, img), FormatPNG},
		{"extension fallback", "SCAN.TIF", []byte{0x00, 0x01, 0x02}, FormatTIFF},
		{"unknown", "notes.txt", []byte("hello"), FormatUnknown},
		{"empty", "", nil, FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.file, tt.data))
		})
	}
}

func TestWalk_Images(t *testing.T) {
	img := sample(12, 7)
	r := New(Options{})

	for _, format := range []Format{FormatPNG, FormatJPEG, FormatBMP, FormatTIFF} {
		t.Run(string(format), func(t *testing.T) {
			var pages []int
			err := r.Walk("upload."+string(format), encode(t, format, img), func(page int, got image.Image) error {
				pages = append(pages, page)
				assert.Equal(t, 12, got.Bounds().Dx())
				assert.Equal(t, 7, got.Bounds().Dy())
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []int{1}, pages)
		})
	}
}

func TestWalk_Unsupported(t *testing.T) {
	err := New(Options{}).Walk("notes.txt", []byte("plain text"), func(int, image.Image) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWalk_CorruptImage(t *testing.T) {
	err := New(Options{}).Walk("scan.png", []byte{0x01, 0x02, 0x03}, func(int, image.Image) error {
		t.Fatal("callback must not run")
		return nil
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWalk_CallbackErrorPropagates(t *testing.T) {
	stop := errors.New("stop")
	err := New(Options{}).Walk("a.png", encode(t, FormatPNG, sample(4, 4)), func(int, image.Image) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
}

type fakeDoc struct {
	pages    int
	failAt   int
	rendered []int
	dpi      float64
	closed   bool
}

func (d *fakeDoc) NumPage() int { return d.pages }

func (d *fakeDoc) ImageDPI(page int, dpi float64) (*image.RGBA, error) {
	if d.failAt > 0 && page+1 == d.failAt {
		return nil, errors.New("broken page")
	}
	d.rendered = append(d.rendered, page)
	d.dpi = dpi
	return sample(4, 4), nil
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

type fakeOpener struct {
	doc *fakeDoc
	err error
}

func (o fakeOpener) Open([]byte) (document, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.doc, nil
}

var pdfHeader = []byte("%PDF-1.7\n")

func TestWalk_PDFPagesInOrder(t *testing.T) {
	doc := &fakeDoc{pages: 3}
	r := New(Options{DPI: 150})
	r.pdf = fakeOpener{doc: doc}

	var pages []int
	err := r.Walk("doc.pdf", pdfHeader, func(page int, _ image.Image) error {
		pages = append(pages, page)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, pages)
	assert.Equal(t, []int{0, 1, 2}, doc.rendered)
	assert.Equal(t, 150.0, doc.dpi)
	assert.True(t, doc.closed)
}

func TestWalk_PDFMaxPages(t *testing.T) {
	doc := &fakeDoc{pages: 5}
	r := New(Options{MaxPages: 2})
	r.pdf = fakeOpener{doc: doc}

	var pages []int
	require.NoError(t, r.Walk("doc.pdf", pdfHeader, func(page int, _ image.Image) error {
		pages = append(pages, page)
		return nil
	}))
	assert.Equal(t, []int{1, 2}, pages)
	assert.Equal(t, float64(DefaultDPI), doc.dpi)
}

func TestWalk_PDFRenderError(t *testing.T) {
	doc := &fakeDoc{pages: 3, failAt: 2}
	r := New(Options{})
	r.pdf = fakeOpener{doc: doc}

	var pages []int
	err := r.Walk("doc.pdf", pdfHeader, func(page int, _ image.Image) error {
		pages = append(pages, page)
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")
	assert.Equal(t, []int{1}, pages)
	assert.True(t, doc.closed)
}

func TestWalk_PDFOpenError(t *testing.T) {
	r := New(Options{})
	r.pdf = fakeOpener{err: errors.New("not a pdf")}
	err := r.Walk("doc.pdf", pdfHeader, func(int, image.Image) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open PDF")
}

func TestDataURI(t *testing.T) {
	uri, err := DataURI(sample(4, 4))
	require.NoError(t, err)
	assert.Regexp(t, `^data:image/jpeg;base64,[A-Za-z0-9+/=]+$`, uri)
}

func TestEncodeJPEG_DefaultsQuality(t *testing.T) {
	b, err := EncodeJPEG(sample(4, 4), 0)
	require.NoError(t, err)
	got, err := jpeg.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 4, got.Bounds().Dx())
}
