package scan

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/docfinder/internal/classify"
	"github.com/local/docfinder/internal/imaging"
	"github.com/local/docfinder/internal/namematch"
	"github.com/local/docfinder/internal/render"
)

// fakeRasterizer serves pre-built pages per file name.
type fakeRasterizer struct {
	pages map[string][]image.Image
	errs  map[string]error
	walks []string
}

func (f *fakeRasterizer) Walk(name string, _ []byte, fn render.PageFunc) error {
	f.walks = append(f.walks, name)
	if err := f.errs[name]; err != nil {
		return err
	}
	for i, img := range f.pages[name] {
		if err := fn(i+1, img); err != nil {
			return err
		}
	}
	return nil
}

// fakeRecognizer returns texts in call order.
type fakeRecognizer struct {
	texts  []string
	failAt int // 1-based call number, 0 = never
	calls  int
	onCall func(n int)
}

func (f *fakeRecognizer) Recognize(_ context.Context, img image.Image) (string, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall(f.calls)
	}
	if _, ok := img.(*image.Gray); !ok {
		return "", errors.New("expected grayscale input")
	}
	if f.failAt == f.calls {
		return "", errors.New("tesseract crashed")
	}
	if f.calls > len(f.texts) {
		return "", nil
	}
	return f.texts[f.calls-1], nil
}

func page() image.Image {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	return img
}

func pages(n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		out[i] = page()
	}
	return out
}

const (
	passportMartin = "REPUBLIQUE FRANCAISE\nPASSEPORT\nNom: MARTIN\nPrénoms: Élodie"
	idCardDurand   = "CARTE NATIONALE D'IDENTITÉ\nNom: DURAND"
	letterMartin   = "Chère Madame Martin, veuillez trouver ci-joint"
	ribMartin      = "RIB\nIBAN FR76 3000 4000\nTitulaire du compte: Élodie MARTIN"
)

func martin() namematch.Target { return namematch.Target{FamilyName: "Martin"} }

func TestScan_MatchesInOrder(t *testing.T) {
	raster := &fakeRasterizer{pages: map[string][]image.Image{
		"a.pdf": pages(3),
		"b.png": pages(1),
	}}
	ocr := &fakeRecognizer{texts: []string{idCardDurand, passportMartin, letterMartin, passportMartin}}

	res, err := New(raster, ocr).Scan(context.Background(), Request{
		Files:   []Upload{{Name: "a.pdf"}, {Name: "b.png"}},
		Enabled: classify.DefaultTypeSet(),
		Target:  martin(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)
	assert.False(t, res.Skipped)
	assert.Equal(t, 4, ocr.calls)
	assert.Equal(t, 4, res.Pages())

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "a.pdf", res.Matches[0].File)
	assert.Equal(t, 2, res.Matches[0].Page)
	assert.Equal(t, classify.Passport, res.Matches[0].Type)
	assert.Equal(t, passportMartin, res.Matches[0].Text)
	assert.Equal(t, []string{"passeport"}, res.Matches[0].Hits)
	assert.Equal(t, "b.png", res.Matches[1].File)
	assert.Equal(t, 1, res.Matches[1].Page)

	assert.Equal(t, []FileSummary{{Name: "a.pdf", Pages: 3, Matches: 1}, {Name: "b.png", Pages: 1, Matches: 1}}, res.Files)
}

func TestScan_KeepsOriginalImage(t *testing.T) {
	original := page()
	raster := &fakeRasterizer{pages: map[string][]image.Image{"scan.png": {original}}}
	ocr := &fakeRecognizer{texts: []string{passportMartin}}

	res, err := New(raster, ocr).Scan(context.Background(), Request{
		Files:   []Upload{{Name: "scan.png"}},
		Enabled: classify.DefaultTypeSet(),
		Target:  martin(),
	})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Same(t, original, res.Matches[0].Image)
	assert.True(t, res.Matches[0].Enhanced, "a flat page is below the sharpness threshold")
	assert.Less(t, res.Matches[0].Variance, imaging.SharpnessThreshold)
}

func TestScan_DisabledTypeIsIgnored(t *testing.T) {
	raster := &fakeRasterizer{pages: map[string][]image.Image{"rib.pdf": pages(1)}}

	res, err := New(raster, &fakeRecognizer{texts: []string{ribMartin}}).Scan(context.Background(), Request{
		Files:   []Upload{{Name: "rib.pdf"}},
		Enabled: classify.DefaultTypeSet(),
		Target:  martin(),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Matches)

	res, err = New(raster, &fakeRecognizer{texts: []string{ribMartin}}).Scan(context.Background(), Request{
		Files:   []Upload{{Name: "rib.pdf"}},
		Enabled: classify.NewTypeSet(classify.BankStatement),
		Target:  namematch.Target{FamilyName: "martin", GivenName: "elodie"},
	})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, classify.BankStatement, res.Matches[0].Type)
}

func TestScan_EmptyTargetSkipsOCR(t *testing.T) {
	raster := &fakeRasterizer{pages: map[string][]image.Image{"a.pdf": pages(2)}}
	ocr := &fakeRecognizer{texts: []string{passportMartin, passportMartin}}

	for _, target := range []namematch.Target{{}, {FamilyName: "  ", GivenName: "007"}} {
		res, err := New(raster, ocr).Scan(context.Background(), Request{
			Files:   []Upload{{Name: "a.pdf"}},
			Enabled: classify.DefaultTypeSet(),
			Target:  target,
		})
		require.NoError(t, err)
		assert.True(t, res.Skipped)
		assert.Empty(t, res.Matches)
		assert.Equal(t, []FileSummary{{Name: "a.pdf"}}, res.Files)
	}
	assert.Zero(t, ocr.calls)
	assert.Empty(t, raster.walks)
}

func TestScan_NoEnabledTypesSkipsOCR(t *testing.T) {
	raster := &fakeRasterizer{pages: map[string][]image.Image{"a.pdf": pages(1)}}
	ocr := &fakeRecognizer{}

	res, err := New(raster, ocr).Scan(context.Background(), Request{
		Files:   []Upload{{Name: "a.pdf"}},
		Enabled: classify.NewTypeSet(),
		Target:  martin(),
	})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, ocr.calls)
}

func TestScan_RecognizeErrorStopsWithPartialResult(t *testing.T) {
	raster := &fakeRasterizer{pages: map[string][]image.Image{
		"a.pdf": pages(3),
		"b.pdf": pages(1),
	}}
	ocr := &fakeRecognizer{texts: []string{passportMartin}, failAt: 2}

	res, err := New(raster, ocr).Scan(context.Background(), Request{
		Files:   []Upload{{Name: "a.pdf"}, {Name: "b.pdf"}},
		Enabled: classify.DefaultTypeSet(),
		Target:  martin(),
	})
	require.Error(t, err)

	var pe *PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "a.pdf", pe.File)
	assert.Equal(t, 2, pe.Page)
	assert.Equal(t, StageRecognize, pe.Stage)
	assert.Contains(t, err.Error(), "tesseract crashed")

	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Matches[0].Page)
	assert.Equal(t, 2, ocr.calls)
	assert.Equal(t, []string{"a.pdf"}, raster.walks)
}

func TestScan_PrepareError(t *testing.T) {
	raster := &fakeRasterizer{pages: map[string][]image.Image{
		"a.png": {image.NewGray(image.Rect(0, 0, 0, 0))},
	}}
	ocr := &fakeRecognizer{}

	_, err := New(raster, ocr).Scan(context.Background(), Request{
		Files:   []Upload{{Name: "a.png"}},
		Enabled: classify.DefaultTypeSet(),
		Target:  martin(),
	})
	var pe *PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StagePrepare, pe.Stage)
	assert.Equal(t, 1, pe.Page)
	assert.ErrorIs(t, err, imaging.ErrEmptyImage)
	assert.Zero(t, ocr.calls)
}

func TestScan_RasterizeError(t *testing.T) {
	raster := &fakeRasterizer{
		pages: map[string][]image.Image{"a.pdf": pages(1)},
		errs:  map[string]error{"notes.txt": render.ErrUnsupportedFormat},
	}
	ocr := &fakeRecognizer{texts: []string{passportMartin}}

	res, err := New(raster, ocr).Scan(context.Background(), Request{
		Files:   []Upload{{Name: "a.pdf"}, {Name: "notes.txt"}},
		Enabled: classify.DefaultTypeSet(),
		Target:  martin(),
	})
	var pe *PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageRasterize, pe.Stage)
	assert.Equal(t, "notes.txt", pe.File)
	assert.Zero(t, pe.Page)
	assert.ErrorIs(t, err, render.ErrUnsupportedFormat)
	assert.Len(t, res.Matches, 1)
}

func TestScan_CancelledBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	raster := &fakeRasterizer{pages: map[string][]image.Image{"a.pdf": pages(3)}}
	ocr := &fakeRecognizer{
		texts: []string{passportMartin, passportMartin, passportMartin},
		onCall: func(n int) {
			if n == 1 {
				cancel()
			}
		},
	}

	res, err := New(raster, ocr).Scan(ctx, Request{
		Files:   []Upload{{Name: "a.pdf"}},
		Enabled: classify.DefaultTypeSet(),
		Target:  martin(),
	})
	assert.ErrorIs(t, err, context.Canceled)
	var pe *PageError
	assert.False(t, errors.As(err, &pe))
	assert.Equal(t, 1, ocr.calls)
	assert.Len(t, res.Matches, 1)
}

func TestScan_EmptyOCRTextIsNotAnError(t *testing.T) {
	raster := &fakeRasterizer{pages: map[string][]image.Image{"blank.png": pages(1)}}

	res, err := New(raster, &fakeRecognizer{texts: []string{""}}).Scan(context.Background(), Request{
		Files:   []Upload{{Name: "blank.png"}},
		Enabled: classify.DefaultTypeSet(),
		Target:  martin(),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 1, res.Pages())
}

func TestPageError(t *testing.T) {
	cause := errors.New("boom")
	e := &PageError{File: "x.pdf", Page: 3, Stage: StageRecognize, Err: cause}
	assert.Equal(t, "x.pdf page 3: recognize failed: boom", e.Error())
	assert.ErrorIs(t, e, cause)

	e = &PageError{File: "x.pdf", Stage: StageRasterize, Err: cause}
	assert.Equal(t, "x.pdf: rasterize failed: boom", e.Error())
}
