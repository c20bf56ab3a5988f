// Package scan runs uploaded files through the page pipeline: rasterize,
// prepare for OCR, recognize, classify and match the target name.
package scan

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/local/docfinder/internal/classify"
	"github.com/local/docfinder/internal/imaging"
	"github.com/local/docfinder/internal/metrics"
	"github.com/local/docfinder/internal/namematch"
	"github.com/local/docfinder/internal/render"
)

// Rasterizer yields the page images of an upload.
type Rasterizer interface {
	Walk(name string, data []byte, fn render.PageFunc) error
}

// Recognizer extracts raw text from a page image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Upload is one file submitted by the user.
type Upload struct {
	Name string
	Data []byte
}

// Request describes one scan.
type Request struct {
	Files   []Upload
	Enabled classify.TypeSet
	Target  namematch.Target
}

// Match is a page whose type is enabled and whose text names the target.
type Match struct {
	File     string
	Page     int // 1-based
	Type     classify.DocumentType
	Target   namematch.Target
	Text     string
	Image    image.Image // page as rendered, before enhancement
	Enhanced bool
	Variance float64
	Hits     []string
}

// FileSummary counts what happened to one upload.
type FileSummary struct {
	Name    string
	Pages   int
	Matches int
}

// Result collects the matches of a scan in upload and page order.
type Result struct {
	ID      string
	Target  namematch.Target
	Files   []FileSummary
	Matches []Match
	Skipped bool // no usable target or no enabled type; nothing was read
}

// Pages returns the number of pages read across all files.
func (r *Result) Pages() int {
	n := 0
	for _, f := range r.Files {
		n += f.Pages
	}
	return n
}

// Scanner processes files strictly sequentially.
type Scanner struct {
	raster Rasterizer
	ocr    Recognizer
}

// New creates a Scanner.
func New(raster Rasterizer, ocr Recognizer) *Scanner {
	return &Scanner{raster: raster, ocr: ocr}
}

// Scan walks every page of every file. The first page failure stops the
// scan: the matches found so far are returned with a *PageError. A
// cancelled context stops it between pages with the context error.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	res := &Result{ID: uuid.NewString(), Target: req.Target}
	logger := log.With().Str("scan_id", res.ID).Logger()

	if req.Target.IsEmpty() || len(req.Enabled) == 0 {
		res.Skipped = true
		for _, f := range req.Files {
			res.Files = append(res.Files, FileSummary{Name: f.Name})
		}
		metrics.IncScan("no_target")
		logger.Info().Int("files", len(req.Files)).Msg("scan skipped, no target name or document type")
		return res, nil
	}

	logger.Info().
		Int("files", len(req.Files)).
		Strs("types", typeNames(req.Enabled)).
		Msg("scan started")
	start := time.Now()

	for _, f := range req.Files {
		if err := s.scanFile(ctx, logger, req, f, res); err != nil {
			metrics.IncScan("failed")
			logger.Error().Err(err).Int("matches", len(res.Matches)).Msg("scan stopped")
			return res, err
		}
	}

	metrics.IncScan("ok")
	logger.Info().
		Int("pages", res.Pages()).
		Int("matches", len(res.Matches)).
		Dur("duration", time.Since(start)).
		Msg("scan finished")
	return res, nil
}

func (s *Scanner) scanFile(ctx context.Context, logger zerolog.Logger, req Request, f Upload, res *Result) error {
	res.Files = append(res.Files, FileSummary{Name: f.Name})
	summary := &res.Files[len(res.Files)-1]

	err := s.raster.Walk(f.Name, f.Data, func(page int, img image.Image) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.Pages++

		m, ok, err := s.scanPage(ctx, logger, req, f.Name, page, img)
		if err != nil {
			metrics.IncProcessed(metrics.ResultError)
			return err
		}
		if ok {
			summary.Matches++
			res.Matches = append(res.Matches, m)
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var pe *PageError
	if errors.As(err, &pe) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &PageError{File: f.Name, Stage: StageRasterize, Err: err}
}

func (s *Scanner) scanPage(ctx context.Context, logger zerolog.Logger, req Request, file string, page int, img image.Image) (Match, bool, error) {
	prepared, err := imaging.Prepare(img)
	if err != nil {
		return Match{}, false, &PageError{File: file, Page: page, Stage: StagePrepare, Err: err}
	}
	metrics.IncEnhancement(prepared.Enhanced)

	started := time.Now()
	text, err := s.ocr.Recognize(ctx, prepared.Image)
	metrics.ObserveOCR(time.Since(started))
	if err != nil {
		return Match{}, false, &PageError{File: file, Page: page, Stage: StageRecognize, Err: err}
	}

	docType := classify.Classify(text, req.Enabled)
	ev := logger.Debug().
		Str("file", file).
		Int("page", page).
		Float64("variance", prepared.Variance).
		Bool("enhanced", prepared.Enhanced).
		Int("chars", len(text)).
		Str("type", docType.String())

	if docType == classify.None {
		metrics.IncProcessed(metrics.ResultUnclassified)
		if ev.Enabled() {
			ev.Interface("rules", classify.Explain(text, req.Enabled))
		}
		ev.Msg("page not classified")
		return Match{}, false, nil
	}

	metrics.IncDetected(string(docType))
	if !req.Target.Matches(text) {
		metrics.IncProcessed(metrics.ResultNameMismatch)
		ev.Msg("page classified, name not found")
		return Match{}, false, nil
	}

	metrics.IncProcessed(metrics.ResultMatched)
	ev.Discard()
	logger.Info().
		Str("file", file).
		Int("page", page).
		Str("type", docType.String()).
		Bool("enhanced", prepared.Enhanced).
		Msg("page matched")

	return Match{
		File:     file,
		Page:     page,
		Type:     docType,
		Target:   req.Target,
		Text:     text,
		Image:    img,
		Enhanced: prepared.Enhanced,
		Variance: prepared.Variance,
		Hits:     ruleHits(docType, text),
	}, true, nil
}

func ruleHits(t classify.DocumentType, text string) []string {
	for _, r := range classify.Rules {
		if r.Type == t {
			return r.Hits(text)
		}
	}
	return nil
}

func typeNames(set classify.TypeSet) []string {
	types := set.Types()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
