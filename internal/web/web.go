// Package web serves the single-page upload form and renders scan results.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/local/docfinder/internal/classify"
	"github.com/local/docfinder/internal/limiter"
	"github.com/local/docfinder/internal/metrics"
	"github.com/local/docfinder/internal/namematch"
	"github.com/local/docfinder/internal/scan"
	"github.com/local/docfinder/internal/statuscheck"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultMaxUploadMB = 64
	multipartMemory    = 32 << 20
)

// Scanner runs the page pipeline over uploaded files.
type Scanner interface {
	Scan(ctx context.Context, req scan.Request) (*scan.Result, error)
}

// StatusReporter produces the engine status snapshot.
type StatusReporter interface {
	Summary() statuscheck.Summary
}

// Options configure the web UI.
type Options struct {
	Scanner        Scanner
	Status         StatusReporter
	Username       string
	Password       string // plain text or bcrypt hash
	MaxUploadMB    int
	RequestTimeout time.Duration
	DefaultTypes   classify.TypeSet
	Metrics        bool
	MaxConcurrent  int // scans allowed to run OCR at once
}

type Web struct {
	tpl          *template.Template
	scanner      Scanner
	status       StatusReporter
	username     string
	password     string
	maxUpload    int64
	timeout      time.Duration
	defaultTypes classify.TypeSet
	metrics      bool
	slots        *limiter.Slots
}

func New(opts Options) *Web {
	tpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
	maxMB := opts.MaxUploadMB
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}
	types := opts.DefaultTypes
	if types == nil {
		types = classify.DefaultTypeSet()
	}
	return &Web{
		tpl:          tpl,
		scanner:      opts.Scanner,
		status:       opts.Status,
		username:     opts.Username,
		password:     opts.Password,
		maxUpload:    int64(maxMB) << 20,
		timeout:      opts.RequestTimeout,
		defaultTypes: types,
		metrics:      opts.Metrics,
		slots:        limiter.New(opts.MaxConcurrent),
	}
}

func (w *Web) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(wr http.ResponseWriter, r *http.Request) {
		wr.WriteHeader(http.StatusOK)
		_, _ = wr.Write([]byte("ok"))
	})
	mux.HandleFunc("/", w.requireAuth(w.handleIndex))
	mux.HandleFunc("/scan", w.requireAuth(w.handleScan))
	mux.HandleFunc("/status", w.requireAuth(w.handleStatus))
	if w.metrics {
		mux.Handle("/metrics", metrics.Handler())
	}
}

// Handler returns a mux with every route registered.
func (w *Web) Handler() http.Handler {
	mux := http.NewServeMux()
	w.RegisterRoutes(mux)
	return mux
}

func (w *Web) render(wr http.ResponseWriter, status int, name string, data any) {
	wr.Header().Set("Content-Type", "text/html; charset=utf-8")
	wr.WriteHeader(status)
	if err := w.tpl.ExecuteTemplate(wr, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("template render failed")
	}
}

// requireAuth enforces HTTP basic auth when a username is configured.
func (w *Web) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(wr http.ResponseWriter, r *http.Request) {
		if w.username == "" {
			next(wr, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || !w.checkCredentials(user, pass) {
			wr.Header().Set("WWW-Authenticate", `Basic realm="docfinder", charset="UTF-8"`)
			http.Error(wr, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(wr, r)
	}
}

func (w *Web) checkCredentials(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(w.username)) == 1
	var passOK bool
	if strings.HasPrefix(w.password, "$2") {
		passOK = bcrypt.CompareHashAndPassword([]byte(w.password), []byte(pass)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(pass), []byte(w.password)) == 1
	}
	return userOK && passOK
}

func (w *Web) handleIndex(wr http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(wr, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		wr.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.render(wr, http.StatusOK, "index.html", newPage(w.defaultTypes, namematch.Target{}))
}

func (w *Web) handleScan(wr http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		wr.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(wr, r.Body, w.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(wr, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(wr, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	enabled := parseTypes(r.MultipartForm.Value["type"])
	target := namematch.Target{
		FamilyName: strings.TrimSpace(r.FormValue("family_name")),
		GivenName:  strings.TrimSpace(r.FormValue("given_name")),
	}
	p := newPage(enabled, target)

	uploads, err := readUploads(r.MultipartForm.File["files"])
	if err != nil {
		http.Error(wr, "upload error", http.StatusBadRequest)
		return
	}
	if len(uploads) == 0 {
		p.Error = "Veuillez sélectionner au moins un document."
		w.render(wr, http.StatusBadRequest, "index.html", p)
		return
	}

	ctx := r.Context()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	release, err := w.slots.Acquire(ctx)
	if err != nil {
		log.Warn().Err(err).Int("in_use", w.slots.InUse()).Msg("no scan slot available")
		p.Error = "Le service est occupé, veuillez réessayer dans quelques instants."
		w.render(wr, http.StatusServiceUnavailable, "index.html", p)
		return
	}
	defer release()

	res, err := w.scanner.Scan(ctx, scan.Request{Files: uploads, Enabled: enabled, Target: target})
	p.fill(res, err)
	w.render(wr, http.StatusOK, "index.html", p)
}

func (w *Web) handleStatus(wr http.ResponseWriter, r *http.Request) {
	summary := w.status.Summary()
	if r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		wr.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(wr).Encode(summary)
		return
	}
	w.render(wr, http.StatusOK, "status.html", summary)
}

func parseTypes(values []string) classify.TypeSet {
	set := classify.NewTypeSet()
	for _, v := range values {
		if t, ok := classify.ParseType(v); ok {
			set[t] = struct{}{}
		}
	}
	return set
}

func readUploads(headers []*multipart.FileHeader) ([]scan.Upload, error) {
	var uploads []scan.Upload
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		uploads = append(uploads, scan.Upload{Name: h.Filename, Data: data})
	}
	return uploads, nil
}
