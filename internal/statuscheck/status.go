package statuscheck

import (
	"fmt"
	"strings"

	"github.com/local/docfinder/internal/ocr"
)

// Checker reports whether the OCR engine and its models are usable.
type Checker struct {
	languages []string
	prefix    string
	version   func() string
	installed func(dir string) ([]string, error)
}

// Options configures the Checker.
type Options struct {
	Languages      []string
	TessdataPrefix string
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses for the status page.
type Summary struct {
	Tesseract Status   `json:"tesseract"`
	Models    Status   `json:"models"`
	Installed []string `json:"installed,omitempty"`
}

// OK reports whether every subsystem is ready.
func (s Summary) OK() bool { return s.Tesseract.OK && s.Models.OK }

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	langs := opts.Languages
	if len(langs) == 0 {
		langs = ocr.DefaultLanguages
	}
	return &Checker{
		languages: langs,
		prefix:    strings.TrimSpace(opts.TessdataPrefix),
		version:   ocr.Version,
		installed: ocr.InstalledLanguages,
	}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary() Summary {
	s := Summary{Tesseract: c.checkTesseract()}
	s.Models, s.Installed = c.checkModels()
	return s
}

func (c *Checker) checkTesseract() Status {
	v := strings.TrimSpace(c.version())
	if v == "" {
		return Status{OK: false, Message: "Version unknown"}
	}
	return Status{OK: true, Message: "Tesseract " + v}
}

func (c *Checker) checkModels() (Status, []string) {
	dir := ocr.TessdataDir(c.prefix)
	if dir == "" {
		return Status{OK: false, Message: "tessdata directory not found"}, nil
	}
	langs, err := c.installed(dir)
	if err != nil {
		return Status{OK: false, Message: err.Error()}, nil
	}
	if missing := ocr.MissingLanguages(langs, c.languages); len(missing) > 0 {
		return Status{OK: false, Message: fmt.Sprintf("Missing models in %s: %s", dir, strings.Join(missing, ", "))}, langs
	}
	return Status{OK: true, Message: fmt.Sprintf("%s available in %s", strings.Join(c.languages, "+"), dir)}, langs
}
