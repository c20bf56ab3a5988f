package ocr

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// tessdataDirs are searched when no prefix is configured.
var tessdataDirs = []string{
	"/usr/share/tesseract-ocr/5/tessdata",
	"/usr/share/tesseract-ocr/4.00/tessdata",
	"/usr/share/tessdata",
	"/usr/local/share/tessdata",
	"/opt/homebrew/share/tessdata",
}

// ParseLanguages splits a Tesseract language string such as "fra+eng".
func ParseLanguages(s string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == ',' || r == ' ' }) {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// TessdataDir resolves where models are read from: the explicit prefix, the
// TESSDATA_PREFIX environment variable, or the first well-known directory
// that exists. It returns "" when none is found.
func TessdataDir(prefix string) string {
	if prefix != "" {
		return prefix
	}
	if env := os.Getenv("TESSDATA_PREFIX"); env != "" {
		return env
	}
	for _, d := range tessdataDirs {
		if st, err := os.Stat(d); err == nil && st.IsDir() {
			return d
		}
	}
	return ""
}

// InstalledLanguages lists the .traineddata models found in dir.
func InstalledLanguages(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.traineddata"))
	if err != nil {
		return nil, err
	}
	langs := make([]string, 0, len(matches))
	for _, m := range matches {
		langs = append(langs, strings.TrimSuffix(filepath.Base(m), ".traineddata"))
	}
	sort.Strings(langs)
	return langs, nil
}

// MissingLanguages returns the wanted models that are not installed.
func MissingLanguages(installed, wanted []string) []string {
	have := make(map[string]struct{}, len(installed))
	for _, l := range installed {
		have[l] = struct{}{}
	}
	var missing []string
	for _, l := range wanted {
		if _, ok := have[l]; !ok {
			missing = append(missing, l)
		}
	}
	return missing
}
