package web

import (
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/docfinder/internal/classify"
	"github.com/local/docfinder/internal/namematch"
	"github.com/local/docfinder/internal/render"
	"github.com/local/docfinder/internal/scan"
)

const (
	msgNoTarget = "Veuillez renseigner un nom et/ou un prénom pour activer la recherche."
	msgNoMatch  = "Aucun document trouvé au nom/prénom spécifié."
)

type typeOption struct {
	Value   string
	Label   string
	Glyph   string
	Checked bool
}

type matchView struct {
	Caption  string
	Glyph    string
	Label    string
	Family   string
	Given    string
	Image    template.URL
	Text     string
	Hits     string
	Enhanced bool
}

type fileView struct {
	Name    string
	Pages   int
	Matches int
}

type page struct {
	Types      []typeOption
	FamilyName string
	GivenName  string
	Accept     string
	Submitted  bool
	Pages      int
	Files      []fileView
	Matches    []matchView
	Warning    string
	Info       string
	Error      string
}

func newPage(enabled classify.TypeSet, target namematch.Target) *page {
	p := &page{
		FamilyName: target.FamilyName,
		GivenName:  target.GivenName,
		Accept:     strings.Join(render.Extensions(), ","),
	}
	for _, t := range classify.AllTypes {
		p.Types = append(p.Types, typeOption{
			Value:   string(t),
			Label:   t.Label(),
			Glyph:   classify.Glyph(t),
			Checked: enabled.Has(t),
		})
	}
	return p
}

// fill turns a scan outcome into banners and result cards. res may hold
// partial matches alongside err.
func (p *page) fill(res *scan.Result, err error) {
	p.Submitted = true
	if err != nil {
		p.Error = errorMessage(err)
	}
	if res == nil {
		return
	}
	p.Pages = res.Pages()
	for _, f := range res.Files {
		p.Files = append(p.Files, fileView{Name: f.Name, Pages: f.Pages, Matches: f.Matches})
	}

	for _, m := range res.Matches {
		uri, encErr := render.DataURI(m.Image)
		if encErr != nil {
			log.Warn().Err(encErr).Str("file", m.File).Int("page", m.Page).Msg("preview encoding failed")
		}
		p.Matches = append(p.Matches, matchView{
			Caption:  fmt.Sprintf("%s / page %d", m.File, m.Page),
			Glyph:    classify.Glyph(m.Type),
			Label:    m.Type.Label(),
			Family:   m.Target.DisplayFamily(),
			Given:    m.Target.DisplayGiven(),
			Image:    template.URL(uri),
			Text:     m.Text,
			Hits:     strings.Join(m.Hits, ", "),
			Enhanced: m.Enhanced,
		})
	}

	switch {
	case res.Target.IsEmpty():
		p.Warning = msgNoTarget
	case len(p.Matches) == 0 && err == nil:
		p.Info = msgNoMatch
	}
}

func errorMessage(err error) string {
	var pe *scan.PageError
	switch {
	case errors.As(err, &pe) && errors.Is(err, render.ErrUnsupportedFormat):
		return fmt.Sprintf("Format de fichier non pris en charge : %s", pe.File)
	case errors.As(err, &pe) && pe.Page > 0:
		return fmt.Sprintf("Erreur lors du traitement de %s, page %d (%s) : %v", pe.File, pe.Page, pe.Stage, pe.Err)
	case errors.As(err, &pe):
		return fmt.Sprintf("Impossible de lire %s : %v", pe.File, pe.Err)
	default:
		return fmt.Sprintf("Traitement interrompu : %v", err)
	}
}
