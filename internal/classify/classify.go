// Package classify detects the type of an administrative document from the
// raw text OCR produced for one page.
package classify

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultMinHits is how many distinct keywords a counting rule needs.
// Empirical value.
const DefaultMinHits = 2

// Rule detects one document type. The text matches when at least MinHits
// distinct keywords occur in it and none of the exclusions do. Matching is
// case-insensitive substring search.
type Rule struct {
	Type       DocumentType
	Keywords   []string
	MinHits    int
	Exclusions []string
}

// Rules is evaluated in order; the first enabled rule that matches wins.
// Passport must stay ahead of the residence permit rule.
var Rules = []Rule{
	{
		Type:       Passport,
		Keywords:   []string{"passeport"},
		MinHits:    1,
		Exclusions: []string{"titre", "séjour", "sejour"},
	},
	{
		Type: IdentityCard,
		Keywords: []string{
			"carte", "identité", "card", "identity",
			"republique", "république", "francaise", "française",
		},
		MinHits: DefaultMinHits,
	},
	{
		Type:     ResidencePermit,
		Keywords: []string{"résidence", "permit", "residence", "titre", "sejour", "séjour"},
		MinHits:  DefaultMinHits,
	},
	{
		Type: ProofOfAddress,
		Keywords: []string{
			"justificatif de domicile",
			"adresse",
			"nom du titulaire",
			"domicile",
			"quittance de loyer",
			"facture",
			"facture d'électricité", "facture edf", "facture engie", "facture gdf",
			"facture d'eau", "suez", "veolia",
			"facture de gaz",
			"attestation d'hébergement",
			"assurance habitation",
			"bail",
			"contrat de location",
			"date d’émission", "date d'emission",
			"avis d'echeance", "avis d'échéance",
			"agence",
			"montants",
		},
		MinHits: DefaultMinHits,
	},
	{
		Type: BankStatement,
		Keywords: []string{
			"relevé d'identité bancaire", "rib",
			"iban",
			"bic",
			"code banque",
			"code guichet",
			"numéro de compte", "numero de compte",
			"clé rib", "cle rib",
			"titulaire du compte",
			"nom de la banque",
		},
		MinHits: DefaultMinHits,
	},
}

// fold composes accents and lowercases text for keyword search.
func fold(text string) string {
	return strings.ToLower(norm.NFC.String(text))
}

func found(folded string, words []string) []string {
	var out []string
	for _, w := range words {
		if strings.Contains(folded, w) {
			out = append(out, w)
		}
	}
	return out
}

// Hits returns the keywords of r present in text.
func (r Rule) Hits(text string) []string {
	return found(fold(text), r.Keywords)
}

// Matches reports whether text satisfies r.
func (r Rule) Matches(text string) bool {
	return r.evaluate(fold(text)).Matched
}

func (r Rule) evaluate(folded string) Evaluation {
	ev := Evaluation{
		Type:     r.Type,
		Hits:     found(folded, r.Keywords),
		Excluded: found(folded, r.Exclusions),
	}
	ev.Matched = len(ev.Hits) >= r.MinHits && len(ev.Excluded) == 0
	return ev
}

// Evaluation records how one rule scored a page.
type Evaluation struct {
	Type     DocumentType
	Enabled  bool
	Hits     []string
	Excluded []string
	Matched  bool
}

// Classify returns the type of the first enabled rule matching text, or
// None. Disabled types are never evaluated.
func Classify(text string, enabled TypeSet) DocumentType {
	if len(enabled) == 0 {
		return None
	}
	folded := fold(text)
	for _, r := range Rules {
		if !enabled.Has(r.Type) {
			continue
		}
		if r.evaluate(folded).Matched {
			return r.Type
		}
	}
	return None
}

// Explain scores every rule against text, in priority order, for logs and
// diagnostics. Disabled rules are reported with Enabled false and no hits.
func Explain(text string, enabled TypeSet) []Evaluation {
	folded := fold(text)
	out := make([]Evaluation, 0, len(Rules))
	for _, r := range Rules {
		if !enabled.Has(r.Type) {
			out = append(out, Evaluation{Type: r.Type})
			continue
		}
		ev := r.evaluate(folded)
		ev.Enabled = true
		out = append(out, ev)
	}
	return out
}
