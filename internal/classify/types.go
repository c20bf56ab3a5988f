package classify

import "strings"

// DocumentType identifies the kind of administrative document found on a page.
type DocumentType string

const (
	None            DocumentType = ""
	IdentityCard    DocumentType = "identity_card"
	Passport        DocumentType = "passport"
	ResidencePermit DocumentType = "residence_permit"
	ProofOfAddress  DocumentType = "proof_of_address"
	BankStatement   DocumentType = "bank_statement"
)

// AllTypes lists every detectable type in display order.
var AllTypes = []DocumentType{IdentityCard, Passport, ResidencePermit, ProofOfAddress, BankStatement}

var labels = map[DocumentType]string{
	IdentityCard:    "Carte d'identité",
	Passport:        "Passeport",
	ResidencePermit: "Titre de séjour",
	ProofOfAddress:  "Justificatif de domicile",
	BankStatement:   "RIB",
}

var glyphs = map[DocumentType]string{
	IdentityCard:    "🪪",
	Passport:        "🛂",
	ResidencePermit: "🏷️",
	ProofOfAddress:  "🏠",
	BankStatement:   "🏦",
}

// DefaultGlyph is shown for pages without a known type.
const DefaultGlyph = "📄"

// Label returns the user-facing (French) name of the type.
func (t DocumentType) Label() string {
	if l, ok := labels[t]; ok {
		return l
	}
	return ""
}

func (t DocumentType) String() string {
	if t == None {
		return "none"
	}
	return string(t)
}

// Glyph maps a document type to its display emoji.
func Glyph(t DocumentType) string {
	if g, ok := glyphs[t]; ok {
		return g
	}
	return DefaultGlyph
}

// ParseType resolves a form or config value into a DocumentType.
func ParseType(s string) (DocumentType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range AllTypes {
		if string(t) == s {
			return t, true
		}
	}
	return None, false
}

// TypeSet is the set of document types the user wants surfaced.
type TypeSet map[DocumentType]struct{}

// NewTypeSet builds a set from the given types. None is ignored.
func NewTypeSet(types ...DocumentType) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		if t != None {
			s[t] = struct{}{}
		}
	}
	return s
}

// DefaultTypeSet is the selection a fresh session starts with: identity
// documents on, proof of address and bank details off.
func DefaultTypeSet() TypeSet {
	return NewTypeSet(IdentityCard, Passport, ResidencePermit)
}

// Has reports whether t is enabled.
func (s TypeSet) Has(t DocumentType) bool {
	_, ok := s[t]
	return ok
}

// Types returns the enabled types in display order.
func (s TypeSet) Types() []DocumentType {
	out := make([]DocumentType, 0, len(s))
	for _, t := range AllTypes {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}
