// Package namematch checks whether a person's name appears in OCR text,
// ignoring case and diacritics.
package namematch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize strips accents, lowercases and drops every character other than
// ASCII letters, hyphens and spaces. Line breaks are dropped too, so words on
// consecutive lines are joined.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// transformers keep state; build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	stripped = strings.ToLower(stripped)

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || r == '-' || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matches reports whether every non-empty name occurs in text once both are
// normalized. It is false when no usable name is given.
func Matches(text, familyName, givenName string) bool {
	family := Normalize(familyName)
	given := Normalize(givenName)
	if family == "" && given == "" {
		return false
	}
	normalized := Normalize(text)
	if family != "" && !strings.Contains(normalized, family) {
		return false
	}
	if given != "" && !strings.Contains(normalized, given) {
		return false
	}
	return true
}

// Target is the person a scan looks for.
type Target struct {
	FamilyName string
	GivenName  string
}

// IsEmpty reports whether the target carries no usable name.
func (t Target) IsEmpty() bool {
	return Normalize(t.FamilyName) == "" && Normalize(t.GivenName) == ""
}

// Matches reports whether text names the target.
func (t Target) Matches(text string) bool {
	return Matches(text, t.FamilyName, t.GivenName)
}

// DisplayFamily returns the family name upper-cased.
func (t Target) DisplayFamily() string {
	return strings.ToUpper(strings.TrimSpace(t.FamilyName))
}

// DisplayGiven returns the given name with its first letter upper-cased and
// the rest lower-cased.
func (t Target) DisplayGiven() string {
	s := strings.ToLower(strings.TrimSpace(t.GivenName))
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func (t Target) String() string {
	return strings.TrimSpace(t.DisplayFamily() + " " + t.DisplayGiven())
}
