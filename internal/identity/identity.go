// Package identity canonicalizes free-text judge names into stable identity keys.
//
// Two raw inputs that normalize to the same canonical name refer to the same
// judge and collide onto the same score records:
//
//	Normalize("  jane DOE ") // "Jane Doe"
//	Normalize("Jane Doe")    // "Jane Doe"
package identity

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/scorecard/internal/ir"
)

// Length bounds, counted in non-space runes.
const (
	MinLength = 2
	MaxLength = 128
)

// Normalize returns the canonical form of a judge name.
//
// The input is NFC normalized, trimmed, inner whitespace runs collapse to a
// single space, and every word gets its first letter upper-cased and the rest
// lower-cased. Empty, whitespace-only, too short, too long, or control
// character input fails with ir.ErrCodeInvalidIdentity.
func Normalize(raw string) (string, error) {
	words := strings.Fields(norm.NFC.String(raw))
	if len(words) == 0 {
		return "", ir.NewInvalidIdentity(raw, "name is empty")
	}

	n := 0
	for _, w := range words {
		for _, r := range w {
			if unicode.IsControl(r) {
				return "", ir.NewInvalidIdentity(raw, "name contains control characters")
			}
			n++
		}
	}
	if n < MinLength {
		return "", ir.NewInvalidIdentity(raw, "name must have at least 2 characters")
	}
	if n > MaxLength {
		return "", ir.NewInvalidIdentity(raw, "name is too long")
	}

	// Casers carry state and are not safe for concurrent use; make one per call.
	lower := cases.Lower(language.Und)
	for i, w := range words {
		words[i] = titleWord(lower.String(w))
	}
	return strings.Join(words, " "), nil
}

// MustNormalize is Normalize for static names in tests. Panics on invalid input.
func MustNormalize(raw string) string {
	name, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return name
}

// Equal reports whether two raw names identify the same judge.
// Invalid names are never equal to anything.
func Equal(a, b string) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return na == nb
}

// titleWord upper-cases the first rune of an already lower-cased word.
func titleWord(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToTitle(r)) + w[size:]
}
