// internal/similarity/similarity.go
//
// Pronunciation similarity scoring.
// Responsibilities:
//   - Score: normalized edit-distance similarity in [0,1] between a target
//     word and a spoken/typed transcript.
//   - SoundsAlike: phonetic hint (Double Metaphone overlap) reported next to
//     the score in pronunciation feedback.
//   - Normalize: the lowercase/trim step callers apply before scoring.
//
// Notes:
//   - Score does not normalize its inputs; it compares exactly what it gets,
//     code point by code point.
//   - Neither function errors; empty input is a documented edge case.

package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Score returns 1 - editDistance(target, spoken) / max(len(target), len(spoken)).
// Edits (insert, delete, substitute) cost one each. Two empty strings are a
// perfect trivial match and score 1.
func Score(target, spoken string) float64 {
	longest := max(utf8.RuneCountInString(target), utf8.RuneCountInString(spoken))
	if longest == 0 {
		return 1
	}
	dist := matchr.Levenshtein(target, spoken)
	return 1 - float64(dist)/float64(longest)
}

// Normalize lowercases and trims a transcript the way the game compares words.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SoundsAlike reports whether any Double Metaphone code of a matches any
// code of b. Inputs that produce no codes (empty, vowels only) never match.
func SoundsAlike(a, b string) bool {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return false
	}
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)
	for _, x := range []string{ap, as} {
		if x == "" {
			continue
		}
		if x == bp || x == bs {
			return true
		}
	}
	return false
}
