// Package textnorm folds accented French text to plain ASCII. It backs both
// the duplicate-detection keyword extraction and URL slug generation.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Ligatures are not covered by canonical decomposition.
var ligatureReplacer = strings.NewReplacer(
	"œ", "oe", "Œ", "OE",
	"æ", "ae", "Æ", "AE",
)

// Fold lowercases s and maps accented Latin letters to their base form
// (é→e, ç→c, œ→oe). Folding an already folded string is a no-op.
func Fold(s string) string {
	s = strings.ToLower(s)
	s = ligatureReplacer.Replace(s)
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return folded
}

// Slugify turns a title into a URL-safe slug: folded ASCII letters and
// digits separated by single hyphens.
func Slugify(s string) string {
	s = Fold(s)

	var b strings.Builder
	lastHyphen := true
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
