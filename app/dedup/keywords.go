package dedup

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/toutvamal/newsroom/app/textnorm"
)

// minKeywordLength is the significance threshold: shorter tokens carry too
// little topical information to compare titles on.
const minKeywordLength = 3

// French function words and high-frequency generic news terms, stored in
// folded form since extraction folds before filtering.
var stopWords = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "un": {}, "une": {}, "des": {}, "de": {},
	"du": {}, "au": {}, "aux": {}, "et": {}, "ou": {}, "mais": {}, "donc": {},
	"car": {}, "ni": {}, "que": {}, "qui": {}, "quoi": {}, "ce": {},
	"cette": {}, "ces": {}, "son": {}, "sa": {}, "ses": {}, "leur": {},
	"leurs": {}, "pour": {}, "par": {}, "sur": {}, "sous": {}, "dans": {},
	"avec": {}, "sans": {}, "entre": {}, "est": {}, "sont": {}, "a": {},
	"ont": {}, "ete": {}, "etre": {}, "avoir": {}, "fait": {}, "plus": {},
	"moins": {}, "tres": {}, "tout": {}, "tous": {}, "toute": {},
	"toutes": {}, "en": {}, "se": {}, "ne": {}, "pas": {}, "si": {},
	"comme": {}, "meme": {}, "aussi": {}, "apres": {}, "avant": {},
	"alors": {}, "encore": {}, "deja": {}, "bien": {}, "mal": {},
	"france": {}, "francais": {}, "francaise": {}, "pays": {}, "monde": {},
	"national": {}, "nouveau": {}, "nouvelle": {}, "nouveaux": {},
	"nouvelles": {}, "grand": {}, "petit": {},
}

// ExtractKeywords reduces a title to its set of significant words:
// folded to lowercase ASCII, punctuation stripped, stop words removed,
// and only tokens longer than three runes kept. The returned slice holds
// unique keywords in first-seen order.
func ExtractKeywords(text string) []string {
	folded := textnorm.Fold(text)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	seen := make(map[string]struct{})
	var keywords []string
	for _, word := range strings.Fields(b.String()) {
		if utf8.RuneCountInString(word) <= minKeywordLength {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	return keywords
}

// OverlapRatio measures how much of the candidate keyword set is already
// covered by a reference set: |intersection| / |candidate|. It also returns
// the intersection size so callers can guard against single-word matches.
func OverlapRatio(candidate, reference []string) (float64, int) {
	if len(candidate) == 0 || len(reference) == 0 {
		return 0, 0
	}

	refSet := make(map[string]struct{}, len(reference))
	for _, w := range reference {
		refSet[w] = struct{}{}
	}

	shared := 0
	for _, w := range candidate {
		if _, ok := refSet[w]; ok {
			shared++
		}
	}

	return float64(shared) / float64(len(candidate)), shared
}
