package merge

import (
	"strings"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lowercase = cases.Lower(language.Und)

// canonicalText folds case, applies NFC so composed and decomposed
// accents compare equal, and collapses runs of whitespace. Platform
// captions repeat across sources with exactly these cosmetic
// differences.
func canonicalText(s string) string {
	s = norm.NFC.String(lowercase.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// textSimilarity scores two texts in [0,1] using Jaro-Winkler, which
// favors shared prefixes; cross-posted captions usually diverge only
// in trailing tags.
func textSimilarity(a, b string) float64 {
	return matchr.JaroWinkler(canonicalText(a), canonicalText(b), false)
}
