package matching

import (
	"strings"

	fuzz "github.com/paul-mannino/go-fuzzywuzzy"
)

// Similarity thresholds for item-name resolution. Strict is used where a
// wrong auto-correction would write bad data, Loose where the candidate set
// is the user's own short list, Alert for matching posted stock against
// watch terms.
const (
	ThresholdStrict = 90
	ThresholdLoose  = 60
	ThresholdAlert  = 80
)

var romanTiers = map[string]int{
	"i": 1, "ii": 2, "iii": 3, "iv": 4, "v": 5,
	"vi": 6, "vii": 7, "viii": 8, "ix": 9, "x": 10,
}

// Normalize lowercases and collapses runs of whitespace to single spaces.
// All similarity scoring happens on normalized text.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// trailingTier returns the tier number encoded by a trailing Roman numeral
// token, or 0 when the name has none. "Widget III" and "widget iii" both
// report 3.
func trailingTier(normalized string) int {
	idx := strings.LastIndexByte(normalized, ' ')
	if idx < 0 {
		return 0
	}
	return romanTiers[normalized[idx+1:]]
}

// Score rates the similarity of two item names on a 0-100 scale. Names that
// carry different trailing tier numerals never match: "Widget II" must not
// resolve to "Widget III" no matter how close the rest of the text is.
func Score(query, candidate string) int {
	q, c := Normalize(query), Normalize(candidate)
	if q == "" || c == "" {
		return 0
	}
	if qt, ct := trailingTier(q), trailingTier(c); qt != 0 && ct != 0 && qt != ct {
		return 0
	}
	return fuzz.WRatio(q, c)
}

// Resolve finds the best candidate for query at or above threshold. Returns
// the original candidate spelling, its score, and whether anything qualified.
func Resolve(query string, candidates []string, threshold int) (string, int, bool) {
	best := ""
	bestScore := 0
	for _, candidate := range candidates {
		if s := Score(query, candidate); s > bestScore {
			best, bestScore = candidate, s
		}
	}
	if bestScore < threshold {
		return "", bestScore, false
	}
	return best, bestScore, true
}
