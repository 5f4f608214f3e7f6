package patch

import (
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Scorer rates how similar two strings are on a 0-100 scale. Implementations must be
// deterministic, return 100 exactly when a == b, and be safe for concurrent use.
type Scorer interface {
	Score(a, b string) float64
}

// LevenshteinScorer scores 100 * (1 - distance/maxLength), with the edit distance counted in
// runes by diff-match-patch.
type LevenshteinScorer struct{}

// Score implements Scorer.
func (LevenshteinScorer) Score(a, b string) float64 {
	if s, ok := trivialScore(a, b); ok {
		return s
	}
	dmp := diffmatchpatch.New()
	// A timeout would make the result depend on machine speed.
	dmp.DiffTimeout = 0
	distance := dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))

	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 100 * (1 - float64(distance)/float64(maxLen))
}

// RatioScorer scores 100 * 2M/T over the runes of both strings, where M counts matched runes
// and T is the total rune count: the classic SequenceMatcher ratio.
type RatioScorer struct{}

// Score implements Scorer.
func (RatioScorer) Score(a, b string) float64 {
	if s, ok := trivialScore(a, b); ok {
		return s
	}
	matcher := difflib.NewMatcherWithJunk(runeStrings(a), runeStrings(b), false, nil)
	return 100 * matcher.Ratio()
}

func trivialScore(a, b string) (float64, bool) {
	switch {
	case a == b:
		return 100, true
	case a == "" || b == "":
		return 0, true
	default:
		return 0, false
	}
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// ScorerByName returns the scorer registered under name: "levenshtein" or "ratio".
func ScorerByName(name string) (Scorer, bool) {
	switch name {
	case "", "levenshtein":
		return LevenshteinScorer{}, true
	case "ratio":
		return RatioScorer{}, true
	default:
		return nil, false
	}
}
