package patch

import (
	"sort"
	"strings"
)

// suggestionNearby is how many lines either side of the hint are searched for the exact
// substring before the whole document is.
const suggestionNearby = 2

// Suggestion is a single line edit proposed by an editor: replace Original with Suggested on
// or near the 0-based LineNumber.
type Suggestion struct {
	LineNumber int    `json:"line_number"`
	Original   string `json:"original"`
	Suggested  string `json:"suggested"`
	Rationale  string `json:"rationale,omitempty"`
}

// SuggestionOptions controls how suggestions find their line.
type SuggestionOptions struct {
	// LineThreshold is the minimum score for replacing a whole line that only resembles
	// Original. 0 selects DefaultLineThreshold.
	LineThreshold float64
	// Window is the fuzzy search radius in lines. 0 selects DefaultWindow.
	Window int
	// Scorer rates candidate lines. nil selects LevenshteinScorer.
	Scorer Scorer
}

// AppliedSuggestion records the line a suggestion was applied to.
type AppliedSuggestion struct {
	Index int     `json:"index"`
	Line  int     `json:"line"`
	Score float64 `json:"score"`
	Fuzzy bool    `json:"fuzzy"`
}

// SkippedSuggestion records a suggestion that could not be placed.
type SkippedSuggestion struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// SuggestionOutcome is the result of ApplySuggestions.
type SuggestionOutcome struct {
	Text    string              `json:"text"`
	Applied []AppliedSuggestion `json:"applied"`
	Skipped []SkippedSuggestion `json:"skipped"`
}

// ApplySuggestions applies line edits to text, highest line number first so earlier hints
// stay valid. A suggestion's line is the first line near the hint containing Original, then
// the first such line anywhere; every occurrence within that line is replaced. Failing that,
// the best line within Window of the hint that scores at least LineThreshold against Original
// is replaced wholesale. Suggestions that match nothing are reported as skipped.
func ApplySuggestions(text string, suggestions []Suggestion, opts SuggestionOptions) SuggestionOutcome {
	if opts.LineThreshold <= 0 {
		opts.LineThreshold = DefaultLineThreshold
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Scorer == nil {
		opts.Scorer = LevenshteinScorer{}
	}

	order := make([]int, len(suggestions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return suggestions[order[x]].LineNumber > suggestions[order[y]].LineNumber
	})

	lines := strings.Split(text, "\n")
	outcome := SuggestionOutcome{Applied: []AppliedSuggestion{}, Skipped: []SkippedSuggestion{}}
	for _, idx := range order {
		s := suggestions[idx]
		if s.Original == "" {
			outcome.Skipped = append(outcome.Skipped, SkippedSuggestion{Index: idx, Reason: "empty original text"})
			continue
		}

		if line, ok := findContaining(lines, s.Original, s.LineNumber); ok {
			lines[line] = strings.ReplaceAll(lines[line], s.Original, s.Suggested)
			outcome.Applied = append(outcome.Applied, AppliedSuggestion{Index: idx, Line: line, Score: 100})
			continue
		}

		line, score := bestLine(lines, s.Original, s.LineNumber, opts)
		if line < 0 || score < opts.LineThreshold {
			outcome.Skipped = append(outcome.Skipped, SkippedSuggestion{Index: idx, Reason: "original text not found"})
			continue
		}
		lines[line] = s.Suggested
		outcome.Applied = append(outcome.Applied, AppliedSuggestion{Index: idx, Line: line, Score: score, Fuzzy: true})
	}

	outcome.Text = strings.Join(lines, "\n")
	return outcome
}

// findContaining returns the line containing target, preferring lines near hint.
func findContaining(lines []string, target string, hint int) (int, bool) {
	lo := max(0, hint-suggestionNearby)
	hi := min(len(lines), hint+suggestionNearby+1)
	for i := lo; i < hi; i++ {
		if strings.Contains(lines[i], target) {
			return i, true
		}
	}
	for i, line := range lines {
		if strings.Contains(line, target) {
			return i, true
		}
	}
	return -1, false
}

// bestLine returns the line within the window scoring highest against target, the nearest
// to hint on ties.
func bestLine(lines []string, target string, hint int, opts SuggestionOptions) (int, float64) {
	lo := max(0, hint-opts.Window)
	hi := min(len(lines)-1, hint+opts.Window)
	best, bestScore := -1, 0.0
	for i := lo; i <= hi; i++ {
		score := opts.Scorer.Score(strings.TrimSpace(target), strings.TrimSpace(lines[i]))
		if best < 0 || score > bestScore || (score == bestScore && abs(i-hint) < abs(best-hint)) {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}
