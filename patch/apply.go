package patch

import (
	"errors"
	"fmt"
)

// Mode selects how strictly hunks must match the target document.
type Mode int

const (
	// Exact requires every context and removed line verbatim at the offset-adjusted position.
	Exact Mode = iota
	// Fuzzy falls back to a similarity search around the expected position.
	Fuzzy
)

// String returns the lower-case mode name.
func (m Mode) String() string {
	switch m {
	case Exact:
		return "exact"
	case Fuzzy:
		return "fuzzy"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

const (
	// DefaultThreshold is the minimum score for a multi-line block in fuzzy mode.
	DefaultThreshold = 50
	// DefaultLineThreshold is the minimum score for a single-line block in fuzzy mode.
	DefaultLineThreshold = 80
	// DefaultWindow is how many lines either side of the expected position fuzzy mode searches.
	DefaultWindow = 20
)

// Options controls patch application.
type Options struct {
	Mode Mode

	// BestEffort, in Fuzzy mode, returns the text with every hunk that did apply even when
	// others failed. Exact mode ignores it.
	BestEffort bool

	// Threshold is the minimum score (0-100) accepted for blocks of two or more lines.
	// 0 selects DefaultThreshold.
	Threshold float64
	// LineThreshold is the minimum score accepted for single-line blocks. Short lines need a
	// stricter bar to avoid false positives. 0 selects DefaultLineThreshold.
	LineThreshold float64
	// Window is the search radius in lines. 0 selects DefaultWindow.
	Window int
	// Scorer rates candidate blocks. nil selects LevenshteinScorer.
	Scorer Scorer
}

// DefaultOptions returns exact-mode options with the default fuzzy parameters filled in.
func DefaultOptions() Options {
	return Options{
		Mode:          Exact,
		Threshold:     DefaultThreshold,
		LineThreshold: DefaultLineThreshold,
		Window:        DefaultWindow,
		Scorer:        LevenshteinScorer{},
	}
}

// FuzzyOptions returns fuzzy-mode options using threshold for multi-line blocks.
func FuzzyOptions(threshold float64) Options {
	opts := DefaultOptions()
	opts.Mode = Fuzzy
	opts.Threshold = threshold
	return opts
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.LineThreshold <= 0 {
		o.LineThreshold = DefaultLineThreshold
	}
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.Scorer == nil {
		o.Scorer = LevenshteinScorer{}
	}
	return o
}

// AppliedHunk records where a hunk landed in the running document.
type AppliedHunk struct {
	Index    int     `json:"hunk_index"`
	Position int     `json:"position"`
	Score    float64 `json:"score"`
	Fuzzy    bool    `json:"fuzzy"`
}

// Outcome is the result of applying a list of hunks.
type Outcome struct {
	Success bool `json:"success"`
	// PatchedText is nil when the patch failed in Exact mode, or in Fuzzy mode without
	// BestEffort.
	PatchedText *string       `json:"patched_text"`
	Errors      []*ApplyError `json:"errors"`
	Applied     []AppliedHunk `json:"applied"`
}

// Text returns the patched text and whether there is any.
func (o *Outcome) Text() (string, bool) {
	if o.PatchedText == nil {
		return "", false
	}
	return *o.PatchedText, true
}

// Err joins every hunk failure into one error, or returns nil on success.
func (o *Outcome) Err() error {
	if len(o.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(o.Errors))
	for i, e := range o.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Apply applies hunks in order to a copy of original. Each hunk is located at its header
// position shifted by the net line delta of the hunks applied before it; in Fuzzy mode a
// hunk that does not match there is searched for within Window lines.
//
// Failures are collected for every hunk rather than stopping at the first. Failed hunks
// leave the running document and the offset untouched.
func Apply(original []string, hunks []Hunk, opts Options) *Outcome {
	opts = opts.withDefaults()
	doc := append([]string(nil), original...)
	outcome := &Outcome{Errors: []*ApplyError{}, Applied: []AppliedHunk{}}

	offset := 0
	// floor is the first line after the previously applied hunk; fuzzy search never moves a
	// hunk above it.
	floor := 0
	for i, hunk := range hunks {
		expected := hunk.oldSide()
		hint := hunk.OldStart - 1 + offset
		if len(expected) == 0 {
			hint = hunk.OldStart + offset
		}

		placed, err := locate(doc, expected, hint, floor, opts)
		if err != nil {
			err.HunkIndex = i
			outcome.Errors = append(outcome.Errors, err)
			continue
		}

		var written int
		doc, written = splice(doc, placed.Position, hunk, placed.Fuzzy)
		added, removed := hunk.Stats()
		offset += added - removed
		floor = placed.Position + written

		placed.Index = i
		outcome.Applied = append(outcome.Applied, placed)
	}

	outcome.Success = len(outcome.Errors) == 0
	if outcome.Success || (opts.Mode == Fuzzy && opts.BestEffort) {
		text := JoinLines(doc)
		outcome.PatchedText = &text
	}
	return outcome
}

// ApplyText parses patchText and applies it to original. Malformed patch text is returned as
// a *ParseError; hunk failures are reported in the Outcome.
func ApplyText(original, patchText string, opts Options) (*Outcome, error) {
	hunks, err := Parse(patchText)
	if err != nil {
		return nil, fmt.Errorf("parse patch: %w", err)
	}
	return Apply(SplitLines(original), hunks, opts), nil
}

// locate finds where expected sits in doc.
func locate(doc, expected []string, hint, floor int, opts Options) (AppliedHunk, *ApplyError) {
	mismatch := verify(doc, expected, hint)
	if mismatch == nil && (opts.Mode == Exact || hint >= floor) {
		return AppliedHunk{Position: hint, Score: 100}, nil
	}
	if opts.Mode == Exact {
		return AppliedHunk{}, mismatch
	}

	if len(expected) == 0 {
		return AppliedHunk{Position: clamp(hint, floor, len(doc)), Score: 100, Fuzzy: true}, nil
	}

	want := joinBlock(expected)
	lo := max(floor, hint-opts.Window)
	hi := min(len(doc)-len(expected), hint+opts.Window)
	bestPos, bestScore := -1, 0.0
	for pos := lo; pos <= hi; pos++ {
		score := opts.Scorer.Score(want, joinBlock(doc[pos:pos+len(expected)]))
		if bestPos < 0 || score > bestScore || (score == bestScore && abs(pos-hint) < abs(bestPos-hint)) {
			bestPos, bestScore = pos, score
		}
	}

	threshold := opts.Threshold
	if len(expected) == 1 {
		threshold = opts.LineThreshold
	}
	if bestPos < 0 || bestScore < threshold {
		return AppliedHunk{}, &ApplyError{
			Kind:         NoFuzzyMatch,
			Position:     hint,
			BestScore:    bestScore,
			BestPosition: bestPos,
		}
	}
	return AppliedHunk{Position: bestPos, Score: bestScore, Fuzzy: true}, nil
}

// verify compares expected verbatim against doc starting at pos and reports the first
// difference.
func verify(doc, expected []string, pos int) *ApplyError {
	if len(expected) == 0 && (pos < 0 || pos > len(doc)) {
		return &ApplyError{Kind: ContextMismatch, Position: pos}
	}
	for k, want := range expected {
		idx := pos + k
		got := ""
		if idx >= 0 && idx < len(doc) {
			got = doc[idx]
		}
		if idx < 0 || idx >= len(doc) || got != want {
			return &ApplyError{Kind: ContextMismatch, Expected: want, Actual: got, Position: idx}
		}
	}
	return nil
}

// splice replaces the old side of hunk at pos with its new side and returns the new
// document and the number of lines written. With keepContext, context lines keep the
// document's own text.
func splice(doc []string, pos int, hunk Hunk, keepContext bool) ([]string, int) {
	out := make([]string, 0, len(doc)+len(hunk.Lines))
	out = append(out, doc[:pos]...)
	k := pos
	for _, line := range hunk.Lines {
		switch line.Kind {
		case LineContext:
			if keepContext {
				out = append(out, doc[k])
			} else {
				out = append(out, line.Text)
			}
			k++
		case LineRemoved:
			k++
		case LineAdded:
			out = append(out, line.Text)
		}
	}
	written := len(out) - pos
	out = append(out, doc[k:]...)

	// Only the last line of a document may lack a terminator.
	for i := 0; i < len(out)-1; i++ {
		if !hasEOL(out[i]) {
			out[i] += "\n"
		}
	}
	return out, written
}

func clamp(value, lower, upper int) int {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
