package patch

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader is matched by a *ParseError for an "@@" line that does not parse.
	ErrMalformedHeader = errors.New("malformed hunk header")
	// ErrNoHunks is matched by a *ParseError for text without any hunk header.
	ErrNoHunks = errors.New("no valid hunks found in patch")
	// ErrTruncatedHunk is matched by a *ParseError for a hunk whose body is shorter than its
	// header counts.
	ErrTruncatedHunk = errors.New("hunk body does not match header counts")

	// ErrContextMismatch is matched by an *ApplyError when a hunk's context is not found
	// verbatim at its expected position.
	ErrContextMismatch = errors.New("context mismatch")
	// ErrNoFuzzyMatch is matched by an *ApplyError when no candidate position scores above the
	// fuzzy threshold.
	ErrNoFuzzyMatch = errors.New("no fuzzy match")
)

// ParseErrorKind classifies a ParseError.
type ParseErrorKind int

const (
	MalformedHeader ParseErrorKind = iota + 1
	NoHunks
	TruncatedHunk
)

// ParseError reports why unified-diff text could not be turned into hunks.
type ParseError struct {
	Kind ParseErrorKind
	// Line is the 1-based line of the patch text where the problem was found; 0 for NoHunks.
	Line int
	// Text is the offending patch line.
	Text string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case NoHunks:
		return ErrNoHunks.Error()
	default:
		return fmt.Sprintf("line %d: %v: %q", e.Line, e.sentinel(), e.Text)
	}
}

// Is reports whether target is the sentinel for the error kind.
func (e *ParseError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *ParseError) sentinel() error {
	switch e.Kind {
	case MalformedHeader:
		return ErrMalformedHeader
	case NoHunks:
		return ErrNoHunks
	case TruncatedHunk:
		return ErrTruncatedHunk
	default:
		return nil
	}
}

// IsParseError reports whether err was caused by malformed patch text.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// ApplyErrorKind classifies an ApplyError.
type ApplyErrorKind int

const (
	ContextMismatch ApplyErrorKind = iota + 1
	NoFuzzyMatch
)

// MarshalText implements encoding.TextMarshaler.
func (k ApplyErrorKind) MarshalText() ([]byte, error) {
	switch k {
	case ContextMismatch:
		return []byte("context_mismatch"), nil
	case NoFuzzyMatch:
		return []byte("no_fuzzy_match"), nil
	default:
		return nil, fmt.Errorf("unknown apply error kind %d", int(k))
	}
}

// ApplyError reports a hunk that could not be applied. Positions are 0-based line indexes
// into the running document.
type ApplyError struct {
	Kind      ApplyErrorKind `json:"kind"`
	HunkIndex int            `json:"hunk_index"`

	// ContextMismatch
	Expected string `json:"expected_line,omitempty"`
	Actual   string `json:"actual_line,omitempty"`
	Position int    `json:"position"`

	// NoFuzzyMatch; BestPosition is -1 when there was no candidate at all.
	BestScore    float64 `json:"best_score,omitempty"`
	BestPosition int     `json:"best_position"`
}

func (e *ApplyError) Error() string {
	switch e.Kind {
	case ContextMismatch:
		return fmt.Sprintf("hunk %d: context mismatch at line %d: expected %q, found %q",
			e.HunkIndex+1, e.Position+1, trimEOL(e.Expected), trimEOL(e.Actual))
	case NoFuzzyMatch:
		if e.BestPosition < 0 {
			return fmt.Sprintf("hunk %d: could not find matching context near line %d: no candidate position",
				e.HunkIndex+1, e.Position+1)
		}
		return fmt.Sprintf("hunk %d: could not find matching context near line %d: best score %.1f at line %d",
			e.HunkIndex+1, e.Position+1, e.BestScore, e.BestPosition+1)
	default:
		return fmt.Sprintf("hunk %d: apply failed", e.HunkIndex+1)
	}
}

// Is reports whether target is the sentinel for the error kind.
func (e *ApplyError) Is(target error) bool {
	switch e.Kind {
	case ContextMismatch:
		return target == ErrContextMismatch
	case NoFuzzyMatch:
		return target == ErrNoFuzzyMatch
	default:
		return false
	}
}
