package patch

import (
	"fmt"
	"strings"
)

// LineKind represents the role of a line inside a hunk.
type LineKind int

const (
	LineContext LineKind = iota
	LineRemoved
	LineAdded
)

// String returns the JSON name of the kind.
func (k LineKind) String() string {
	switch k {
	case LineContext:
		return "context"
	case LineRemoved:
		return "delete"
	case LineAdded:
		return "add"
	default:
		return "unknown"
	}
}

// Prefix returns the unified-diff prefix character for the kind.
func (k LineKind) Prefix() byte {
	switch k {
	case LineRemoved:
		return '-'
	case LineAdded:
		return '+'
	default:
		return ' '
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k LineKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *LineKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "context":
		*k = LineContext
	case "delete":
		*k = LineRemoved
	case "add":
		*k = LineAdded
	default:
		return fmt.Errorf("unknown line kind %q", text)
	}
	return nil
}

// Line is a single body line of a hunk. Text keeps its line terminator; it has none only
// when the line is the last line of a document without a trailing newline.
type Line struct {
	Kind LineKind `json:"type"`
	Text string   `json:"line"`
}

// Hunk represents a section of changes.
// OldStart and NewStart are 1-based as written in the "@@" header; an empty range starts at
// the line before it (0 for the start of the document).
type Hunk struct {
	OldStart int    `json:"old_start"`
	OldCount int    `json:"old_lines"`
	NewStart int    `json:"new_start"`
	NewCount int    `json:"new_lines"`
	Section  string `json:"context,omitempty"`
	Lines    []Line `json:"changes"`
}

// Header renders the "@@ -a,b +c,d @@" line, without a terminator.
func (h Hunk) Header() string {
	header := fmt.Sprintf("@@ -%s +%s @@", formatRange(h.OldStart, h.OldCount), formatRange(h.NewStart, h.NewCount))
	if h.Section != "" {
		header += " " + h.Section
	}
	return header
}

// Stats counts the added and removed lines of the hunk.
func (h Hunk) Stats() (added, removed int) {
	for _, line := range h.Lines {
		switch line.Kind {
		case LineAdded:
			added++
		case LineRemoved:
			removed++
		}
	}
	return added, removed
}

// oldSide returns the Context and Removed lines, which must be present in the target.
func (h Hunk) oldSide() []string {
	lines := make([]string, 0, h.OldCount)
	for _, line := range h.Lines {
		if line.Kind != LineAdded {
			lines = append(lines, line.Text)
		}
	}
	return lines
}

// writeTo appends the header and the body of the hunk in unified form.
func (h Hunk) writeTo(b *strings.Builder) {
	b.WriteString(h.Header())
	b.WriteByte('\n')
	for _, line := range h.Lines {
		b.WriteByte(line.Kind.Prefix())
		b.WriteString(line.Text)
		if !hasEOL(line.Text) {
			b.WriteString("\n" + noNewlineMarker + "\n")
		}
	}
}

const noNewlineMarker = `\ No newline at end of file`

// formatRange renders one side of a hunk header; a count of 1 is implied.
func formatRange(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// countHunkLineStats counts added and removed lines in hunks.
func countHunkLineStats(hunks []Hunk) (added int, removed int) {
	for _, hunk := range hunks {
		a, r := hunk.Stats()
		added += a
		removed += r
	}
	return added, removed
}
