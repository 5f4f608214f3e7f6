// Package patch is the line-oriented diff and patch engine: it aligns two documents, renders
// the alignment as a unified diff, parses unified diffs back into hunks, and applies hunks to a
// (possibly drifted) copy of the original, either verbatim or by approximate matching.
//
// Every function is pure. Inputs are never mutated and nothing is cached between calls, so the
// package is safe for concurrent use.
package patch

import "strings"

// SplitLines splits text after every "\n", keeping the terminator on each element.
// The final element has no terminator when text does not end with a newline.
// JoinLines(SplitLines(s)) == s for every s.
func SplitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	lines := strings.SplitAfter(text, "\n")
	// SplitAfter leaves an empty element after a trailing "\n".
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// JoinLines concatenates lines produced by SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "")
}

// trimEOL removes a trailing "\n" or "\r\n".
func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

func hasEOL(line string) bool {
	return strings.HasSuffix(line, "\n")
}

// joinBlock joins lines without their terminators so that blocks compare on content only.
func joinBlock(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(trimEOL(line))
	}
	return b.String()
}
