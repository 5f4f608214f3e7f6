package patch

import "strings"

// DefaultContextLines is the number of unchanged lines kept around each change.
const DefaultContextLines = 3

// DiffResult is the unified diff between two documents together with its parsed hunks.
type DiffResult struct {
	UnifiedDiff string `json:"unified_diff"`
	Additions   int    `json:"additions"`
	Deletions   int    `json:"deletions"`
	Changes     int    `json:"changes"`
	Hunks       []Hunk `json:"hunks"`
}

// Format diffs a against b and renders the result as a unified diff with "a/filename" and
// "b/filename" headers. Identical inputs produce an empty diff and no hunks. A negative
// contextLines selects DefaultContextLines.
func Format(a, b []string, filename string, contextLines int) DiffResult {
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}

	hunks := []Hunk{}
	for _, group := range groupOpcodes(Align(a, b), contextLines) {
		hunks = append(hunks, buildHunk(group, a, b))
	}

	result := DiffResult{Hunks: hunks}
	result.Additions, result.Deletions = countHunkLineStats(hunks)
	result.Changes = result.Additions + result.Deletions
	if len(hunks) == 0 {
		return result
	}

	var out strings.Builder
	out.WriteString("--- a/" + filename + "\n")
	out.WriteString("+++ b/" + filename + "\n")
	for _, hunk := range hunks {
		hunk.writeTo(&out)
	}
	result.UnifiedDiff = out.String()
	return result
}

// FormatText is Format over raw document text.
func FormatText(original, modified, filename string, contextLines int) DiffResult {
	return Format(SplitLines(original), SplitLines(modified), filename, contextLines)
}

// groupOpcodes isolates change clusters with up to n lines of context on each side. Equal
// runs longer than 2n split clusters. A result without changes is empty.
func groupOpcodes(codes []Opcode, n int) [][]Opcode {
	if len(codes) == 0 {
		return nil
	}
	codes = append([]Opcode(nil), codes...)

	if first := codes[0]; first.Tag == OpEqual {
		codes[0] = Opcode{Tag: OpEqual, I1: max(first.I1, first.I2-n), I2: first.I2, J1: max(first.J1, first.J2-n), J2: first.J2}
	}
	if last := codes[len(codes)-1]; last.Tag == OpEqual {
		codes[len(codes)-1] = Opcode{Tag: OpEqual, I1: last.I1, I2: min(last.I2, last.I1+n), J1: last.J1, J2: min(last.J2, last.J1+n)}
	}

	var groups [][]Opcode
	var group []Opcode
	for _, c := range codes {
		i1, j1 := c.I1, c.J1
		if c.Tag == OpEqual && c.I2-c.I1 > 2*n {
			group = append(group, Opcode{Tag: OpEqual, I1: i1, I2: min(c.I2, i1+n), J1: j1, J2: min(c.J2, j1+n)})
			groups = append(groups, group)
			group = nil
			i1, j1 = max(i1, c.I2-n), max(j1, c.J2-n)
		}
		group = append(group, Opcode{Tag: c.Tag, I1: i1, I2: c.I2, J1: j1, J2: c.J2})
	}
	if len(group) > 0 && !(len(group) == 1 && group[0].Tag == OpEqual) {
		groups = append(groups, group)
	}

	// A group made only of trimmed context carries no change.
	changed := groups[:0]
	for _, g := range groups {
		if hasChange(g) {
			changed = append(changed, g)
		}
	}
	return changed
}

func hasChange(group []Opcode) bool {
	for _, c := range group {
		if c.Tag != OpEqual {
			return true
		}
	}
	return false
}

// buildHunk converts one opcode group into a hunk.
func buildHunk(group []Opcode, a, b []string) Hunk {
	first, last := group[0], group[len(group)-1]
	hunk := Hunk{
		OldStart: rangeStart(first.I1, last.I2),
		OldCount: last.I2 - first.I1,
		NewStart: rangeStart(first.J1, last.J2),
		NewCount: last.J2 - first.J1,
	}
	for _, c := range group {
		if c.Tag == OpEqual {
			hunk.Lines = appendLines(hunk.Lines, LineContext, a[c.I1:c.I2])
			continue
		}
		if c.Tag == OpReplace || c.Tag == OpDelete {
			hunk.Lines = appendLines(hunk.Lines, LineRemoved, a[c.I1:c.I2])
		}
		if c.Tag == OpReplace || c.Tag == OpInsert {
			hunk.Lines = appendLines(hunk.Lines, LineAdded, b[c.J1:c.J2])
		}
	}
	return hunk
}

// rangeStart converts a 0-based half-open range to the 1-based header start. Empty ranges
// begin at the line just before the range.
func rangeStart(start, stop int) int {
	if stop == start {
		return start
	}
	return start + 1
}

func appendLines(dst []Line, kind LineKind, texts []string) []Line {
	for _, text := range texts {
		dst = append(dst, Line{Kind: kind, Text: text})
	}
	return dst
}
