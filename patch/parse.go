package patch

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeaderRe matches "@@ -N[,N] +N[,N] @@[ section]". The numeric groups are loose on
// purpose so that overflowing or otherwise unparsable numbers report MalformedHeader rather
// than being skipped as prose.
var hunkHeaderRe = regexp.MustCompile(`^@@ -(\S+?)(?:,(\S+?))? \+(\S+?)(?:,(\S+?))? @@ ?(.*)$`)

type parser struct {
	lines []string
	idx   int
}

func (p *parser) eof() bool { return p.idx >= len(p.lines) }

func (p *parser) peek() (string, bool) {
	if p.eof() {
		return "", false
	}
	return p.lines[p.idx], true
}

func (p *parser) next() (string, bool) {
	line, ok := p.peek()
	if !ok {
		return "", false
	}
	p.idx++
	return line, true
}

func (p *parser) lineNumber() int { return p.idx + 1 }

// Parse turns unified-diff text into hunks. File headers, "diff --git" lines and any other
// text outside hunks are ignored. Hunk bodies are delimited by the header counts, and every
// body line gets back the "\n" terminator that the unified form stripped, unless a
// "\ No newline at end of file" marker follows it. A body line left over once the counts
// are met is an error, never dropped.
//
// Every line starting with "@@" is taken as a hunk header, so prose such as "@@ note"
// outside a hunk fails with MalformedHeader.
func Parse(unified string) ([]Hunk, error) {
	p := &parser{lines: splitPatchLines(unified)}
	var hunks []Hunk
	for !p.eof() {
		line, _ := p.peek()
		if !strings.HasPrefix(line, "@@") {
			p.next()
			continue
		}
		hunk, err := p.parseHunk()
		if err != nil {
			return nil, err
		}
		hunks = append(hunks, hunk)
	}
	if len(hunks) == 0 {
		return nil, &ParseError{Kind: NoHunks}
	}
	return hunks, nil
}

// splitPatchLines splits patch text on "\n". A trailing "\r" is kept on body lines so that
// CRLF documents round-trip; header matching trims it.
func splitPatchLines(text string) []string {
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (p *parser) parseHunk() (Hunk, error) {
	lineNo := p.lineNumber()
	raw, _ := p.next()
	hunk, ok := parseHeader(strings.TrimSuffix(raw, "\r"))
	if !ok {
		return Hunk{}, &ParseError{Kind: MalformedHeader, Line: lineNo, Text: raw}
	}

	oldSeen, newSeen := 0, 0
	for oldSeen < hunk.OldCount || newSeen < hunk.NewCount {
		line, ok := p.peek()
		if !ok {
			return Hunk{}, &ParseError{Kind: TruncatedHunk, Line: lineNo, Text: raw}
		}

		var kind LineKind
		text := ""
		switch {
		case line == "" || line == "\r":
			kind, text = LineContext, line
		case line[0] == ' ':
			kind, text = LineContext, line[1:]
		case line[0] == '-':
			kind, text = LineRemoved, line[1:]
		case line[0] == '+':
			kind, text = LineAdded, line[1:]
		case line[0] == '\\':
			p.next()
			stripLastEOL(&hunk)
			continue
		default:
			return Hunk{}, &ParseError{Kind: TruncatedHunk, Line: p.lineNumber(), Text: line}
		}

		fitsOld := oldSeen < hunk.OldCount
		fitsNew := newSeen < hunk.NewCount
		if (kind == LineContext && !(fitsOld && fitsNew)) ||
			(kind == LineRemoved && !fitsOld) ||
			(kind == LineAdded && !fitsNew) {
			return Hunk{}, &ParseError{Kind: TruncatedHunk, Line: p.lineNumber(), Text: line}
		}

		p.next()
		hunk.Lines = append(hunk.Lines, Line{Kind: kind, Text: text + "\n"})
		if kind != LineAdded {
			oldSeen++
		}
		if kind != LineRemoved {
			newSeen++
		}
	}

	// A "\ No newline at end of file" marker may follow the last body line.
	if line, ok := p.peek(); ok && strings.HasPrefix(line, `\`) {
		p.next()
		stripLastEOL(&hunk)
	}
	if line, ok := p.peek(); ok && p.surplusBodyLine(line) {
		return Hunk{}, &ParseError{Kind: TruncatedHunk, Line: p.lineNumber(), Text: line}
	}
	return hunk, nil
}

// surplusBodyLine reports whether line, following a complete hunk, is a body line the
// header did not count. A "---"/"+++" pair opens the next file instead. Empty lines are
// read as separators.
func (p *parser) surplusBodyLine(line string) bool {
	if line == "" {
		return false
	}
	switch line[0] {
	case ' ', '+':
		return true
	case '-':
		if strings.HasPrefix(line, "--- ") && p.idx+1 < len(p.lines) {
			return !strings.HasPrefix(p.lines[p.idx+1], "+++ ")
		}
		return true
	}
	return false
}

func stripLastEOL(hunk *Hunk) {
	if n := len(hunk.Lines); n > 0 {
		hunk.Lines[n-1].Text = strings.TrimSuffix(hunk.Lines[n-1].Text, "\n")
	}
}

// parseHeader parses an "@@" line into an empty hunk with its ranges.
func parseHeader(line string) (Hunk, bool) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, false
	}
	var hunk Hunk
	var ok bool
	if hunk.OldStart, hunk.OldCount, ok = parseRange(m[1], m[2]); !ok {
		return Hunk{}, false
	}
	if hunk.NewStart, hunk.NewCount, ok = parseRange(m[3], m[4]); !ok {
		return Hunk{}, false
	}
	hunk.Section = strings.TrimSpace(m[5])
	return hunk, true
}

// parseRange parses "start[,count]"; a missing count means 1.
func parseRange(startText, countText string) (start, count int, ok bool) {
	start, err := strconv.Atoi(startText)
	if err != nil || start < 0 {
		return 0, 0, false
	}
	if countText == "" {
		return start, 1, true
	}
	count, err = strconv.Atoi(countText)
	if err != nil || count < 0 {
		return 0, 0, false
	}
	return start, count, true
}
