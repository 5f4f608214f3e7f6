package patch

import "fmt"

// RowKind represents how a side-by-side row changed.
type RowKind int

const (
	RowEqual RowKind = iota
	RowDelete
	RowAdd
	RowModify
)

// String returns the JSON name of the kind.
func (k RowKind) String() string {
	switch k {
	case RowEqual:
		return "equal"
	case RowDelete:
		return "delete"
	case RowAdd:
		return "add"
	case RowModify:
		return "modify"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k RowKind) MarshalText() ([]byte, error) {
	if k < RowEqual || k > RowModify {
		return nil, fmt.Errorf("unknown row kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// Row is one line of a two-column change view. LeftLine and RightLine are 1-based line
// numbers, 0 when the side is empty.
type Row struct {
	Left      string  `json:"left"`
	Right     string  `json:"right"`
	Kind      RowKind `json:"type"`
	LeftLine  int     `json:"left_line,omitempty"`
	RightLine int     `json:"right_line,omitempty"`
}

// SideBySide pairs the lines of a and b for display. Each cell is truncated to width runes;
// width <= 0 disables truncation. Line terminators are not part of the cells.
func SideBySide(a, b []string, width int) []Row {
	rows := make([]Row, 0, max(len(a), len(b)))
	for _, op := range Align(a, b) {
		switch op.Tag {
		case OpEqual:
			for k := 0; k < op.I2-op.I1; k++ {
				rows = append(rows, pairRow(a, b, op.I1+k, op.J1+k, RowEqual, width))
			}
		case OpDelete:
			for i := op.I1; i < op.I2; i++ {
				rows = append(rows, pairRow(a, b, i, -1, RowDelete, width))
			}
		case OpInsert:
			for j := op.J1; j < op.J2; j++ {
				rows = append(rows, pairRow(a, b, -1, j, RowAdd, width))
			}
		case OpReplace:
			for k := 0; k < max(op.I2-op.I1, op.J2-op.J1); k++ {
				i, j := op.I1+k, op.J1+k
				if i >= op.I2 {
					i = -1
				}
				if j >= op.J2 {
					j = -1
				}
				rows = append(rows, pairRow(a, b, i, j, RowModify, width))
			}
		}
	}
	return rows
}

// SideBySideText is SideBySide over raw document text.
func SideBySideText(original, modified string, width int) []Row {
	return SideBySide(SplitLines(original), SplitLines(modified), width)
}

// pairRow builds a row from a[i] and b[j]; a negative index leaves that side empty.
func pairRow(a, b []string, i, j int, kind RowKind, width int) Row {
	row := Row{Kind: kind}
	if i >= 0 {
		row.Left = truncate(trimEOL(a[i]), width)
		row.LeftLine = i + 1
	}
	if j >= 0 {
		row.Right = truncate(trimEOL(b[j]), width)
		row.RightLine = j + 1
	}
	return row
}

// truncate cuts s to at most width runes.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == width {
			return s[:i]
		}
		n++
	}
	return s
}
