package patch

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// OpTag identifies how one sub-range of the original maps to the revised sequence.
type OpTag byte

const (
	OpEqual   OpTag = 'e'
	OpInsert  OpTag = 'i'
	OpDelete  OpTag = 'd'
	OpReplace OpTag = 'r'
)

// String returns the lower-case tag name.
func (t OpTag) String() string {
	switch t {
	case OpEqual:
		return "equal"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpReplace:
		return "replace"
	default:
		return fmt.Sprintf("OpTag(%q)", byte(t))
	}
}

// Opcode says that a[I1:I2] becomes b[J1:J2].
type Opcode struct {
	Tag    OpTag
	I1, I2 int
	J1, J2 int
}

// Align returns the opcodes that turn a into b. The opcodes are contiguous and cover both
// sequences completely. Two empty sequences produce no opcodes.
//
// The alignment repeatedly takes the longest common run of lines inside the unmatched window
// and recurses on both sides of it. Ties prefer the run starting earliest in a, then in b.
// Every line participates: autojunk is off, so scenes with many blank or repeated lines
// still align past 200 lines.
func Align(a, b []string) []Opcode {
	codes := difflib.NewMatcherWithJunk(a, b, false, nil).GetOpCodes()
	opcodes := make([]Opcode, len(codes))
	for i, c := range codes {
		opcodes[i] = Opcode{Tag: OpTag(c.Tag), I1: c.I1, I2: c.I2, J1: c.J1, J2: c.J2}
	}
	return opcodes
}
