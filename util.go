package main

import (
	"sort"

	"github.com/mattn/go-runewidth"
)

func clamp(value, lower, upper int) int {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}

func visibleRange(start, window, length int) (int, int) {
	start = clamp(start, 0, length)
	end := min(start+window, length)
	return start, end
}

func copyMap(m map[string]int) map[string]int {
	result := make(map[string]int, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

func sortedFieldKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// fitWidth truncates s to width terminal cells and pads it with spaces to exactly width.
func fitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = runewidth.Truncate(s, width, "…")
	return runewidth.FillRight(s, width)
}

// expandTabs replaces tabs with spaces so that cell widths stay predictable.
func expandTabs(s string) string {
	out := make([]rune, 0, len(s))
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := 4 - col%4
			for i := 0; i < n; i++ {
				out = append(out, ' ')
			}
			col += n
			continue
		}
		out = append(out, r)
		col += runewidth.RuneWidth(r)
	}
	return string(out)
}
