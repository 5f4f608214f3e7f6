package main

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestGetLexer(t *testing.T) {
	testCases := []struct {
		name string
		want string
	}{
		{"scene.md", "markdown"},
		{"draft.txt", "markdown"},
		{"act1.fountain", "markdown"},
		{"NOTES", "markdown"},
		{"config.yaml", "YAML"},
		{"main.go", "Go"},
		{"unknown.zzz", "markdown"},
	}

	for _, tc := range testCases {
		lexer := getLexer(tc.name)
		if lexer == nil {
			t.Fatalf("getLexer(%q) = nil", tc.name)
		}
		if got := lexer.Config().Name; !strings.EqualFold(got, tc.want) {
			t.Errorf("getLexer(%q) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestHighlightKeepsText(t *testing.T) {
	h := NewSyntaxHighlighter()

	if got := h.Highlight("   ", "scene.md"); got != "   " {
		t.Errorf("Highlight() of blank line = %q", got)
	}

	// Styling may add escape codes but never changes the visible text.
	line := "# INT. KITCHEN - NIGHT"
	got := h.Highlight(line, "scene.md")
	if stripped := ansi.Strip(got); stripped != line {
		t.Errorf("Highlight() text = %q, want %q", stripped, line)
	}
	if len(h.lexers) != 1 {
		t.Errorf("lexer cache has %d entries, want 1", len(h.lexers))
	}
}
