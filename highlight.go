package main

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// SyntaxHighlighter highlights document lines. Documents without a recognised extension are
// treated as markdown, the usual format for scenes.
type SyntaxHighlighter struct {
	style *chroma.Style

	mu     sync.Mutex
	lexers map[string]chroma.Lexer
}

// NewSyntaxHighlighter creates a new syntax highlighter
func NewSyntaxHighlighter() *SyntaxHighlighter {
	// Use a terminal-friendly style that works well with our color scheme
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	return &SyntaxHighlighter{style: style, lexers: make(map[string]chroma.Lexer)}
}

// Highlight highlights a line based on the document name. It returns line unchanged when
// there is nothing to colour.
func (h *SyntaxHighlighter) Highlight(line, name string) string {
	if strings.TrimSpace(line) == "" {
		return line
	}
	lexer := h.lexerFor(name)
	if lexer == nil {
		return line
	}

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	// Lexers with EnsureNL append a newline the line does not have.
	remaining := len(line)
	var result strings.Builder
	for _, token := range iterator.Tokens() {
		if remaining <= 0 {
			break
		}
		if len(token.Value) > remaining {
			token.Value = token.Value[:remaining]
		}
		remaining -= len(token.Value)
		result.WriteString(h.styleToken(token))
	}
	return result.String()
}

// lexerFor returns the cached lexer for a document name.
func (h *SyntaxHighlighter) lexerFor(name string) chroma.Lexer {
	h.mu.Lock()
	defer h.mu.Unlock()

	if lexer, ok := h.lexers[name]; ok {
		return lexer
	}
	lexer := getLexer(name)
	h.lexers[name] = lexer
	return lexer
}

func getLexer(name string) chroma.Lexer {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case "", ".txt", ".md", ".markdown", ".fountain":
		return lexers.Get("markdown")
	}

	if lexer := lexers.Match(filepath.Base(name)); lexer != nil {
		return lexer
	}
	if lexer := lexers.Get(strings.TrimPrefix(ext, ".")); lexer != nil {
		return lexer
	}
	return lexers.Get("markdown")
}

// styleToken applies lipgloss styling to a chroma token
func (h *SyntaxHighlighter) styleToken(token chroma.Token) string {
	content := token.Value
	entry := h.style.Get(token.Type)

	// Check if entry is empty (no styling)
	if entry == (chroma.StyleEntry{}) {
		return content
	}

	style := lipgloss.NewStyle()

	if entry.Colour.IsSet() {
		color := entry.Colour.String()
		if strings.HasPrefix(color, "#") {
			style = style.Foreground(lipgloss.Color(color))
		}
	}
	if entry.Bold == chroma.Yes {
		style = style.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		style = style.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		style = style.Underline(true)
	}

	return style.Render(content)
}
