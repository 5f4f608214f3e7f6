package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"scenepatch/patch"
)

// Model holds the side-by-side viewer state
type Model struct {
	oldDoc    Document
	newDoc    Document
	rows      []patch.Row
	changes   []int // row index where each change block starts
	additions int
	deletions int
	cellWidth int // 0 fits the panels

	scroll   int
	width    int
	height   int
	showHelp bool
	quitting bool
	reloads  int
	err      error

	watcher     *Watcher
	highlighter *SyntaxHighlighter
	logger      *Logger
}

// NewModel creates a viewer comparing oldDoc with newDoc.
func NewModel(oldDoc, newDoc Document, cellWidth int, logger *Logger) Model {
	m := Model{
		oldDoc:      oldDoc,
		newDoc:      newDoc,
		cellWidth:   cellWidth,
		highlighter: NewSyntaxHighlighter(),
		logger:      logger,
	}
	m.recompute()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.WaitForChange()
}

// recompute rebuilds the rows and change index from the current documents.
func (m *Model) recompute() {
	m.rows = patch.SideBySideText(m.oldDoc.Text, m.newDoc.Text, m.cellWidth)
	m.changes = nil
	m.additions, m.deletions = 0, 0
	for i, row := range m.rows {
		if row.Kind != patch.RowEqual && (i == 0 || m.rows[i-1].Kind == patch.RowEqual) {
			m.changes = append(m.changes, i)
		}
		if row.Kind == patch.RowEqual {
			continue
		}
		if row.LeftLine > 0 {
			m.deletions++
		}
		if row.RightLine > 0 {
			m.additions++
		}
	}
	m.scroll = clamp(m.scroll, 0, m.maxScroll())
}

// ReloadDocuments rereads both documents from disk.
func (m Model) ReloadDocuments() tea.Cmd {
	oldPath, newPath := m.oldDoc.Path, m.newDoc.Path
	return func() tea.Msg {
		oldText, err := readFile(oldPath)
		if err != nil {
			return errMsg{err}
		}
		newText, err := readFile(newPath)
		if err != nil {
			return errMsg{err}
		}
		return documentsReloadedMsg{oldText: oldText, newText: newText}
	}
}

// Messages

type documentsReloadedMsg struct {
	oldText string
	newText string
}

type errMsg struct {
	err error
}
