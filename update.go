package main

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scrollBy(-3)
		case tea.MouseButtonWheelDown:
			m.scrollBy(3)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scroll = clamp(m.scroll, 0, m.maxScroll())
		return m, nil

	case FSChangeMsg:
		if m.logger != nil {
			m.logger.Debug("document changed", map[string]any{"path": msg.Path})
		}
		return m, m.ReloadDocuments()

	case documentsReloadedMsg:
		m.oldDoc.Text = msg.oldText
		m.newDoc.Text = msg.newText
		m.reloads++
		m.err = nil
		m.recompute()
		return m, m.waitForChange()

	case errMsg:
		m.err = msg.err
		if m.logger != nil {
			m.logger.Error("viewer error", msg.err, nil)
		}
		return m, m.waitForChange()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "up", "k":
		m.scrollBy(-1)
	case "down", "j":
		m.scrollBy(1)
	case "pgup":
		m.scrollBy(-m.visibleRows())
	case "pgdown", " ":
		m.scrollBy(m.visibleRows())
	case "g", "home":
		m.scroll = 0
	case "G", "end":
		m.scroll = m.maxScroll()
	case "n":
		m.nextChange()
	case "N":
		m.prevChange()
	}
	return m, nil
}

func (m Model) waitForChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.WaitForChange()
}

func (m *Model) scrollBy(delta int) {
	m.scroll = clamp(m.scroll+delta, 0, m.maxScroll())
}

// nextChange scrolls to the first change block below the top row.
func (m *Model) nextChange() {
	for _, idx := range m.changes {
		if idx > m.scroll {
			m.scroll = min(idx, m.maxScroll())
			return
		}
	}
}

// prevChange scrolls to the last change block above the top row.
func (m *Model) prevChange() {
	for i := len(m.changes) - 1; i >= 0; i-- {
		if m.changes[i] < m.scroll {
			m.scroll = m.changes[i]
			return
		}
	}
}

func (m Model) visibleRows() int {
	return max(1, panelContentHeight(contentHeight(m.height)))
}

func (m Model) maxScroll() int {
	return max(0, len(m.rows)-m.visibleRows())
}
