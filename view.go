package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"scenepatch/patch"
)

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()
	content := m.renderContent(contentHeight(m.height))
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (m Model) renderHeader() string {
	parts := []string{
		headerStyle.Render("scenepatch"),
		docNameStyle.Render(m.oldDoc.Name),
		subtleStyle.Render("→"),
		docNameStyle.Render(m.newDoc.Name),
	}

	if m.additions == 0 && m.deletions == 0 {
		parts = append(parts, subtleStyle.Render("(identical)"))
	} else {
		parts = append(parts, statsAddedStyle.Render(fmt.Sprintf("+%d", m.additions)),
			statsRemovedStyle.Render(fmt.Sprintf("-%d", m.deletions)))
	}

	if m.watcher != nil {
		watch := "[watching]"
		if m.reloads > 0 {
			watch = fmt.Sprintf("[watching, %d reloads]", m.reloads)
		}
		parts = append(parts, watchIndicatorStyle.Render(watch))
	}
	parts = append(parts, subtleStyle.Render("Press ? for help"))

	header := strings.Join(parts, " ")
	if m.err != nil {
		header += " " + errorStyle.Render("error: "+m.err.Error())
	}

	separator := headerSeparatorStyle.Render(strings.Repeat("─", max(0, m.width)))
	return lipgloss.JoinVertical(lipgloss.Left, header, separator)
}

func (m Model) renderContent(height int) string {
	leftWidth, rightWidth := panelWidths(m.width)
	inner := panelContentHeight(height)

	if len(m.rows) == 0 {
		info := panelInfoStyle.Render("Both documents are empty")
		return panelBaseStyle.Width(max(0, m.width-panelBorderCols)).Height(inner).Render(info)
	}

	start, end := visibleRange(m.scroll, inner, len(m.rows))
	left := make([]string, 0, end-start)
	right := make([]string, 0, end-start)
	for _, row := range m.rows[start:end] {
		left = append(left, m.renderSide(row, true, panelTextWidth(leftWidth)))
		right = append(right, m.renderSide(row, false, panelTextWidth(rightWidth)))
	}

	leftPanel := panelBaseStyle.Width(max(0, leftWidth-panelBorderCols)).Height(inner).
		Render(strings.Join(left, "\n"))
	rightPanel := panelBaseStyle.Width(max(0, rightWidth-panelBorderCols)).Height(inner).
		Render(strings.Join(right, "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

// renderSide renders one half of a row: line number, change marker and text.
func (m Model) renderSide(row patch.Row, left bool, textWidth int) string {
	lineNum, text := row.RightLine, row.Right
	name := m.newDoc.Name
	if left {
		lineNum, text = row.LeftLine, row.Left
		name = m.oldDoc.Name
	}

	if lineNum == 0 {
		return diffFillerStyle.Render(strings.Repeat(" ", gutterWidth+textWidth))
	}

	num := diffLineNumStyle.Render(fmt.Sprintf("%*d", lineNumWidth, lineNum))
	marker := " "
	if row.Kind != patch.RowEqual {
		switch {
		case row.Kind == patch.RowModify:
			marker = "~"
		case left:
			marker = "-"
		default:
			marker = "+"
		}
		marker = rowMarkerStyle(row.Kind, left).Render(marker)
	}

	fitted := fitWidth(expandTabs(text), textWidth)
	style, changed := rowSideStyle(row.Kind, left)
	switch {
	case changed:
		fitted = style.Render(fitted)
	default:
		if highlighted := m.highlighter.Highlight(fitted, name); highlighted != fitted {
			fitted = highlighted
		} else {
			fitted = style.Render(fitted)
		}
	}
	return num + " " + marker + " " + fitted
}

func (m Model) renderFooter() string {
	hints := []string{
		footerKeyStyle.Render("↑/↓") + footerBaseStyle.Render(" scroll"),
		footerKeyStyle.Render("n/N") + footerBaseStyle.Render(" change"),
		footerKeyStyle.Render("?") + footerBaseStyle.Render(" help"),
		footerKeyStyle.Render("q") + footerBaseStyle.Render(" quit"),
	}
	footer := strings.Join(hints, "  ")

	percent := 100
	if maxScroll := m.maxScroll(); maxScroll > 0 {
		percent = m.scroll * 100 / maxScroll
	}
	position := fmt.Sprintf("%d%%", percent)
	if len(m.changes) > 0 {
		position = fmt.Sprintf("%d changes  %s", len(m.changes), position)
	}
	return footer + "  " + footerScrollStyle.Render(position)
}
