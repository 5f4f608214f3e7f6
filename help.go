package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// KeyBinding represents a keyboard shortcut with its description
type KeyBinding struct {
	Key     string
	Action  string
	Section string
}

// All key bindings for the viewer
var keyBindings = []KeyBinding{
	// Navigation
	{"up/k", "Scroll up", "Navigation"},
	{"down/j", "Scroll down", "Navigation"},
	{"pgup", "Page up", "Navigation"},
	{"pgdown", "Page down", "Navigation"},
	{"g/home", "Jump to top", "Navigation"},
	{"G/end", "Jump to bottom", "Navigation"},
	{"n", "Next change", "Navigation"},
	{"N", "Previous change", "Navigation"},

	// System
	{"?", "Show/hide this help screen", "System"},
	{"q/ctrl+c", "Quit", "System"},
}

// renderHelp renders the help modal
func (m Model) renderHelp() string {
	modalWidth, modalHeight := helpModalDimensions(m.width, m.height)

	modalStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Height(modalHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBlue).
		Padding(1, 2)

	var content strings.Builder
	content.WriteString(helpTitleStyle.Render("Keyboard Shortcuts"))
	content.WriteString("\n")

	// Group bindings by section
	currentSection := ""
	for _, kb := range keyBindings {
		if kb.Section != currentSection {
			currentSection = kb.Section
			content.WriteString(helpSectionStyle.Render(currentSection))
			content.WriteString("\n")
		}
		key := helpKeyStyle.Render(fmt.Sprintf(" %-8s", kb.Key))
		content.WriteString(fmt.Sprintf("%s %s\n", key, helpDescStyle.Render(kb.Action)))
	}

	content.WriteString("\n")
	content.WriteString(subtleStyle.Render("Press ? to close"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modalStyle.Render(content.String()))
}

// GetKeyBindings returns all key bindings (for documentation/testing)
func GetKeyBindings() []KeyBinding {
	return keyBindings
}
