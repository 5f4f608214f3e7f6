package main

import (
	"github.com/charmbracelet/lipgloss"

	"scenepatch/patch"
)

// Color constants for consistent theming
var (
	// Primary colors
	colorBlue   = lipgloss.Color("blue")
	colorYellow = lipgloss.Color("yellow")
	colorWhite  = lipgloss.Color("white")

	// Gray scale (for subtle elements)
	colorGray243 = lipgloss.Color("243") // Medium gray
	colorGray244 = lipgloss.Color("244") // Subtle gray
	colorGray245 = lipgloss.Color("245") // Light gray
	colorGray235 = lipgloss.Color("235") // Dark gray (background)
	colorGray237 = lipgloss.Color("237") // Border gray

	// Diff colors
	colorGreen142 = lipgloss.Color("142") // Soft green (diff content)
	colorGreen86  = lipgloss.Color("86")  // Bright green (added lines)
	colorRed203   = lipgloss.Color("203") // Soft red (diff content)
	colorRed196   = lipgloss.Color("196") // Bright red (removed lines)

	// Accent colors
	colorSoftBlue75 = lipgloss.Color("75")  // Soft blue (selection)
	colorSoftYellow = lipgloss.Color("229") // Soft warm yellow
)

// Predefined styles for reuse
var (
	// Header styles
	headerStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	watchIndicatorStyle = lipgloss.NewStyle().
				Foreground(colorGreen86).
				Bold(true)

	headerSeparatorStyle = lipgloss.NewStyle().
				Foreground(colorGray237)

	subtleStyle = lipgloss.NewStyle().
			Foreground(colorGray244)

	docNameStyle = lipgloss.NewStyle().
			Foreground(colorSoftBlue75).
			Bold(true)

	// Diff styles
	diffAddedStyle = lipgloss.NewStyle().
			Foreground(colorGreen142).
			Bold(true)

	diffRemovedStyle = lipgloss.NewStyle().
				Foreground(colorRed203).
				Bold(true)

	diffAddedPrefixStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("46")). // Vibrant bright green for + prefix
				Bold(true)

	diffRemovedPrefixStyle = lipgloss.NewStyle().
				Foreground(colorRed196).
				Bold(true)

	diffModifiedPrefixStyle = lipgloss.NewStyle().
				Foreground(colorSoftYellow).
				Bold(true)

	diffContextStyle = lipgloss.NewStyle().
				Foreground(colorGray245)

	diffLineNumStyle = lipgloss.NewStyle().
				Foreground(colorGray244)

	diffFillerStyle = lipgloss.NewStyle().
			Background(colorGray235)

	// Stats styles
	statsAddedStyle = lipgloss.NewStyle().
			Foreground(colorGreen86).
			Bold(true)

	statsRemovedStyle = lipgloss.NewStyle().
				Foreground(colorRed196).
				Bold(true)

	// Border styles
	panelBaseStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray237)

	// Help modal styles
	helpTitleStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true).
			Underline(true)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorSoftYellow).
			Bold(true).
			Width(10)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorGray243)

	helpSectionStyle = lipgloss.NewStyle().
				Foreground(colorSoftBlue75).
				Bold(true).
				MarginTop(1)

	// Error styles
	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed203).
			Bold(true)

	panelInfoStyle = lipgloss.NewStyle().
			Foreground(colorGray243).
			Italic(true)

	footerBaseStyle = lipgloss.NewStyle().
			Foreground(colorGray243)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	footerScrollStyle = lipgloss.NewStyle().
				Foreground(colorYellow)
)

// rowSideStyle returns the text style for one side of a row; ok is false for unchanged text,
// which gets syntax highlighting instead.
func rowSideStyle(kind patch.RowKind, left bool) (lipgloss.Style, bool) {
	switch {
	case kind == patch.RowEqual:
		return diffContextStyle, false
	case left:
		return diffRemovedStyle, true
	default:
		return diffAddedStyle, true
	}
}

// rowMarkerStyle returns the style for the change marker of a row side.
func rowMarkerStyle(kind patch.RowKind, left bool) lipgloss.Style {
	switch {
	case kind == patch.RowModify:
		return diffModifiedPrefixStyle
	case left:
		return diffRemovedPrefixStyle
	default:
		return diffAddedPrefixStyle
	}
}
