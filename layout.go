package main

// Layout constants for the TUI
const (
	// Header and footer dimensions
	headerRows = 2 // Number of rows for header (title + separator)
	footerRows = 1 // Number of rows for footer

	// Panel layout
	panelBorderRows = 2 // Rows consumed by panel borders (top + bottom)
	panelBorderCols = 2 // Columns consumed by panel borders (left + right)

	// Line number formatting
	lineNumWidth = 4 // Width in characters for each line number column
	// Columns before the text in a panel line: number, space, marker, space
	gutterWidth = lineNumWidth + 3

	// Help modal dimensions
	helpModalMaxWidth  = 60 // Maximum width of help modal
	helpModalMaxHeight = 24 // Maximum height of help modal
	helpModalPadding   = 4  // Padding around help modal (2 on each side)
)

// contentHeight calculates the available content height given total height
func contentHeight(totalHeight int) int {
	return max(1, totalHeight-headerRows-footerRows)
}

// panelContentHeight calculates the content height inside a panel (accounting for borders)
func panelContentHeight(panelHeight int) int {
	return max(0, panelHeight-panelBorderRows)
}

// panelWidths splits the total width between the two panels.
func panelWidths(totalWidth int) (left, right int) {
	left = totalWidth / 2
	return left, totalWidth - left
}

// panelTextWidth is the room left for document text inside a panel.
func panelTextWidth(panelWidth int) int {
	return max(0, panelWidth-panelBorderCols-gutterWidth)
}

// helpModalDimensions calculates the dimensions for the help modal
func helpModalDimensions(screenWidth, screenHeight int) (width, height int) {
	width = min(helpModalMaxWidth, screenWidth-helpModalPadding)
	height = min(helpModalMaxHeight, screenHeight-helpModalPadding)
	return max(0, width), max(0, height)
}
