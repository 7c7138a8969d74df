package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme and styling
type Theme struct {
	Name string

	// Background colors
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color

	// UI elements
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color
	Cursor        lipgloss.Color
	Highlight     lipgloss.Color // search match runs

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Table colors
	TableHeader      lipgloss.Color
	TableHeaderBg    lipgloss.Color
	TableRowEven     lipgloss.Color
	TableRowOdd      lipgloss.Color
	TableRowSelected lipgloss.Color
	TableCellActive  lipgloss.Color

	// Filter tags
	TagBackground lipgloss.Color
	TagForeground lipgloss.Color

	// Selector tree
	DatabaseIcon lipgloss.Color
	TableIcon    lipgloss.Color

	// JSON colors for the cell preview
	JSONKey    lipgloss.Color
	JSONString lipgloss.Color
	JSONNumber lipgloss.Color
	JSONNull   lipgloss.Color
}

// GetTheme returns a theme by name. Unknown names get the dark theme.
func GetTheme(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}
