package theme

import "github.com/charmbracelet/lipgloss"

// DarkTheme returns the default dark theme
func DarkTheme() Theme {
	return Theme{
		Name: "dark",

		// Background colors
		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),
		Muted:      lipgloss.Color("244"),

		// UI elements
		Border:        lipgloss.Color("240"),
		BorderFocused: lipgloss.Color("62"),
		Selection:     lipgloss.Color("237"),
		Cursor:        lipgloss.Color("248"),
		Highlight:     lipgloss.Color("220"),

		// Status colors
		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("75"),

		// Table colors
		TableHeader:      lipgloss.Color("105"),
		TableHeaderBg:    lipgloss.Color("236"),
		TableRowEven:     lipgloss.Color("235"),
		TableRowOdd:      lipgloss.Color("236"),
		TableRowSelected: lipgloss.Color("25"),
		TableCellActive:  lipgloss.Color("62"),

		// Filter tags
		TagBackground: lipgloss.Color("62"),
		TagForeground: lipgloss.Color("230"),

		// Selector tree
		DatabaseIcon: lipgloss.Color("42"),
		TableIcon:    lipgloss.Color("141"),

		// JSON colors
		JSONKey:    lipgloss.Color("117"),
		JSONString: lipgloss.Color("180"),
		JSONNumber: lipgloss.Color("150"),
		JSONNull:   lipgloss.Color("244"),
	}
}
