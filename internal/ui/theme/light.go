package theme

import "github.com/charmbracelet/lipgloss"

// LightTheme returns the light theme
// Based on Catppuccin Latte: https://github.com/catppuccin/catppuccin
func LightTheme() Theme {
	return Theme{
		Name: "light",

		// Background colors
		Background: lipgloss.Color("#eff1f5"), // Base
		Foreground: lipgloss.Color("#4c4f69"), // Text
		Muted:      lipgloss.Color("#8c8fa1"), // Overlay1

		// UI elements
		Border:        lipgloss.Color("#bcc0cc"), // Surface1
		BorderFocused: lipgloss.Color("#1e66f5"), // Blue
		Selection:     lipgloss.Color("#ccd0da"), // Surface0
		Cursor:        lipgloss.Color("#dc8a78"), // Rosewater
		Highlight:     lipgloss.Color("#df8e1d"), // Yellow

		// Status colors
		Success: lipgloss.Color("#40a02b"), // Green
		Warning: lipgloss.Color("#df8e1d"), // Yellow
		Error:   lipgloss.Color("#d20f39"), // Red
		Info:    lipgloss.Color("#04a5e5"), // Sky

		// Table colors
		TableHeader:      lipgloss.Color("#8839ef"), // Mauve
		TableHeaderBg:    lipgloss.Color("#e6e9ef"), // Mantle
		TableRowEven:     lipgloss.Color("#eff1f5"), // Base
		TableRowOdd:      lipgloss.Color("#e6e9ef"), // Mantle
		TableRowSelected: lipgloss.Color("#7287fd"), // Lavender
		TableCellActive:  lipgloss.Color("#1e66f5"), // Blue

		// Filter tags
		TagBackground: lipgloss.Color("#1e66f5"), // Blue
		TagForeground: lipgloss.Color("#eff1f5"), // Base

		// Selector tree
		DatabaseIcon: lipgloss.Color("#40a02b"), // Green
		TableIcon:    lipgloss.Color("#8839ef"), // Mauve

		// JSON colors
		JSONKey:    lipgloss.Color("#1e66f5"), // Blue
		JSONString: lipgloss.Color("#40a02b"), // Green
		JSONNumber: lipgloss.Color("#fe640b"), // Peach
		JSONNull:   lipgloss.Color("#9ca0b0"), // Overlay0
	}
}
