package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of key bindings
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"Esc/Enter", "Dismiss error"},
		{"T", "Toggle dark/light theme"},
	}
}

// GetSelectorKeys returns source selector key bindings
func GetSelectorKeys() []KeyBinding {
	return []KeyBinding{
		{"/", "Search databases and tables"},
		{"db:, t:", "Restrict search to databases or tables"},
		{"↑/k ↓/j", "Move through sources or suggestions"},
		{"→/l ←/h", "Expand or collapse a database"},
		{"Enter", "Open database or table"},
		{"r", "Reload catalog"},
	}
}

// GetNavigationKeys returns viewer navigation key bindings
func GetNavigationKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Move row"},
		{"←/h →/l", "Move column"},
		{"Ctrl+U/D", "Page up / down"},
		{"g/G", "First / last loaded row"},
		{"Tab", "Switch sidebar / grid focus"},
		{"b", "Toggle sidebar"},
		{"Backspace", "Back to source selector"},
	}
}

// GetFilterKeys returns filter and search key bindings
func GetFilterKeys() []KeyBinding {
	return []KeyBinding{
		{"f", "Open query builder on column"},
		{"Ctrl+F", "Filter by current cell"},
		{"[ ]", "Select filter tag"},
		{"x", "Remove selected filter tag"},
		{"Ctrl+R", "Clear all filters"},
		{"/", "Search rows"},
		{"R", "Retry after a failed load"},
	}
}

// GetDataKeys returns data view key bindings
func GetDataKeys() []KeyBinding {
	return []KeyBinding{
		{"y", "Copy cell"},
		{"Y", "Copy row"},
		{"p", "Toggle cell preview"},
		{"H", "Hide column"},
		{"C", "Choose visible columns"},
		{"e", "Export to xlsx"},
		{"E", "Dump loaded rows to CSV"},
		{"J", "Dump loaded rows to JSON"},
		{"L", "Live query form"},
	}
}

// Sections returns all help sections in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Source Selector", GetSelectorKeys()},
		{"Navigation", GetNavigationKeys()},
		{"Filters & Search", GetFilterKeys()},
		{"Data", GetDataKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Warning).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder

	b.WriteString(titleStyle.Render("lazygrid - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, section := range Sections() {
		b.WriteString(sectionStyle.Render(section.Title))
		b.WriteString("\n")
		for _, kb := range section.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	// Wrap in a box
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(width - 4).
		Height(height - 4)

	return boxStyle.Render(b.String())
}
