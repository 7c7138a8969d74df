package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// ColumnsSelectedMsg carries the columns left visible, in table order
type ColumnsSelectedMsg struct {
	Visible []string
}

// CloseColumnSelectorMsg is sent when the selector is dismissed
type CloseColumnSelectorMsg struct{}

// ColumnSelector is a checkbox list of a table's fields
type ColumnSelector struct {
	Width  int
	Height int
	Theme  theme.Theme

	fields  []string
	checked []bool
	cursor  int
	offset  int
	warning string
}

// NewColumnSelector creates an empty selector
func NewColumnSelector(th theme.Theme) *ColumnSelector {
	return &ColumnSelector{Width: 40, Height: 20, Theme: th}
}

// Open loads all fields, checking the visible ones
func (cs *ColumnSelector) Open(fields []string, visible []string) {
	shown := make(map[string]bool, len(visible))
	for _, f := range visible {
		shown[f] = true
	}

	cs.fields = append([]string(nil), fields...)
	cs.checked = make([]bool, len(fields))
	for i, f := range fields {
		cs.checked[i] = shown[f]
	}
	cs.cursor, cs.offset = 0, 0
	cs.warning = ""
}

// Visible returns the checked fields
func (cs *ColumnSelector) Visible() []string {
	var out []string
	for i, f := range cs.fields {
		if cs.checked[i] {
			out = append(out, f)
		}
	}
	return out
}

// Update handles keyboard input
func (cs *ColumnSelector) Update(msg tea.KeyMsg) (*ColumnSelector, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return cs, func() tea.Msg { return CloseColumnSelectorMsg{} }
	case "up", "k":
		if cs.cursor > 0 {
			cs.cursor--
		}
	case "down", "j":
		if cs.cursor < len(cs.fields)-1 {
			cs.cursor++
		}
	case " ", "x":
		if len(cs.fields) > 0 {
			cs.checked[cs.cursor] = !cs.checked[cs.cursor]
		}
	case "a":
		// Check all, or uncheck all when everything is checked
		all := true
		for _, c := range cs.checked {
			all = all && c
		}
		for i := range cs.checked {
			cs.checked[i] = !all
		}
	case "enter":
		visible := cs.Visible()
		if len(visible) == 0 {
			cs.warning = "Keep at least one column visible"
			return cs, nil
		}
		cs.warning = ""
		return cs, func() tea.Msg { return ColumnsSelectedMsg{Visible: visible} }
	}
	return cs, nil
}

// View renders the selector
func (cs *ColumnSelector) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(cs.Theme.Background).
		Background(cs.Theme.Info).
		Padding(0, 1).
		Bold(true)

	lines := []string{
		titleStyle.Render(fmt.Sprintf("Columns (%d/%d)", len(cs.Visible()), len(cs.fields))),
		lipgloss.NewStyle().Foreground(cs.Theme.Muted).Render("Space toggle  a all  Enter apply  Esc cancel"),
	}
	if cs.warning != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(cs.Theme.Warning).Render(cs.warning))
	}
	lines = append(lines, "")

	listHeight := cs.Height - len(lines) - 2
	if listHeight < 3 {
		listHeight = 3
	}
	if cs.cursor < cs.offset {
		cs.offset = cs.cursor
	}
	if cs.cursor >= cs.offset+listHeight {
		cs.offset = cs.cursor - listHeight + 1
	}

	end := cs.offset + listHeight
	if end > len(cs.fields) {
		end = len(cs.fields)
	}
	for i := cs.offset; i < end; i++ {
		box := "[ ]"
		if cs.checked[i] {
			box = "[x]"
		}
		line := fmt.Sprintf(" %s %s", box, cs.fields[i])
		if i == cs.cursor {
			line = lipgloss.NewStyle().
				Background(cs.Theme.Selection).
				Foreground(cs.Theme.Foreground).
				Bold(true).
				Render(line)
		}
		lines = append(lines, line)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cs.Theme.BorderFocused).
		Padding(0, 1).
		Width(cs.Width).
		Render(strings.Join(lines, "\n"))
}
