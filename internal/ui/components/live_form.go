package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// LiveSubmitMsg carries the non-empty form fields of a live query
type LiveSubmitMsg struct {
	Fields map[string]string
}

// CloseLiveFormMsg is sent when the live form is dismissed
type CloseLiveFormMsg struct{}

// LiveForm has one input per table field
type LiveForm struct {
	Width int
	Theme theme.Theme

	fields []string
	inputs []textinput.Model
	focus  int
}

// NewLiveForm creates an empty live form
func NewLiveForm(th theme.Theme) *LiveForm {
	return &LiveForm{Width: 60, Theme: th}
}

// Open builds one input per field, pre-filled from the previous submission
func (lf *LiveForm) Open(fields []string, previous map[string]string) tea.Cmd {
	lf.fields = append([]string(nil), fields...)
	lf.inputs = make([]textinput.Model, len(fields))
	for i, f := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = "any"
		ti.CharLimit = 256
		ti.Cursor.SetMode(cursor.CursorStatic)
		ti.SetValue(previous[f])
		ti.CursorEnd()
		lf.inputs[i] = ti
	}
	lf.focus = 0
	if len(lf.inputs) == 0 {
		return nil
	}
	return lf.inputs[0].Focus()
}

// Values returns the non-empty inputs keyed by field
func (lf *LiveForm) Values() map[string]string {
	out := make(map[string]string)
	for i, f := range lf.fields {
		if v := strings.TrimSpace(lf.inputs[i].Value()); v != "" {
			out[f] = v
		}
	}
	return out
}

func (lf *LiveForm) moveFocus(delta int) tea.Cmd {
	if len(lf.inputs) == 0 {
		return nil
	}
	lf.inputs[lf.focus].Blur()
	lf.focus = (lf.focus + delta + len(lf.inputs)) % len(lf.inputs)
	return lf.inputs[lf.focus].Focus()
}

// Update handles keyboard input
func (lf *LiveForm) Update(msg tea.KeyMsg) (*LiveForm, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return lf, func() tea.Msg { return CloseLiveFormMsg{} }
	case "tab", "down":
		return lf, lf.moveFocus(1)
	case "shift+tab", "up":
		return lf, lf.moveFocus(-1)
	case "enter", "ctrl+s":
		values := lf.Values()
		return lf, func() tea.Msg { return LiveSubmitMsg{Fields: values} }
	}

	if len(lf.inputs) == 0 {
		return lf, nil
	}
	var cmd tea.Cmd
	lf.inputs[lf.focus], cmd = lf.inputs[lf.focus].Update(msg)
	return lf, cmd
}

// View renders the form
func (lf *LiveForm) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lf.Theme.Background).
		Background(lf.Theme.Info).
		Padding(0, 1).
		Bold(true)

	labelWidth := 0
	for _, f := range lf.fields {
		if len(f) > labelWidth {
			labelWidth = len(f)
		}
	}

	lines := []string{
		titleStyle.Render("Live query"),
		lipgloss.NewStyle().Foreground(lf.Theme.Muted).Render("Tab next  Enter run  Esc cancel"),
		"",
	}
	labelStyle := lipgloss.NewStyle().Width(labelWidth + 2).Foreground(lf.Theme.Muted)
	for i, f := range lf.fields {
		style := labelStyle
		if i == lf.focus {
			style = style.Foreground(lf.Theme.Highlight).Bold(true)
		}
		lines = append(lines, style.Render(f)+lf.inputs[i].View())
	}
	if len(lf.fields) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(lf.Theme.Muted).Italic(true).Render("No fields known for this table"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lf.Theme.BorderFocused).
		Padding(0, 1).
		Width(lf.Width).
		Render(strings.Join(lines, "\n"))
}
