package components

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// SearchInputMsg is sent when a search term is submitted
type SearchInputMsg struct {
	Query string
}

// CloseSearchMsg is sent when search should be closed
type CloseSearchMsg struct{}

// SearchInput provides a search input box
type SearchInput struct {
	Input   textinput.Model
	Label   string
	Help    string
	Theme   theme.Theme
	Width   int
	Visible bool
}

// NewSearchInput creates a new search input
func NewSearchInput(th theme.Theme, label, placeholder string) *SearchInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)

	return &SearchInput{
		Input: ti,
		Label: label,
		Help:  "Enter: search │ Esc: close",
		Theme: th,
	}
}

// Open shows the input with focus
func (s *SearchInput) Open() tea.Cmd {
	s.Visible = true
	return s.Input.Focus()
}

// Close hides the input but keeps its value
func (s *SearchInput) Close() {
	s.Visible = false
	s.Input.Blur()
}

// Value returns the current text
func (s *SearchInput) Value() string {
	return s.Input.Value()
}

// Reset clears the search input
func (s *SearchInput) Reset() {
	s.Input.SetValue("")
}

// Update handles messages. Submitting an empty value is allowed so a search
// can be cleared.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			query := s.Input.Value()
			return s, func() tea.Msg {
				return SearchInputMsg{Query: query}
			}
		case "esc":
			return s, func() tea.Msg {
				return CloseSearchMsg{}
			}
		}
	}

	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	return s, cmd
}

// View renders the search input
func (s *SearchInput) View() string {
	labelStyle := lipgloss.NewStyle().
		Foreground(s.Theme.Info).
		Bold(true)

	inputWidth := s.Width - len(s.Label) - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.Input.Width = inputWidth

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Theme.BorderFocused).
		Padding(0, 1).
		Width(s.Width)

	helpStyle := lipgloss.NewStyle().
		Foreground(s.Theme.Muted).
		Italic(true)

	content := labelStyle.Render(s.Label) + " " + s.Input.View()
	if s.Help == "" {
		return boxStyle.Render(content)
	}
	return boxStyle.Render(content + "\n" + helpStyle.Render(s.Help))
}
