package selector

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/search"
	"github.com/rebeliceyang/lazygrid/internal/ui/components"
)

// maxSuggestions caps the suggestion list below the search box
const maxSuggestions = 8

// View renders the selector
func (m *Model) View() string {
	if m.showError {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.errorOverlay.View())
	}

	header := m.bar(m.title(), m.cfg.API.BaseURL, m.theme.BorderFocused, lipgloss.Color("230"))
	footer := m.bar(m.hint(), "", m.theme.Selection, m.theme.Foreground)

	var top []string
	if m.searching || m.searchInput.Value() != "" {
		m.searchInput.Width = m.width - 4
		top = append(top, m.searchInput.View())
	}
	if m.searching {
		if s := m.suggestionsView(); s != "" {
			top = append(top, s)
		}
	}

	used := 2
	for _, t := range top {
		used += lipgloss.Height(t)
	}
	// Panel border (2) and title (1)
	bodyHeight := m.height - used - 3
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	content := m.spinner.View() + " Loading sources..."
	if !m.loading {
		m.tree.Width = m.width - 4
		m.tree.Height = bodyHeight
		content = m.tree.View()
	}

	panel := components.Panel{
		Title:   "Sources",
		Content: content,
		Width:   m.width - 2,
		Height:  bodyHeight,
		Focused: !m.searching,
		Theme:   m.theme,
	}

	parts := []string{header}
	parts = append(parts, top...)
	parts = append(parts, panel.View(), footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) title() string {
	if m.loading {
		return "lazygrid"
	}
	tables := 0
	for _, src := range m.sources {
		tables += len(src.Tables)
	}
	return fmt.Sprintf("lazygrid  %s databases, %s tables",
		format.Count(int64(len(m.sources))), format.Count(int64(tables)))
}

func (m *Model) hint() string {
	if m.searching {
		return "[↑↓] choose  [enter] open  [esc] clear search"
	}
	return "[/] search  [enter] open  [→/←] expand/collapse  [r] reload  [?] help  [q] quit"
}

func (m *Model) suggestionsView() string {
	if search.ParseQuery(m.searchInput.Value()).Pattern == "" {
		return ""
	}
	if len(m.suggestions) == 0 {
		return lipgloss.NewStyle().
			Foreground(m.theme.Muted).
			Italic(true).
			Padding(0, 2).
			Render("No matching databases or tables")
	}

	start := 0
	if m.suggestIdx >= maxSuggestions {
		start = m.suggestIdx - maxSuggestions + 1
	}
	end := min(start+maxSuggestions, len(m.suggestions))

	var lines []string
	for i := start; i < end; i++ {
		lines = append(lines, m.renderSuggestion(m.suggestions[i], i == m.suggestIdx))
	}
	if more := len(m.suggestions) - end; more > 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.Muted).Render(fmt.Sprintf("  … %d more", more)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSuggestion(s models.Suggestion, selected bool) string {
	base := lipgloss.NewStyle().Foreground(m.theme.Foreground)
	if selected {
		base = base.Background(m.theme.Selection).Bold(true)
	}
	match := base.Foreground(m.theme.Highlight).Underline(true)
	muted := base.Foreground(m.theme.Muted)

	icon, detail := "▸ ", ""
	switch s.Type {
	case models.SuggestionDatabase:
		detail = fmt.Sprintf("  database, %d tables", len(s.Tables))
	case models.SuggestionTable:
		icon = "• "
		detail = "  in " + s.Database
	}

	var b strings.Builder
	b.WriteString(base.Render("  " + icon))
	for _, seg := range search.Highlight(s.Name, m.searchInput.Value()) {
		if seg.Matched {
			b.WriteString(match.Render(seg.Text))
		} else {
			b.WriteString(base.Render(seg.Text))
		}
	}
	b.WriteString(muted.Render(detail))
	return b.String()
}

// bar renders a full-width status bar with left and right aligned content
func (m *Model) bar(left, right string, bg, fg lipgloss.Color) string {
	gap := m.width - 4 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Width(m.width).
		MaxWidth(m.width).
		Background(bg).
		Foreground(fg).
		Padding(0, 2).
		Render(left + strings.Repeat(" ", gap) + right)
}
