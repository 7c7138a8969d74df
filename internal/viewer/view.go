package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/ui/components"
)

const notAvailable = "N/A"

// View renders the viewer
func (m *Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()

	var extras []string
	if tags := m.tagsView(); tags != "" {
		extras = append(extras, tags)
	}
	if bar := m.progressView(); bar != "" {
		extras = append(extras, bar)
	}

	// Panel borders (2) and title (1) sit inside the body height
	bodyHeight := m.height - 2 - len(extras) - 3
	if bodyHeight < 5 {
		bodyHeight = 5
	}

	sidebarWidth := 0
	if m.sidebarOpen {
		sidebarWidth = m.width * m.cfg.UI.PanelWidthRatio / 100
		if sidebarWidth < 24 {
			sidebarWidth = 24
		}
	}
	mainWidth := m.width - 2
	if m.sidebarOpen {
		mainWidth = m.width - sidebarWidth - 4
	}
	if mainWidth < 20 {
		mainWidth = 20
	}

	main := m.renderMain(mainWidth, bodyHeight)
	body := main
	if m.sidebarOpen {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(sidebarWidth, bodyHeight), main)
	}

	parts := []string{header}
	parts = append(parts, extras...)
	parts = append(parts, body, footer)
	screen := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if o := m.overlayView(); o != "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, o)
	}
	return screen
}

func (m *Model) overlayView() string {
	switch m.overlay {
	case overlayBuilder:
		return m.builder.View()
	case overlayColumns:
		return m.colSelector.View()
	case overlayLive:
		return m.liveForm.View()
	case overlaySearch:
		return m.searchInput.View()
	}
	return ""
}

func (m *Model) renderHeader() string {
	crumbs := []string{"lazygrid", m.database}
	if t := m.pager.Table(); t != "" {
		crumbs = append(crumbs, t)
	}
	left := strings.Join(crumbs, " › ")

	var right []string
	if m.search != "" {
		right = append(right, fmt.Sprintf("search: %q", m.search))
	}
	if m.live {
		right = append(right, "LIVE")
	}

	return m.bar(left, strings.Join(right, "  "), m.theme.BorderFocused, lipgloss.Color("230"))
}

func (m *Model) renderFooter() string {
	if m.status != "" {
		color := m.theme.Success
		if m.statusErr {
			color = m.theme.Error
		}
		return m.bar(m.status, "", m.theme.Selection, color)
	}

	hint := "[tab] focus  [f] filter  [/] search  [e] export  [L] live  [b] sidebar  [?] help  [q] quit"
	if m.focus == models.LeftPanel {
		hint = "[enter] open table  [tab] grid  [backspace] sources  [?] help  [q] quit"
	}
	return m.bar(hint, "", m.theme.Selection, m.theme.Foreground)
}

// bar renders a full-width status bar with left and right aligned content
func (m *Model) bar(left, right string, bg, fg lipgloss.Color) string {
	available := m.width - 4
	gap := available - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	content := left + strings.Repeat(" ", gap) + right

	return lipgloss.NewStyle().
		Width(m.width).
		MaxWidth(m.width).
		Background(bg).
		Foreground(fg).
		Padding(0, 2).
		Render(content)
}

func (m *Model) tagsView() string {
	m.tags.Width = m.width
	return m.tags.View()
}

func (m *Model) progressView() string {
	m.progress.Width = m.width / 3
	return m.progress.View()
}

func (m *Model) renderMain(width, height int) string {
	m.preview.Width = width + 2
	m.preview.MaxHeight = height / 3
	if m.preview.MaxHeight < 5 {
		m.preview.MaxHeight = 5
	}

	m.grid.Width = width
	m.grid.Height = height - m.preview.Height()

	content := m.grid.View()
	if m.pager.Table() == "" {
		content = lipgloss.NewStyle().
			Foreground(m.theme.Muted).
			Italic(true).
			Render("Select a table from the sidebar")
	}

	title := "Data"
	if m.pager.Table() != "" {
		title = m.pager.Table()
		if hidden := m.columns.HiddenCount(); hidden > 0 && !m.live {
			title += fmt.Sprintf(" (%d hidden)", hidden)
		}
	}

	panel := components.Panel{
		Title:   title,
		Content: content,
		Width:   width,
		Height:  height - m.preview.Height(),
		Focused: m.focus == models.RightPanel,
		Theme:   m.theme,
	}

	if !m.preview.Visible {
		return panel.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, panel.View(), m.preview.View())
}

func (m *Model) renderSidebar(width, height int) string {
	info := m.renderInfo()
	infoHeight := lipgloss.Height(info)

	m.tree.Width = width
	m.tree.Height = height - infoHeight - 1
	if m.tree.Height < 3 {
		m.tree.Height = 3
	}

	panel := components.Panel{
		Title:   fmt.Sprintf("Tables (%d)", len(m.tables)),
		Content: m.tree.View() + "\n\n" + info,
		Width:   width,
		Height:  height,
		Focused: m.focus == models.LeftPanel,
		Theme:   m.theme,
	}
	return panel.View()
}

// renderInfo renders the table information block
func (m *Model) renderInfo() string {
	if m.pager.Table() == "" {
		return ""
	}

	label := lipgloss.NewStyle().Foreground(m.theme.Muted).Width(10)
	value := lipgloss.NewStyle().Foreground(m.theme.Foreground)
	title := lipgloss.NewStyle().Foreground(m.theme.Info).Bold(true)

	total, size, filtered := notAvailable, notAvailable, notAvailable
	if m.info.Available {
		total = format.Count(m.info.TotalRows)
		size = format.SizeMB(m.info.SizeMB)
		filtered = format.Count(m.info.FilteredRows)
		if m.filters.Len() > 0 || m.search != "" {
			filtered += " (" + format.Percent(m.info.FilteredRows, m.info.TotalRows) + ")"
		}
	}

	lines := []string{
		title.Render("Table info"),
		label.Render("Rows") + value.Render(total),
		label.Render("Size") + value.Render(size),
		label.Render("Filtered") + value.Render(filtered),
		label.Render("Loaded") + value.Render(format.Count(int64(len(m.pager.Rows())))),
	}
	return strings.Join(lines, "\n")
}
