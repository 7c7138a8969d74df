package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// PreviewPane displays the full content of the active cell
type PreviewPane struct {
	Width     int
	MaxHeight int    // Maximum height (screen 1/3)
	Content   string // Formatted content to display
	Title     string // Column name

	Visible bool

	// json marks content that is pretty printed JSON
	json bool

	// Scrolling
	scrollY      int
	contentLines []string // Content wrapped to the pane width

	// Styling
	Theme theme.Theme
	style lipgloss.Style
}

// NewPreviewPane creates a new, hidden preview pane
func NewPreviewPane(th theme.Theme) *PreviewPane {
	return &PreviewPane{
		Width:     80,
		MaxHeight: 10,
		Theme:     th,
		style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(th.Border).
			Padding(0, 1),
	}
}

// SetValue sets the cell to preview. JSON values are pretty printed.
func (p *PreviewPane) SetValue(field string, val any) {
	content, err := format.Pretty(val)
	if err != nil {
		content = format.Cell(val)
	}

	// Skip if content hasn't changed
	if p.Content == content && p.Title == field {
		return
	}

	p.Content = content
	p.Title = field
	p.json = strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")
	p.scrollY = 0
	p.contentLines = nil
}

// Toggle toggles the preview pane visibility
func (p *PreviewPane) Toggle() {
	p.Visible = !p.Visible
	if !p.Visible {
		p.contentLines = nil
	}
}

// Height returns the rendered height including borders
func (p *PreviewPane) Height() int {
	if !p.Visible {
		return 0
	}
	return p.MaxHeight
}

func (p *PreviewPane) contentWidth() int {
	w := p.Width - p.style.GetHorizontalFrameSize()
	if w < 10 {
		w = 10
	}
	return w
}

// visibleLines is the number of content lines between header and footer
func (p *PreviewPane) visibleLines() int {
	n := p.MaxHeight - p.style.GetVerticalFrameSize() - 2
	if n < 1 {
		n = 1
	}
	return n
}

// wrapText wraps text to fit within maxWidth
func wrapText(text string, maxWidth int) []string {
	var result []string

	for _, line := range strings.Split(text, "\n") {
		if runewidth.StringWidth(line) <= maxWidth {
			result = append(result, line)
			continue
		}

		var current strings.Builder
		currentWidth := 0
		for _, r := range line {
			rWidth := runewidth.RuneWidth(r)
			if currentWidth+rWidth > maxWidth {
				result = append(result, current.String())
				current.Reset()
				currentWidth = 0
			}
			current.WriteRune(r)
			currentWidth += rWidth
		}
		if current.Len() > 0 {
			result = append(result, current.String())
		}
	}

	return result
}

func (p *PreviewPane) lines() []string {
	if p.contentLines == nil {
		p.contentLines = wrapText(p.Content, p.contentWidth())
	}
	return p.contentLines
}

// IsScrollable returns true if content exceeds visible area
func (p *PreviewPane) IsScrollable() bool {
	return len(p.lines()) > p.visibleLines()
}

// ScrollUp scrolls content up
func (p *PreviewPane) ScrollUp() {
	if p.scrollY > 0 {
		p.scrollY--
	}
}

// ScrollDown scrolls content down
func (p *PreviewPane) ScrollDown() {
	maxScroll := len(p.lines()) - p.visibleLines()
	if p.scrollY < maxScroll {
		p.scrollY++
	}
}

// View renders the preview pane
func (p *PreviewPane) View() string {
	if !p.Visible {
		return ""
	}

	contentWidth := p.contentWidth()
	lines := p.lines()

	titleStyle := lipgloss.NewStyle().
		Foreground(p.Theme.Info).
		Bold(true)

	header := "Preview"
	if p.Title != "" {
		header = "Preview: " + p.Title
	}
	header = titleStyle.Render(runewidth.Truncate(header, contentWidth, "…"))

	start := p.scrollY
	end := start + p.visibleLines()
	if end > len(lines) {
		end = len(lines)
	}

	parts := []string{header}
	contentStyle := lipgloss.NewStyle().Foreground(p.Theme.Foreground)
	if p.Content == format.Null {
		contentStyle = contentStyle.Foreground(p.Theme.JSONNull).Italic(true)
	}
	for _, line := range lines[start:end] {
		if p.json {
			parts = append(parts, p.colorJSON(line))
		} else {
			parts = append(parts, contentStyle.Render(line))
		}
	}

	helpParts := []string{}
	if p.IsScrollable() {
		helpParts = append(helpParts, "ctrl+↑↓: Scroll")
	}
	helpParts = append(helpParts, "y: Copy", "p: Close")
	helpText := strings.Join(helpParts, " │ ")

	footerPadding := contentWidth - runewidth.StringWidth(helpText)
	if footerPadding < 0 {
		footerPadding = 0
	}
	footer := strings.Repeat(" ", footerPadding) +
		lipgloss.NewStyle().Foreground(p.Theme.Muted).Italic(true).Render(helpText)
	parts = append(parts, footer)

	innerHeight := p.MaxHeight - p.style.GetVerticalFrameSize()
	if innerHeight < 3 {
		innerHeight = 3
	}

	return p.style.
		Width(p.Width - p.style.GetHorizontalFrameSize()).
		Height(innerHeight).
		MaxHeight(innerHeight).
		Render(strings.Join(parts, "\n"))
}

// colorJSON highlights one line of indented JSON. Lines split by wrapping
// are colored on a best-effort basis.
func (p *PreviewPane) colorJSON(line string) string {
	base := lipgloss.NewStyle().Foreground(p.Theme.Foreground)

	trimmed := strings.TrimLeft(line, " ")
	indent := line[:len(line)-len(trimmed)]

	key, value := "", trimmed
	if strings.HasPrefix(trimmed, `"`) {
		if i := strings.Index(trimmed, `": `); i > 0 {
			key, value = trimmed[:i+1], trimmed[i+3:]
		}
	}

	var b strings.Builder
	b.WriteString(indent)
	if key != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(p.Theme.JSONKey).Render(key))
		b.WriteString(base.Render(": "))
	}

	color := p.Theme.Foreground
	v := strings.TrimSuffix(value, ",")
	switch {
	case strings.HasPrefix(v, `"`):
		color = p.Theme.JSONString
	case v == "null":
		color = p.Theme.JSONNull
	case v == "true" || v == "false" || (v != "" && strings.ContainsRune("-0123456789", rune(v[0]))):
		color = p.Theme.JSONNumber
	}
	b.WriteString(lipgloss.NewStyle().Foreground(color).Render(value))
	return b.String()
}
