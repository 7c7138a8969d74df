package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// FilterTags shows the active predicates as removable tags
type FilterTags struct {
	Tags     []models.Predicate
	Selected int
	Width    int
	Theme    theme.Theme
}

// NewFilterTags creates an empty tag bar
func NewFilterTags(th theme.Theme) *FilterTags {
	return &FilterTags{Theme: th}
}

// SetTags replaces the tags, keeping the selection in range
func (ft *FilterTags) SetTags(tags []models.Predicate) {
	ft.Tags = tags
	if ft.Selected >= len(tags) {
		ft.Selected = len(tags) - 1
	}
	if ft.Selected < 0 {
		ft.Selected = 0
	}
}

// Next selects the next tag, wrapping around
func (ft *FilterTags) Next() {
	if len(ft.Tags) > 0 {
		ft.Selected = (ft.Selected + 1) % len(ft.Tags)
	}
}

// Prev selects the previous tag, wrapping around
func (ft *FilterTags) Prev() {
	if len(ft.Tags) > 0 {
		ft.Selected = (ft.Selected - 1 + len(ft.Tags)) % len(ft.Tags)
	}
}

// SelectedTag returns the selected predicate
func (ft *FilterTags) SelectedTag() (models.Predicate, bool) {
	if ft.Selected < 0 || ft.Selected >= len(ft.Tags) {
		return models.Predicate{}, false
	}
	return ft.Tags[ft.Selected], true
}

// View renders the tag bar; empty when no filter is active
func (ft *FilterTags) View() string {
	if len(ft.Tags) == 0 {
		return ""
	}

	tagStyle := lipgloss.NewStyle().
		Foreground(ft.Theme.TagForeground).
		Background(ft.Theme.TagBackground).
		Padding(0, 1)
	selectedStyle := tagStyle.
		Background(ft.Theme.Highlight).
		Foreground(ft.Theme.Background).
		Bold(true)

	parts := []string{lipgloss.NewStyle().Foreground(ft.Theme.Muted).Render("Filters:")}
	for i, tag := range ft.Tags {
		label := format.Truncate(tag.Field+" "+tag.Type.Label()+" "+tag.Value, 40)
		if i == ft.Selected {
			parts = append(parts, selectedStyle.Render(label+" ✕"))
		} else {
			parts = append(parts, tagStyle.Render(label))
		}
	}

	hint := lipgloss.NewStyle().Foreground(ft.Theme.Muted).Italic(true).Render("x remove  ^R clear")
	parts = append(parts, hint)

	return lipgloss.NewStyle().MaxWidth(ft.Width).Render(strings.Join(parts, " "))
}
