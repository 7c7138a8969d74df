package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// ExportProgress shows a running spreadsheet download
type ExportProgress struct {
	Active  bool
	Percent int // -1 while the size is unknown
	Table   string
	Width   int
	Theme   theme.Theme

	bar progress.Model
}

// NewExportProgress creates an idle progress bar
func NewExportProgress(th theme.Theme) *ExportProgress {
	return &ExportProgress{
		Theme: th,
		Width: 40,
		bar: progress.New(
			progress.WithGradient(string(th.Info), string(th.Success)),
			progress.WithoutPercentage(),
		),
	}
}

// Start marks a download of table as running
func (ep *ExportProgress) Start(table string) {
	ep.Active = true
	ep.Table = table
	ep.Percent = -1
}

// Set records the latest percentage
func (ep *ExportProgress) Set(percent int) {
	ep.Percent = percent
}

// Stop hides the bar
func (ep *ExportProgress) Stop() {
	ep.Active = false
	ep.Percent = -1
}

// View renders the bar, or nothing when idle
func (ep *ExportProgress) View() string {
	if !ep.Active {
		return ""
	}

	label := lipgloss.NewStyle().Foreground(ep.Theme.Info).Render("Exporting " + ep.Table)
	if ep.Percent < 0 {
		return label + lipgloss.NewStyle().Foreground(ep.Theme.Muted).Render(" (size unknown)…")
	}

	ep.bar.Width = ep.Width
	return fmt.Sprintf("%s %s %3d%%", label, ep.bar.ViewAs(float64(ep.Percent)/100), ep.Percent)
}
