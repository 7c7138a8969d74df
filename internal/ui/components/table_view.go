package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/pager"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// ColumnAction is an entry of the grid's column menu
type ColumnAction string

const (
	ColumnActionFilter   ColumnAction = "filter" // open the query builder on the column
	ColumnActionHide     ColumnAction = "hide"
	ColumnActionCopyCell ColumnAction = "copy_cell"
	ColumnActionCopyRow  ColumnAction = "copy_row"
	ColumnActionPreview  ColumnAction = "preview"
)

// GridEvents is everything the grid reports to its owner. Column indexes
// refer to TableView.Columns.
type GridEvents interface {
	OnScrollNearEnd() tea.Cmd
	OnFilterConditionsChanged(groups []models.ConditionGroup) tea.Cmd
	OnColumnMenuAction(action ColumnAction, column int) tea.Cmd
}

const (
	minColumnWidth = 6
	columnGap      = 3 // " │ "
)

// TableView displays rows with virtual scrolling
type TableView struct {
	Columns []string
	Rows    []models.Row
	Width   int
	Height  int
	Theme   theme.Theme

	// MaxCellWidth caps a column's rendered width
	MaxCellWidth int
	// ScrollThreshold is how many rows before the end a scroll reports
	// OnScrollNearEnd
	ScrollThreshold int

	// Virtual scrolling state
	TopRow      int
	VisibleRows int
	SelectedRow int
	SelectedCol int
	LeftCol     int
	TotalRows   int64

	// Status is shown at the bottom right (loading state, errors)
	Status string
	// Filtered marks columns with an active filter in the header
	Filtered map[string]bool

	// Column widths (calculated)
	ColumnWidths []int
	cells        [][]string
}

// NewTableView creates a new table view
func NewTableView(th theme.Theme) *TableView {
	return &TableView{
		Columns:         []string{},
		Rows:            []models.Row{},
		ColumnWidths:    []int{},
		Theme:           th,
		MaxCellWidth:    50,
		ScrollThreshold: 3,
	}
}

// SetData sets the table data. Selection is kept where possible so appended
// pages do not move the cursor.
func (tv *TableView) SetData(columns []string, rows []models.Row, totalRows int64) {
	tv.Columns = columns
	tv.Rows = rows
	tv.TotalRows = totalRows

	tv.cells = make([][]string, len(rows))
	for i, row := range rows {
		line := make([]string, len(columns))
		for j, col := range columns {
			line[j] = tv.cellText(row, col)
		}
		tv.cells[i] = line
	}

	tv.calculateColumnWidths()
	tv.clampSelection()
}

func (tv *TableView) cellText(row models.Row, col string) string {
	v, ok := row[col]
	if !ok {
		return ""
	}
	return format.SingleLine(format.Cell(v))
}

// calculateColumnWidths calculates optimal column widths
func (tv *TableView) calculateColumnWidths() {
	tv.ColumnWidths = make([]int, len(tv.Columns))

	// Start with column header lengths, plus the filter marker
	for i, col := range tv.Columns {
		tv.ColumnWidths[i] = runewidth.StringWidth(col) + 2
	}

	for _, line := range tv.cells {
		for i, cell := range line {
			if w := runewidth.StringWidth(cell); w > tv.ColumnWidths[i] {
				tv.ColumnWidths[i] = w
			}
		}
	}

	maxWidth := tv.MaxCellWidth
	if maxWidth < minColumnWidth {
		maxWidth = minColumnWidth
	}
	for i := range tv.ColumnWidths {
		if tv.ColumnWidths[i] > maxWidth {
			tv.ColumnWidths[i] = maxWidth
		}
		if tv.ColumnWidths[i] < minColumnWidth {
			tv.ColumnWidths[i] = minColumnWidth
		}
	}
}

func (tv *TableView) clampSelection() {
	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}
	if tv.SelectedCol >= len(tv.Columns) {
		tv.SelectedCol = len(tv.Columns) - 1
	}
	if tv.SelectedCol < 0 {
		tv.SelectedCol = 0
	}
	if tv.TopRow > tv.SelectedRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.LeftCol > tv.SelectedCol {
		tv.LeftCol = tv.SelectedCol
	}
}

// ResetPosition moves the cursor back to the first cell
func (tv *TableView) ResetPosition() {
	tv.TopRow, tv.SelectedRow = 0, 0
	tv.LeftCol, tv.SelectedCol = 0, 0
}

// Update handles grid keys and reports through events
func (tv *TableView) Update(msg tea.KeyMsg, events GridEvents) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		tv.MoveSelection(-1)
		return nil
	case "down", "j":
		tv.MoveSelection(1)
		return tv.checkNearEnd(events)
	case "ctrl+u", "pgup":
		tv.PageUp()
		return nil
	case "ctrl+d", "pgdown":
		tv.PageDown()
		return tv.checkNearEnd(events)
	case "g", "home":
		tv.TopRow, tv.SelectedRow = 0, 0
		return nil
	case "G", "end":
		tv.MoveSelection(len(tv.Rows))
		return tv.checkNearEnd(events)
	case "left", "h":
		tv.MoveColumn(-1)
		return nil
	case "right", "l":
		tv.MoveColumn(1)
		return nil
	}

	if len(tv.Columns) == 0 {
		return nil
	}

	switch msg.String() {
	case "ctrl+f":
		if group, ok := tv.quickFilter(); ok {
			return events.OnFilterConditionsChanged([]models.ConditionGroup{group})
		}
	case "f":
		return events.OnColumnMenuAction(ColumnActionFilter, tv.SelectedCol)
	case "H":
		return events.OnColumnMenuAction(ColumnActionHide, tv.SelectedCol)
	case "y":
		return events.OnColumnMenuAction(ColumnActionCopyCell, tv.SelectedCol)
	case "Y":
		return events.OnColumnMenuAction(ColumnActionCopyRow, tv.SelectedCol)
	case "p":
		return events.OnColumnMenuAction(ColumnActionPreview, tv.SelectedCol)
	}
	return nil
}

// quickFilter builds an equality condition on the active cell
func (tv *TableView) quickFilter() (models.ConditionGroup, bool) {
	if len(tv.Rows) == 0 {
		return models.ConditionGroup{}, false
	}

	v := tv.Rows[tv.SelectedRow][tv.Columns[tv.SelectedCol]]
	cond := models.NativeCondition{Name: "eq", Args: []string{format.Cell(v)}}
	if v == nil {
		cond = models.NativeCondition{Name: "empty"}
	}

	return models.ConditionGroup{
		Column:     tv.SelectedCol,
		Conditions: []models.NativeCondition{cond},
	}, true
}

func (tv *TableView) checkNearEnd(events GridEvents) tea.Cmd {
	if pager.NearEnd(tv.SelectedRow, 1, len(tv.Rows), tv.ScrollThreshold) {
		return events.OnScrollNearEnd()
	}
	return nil
}

// SelectedCell returns the active column and its raw value
func (tv *TableView) SelectedCell() (string, any, bool) {
	if len(tv.Rows) == 0 || len(tv.Columns) == 0 {
		return "", nil, false
	}
	col := tv.Columns[tv.SelectedCol]
	return col, tv.Rows[tv.SelectedRow][col], true
}

// SelectedRowData returns the active row
func (tv *TableView) SelectedRowData() (models.Row, bool) {
	if len(tv.Rows) == 0 {
		return nil, false
	}
	return tv.Rows[tv.SelectedRow], true
}

// View renders the table
func (tv *TableView) View() string {
	if len(tv.Columns) == 0 {
		empty := lipgloss.NewStyle().Foreground(tv.Theme.Muted).Italic(true).Render("No data")
		if tv.Status != "" {
			empty += "\n" + tv.Status
		}
		return lipgloss.NewStyle().Width(tv.Width).Height(tv.Height).Render(empty)
	}

	visibleCols := tv.visibleColumns()

	var b strings.Builder

	b.WriteString(tv.renderHeader(visibleCols))
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator(visibleCols))
	b.WriteString("\n")

	// Header + separator + status
	tv.VisibleRows = tv.Height - 3
	if tv.VisibleRows < 1 {
		tv.VisibleRows = 1
	}
	tv.ensureRowVisible()

	endRow := tv.TopRow + tv.VisibleRows
	if endRow > len(tv.Rows) {
		endRow = len(tv.Rows)
	}

	for i := tv.TopRow; i < endRow; i++ {
		b.WriteString(tv.renderRow(i, visibleCols))
		b.WriteString("\n")
	}
	for i := endRow - tv.TopRow; i < tv.VisibleRows; i++ {
		b.WriteString("\n")
	}

	b.WriteString(tv.renderStatus())

	return lipgloss.NewStyle().Width(tv.Width).MaxWidth(tv.Width).Render(b.String())
}

// visibleColumns returns the column indexes that fit from LeftCol on
func (tv *TableView) visibleColumns() []int {
	tv.ensureColumnVisible()

	var cols []int
	used := 1
	for i := tv.LeftCol; i < len(tv.Columns); i++ {
		w := tv.ColumnWidths[i] + columnGap
		if used+w > tv.Width && len(cols) > 0 {
			break
		}
		cols = append(cols, i)
		used += w
	}
	return cols
}

func (tv *TableView) ensureColumnVisible() {
	if tv.SelectedCol < tv.LeftCol {
		tv.LeftCol = tv.SelectedCol
		return
	}
	for tv.LeftCol < tv.SelectedCol {
		used := 1
		for i := tv.LeftCol; i <= tv.SelectedCol; i++ {
			used += tv.ColumnWidths[i] + columnGap
		}
		if used <= tv.Width {
			return
		}
		tv.LeftCol++
	}
}

func (tv *TableView) ensureRowVisible() {
	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}
	if tv.TopRow < 0 {
		tv.TopRow = 0
	}
}

func (tv *TableView) renderHeader(cols []int) string {
	var parts []string
	for _, i := range cols {
		name := tv.Columns[i]
		if tv.Filtered[name] {
			name += " ▾"
		}
		parts = append(parts, tv.pad(name, tv.ColumnWidths[i]))
	}
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader).
		Background(tv.Theme.TableHeaderBg)
	return headerStyle.Render(" " + strings.Join(parts, " │ ") + " ")
}

func (tv *TableView) renderSeparator(cols []int) string {
	var parts []string
	for _, i := range cols {
		parts = append(parts, strings.Repeat("─", tv.ColumnWidths[i]))
	}
	separatorStyle := lipgloss.NewStyle().Foreground(tv.Theme.Border)
	return separatorStyle.Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (tv *TableView) renderRow(rowIdx int, cols []int) string {
	selected := rowIdx == tv.SelectedRow

	activeStyle := lipgloss.NewStyle().
		Background(tv.Theme.TableCellActive).
		Foreground(lipgloss.Color("15")).
		Bold(true)

	var parts []string
	for _, i := range cols {
		cell := tv.pad(tv.cells[rowIdx][i], tv.ColumnWidths[i])
		if selected && i == tv.SelectedCol {
			cell = activeStyle.Render(cell)
		}
		parts = append(parts, cell)
	}

	line := " " + strings.Join(parts, " │ ") + " "
	if selected {
		return lipgloss.NewStyle().
			Background(tv.Theme.TableRowSelected).
			Foreground(lipgloss.Color("15")).
			Render(line)
	}
	return line
}

func (tv *TableView) renderStatus() string {
	loaded := len(tv.Rows)
	showing := fmt.Sprintf(" row %d of %s loaded │ %s total",
		tv.SelectedRow+1, format.Count(int64(loaded)), format.Count(tv.TotalRows))
	if loaded == 0 {
		showing = " no rows"
	}
	if len(tv.Columns) > 0 {
		showing += fmt.Sprintf(" │ col %d/%d", tv.SelectedCol+1, len(tv.Columns))
	}

	left := lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Render(showing)
	if tv.Status == "" {
		return left
	}

	gap := tv.Width - lipgloss.Width(left) - lipgloss.Width(tv.Status) - 1
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + tv.Status
}

func (tv *TableView) pad(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// MoveSelection moves the selection up or down
func (tv *TableView) MoveSelection(delta int) {
	tv.SelectedRow += delta

	// Bounds checking
	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}

	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.VisibleRows > 0 && tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}
}

// MoveColumn moves the active column left or right
func (tv *TableView) MoveColumn(delta int) {
	tv.SelectedCol += delta
	if tv.SelectedCol >= len(tv.Columns) {
		tv.SelectedCol = len(tv.Columns) - 1
	}
	if tv.SelectedCol < 0 {
		tv.SelectedCol = 0
	}
}

// PageUp moves the selection one screen up
func (tv *TableView) PageUp() {
	tv.SelectedRow -= tv.pageSize()
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}
	tv.TopRow = tv.SelectedRow
}

// PageDown moves the selection one screen down
func (tv *TableView) PageDown() {
	tv.SelectedRow += tv.pageSize()
	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}
	tv.TopRow = tv.SelectedRow
	if tv.TopRow+tv.VisibleRows > len(tv.Rows) {
		tv.TopRow = len(tv.Rows) - tv.VisibleRows
		if tv.TopRow < 0 {
			tv.TopRow = 0
		}
	}
}

func (tv *TableView) pageSize() int {
	if tv.VisibleRows > 0 {
		return tv.VisibleRows
	}
	return 10
}
