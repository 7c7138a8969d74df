// Package viewer is the table viewer screen: a sidebar with the database's
// tables and table information next to an incrementally loaded grid.
package viewer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/export"
	"github.com/rebeliceyang/lazygrid/internal/filter"
	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/pager"
	"github.com/rebeliceyang/lazygrid/internal/prefs"
	"github.com/rebeliceyang/lazygrid/internal/ui/components"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// Backend is the part of the API client the viewer uses
type Backend interface {
	pager.PageFetcher
	export.Source
	ListTables(ctx context.Context, database string) ([]string, error)
	TableInfo(ctx context.Context, database, table string, filters []models.Predicate) (models.TableInfo, error)
	Live(ctx context.Context, database, table string, fields map[string]string) ([]models.Row, error)
}

// Options carries the viewer's dependencies
type Options struct {
	Config *config.Config
	Prefs  *prefs.Store
	Logger *slog.Logger
	Theme  theme.Theme

	// Clipboard writes text to the system clipboard
	Clipboard func(string) error
	// Now is the clock used for export file names
	Now func() time.Time
}

type overlay int

const (
	overlayNone overlay = iota
	overlayBuilder
	overlayColumns
	overlayLive
	overlaySearch
)

// Model is the viewer screen
type Model struct {
	backend   Backend
	cfg       *config.Config
	prefs     *prefs.Store
	logger    *slog.Logger
	theme     theme.Theme
	clipboard func(string) error
	now       func() time.Time

	database string
	tables   []string

	pager   *pager.Controller
	filters *filter.Store
	columns *ColumnSet
	search  string
	info    models.TableInfo
	infoSeq uint64

	// Live query state
	live        bool
	liveLoading bool
	liveFields  map[string]string
	liveRows    []models.Row
	liveSeq     uint64

	// Export state
	exporting      bool
	exportCancel   context.CancelFunc
	exportProgress chan int
	exportDone     chan ExportDoneMsg

	width       int
	height      int
	focus       models.PanelType
	sidebarOpen bool
	overlay     overlay
	spinning    bool

	status    string
	statusErr bool
	statusSeq uint64

	grid        *components.TableView
	builder     *components.FilterBuilder
	tags        *components.FilterTags
	colSelector *components.ColumnSelector
	progress    *components.ExportProgress
	liveForm    *components.LiveForm
	preview     *components.PreviewPane
	searchInput *components.SearchInput
	tree        *components.TreeView
	spinner     spinner.Model
}

// New creates the viewer for database
func New(backend Backend, database string, opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	write := opts.Clipboard
	if write == nil {
		write = clipboard.WriteAll
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	th := opts.Theme
	if th.Name == "" {
		th = theme.DarkTheme()
	}

	sidebarOpen := true
	if opts.Prefs != nil {
		sidebarOpen = opts.Prefs.Get().SidebarOpen
	}

	grid := components.NewTableView(th)
	grid.MaxCellWidth = cfg.Data.MaxCellDisplayLength
	grid.ScrollThreshold = cfg.Data.ScrollThreshold

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		backend:   backend,
		cfg:       cfg,
		prefs:     opts.Prefs,
		logger:    logger.With("component", "viewer", "database", database),
		theme:     th,
		clipboard: write,
		now:       now,
		database:  database,
		pager: pager.New(backend, pager.Options{
			PageSize: cfg.Data.PageSize,
			Debounce: cfg.ScrollDebounce(),
			Timeout:  cfg.RequestTimeout(),
		}, logger),
		filters:     filter.NewStore(),
		columns:     NewColumnSet(),
		width:       80,
		height:      24,
		focus:       models.LeftPanel,
		sidebarOpen: sidebarOpen,
		grid:        grid,
		builder:     components.NewFilterBuilder(th),
		tags:        components.NewFilterTags(th),
		colSelector: components.NewColumnSelector(th),
		progress:    components.NewExportProgress(th),
		liveForm:    components.NewLiveForm(th),
		preview:     components.NewPreviewPane(th),
		searchInput: components.NewSearchInput(th, "Search rows:", "term matched against every column"),
		tree:        components.NewTreeView(nil, th),
		spinner:     sp,
	}
	m.tree.EmptyText = "No tables"
	m.setTables(nil)
	return m
}

// Init loads the table list and selects initialTable when given
func (m *Model) Init(initialTable string) tea.Cmd {
	cmds := []tea.Cmd{m.loadTables()}
	if initialTable != "" {
		cmds = append(cmds, m.SelectTable(initialTable))
	}
	return tea.Batch(cmds...)
}

// Database returns the viewer's database
func (m *Model) Database() string { return m.database }

// Table returns the selected table
func (m *Model) Table() string { return m.pager.Table() }

// Filters returns the active filter set
func (m *Model) Filters() []models.Predicate { return m.filters.List() }

// Rows returns the rows shown in the grid
func (m *Model) Rows() []models.Row { return m.grid.Rows }

// Info returns the current table information
func (m *Model) Info() models.TableInfo { return m.info }

// Capturing reports whether an overlay or input owns the keyboard
func (m *Model) Capturing() bool { return m.overlay != overlayNone }

// SetSize updates the screen size
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetTheme switches every component to th
func (m *Model) SetTheme(th theme.Theme) {
	m.theme = th
	m.grid.Theme = th
	m.builder.Theme = th
	m.tags.Theme = th
	m.colSelector.Theme = th
	m.progress.Theme = th
	m.liveForm.Theme = th
	m.preview.Theme = th
	m.searchInput.Theme = th
	m.tree.Theme = th
}

// Close cancels in-flight work when the screen is left
func (m *Model) Close() {
	m.pager.Close()
	if m.exportCancel != nil {
		m.exportCancel()
	}
	m.liveSeq++
	m.infoSeq++
}

// SelectTable opens table. Selecting the current table is a no-op.
func (m *Model) SelectTable(table string) tea.Cmd {
	if table == "" || table == m.pager.Table() {
		return nil
	}

	m.logger.Info("table selected", "table", table)

	m.pager.Switch(m.database, table)
	m.filters.Clear()
	m.filters.SetFields(nil)
	m.columns.Reset(nil)
	m.search = ""
	m.searchInput.Reset()
	m.info = models.TableInfo{}
	m.exitLive()
	m.grid.ResetPosition()
	m.tree.ActiveID = models.TableID(m.database, table)
	m.focus = models.RightPanel
	m.syncGrid()

	return tea.Batch(m.loadTableInfo(), m.pager.Load(1, nil, ""), m.startSpinner())
}

func (m *Model) exitLive() {
	m.live = false
	m.liveLoading = false
	m.liveFields = nil
	m.liveRows = nil
	m.liveSeq++
}

// reload drops the rows of the previous query and issues the single page-1
// fetch that follows a filter or search change
func (m *Model) reload() tea.Cmd {
	m.pager.ClearBuffer()
	m.syncGrid()
	m.grid.TopRow, m.grid.SelectedRow = 0, 0
	return tea.Batch(m.pager.Reload(m.filters.List(), m.search), m.startSpinner())
}

// OnScrollNearEnd implements components.GridEvents
func (m *Model) OnScrollNearEnd() tea.Cmd {
	if m.live {
		return nil
	}
	return m.pager.ScrollNearEnd()
}

// OnFilterConditionsChanged implements components.GridEvents
func (m *Model) OnFilterConditionsChanged(groups []models.ConditionGroup) tea.Cmd {
	if m.live || m.pager.Table() == "" {
		return nil
	}

	preds, warnings := filter.Normalize(groups, m.grid.Columns)
	for _, w := range warnings {
		m.logger.Warn("filter condition skipped", "error", w)
	}
	if len(preds) == 0 {
		return nil
	}

	before := m.filters.List()
	if err := m.filters.Merge(preds); err != nil {
		m.logger.Warn("filter rejected", "error", err)
	}
	if slices.Equal(before, m.filters.List()) {
		return nil
	}
	m.syncTags()

	return tea.Batch(m.reload(), m.loadTableInfo())
}

// OnColumnMenuAction implements components.GridEvents
func (m *Model) OnColumnMenuAction(action components.ColumnAction, column int) tea.Cmd {
	if column < 0 || column >= len(m.grid.Columns) {
		return nil
	}
	field := m.grid.Columns[column]

	switch action {
	case components.ColumnActionFilter:
		if m.live {
			return nil
		}
		m.builder.Width = min(60, m.width-4)
		m.builder.Open(column, field, m.samples(field))
		m.overlay = overlayBuilder

	case components.ColumnActionHide:
		if m.live {
			return nil
		}
		if !m.columns.Hide(field) {
			return m.setStatus("Keep at least one column visible", true)
		}
		m.syncGrid()
		return m.setStatus(fmt.Sprintf("Hid %s (%d hidden, C to restore)", field, m.columns.HiddenCount()), false)

	case components.ColumnActionCopyCell:
		if _, val, ok := m.grid.SelectedCell(); ok {
			return m.copyText(field, format.Cell(val))
		}

	case components.ColumnActionCopyRow:
		if row, ok := m.grid.SelectedRowData(); ok {
			return m.copyText("row", rowText(m.grid.Columns, row))
		}

	case components.ColumnActionPreview:
		if _, val, ok := m.grid.SelectedCell(); ok {
			m.preview.SetValue(field, val)
			m.preview.Toggle()
		}
	}
	return nil
}

// samples returns known values of field for operator inference and value
// suggestions
func (m *Model) samples(field string) []string {
	if values := m.info.FieldValues[field]; len(values) > 0 {
		return values
	}

	seen := map[string]bool{}
	var out []string
	for _, row := range m.pager.Rows() {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		s := format.Cell(v)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
		if len(out) >= 100 {
			break
		}
	}
	return out
}

// Update handles messages for the viewer
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case pager.PageLoadedMsg:
		if !m.pager.HandleLoaded(msg) {
			return m, nil
		}
		if msg.Err == nil && msg.Page == 1 {
			m.info.FilteredRows = msg.Result.Total
		}
		m.syncGrid()
		if err := m.pager.Err(); err != nil {
			return m, m.setStatus(fmt.Sprintf("Loading rows failed: %v (R to retry)", err), true)
		}
		return m, nil

	case pager.ScrollTickMsg:
		cmd := m.pager.HandleTick(msg)
		if cmd != nil {
			m.syncGrid()
			return m, tea.Batch(cmd, m.startSpinner())
		}
		return m, nil

	case TablesLoadedMsg:
		if msg.Database != m.database {
			return m, nil
		}
		if msg.Err != nil {
			m.logger.Error("failed to load tables", "error", msg.Err)
			return m, m.setStatus(fmt.Sprintf("Loading tables failed: %v", msg.Err), true)
		}
		m.setTables(msg.Tables)
		return m, nil

	case TableInfoLoadedMsg:
		if msg.Seq != m.infoSeq {
			return m, nil
		}
		if msg.Err != nil {
			m.logger.Error("failed to load table info", "table", m.pager.Table(), "error", msg.Err)
			m.info = models.TableInfo{}
			return m, nil
		}
		m.info = msg.Info
		return m, nil

	case ExportProgressMsg:
		m.progress.Set(msg.Percent)
		return m, waitForExport(m.exportProgress, m.exportDone)

	case ExportDoneMsg:
		m.exporting = false
		m.exportCancel = nil
		m.progress.Stop()
		if msg.Err != nil {
			m.logger.Error("export failed", "table", m.pager.Table(), "error", msg.Err)
			return m, m.setStatus(fmt.Sprintf("Export failed: %v", msg.Err), true)
		}
		m.logger.Info("export finished", "path", msg.Path)
		return m, m.setStatus("Exported to "+msg.Path, false)

	case LiveLoadedMsg:
		if msg.Seq != m.liveSeq {
			return m, nil
		}
		m.liveLoading = false
		if msg.Err != nil {
			m.logger.Error("live query failed", "table", m.pager.Table(), "error", msg.Err)
			m.syncGrid()
			return m, m.setStatus(fmt.Sprintf("Live query failed: %v", msg.Err), true)
		}
		m.live = true
		m.liveRows = msg.Rows
		m.grid.ResetPosition()
		m.syncGrid()
		return m, nil

	case StatusMsg:
		return m, m.setStatus(msg.Text, msg.Error)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.grid.Status = m.gridStatus()
		return m, cmd

	case components.ApplyFilterMsg:
		m.overlay = overlayNone
		return m, m.OnFilterConditionsChanged(msg.Groups)

	case components.CloseFilterBuilderMsg:
		m.overlay = overlayNone
		return m, nil

	case components.ColumnsSelectedMsg:
		m.overlay = overlayNone
		if m.columns.Apply(msg.Visible) {
			m.syncGrid()
		}
		return m, nil

	case components.CloseColumnSelectorMsg:
		m.overlay = overlayNone
		return m, nil

	case components.LiveSubmitMsg:
		m.overlay = overlayNone
		m.liveFields = msg.Fields
		m.liveLoading = true
		m.syncGrid()
		return m, tea.Batch(m.runLive(msg.Fields), m.startSpinner())

	case components.CloseLiveFormMsg:
		m.overlay = overlayNone
		return m, nil

	case components.SearchInputMsg:
		m.overlay = overlayNone
		m.searchInput.Close()
		if msg.Query == m.search || m.pager.Table() == "" {
			return m, nil
		}
		m.search = msg.Query
		return m, m.reload()

	case components.CloseSearchMsg:
		m.overlay = overlayNone
		m.searchInput.Close()
		return m, nil

	case components.TreeNodeSelectedMsg:
		if msg.Node != nil && msg.Node.Type == models.TreeNodeTypeTable {
			return m, m.SelectTable(msg.Node.Label)
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch m.overlay {
	case overlayBuilder:
		m.builder, cmd = m.builder.Update(msg)
		return cmd
	case overlayColumns:
		m.colSelector, cmd = m.colSelector.Update(msg)
		return cmd
	case overlayLive:
		m.liveForm, cmd = m.liveForm.Update(msg)
		return cmd
	case overlaySearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "tab":
		if m.sidebarOpen && m.focus == models.RightPanel {
			m.focus = models.LeftPanel
		} else {
			m.focus = models.RightPanel
		}
		return nil

	case "b":
		m.sidebarOpen = !m.sidebarOpen
		if !m.sidebarOpen {
			m.focus = models.RightPanel
		}
		if m.prefs != nil {
			if err := m.prefs.SetSidebarOpen(m.sidebarOpen); err != nil {
				m.logger.Warn("failed to save preferences", "error", err)
			}
		}
		return nil

	case "esc":
		if m.preview.Visible {
			m.preview.Toggle()
			return nil
		}
		if m.live {
			m.exitLive()
			m.grid.ResetPosition()
			m.syncGrid()
		}
		return nil

	case "backspace":
		return func() tea.Msg { return BackMsg{} }
	}

	if m.focus == models.LeftPanel {
		m.tree, cmd = m.tree.Update(msg)
		return cmd
	}

	if m.pager.Table() == "" {
		return nil
	}

	switch msg.String() {
	case "/":
		if m.live {
			return nil
		}
		m.overlay = overlaySearch
		m.searchInput.Width = min(70, m.width-4)
		m.searchInput.Input.SetValue(m.search)
		return m.searchInput.Open()

	case "[":
		m.tags.Prev()
		return nil

	case "]":
		m.tags.Next()
		return nil

	case "x":
		return m.removeSelectedFilter()

	case "ctrl+r":
		return m.clearFilters()

	case "R":
		if m.live {
			return nil
		}
		cmd := m.pager.Retry()
		if cmd == nil {
			return nil
		}
		m.syncGrid()
		return tea.Batch(cmd, m.startSpinner())

	case "r":
		if m.live && !m.liveLoading {
			m.liveLoading = true
			return tea.Batch(m.runLive(m.liveFields), m.startSpinner())
		}
		return nil

	case "C":
		if m.live || len(m.columns.All()) == 0 {
			return nil
		}
		m.colSelector.Height = m.height - 4
		m.colSelector.Open(m.columns.All(), m.columns.Visible())
		m.overlay = overlayColumns
		return nil

	case "L":
		fields := m.columns.All()
		m.liveForm.Width = min(70, m.width-4)
		m.overlay = overlayLive
		return m.liveForm.Open(fields, m.liveFields)

	case "e":
		return m.export()

	case "E":
		return m.dump("csv")

	case "J":
		return m.dump("json")

	case "ctrl+up":
		m.preview.ScrollUp()
		return nil

	case "ctrl+down":
		m.preview.ScrollDown()
		return nil
	}

	cmd = m.grid.Update(msg, m)
	if m.preview.Visible {
		if field, val, ok := m.grid.SelectedCell(); ok {
			m.preview.SetValue(field, val)
		}
	}
	return cmd
}

func (m *Model) removeSelectedFilter() tea.Cmd {
	if m.live {
		return nil
	}
	if !m.filters.Remove(m.tags.Selected) {
		return nil
	}
	m.syncTags()
	return tea.Batch(m.reload(), m.loadTableInfo())
}

func (m *Model) clearFilters() tea.Cmd {
	if m.live || m.filters.Len() == 0 {
		return nil
	}
	m.filters.Clear()
	m.pager.ResetCursor()
	m.syncTags()
	return tea.Batch(m.reload(), m.loadTableInfo())
}

func (m *Model) export() tea.Cmd {
	if m.live {
		return nil
	}
	if m.exporting {
		return m.setStatus("An export is already running", true)
	}
	if len(m.pager.Rows()) == 0 {
		return m.setStatus("Nothing to export", true)
	}
	m.exporting = true
	m.progress.Start(m.pager.Table())
	return m.startExport()
}

func (m *Model) dump(ext string) tea.Cmd {
	if len(m.grid.Rows) == 0 {
		return m.setStatus("Nothing to export", true)
	}
	return m.dumpBuffer(ext)
}

func (m *Model) setTables(tables []string) {
	m.tables = tables
	root := models.BuildSourceTree([]models.DataSource{{Name: m.database, Tables: tables}})
	m.tree.Root = root
	m.tree.ExpandAll()
	if m.pager.Table() != "" {
		m.tree.SetCursorToNode(models.TableID(m.database, m.pager.Table()))
	}
}

func (m *Model) syncTags() {
	m.tags.SetTags(m.filters.List())
	filtered := make(map[string]bool, m.filters.Len())
	for _, p := range m.filters.List() {
		filtered[p.Field] = true
	}
	m.grid.Filtered = filtered
}

// syncGrid pushes the current rows and columns into the grid
func (m *Model) syncGrid() {
	m.syncTags()

	if m.live {
		m.grid.SetData(rowFields(m.liveRows), m.liveRows, int64(len(m.liveRows)))
		m.grid.Status = m.gridStatus()
		return
	}

	rows := m.pager.Rows()
	fields := m.pager.Fields()
	if len(fields) == 0 {
		fields = rowFields(rows)
	}
	if m.columns.Reset(fields) {
		m.filters.SetFields(fields)
	}

	m.grid.SetData(m.columns.Visible(), rows, m.pager.Total())
	m.grid.Status = m.gridStatus()
}

// rowFields collects the field names present in rows, sorted
func rowFields(rows []models.Row) []string {
	set := map[string]struct{}{}
	for _, row := range rows {
		for k := range row {
			set[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

func (m *Model) busy() bool {
	return m.pager.Cursor().Loading || m.liveLoading
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) gridStatus() string {
	switch {
	case m.liveLoading:
		return m.spinner.View() + " running live query"
	case m.live:
		return "LIVE (r reload, esc leave)"
	case m.pager.Cursor().Loading:
		return m.spinner.View() + " loading"
	case m.pager.Err() != nil:
		return "load failed (R retry)"
	case m.pager.Table() != "" && !m.pager.Cursor().HasMore && len(m.pager.Rows()) > 0:
		return "all rows loaded"
	}
	return ""
}
