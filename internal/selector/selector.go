// Package selector is the source selector screen: the backend's catalog of
// databases and tables with a search box that suggests matches as you type.
package selector

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/search"
	"github.com/rebeliceyang/lazygrid/internal/ui/components"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// Catalog lists the backend's sources
type Catalog interface {
	ListSources(ctx context.Context) ([]models.DataSource, error)
}

// CatalogLoadedMsg is sent when the source catalog fetch finishes
type CatalogLoadedMsg struct {
	Sources []models.DataSource
	Err     error
}

// OpenViewerMsg asks the app to open the viewer on Database, with Table
// preselected when set
type OpenViewerMsg struct {
	Database string
	Table    string
}

// Model is the selector screen
type Model struct {
	catalog Catalog
	cfg     *config.Config
	logger  *slog.Logger
	theme   theme.Theme

	sources []models.DataSource
	loading bool
	loadSeq uint64

	searching   bool
	suggestions []models.Suggestion
	suggestIdx  int

	showError    bool
	errorOverlay *components.ErrorOverlay
	searchInput  *components.SearchInput
	tree         *components.TreeView
	spinner      spinner.Model

	width  int
	height int
}

// New creates the selector
func New(catalog Catalog, cfg *config.Config, logger *slog.Logger, th theme.Theme) *Model {
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	input := components.NewSearchInput(th, "Search:", "database or table, db: and t: narrow it")
	input.Help = "↑↓ choose │ Enter: open │ Esc: clear"

	m := &Model{
		catalog:      catalog,
		cfg:          cfg,
		logger:       logger.With("component", "selector"),
		theme:        th,
		errorOverlay: components.NewErrorOverlay(th),
		searchInput:  input,
		tree:         components.NewTreeView(nil, th),
		spinner:      sp,
		width:        80,
		height:       24,
	}
	m.rebuildTree()
	return m
}

// Init starts loading the catalog
func (m *Model) Init() tea.Cmd {
	return m.reload()
}

// Sources returns the loaded catalog
func (m *Model) Sources() []models.DataSource { return m.sources }

// Loading reports whether the catalog fetch is in flight
func (m *Model) Loading() bool { return m.loading }

// Suggestions returns the current search suggestions
func (m *Model) Suggestions() []models.Suggestion { return m.suggestions }

// ErrorShown reports whether the catalog error overlay is up
func (m *Model) ErrorShown() bool { return m.showError }

// Capturing reports whether the search box or error overlay owns the keyboard
func (m *Model) Capturing() bool { return m.searching || m.showError }

// SetSize updates the screen size
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetTheme switches every component to th
func (m *Model) SetTheme(th theme.Theme) {
	m.theme = th
	m.errorOverlay.Theme = th
	m.searchInput.Theme = th
	m.tree.Theme = th
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	m.loadSeq++
	seq := m.loadSeq
	catalog := m.catalog
	timeout := m.cfg.RequestTimeout()

	load := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		sources, err := catalog.ListSources(ctx)
		return catalogResult{seq: seq, msg: CatalogLoadedMsg{Sources: sources, Err: err}}
	}
	return tea.Batch(load, m.spinner.Tick)
}

// catalogResult tags a catalog response with the request it answers
type catalogResult struct {
	seq uint64
	msg CatalogLoadedMsg
}

// Update handles messages for the selector
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case catalogResult:
		if msg.seq != m.loadSeq {
			return m, nil
		}
		return m.Update(msg.msg)

	case CatalogLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.logger.Error("failed to load sources", "error", msg.Err)
			m.sources = nil
			m.errorOverlay.SetError("Backend Error", fmt.Sprintf("Failed to load sources:\n\n%v", msg.Err))
			m.showError = true
		} else {
			m.logger.Info("sources loaded", "count", len(msg.Sources))
			m.sources = msg.Sources
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.TreeNodeSelectedMsg:
		return m, m.openNode(msg.Node)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.showError {
		switch msg.String() {
		case "esc", "enter":
			m.showError = false
		}
		return nil
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "/":
		m.searching = true
		return m.searchInput.Open()
	case "r":
		if m.loading {
			return nil
		}
		return m.reload()
	}

	var cmd tea.Cmd
	m.tree, cmd = m.tree.Update(msg)
	return cmd
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searchInput.Close()
		m.searchInput.Reset()
		m.refresh()
		return nil

	case "enter":
		if len(m.suggestions) > 0 {
			return m.openSuggestion(m.suggestions[m.suggestIdx])
		}
		// Keep the narrowed tree and hand the keyboard back to it
		m.searching = false
		m.searchInput.Close()
		return nil

	case "up", "ctrl+p":
		if m.suggestIdx > 0 {
			m.suggestIdx--
		}
		return nil

	case "down", "ctrl+n", "tab":
		if m.suggestIdx < len(m.suggestions)-1 {
			m.suggestIdx++
		}
		return nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput.Input, cmd = m.searchInput.Input.Update(msg)
	if m.searchInput.Value() != before {
		m.refresh()
	}
	return cmd
}

// refresh recomputes suggestions and the narrowed tree from the query
func (m *Model) refresh() {
	query := m.searchInput.Value()
	m.suggestions = search.Match(query, m.sources)
	m.suggestIdx = 0
	m.rebuildTree()
}

func (m *Model) rebuildTree() {
	query := m.searchInput.Value()
	m.tree.Root = models.BuildSourceTree(search.FilterSources(query, m.sources))
	m.tree.Query = query
	m.tree.CursorIndex = 0
	m.tree.ScrollOffset = 0
	if search.ParseQuery(query).Pattern != "" {
		m.tree.ExpandAll()
	}
}

func (m *Model) openSuggestion(s models.Suggestion) tea.Cmd {
	if s.Type == models.SuggestionTable {
		return open(s.Database, s.Name)
	}
	return open(s.Name, "")
}

func (m *Model) openNode(node *models.TreeNode) tea.Cmd {
	if node == nil {
		return nil
	}
	switch node.Type {
	case models.TreeNodeTypeDatabase:
		return open(node.Label, "")
	case models.TreeNodeTypeTable:
		return open(models.GetDatabaseFromNode(node), node.Label)
	}
	return nil
}

func open(database, table string) tea.Cmd {
	return func() tea.Msg {
		return OpenViewerMsg{Database: database, Table: table}
	}
}
