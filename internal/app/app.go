// Package app routes between the source selector and the table viewer and
// owns the global keys: help, theme and quit.
package app

import (
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/prefs"
	"github.com/rebeliceyang/lazygrid/internal/selector"
	"github.com/rebeliceyang/lazygrid/internal/ui/components"
	"github.com/rebeliceyang/lazygrid/internal/ui/help"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
	"github.com/rebeliceyang/lazygrid/internal/viewer"
)

// Backend is everything the screens need from the API client
type Backend interface {
	viewer.Backend
	selector.Catalog
}

// Options configures the application
type Options struct {
	Config *config.Config
	Prefs  *prefs.Store
	Logger *slog.Logger

	// Database and Table open the viewer directly instead of the selector
	Database string
	Table    string

	// Clipboard overrides the system clipboard, mainly for tests
	Clipboard func(string) error
}

// App is the main application model
type App struct {
	state   models.AppState
	backend Backend
	config  *config.Config
	prefs   *prefs.Store
	logger  *slog.Logger
	theme   theme.Theme

	clipboard func(string) error

	selector        *selector.Model
	selectorStarted bool
	viewer          *viewer.Model
}

// New creates a new App instance
func New(backend Backend, opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	themeName := prefs.ThemeDark
	if opts.Prefs != nil {
		themeName = opts.Prefs.Get().Theme
	}
	th := theme.GetTheme(themeName)

	state := models.NewAppState()
	state.CurrentDatabase = opts.Database
	state.InitialTable = opts.Table

	return &App{
		state:     state,
		backend:   backend,
		config:    cfg,
		prefs:     opts.Prefs,
		logger:    logger,
		theme:     th,
		clipboard: opts.Clipboard,
		selector:  selector.New(backend, cfg, logger, th),
	}
}

// Route returns the screen currently shown
func (a *App) Route() models.Route { return a.state.Route }

// Theme returns the active theme
func (a *App) Theme() theme.Theme { return a.theme }

// Viewer returns the open viewer, or nil on the selector
func (a *App) Viewer() *viewer.Model { return a.viewer }

// Selector returns the selector screen
func (a *App) Selector() *selector.Model { return a.selector }

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if a.state.CurrentDatabase != "" {
		return a.openViewer(a.state.CurrentDatabase, a.state.InitialTable)
	}
	return a.startSelector()
}

func (a *App) startSelector() tea.Cmd {
	if a.selectorStarted {
		return nil
	}
	a.selectorStarted = true
	return a.selector.Init()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.selector.SetSize(msg.Width, msg.Height)
		if a.viewer != nil {
			a.viewer.SetSize(msg.Width, msg.Height)
		}
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case selector.OpenViewerMsg:
		return a, a.openViewer(msg.Database, msg.Table)

	case viewer.BackMsg:
		a.closeViewer()
		a.state.Route = models.SelectorRoute
		return a, a.startSelector()
	}

	return a, a.forward(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if a.state.ViewMode == models.HelpMode {
		switch msg.String() {
		case "?", "esc", "q":
			a.state.ViewMode = models.NormalMode
		case "ctrl+c":
			return tea.Quit
		}
		return nil
	}

	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	if !a.capturing() {
		switch msg.String() {
		case "q":
			return tea.Quit
		case "?":
			a.state.ViewMode = models.HelpMode
			return nil
		case "T":
			a.toggleTheme()
			return nil
		}
	}

	return a.forward(msg)
}

// forward sends msg to the screen on show. Results that are not input also
// reach a hidden selector so a catalog reload finishing late is not lost.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd

	if a.state.Route == models.ViewerRoute && a.viewer != nil {
		var cmd tea.Cmd
		a.viewer, cmd = a.viewer.Update(msg)
		cmds = append(cmds, cmd)
	}

	if a.state.Route == models.SelectorRoute || isBackground(msg) {
		var cmd tea.Cmd
		a.selector, cmd = a.selector.Update(msg)
		cmds = append(cmds, cmd)
	}

	return tea.Batch(cmds...)
}

// isBackground reports messages that are not tied to the visible screen
func isBackground(msg tea.Msg) bool {
	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg, components.TreeNodeSelectedMsg:
		return false
	}
	return true
}

func (a *App) capturing() bool {
	if a.state.Route == models.ViewerRoute && a.viewer != nil {
		return a.viewer.Capturing()
	}
	return a.selector.Capturing()
}

func (a *App) openViewer(database, table string) tea.Cmd {
	a.closeViewer()

	a.logger.Info("opening viewer", "database", database, "table", table)
	a.state.CurrentDatabase = database
	a.state.InitialTable = table
	a.state.Route = models.ViewerRoute

	a.viewer = viewer.New(a.backend, database, viewer.Options{
		Config:    a.config,
		Prefs:     a.prefs,
		Logger:    a.logger,
		Theme:     a.theme,
		Clipboard: a.clipboard,
	})
	if a.state.Width > 0 && a.state.Height > 0 {
		a.viewer.SetSize(a.state.Width, a.state.Height)
	}
	return a.viewer.Init(table)
}

func (a *App) closeViewer() {
	if a.viewer == nil {
		return
	}
	a.viewer.Close()
	a.viewer = nil
}

func (a *App) toggleTheme() {
	name := prefs.ThemeLight
	if a.theme.Name == prefs.ThemeLight {
		name = prefs.ThemeDark
	}
	if a.prefs != nil {
		saved, err := a.prefs.ToggleTheme()
		if err != nil {
			a.logger.Error("failed to save theme", "error", err)
		}
		name = saved
	}

	a.theme = theme.GetTheme(name)
	a.selector.SetTheme(a.theme)
	if a.viewer != nil {
		a.viewer.SetTheme(a.theme)
	}
	a.logger.Info("theme changed", "theme", name)
}

// View implements tea.Model
func (a *App) View() string {
	if a.state.ViewMode == models.HelpMode {
		return lipgloss.Place(
			a.state.Width, a.state.Height,
			lipgloss.Center, lipgloss.Center,
			help.Render(a.state.Width, a.state.Height, a.theme),
		)
	}

	if a.state.Route == models.ViewerRoute && a.viewer != nil {
		return a.viewer.View()
	}
	return a.selector.View()
}
