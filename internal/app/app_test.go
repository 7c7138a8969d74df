package app_test

import (
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/api"
	"github.com/rebeliceyang/lazygrid/internal/api/apitest"
	"github.com/rebeliceyang/lazygrid/internal/app"
	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/prefs"
	"github.com/rebeliceyang/lazygrid/internal/selector"
	"github.com/rebeliceyang/lazygrid/internal/testutil"
)

type fixture struct {
	srv   *apitest.Server
	app   *app.App
	prefs *prefs.Store
	quit  bool
}

func newFixture(t *testing.T, opts app.Options) *fixture {
	t.Helper()

	srv := apitest.NewServer(t)
	srv.AddTable("net_logs", "flows", &apitest.Table{
		Fields: []string{"src_ip", "dst_ip"},
		Rows:   apitest.GenerateRows(50, "src_ip", "dst_ip"),
	})
	srv.AddTable("audit", "events", &apitest.Table{
		Fields: []string{"actor"},
		Rows:   apitest.GenerateRows(2, "actor"),
	})

	store, err := prefs.NewStore(t.TempDir())
	require.NoError(t, err)

	cfg := config.GetDefaults()
	cfg.Data.ScrollDebounceMs = 0
	cfg.Export.Dir = t.TempDir()

	logger := testutil.NewTestLogger(t)
	opts.Config = cfg
	opts.Prefs = store
	opts.Logger = logger
	opts.Clipboard = func(string) error { return nil }

	f := &fixture{
		srv:   srv,
		app:   app.New(api.NewClient(srv.URL, srv.Client(), logger), opts),
		prefs: store,
	}
	f.send(t, tea.WindowSizeMsg{Width: 140, Height: 40})
	return f
}

// run executes cmd and feeds every resulting message back into the app.
// Commands that only wait on a timer are abandoned after a second.
func (f *fixture) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		out := make(chan tea.Msg, 1)
		go func() { out <- next() }()

		var msg tea.Msg
		select {
		case msg = <-out:
		case <-time.After(time.Second):
			continue
		}

		switch msg := msg.(type) {
		case nil:
			continue
		case tea.QuitMsg:
			f.quit = true
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}

		_, follow := f.app.Update(msg)
		queue = append(queue, follow)
	}
}

func (f *fixture) send(t *testing.T, msg tea.Msg) {
	t.Helper()
	_, cmd := f.app.Update(msg)
	f.run(t, cmd)
}

func (f *fixture) press(t *testing.T, keys ...tea.KeyMsg) {
	t.Helper()
	for _, k := range keys {
		f.send(t, k)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestApp_StartsOnSelector(t *testing.T) {
	f := newFixture(t, app.Options{})
	f.run(t, f.app.Init())

	assert.Equal(t, models.SelectorRoute, f.app.Route())
	assert.Len(t, f.app.Selector().Sources(), 2)
	assert.Nil(t, f.app.Viewer())
	assert.Contains(t, f.app.View(), "net_logs")
}

func TestApp_OpenViewerAndGoBack(t *testing.T) {
	f := newFixture(t, app.Options{})
	f.run(t, f.app.Init())

	f.send(t, selector.OpenViewerMsg{Database: "net_logs", Table: "flows"})

	assert.Equal(t, models.ViewerRoute, f.app.Route())
	require.NotNil(t, f.app.Viewer())
	assert.Equal(t, "flows", f.app.Viewer().Table())
	assert.Len(t, f.app.Viewer().Rows(), 35)

	f.press(t, tea.KeyMsg{Type: tea.KeyBackspace})

	assert.Equal(t, models.SelectorRoute, f.app.Route())
	assert.Nil(t, f.app.Viewer())
	assert.Len(t, f.srv.Requests(apitest.EndpointSources), 1, "catalog is not refetched")
}

func TestApp_SelectorSearchOpensTable(t *testing.T) {
	f := newFixture(t, app.Options{})
	f.run(t, f.app.Init())

	f.press(t, runes("/"), runes("e"), runes("v"), runes("e"), tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, f.app.Viewer())
	assert.Equal(t, "audit", f.app.Viewer().Database())
	assert.Equal(t, "events", f.app.Viewer().Table())
	assert.Len(t, f.app.Viewer().Rows(), 2)
}

func TestApp_StartsInViewerWhenDatabaseGiven(t *testing.T) {
	f := newFixture(t, app.Options{Database: "net_logs", Table: "flows"})
	f.run(t, f.app.Init())

	assert.Equal(t, models.ViewerRoute, f.app.Route())
	assert.Len(t, f.app.Viewer().Rows(), 35)
	assert.Empty(t, f.srv.Requests(apitest.EndpointSources))

	f.press(t, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, models.SelectorRoute, f.app.Route())
	assert.Len(t, f.app.Selector().Sources(), 2, "selector loads on first visit")
}

func TestApp_ThemeTogglePersists(t *testing.T) {
	f := newFixture(t, app.Options{})
	f.run(t, f.app.Init())
	assert.Equal(t, prefs.ThemeDark, f.app.Theme().Name)

	f.press(t, runes("T"))

	assert.Equal(t, prefs.ThemeLight, f.app.Theme().Name)
	data, err := os.ReadFile(f.prefs.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "theme: light")

	f.press(t, runes("T"))
	assert.Equal(t, prefs.ThemeDark, f.app.Theme().Name)
}

func TestApp_HelpOverlay(t *testing.T) {
	f := newFixture(t, app.Options{})
	f.run(t, f.app.Init())

	f.press(t, runes("?"))
	assert.Contains(t, f.app.View(), "Keyboard Shortcuts")

	f.press(t, runes("q"))
	assert.False(t, f.quit, "q leaves help first")
	assert.NotContains(t, f.app.View(), "Keyboard Shortcuts")

	f.press(t, runes("q"))
	assert.True(t, f.quit)
}

func TestApp_QuitKeyTypedIntoSearch(t *testing.T) {
	f := newFixture(t, app.Options{})
	f.run(t, f.app.Init())

	f.press(t, runes("/"), runes("q"))
	assert.False(t, f.quit)

	f.press(t, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, f.quit)
}
