package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

func testSources() []models.DataSource {
	return []models.DataSource{
		{Name: "net_logs", Tables: []string{"flows", "dns"}},
		{Name: "metrics", Tables: []string{"cpu"}},
		{Name: "archive"},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+f":
		return tea.KeyMsg{Type: tea.KeyCtrlF}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewTreeView(t *testing.T) {
	root := models.NewTreeNode("root", models.TreeNodeTypeRoot, "Sources")
	tv := NewTreeView(root, theme.DarkTheme())

	if tv.Root != root {
		t.Error("Root not set correctly")
	}
	if tv.CursorIndex != 0 {
		t.Errorf("Expected initial cursor index 0, got %d", tv.CursorIndex)
	}
	if tv.ScrollOffset != 0 {
		t.Errorf("Expected initial scroll offset 0, got %d", tv.ScrollOffset)
	}
}

func TestTreeView_EmptyState(t *testing.T) {
	tv := NewTreeView(nil, theme.DarkTheme())
	tv.Width = 40
	tv.Height = 20

	if view := tv.View(); !strings.Contains(view, "No sources available") {
		t.Error("Expected empty state message for nil root")
	}

	tv.Root = models.BuildSourceTree(nil)
	if view := tv.View(); !strings.Contains(view, "No sources available") {
		t.Error("Expected empty state message for empty catalog")
	}
}

func TestTreeView_NavigationUpDown(t *testing.T) {
	tv := NewTreeView(models.BuildSourceTree(testSources()), theme.DarkTheme())

	tv, _ = tv.Update(keyMsg("down"))
	if tv.CursorIndex != 1 {
		t.Errorf("Expected cursor 1 after down, got %d", tv.CursorIndex)
	}

	tv, _ = tv.Update(keyMsg("j"))
	tv, _ = tv.Update(keyMsg("j"))
	if tv.CursorIndex != 2 {
		t.Errorf("Expected cursor to stop at last node 2, got %d", tv.CursorIndex)
	}

	tv, _ = tv.Update(keyMsg("k"))
	tv, _ = tv.Update(keyMsg("up"))
	tv, _ = tv.Update(keyMsg("up"))
	if tv.CursorIndex != 0 {
		t.Errorf("Expected cursor to stop at 0, got %d", tv.CursorIndex)
	}
}

func TestTreeView_NavigationJump(t *testing.T) {
	tv := NewTreeView(models.BuildSourceTree(testSources()), theme.DarkTheme())

	tv, _ = tv.Update(keyMsg("G"))
	if tv.CursorIndex != 2 {
		t.Errorf("Expected cursor at bottom (2), got %d", tv.CursorIndex)
	}

	tv, _ = tv.Update(keyMsg("g"))
	if tv.CursorIndex != 0 {
		t.Errorf("Expected cursor at top (0), got %d", tv.CursorIndex)
	}
}

func TestTreeView_ExpandCollapse(t *testing.T) {
	root := models.BuildSourceTree(testSources())
	tv := NewTreeView(root, theme.DarkTheme())

	tv, cmd := tv.Update(keyMsg("l"))
	netLogs := root.FindByID(models.DatabaseID("net_logs"))
	if !netLogs.Expanded {
		t.Fatal("Expected net_logs to expand")
	}
	if cmd == nil {
		t.Fatal("Expected expand command")
	}
	if msg, ok := cmd().(TreeNodeExpandedMsg); !ok || !msg.Expanded {
		t.Errorf("Expected TreeNodeExpandedMsg{Expanded: true}, got %#v", msg)
	}
	if got := len(root.Flatten()); got != 5 {
		t.Errorf("Expected 5 visible nodes after expand, got %d", got)
	}

	// Move onto a table, then left goes back to the database
	tv, _ = tv.Update(keyMsg("j"))
	if node := tv.GetCurrentNode(); node.Type != models.TreeNodeTypeTable {
		t.Fatalf("Expected table node, got %s", node.Type)
	}
	tv, _ = tv.Update(keyMsg("h"))
	if node := tv.GetCurrentNode(); node.ID != models.DatabaseID("net_logs") {
		t.Errorf("Expected cursor on parent database, got %s", node.ID)
	}

	tv, cmd = tv.Update(keyMsg("h"))
	if netLogs.Expanded {
		t.Error("Expected net_logs to collapse")
	}
	if msg, ok := cmd().(TreeNodeExpandedMsg); !ok || msg.Expanded {
		t.Errorf("Expected TreeNodeExpandedMsg{Expanded: false}, got %#v", msg)
	}
}

func TestTreeView_EmptyDatabaseDoesNotExpand(t *testing.T) {
	root := models.BuildSourceTree(testSources())
	tv := NewTreeView(root, theme.DarkTheme())
	tv.CursorIndex = 2

	_, cmd := tv.Update(keyMsg("l"))
	if cmd != nil {
		t.Error("Expected no command for a database without tables")
	}
	if root.FindByID(models.DatabaseID("archive")).Expanded {
		t.Error("Expected empty database to stay collapsed")
	}
}

func TestTreeView_SelectNode(t *testing.T) {
	tv := NewTreeView(models.BuildSourceTree(testSources()), theme.DarkTheme())
	tv.ExpandAll()
	tv.SetCursorToNode(models.TableID("net_logs", "dns"))

	_, cmd := tv.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("Expected select command")
	}
	msg, ok := cmd().(TreeNodeSelectedMsg)
	if !ok {
		t.Fatalf("Expected TreeNodeSelectedMsg, got %T", cmd())
	}
	if msg.Node.Label != "dns" || models.GetDatabaseFromNode(msg.Node) != "net_logs" {
		t.Errorf("Unexpected selection %s", msg.Node.ID)
	}
}

func TestTreeView_GetNodeIcon(t *testing.T) {
	tv := NewTreeView(nil, theme.DarkTheme())

	db := models.NewTreeNode("db:x", models.TreeNodeTypeDatabase, "x")
	if icon := tv.getNodeIcon(db); icon != "▸" {
		t.Errorf("Expected collapsed icon, got %s", icon)
	}
	db.Expanded = true
	if icon := tv.getNodeIcon(db); icon != "▾" {
		t.Errorf("Expected expanded icon, got %s", icon)
	}

	table := models.NewTreeNode(models.TableID("x", "t"), models.TreeNodeTypeTable, "t")
	if icon := tv.getNodeIcon(table); icon != "•" {
		t.Errorf("Expected leaf icon, got %s", icon)
	}
	tv.ActiveID = table.ID
	if icon := tv.getNodeIcon(table); icon != "●" {
		t.Errorf("Expected active icon, got %s", icon)
	}
}

func TestTreeView_SetCursorToNode(t *testing.T) {
	tv := NewTreeView(models.BuildSourceTree(testSources()), theme.DarkTheme())

	if !tv.SetCursorToNode(models.DatabaseID("metrics")) {
		t.Fatal("Expected to find metrics")
	}
	if tv.CursorIndex != 1 {
		t.Errorf("Expected cursor 1, got %d", tv.CursorIndex)
	}

	// Collapsed tables are not visible
	if tv.SetCursorToNode(models.TableID("metrics", "cpu")) {
		t.Error("Expected hidden node to be unreachable")
	}
}

func TestTreeView_ViewportScrolling(t *testing.T) {
	var sources []models.DataSource
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		sources = append(sources, models.DataSource{Name: "db_" + name})
	}
	tv := NewTreeView(models.BuildSourceTree(sources), theme.DarkTheme())
	tv.Width = 30
	tv.Height = 3

	tv.CursorIndex = 6
	view := tv.View()
	if tv.ScrollOffset != 4 {
		t.Errorf("Expected scroll offset 4, got %d", tv.ScrollOffset)
	}
	if !strings.Contains(view, "db_g") {
		t.Error("Expected cursor row to be rendered")
	}
	if !strings.Contains(view, "more") {
		t.Error("Expected scroll indicators")
	}
}

func TestTreeView_RendersCountsAndMatches(t *testing.T) {
	tv := NewTreeView(models.BuildSourceTree(testSources()), theme.DarkTheme())
	tv.Width = 40
	tv.Height = 10
	tv.Query = "log"

	view := tv.View()
	if !strings.Contains(view, "(2)") {
		t.Error("Expected table count for net_logs")
	}
	if !strings.Contains(view, "(empty)") {
		t.Error("Expected empty marker for archive")
	}
	if !strings.Contains(view, "log") {
		t.Error("Expected highlighted run to be rendered")
	}
}
