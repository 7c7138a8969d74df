package components

// TreeView renders the source catalog as a collapsible tree of databases
// and their tables.
//
// Keys: ↑↓/jk move, →/l/space expand, ←/h collapse or go to parent,
// g/G jump, enter selects the node under the cursor.
//
// Usage:
//
//	root := models.BuildSourceTree(sources)
//	treeView := components.NewTreeView(root, theme)
//	treeView, cmd := treeView.Update(msg)
//	content := treeView.View()

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/search"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// TreeView represents a visual tree component for displaying hierarchical data
type TreeView struct {
	Root         *models.TreeNode // Root node of the tree
	CursorIndex  int              // Current cursor position in the flattened list
	Width        int              // Display width
	Height       int              // Display height
	Theme        theme.Theme      // Color theme
	ScrollOffset int              // Vertical scroll offset for viewport

	// Query highlights matching label runs
	Query string
	// ActiveID marks the node currently open in the viewer
	ActiveID string
	// EmptyText is shown when there is nothing to list
	EmptyText string
}

// TreeNodeSelectedMsg is sent when a node is selected (Enter key)
type TreeNodeSelectedMsg struct {
	Node *models.TreeNode
}

// TreeNodeExpandedMsg is sent when a node is expanded/collapsed
type TreeNodeExpandedMsg struct {
	Node     *models.TreeNode
	Expanded bool // true if expanded, false if collapsed
}

// NewTreeView creates a new tree view component
func NewTreeView(root *models.TreeNode, th theme.Theme) *TreeView {
	return &TreeView{
		Root:      root,
		Width:     40,
		Height:    20,
		Theme:     th,
		EmptyText: "No sources available",
	}
}

// View renders the tree as a string
func (tv *TreeView) View() string {
	if tv.Root == nil {
		return tv.emptyState()
	}

	visibleNodes := tv.Root.Flatten()
	if len(visibleNodes) == 0 {
		return tv.emptyState()
	}

	// Ensure cursor is within bounds
	if tv.CursorIndex < 0 {
		tv.CursorIndex = 0
	}
	if tv.CursorIndex >= len(visibleNodes) {
		tv.CursorIndex = len(visibleNodes) - 1
	}

	viewHeight := tv.Height
	if viewHeight < 1 {
		viewHeight = 1
	}

	tv.adjustScrollOffset(len(visibleNodes), viewHeight)

	startIdx := tv.ScrollOffset
	endIdx := tv.ScrollOffset + viewHeight
	if endIdx > len(visibleNodes) {
		endIdx = len(visibleNodes)
	}

	var lines []string
	for i := startIdx; i < endIdx; i++ {
		lines = append(lines, tv.renderNode(visibleNodes[i], i == tv.CursorIndex))
	}

	// Scroll markers never cover the cursor row
	if startIdx > 0 && startIdx != tv.CursorIndex && len(lines) > 1 {
		lines[0] = tv.scrollMarker("↑")
	}
	if endIdx < len(visibleNodes) && endIdx-1 != tv.CursorIndex && len(lines) > 1 {
		lines[len(lines)-1] = tv.scrollMarker("↓")
	}

	return strings.Join(lines, "\n")
}

// Update handles keyboard input for tree navigation
func (tv *TreeView) Update(msg tea.KeyMsg) (*TreeView, tea.Cmd) {
	if tv.Root == nil {
		return tv, nil
	}

	visibleNodes := tv.Root.Flatten()
	if len(visibleNodes) == 0 {
		return tv, nil
	}
	if tv.CursorIndex >= len(visibleNodes) {
		tv.CursorIndex = len(visibleNodes) - 1
	}

	var cmd tea.Cmd
	currentNode := visibleNodes[tv.CursorIndex]

	switch msg.String() {
	case "up", "k":
		if tv.CursorIndex > 0 {
			tv.CursorIndex--
		}

	case "down", "j":
		if tv.CursorIndex < len(visibleNodes)-1 {
			tv.CursorIndex++
		}

	case "g":
		tv.CursorIndex = 0
		tv.ScrollOffset = 0

	case "G":
		tv.CursorIndex = len(visibleNodes) - 1

	case "right", "l", " ":
		wasExpanded := currentNode.Expanded
		currentNode.Toggle()
		if currentNode.Expanded != wasExpanded {
			cmd = expandedCmd(currentNode)
		}

	case "left", "h":
		if currentNode.Expanded {
			currentNode.Toggle()
			cmd = expandedCmd(currentNode)
		} else if currentNode.Parent != nil && currentNode.Parent.Type != models.TreeNodeTypeRoot {
			if parentIndex := tv.findNodeIndex(visibleNodes, currentNode.Parent); parentIndex >= 0 {
				tv.CursorIndex = parentIndex
			}
		}

	case "enter":
		cmd = func() tea.Msg {
			return TreeNodeSelectedMsg{Node: currentNode}
		}
	}

	return tv, cmd
}

func expandedCmd(node *models.TreeNode) tea.Cmd {
	expanded := node.Expanded
	return func() tea.Msg {
		return TreeNodeExpandedMsg{Node: node, Expanded: expanded}
	}
}

// ExpandAll expands every database node
func (tv *TreeView) ExpandAll() {
	if tv.Root == nil {
		return
	}
	for _, child := range tv.Root.Children {
		if len(child.Children) > 0 {
			child.Expanded = true
		}
	}
}

// renderNode renders a single tree node with appropriate styling
func (tv *TreeView) renderNode(node *models.TreeNode, selected bool) string {
	// Root is not rendered, so its children sit at depth 0
	depth := node.GetDepth() - 1
	if depth < 0 {
		depth = 0
	}
	indent := strings.Repeat("  ", depth)

	maxWidth := tv.Width - 2
	if maxWidth < 4 {
		maxWidth = 4
	}

	prefix := indent + tv.getNodeIcon(node) + " "
	label := runewidth.Truncate(node.Label, maxWidth-runewidth.StringWidth(prefix), "…")
	suffix := tv.nodeSuffix(node)

	base := lipgloss.NewStyle().Foreground(tv.Theme.Foreground)
	if node.ID == tv.ActiveID {
		base = base.Foreground(tv.Theme.Success).Bold(true)
	}
	if selected {
		base = base.Background(tv.Theme.Selection).Bold(true)
	}
	match := base.Foreground(tv.Theme.Highlight).Underline(true)

	iconColor := tv.Theme.DatabaseIcon
	if node.Type == models.TreeNodeTypeTable {
		iconColor = tv.Theme.TableIcon
	}
	if node.ID == tv.ActiveID {
		iconColor = tv.Theme.Success
	}

	var b strings.Builder
	b.WriteString(base.Render(indent))
	b.WriteString(base.Foreground(iconColor).Render(tv.getNodeIcon(node)))
	b.WriteString(base.Render(" "))
	for _, seg := range search.Highlight(label, tv.Query) {
		if seg.Matched {
			b.WriteString(match.Render(seg.Text))
		} else {
			b.WriteString(base.Render(seg.Text))
		}
	}
	if suffix != "" && runewidth.StringWidth(prefix+label+suffix) <= maxWidth {
		b.WriteString(base.Foreground(tv.Theme.Muted).Render(suffix))
	}

	line := b.String()
	if selected {
		if pad := maxWidth - lipgloss.Width(line); pad > 0 {
			line += base.Render(strings.Repeat(" ", pad))
		}
	}
	return line
}

// getNodeIcon returns the appropriate icon for a node
func (tv *TreeView) getNodeIcon(node *models.TreeNode) string {
	if node.Type == models.TreeNodeTypeTable {
		if node.ID == tv.ActiveID {
			return "●"
		}
		return "•"
	}
	if node.Expanded {
		return "▾"
	}
	return "▸"
}

// nodeSuffix returns trailing metadata for a node
func (tv *TreeView) nodeSuffix(node *models.TreeNode) string {
	if node.Type != models.TreeNodeTypeDatabase {
		return ""
	}
	if len(node.Children) == 0 {
		return " (empty)"
	}
	return fmt.Sprintf(" (%d)", len(node.Children))
}

// adjustScrollOffset adjusts the scroll offset to keep the cursor visible
func (tv *TreeView) adjustScrollOffset(totalNodes, viewHeight int) {
	if tv.CursorIndex < tv.ScrollOffset {
		tv.ScrollOffset = tv.CursorIndex
	}
	if tv.CursorIndex >= tv.ScrollOffset+viewHeight {
		tv.ScrollOffset = tv.CursorIndex - viewHeight + 1
	}

	if tv.ScrollOffset < 0 {
		tv.ScrollOffset = 0
	}
	maxScroll := totalNodes - viewHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if tv.ScrollOffset > maxScroll {
		tv.ScrollOffset = maxScroll
	}
}

func (tv *TreeView) scrollMarker(arrow string) string {
	return lipgloss.NewStyle().Foreground(tv.Theme.Info).Render(arrow + " more")
}

// emptyState returns the empty state view
func (tv *TreeView) emptyState() string {
	style := lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Width(tv.Width - 2).
		Align(lipgloss.Center)

	return style.Render(tv.EmptyText)
}

// findNodeIndex finds the index of a node in the flattened list
func (tv *TreeView) findNodeIndex(nodes []*models.TreeNode, target *models.TreeNode) int {
	for i, node := range nodes {
		if node == target {
			return i
		}
	}
	return -1
}

// GetCurrentNode returns the currently selected node
func (tv *TreeView) GetCurrentNode() *models.TreeNode {
	if tv.Root == nil {
		return nil
	}

	visibleNodes := tv.Root.Flatten()
	if tv.CursorIndex < 0 || tv.CursorIndex >= len(visibleNodes) {
		return nil
	}

	return visibleNodes[tv.CursorIndex]
}

// SetCursorToNode sets the cursor to a specific node (by ID)
func (tv *TreeView) SetCursorToNode(nodeID string) bool {
	if tv.Root == nil {
		return false
	}

	for i, node := range tv.Root.Flatten() {
		if node.ID == nodeID {
			tv.CursorIndex = i
			return true
		}
	}

	return false
}
