package models

import (
	"fmt"
	"strings"
)

// TreeNodeType represents the type of tree node
type TreeNodeType string

const (
	TreeNodeTypeRoot     TreeNodeType = "root"
	TreeNodeTypeDatabase TreeNodeType = "database"
	TreeNodeTypeTable    TreeNodeType = "table"
)

// TreeNode represents a node in the source catalog tree
type TreeNode struct {
	ID       string       // e.g. "db:net_logs", "table:net_logs.flows"
	Type     TreeNodeType // Type of node
	Label    string       // Display text
	Parent   *TreeNode    // Parent node (nil for root)
	Children []*TreeNode  // Child nodes
	Expanded bool         // Whether node is expanded
}

// NewTreeNode creates a new tree node
func NewTreeNode(id string, nodeType TreeNodeType, label string) *TreeNode {
	return &TreeNode{
		ID:       id,
		Type:     nodeType,
		Label:    label,
		Children: make([]*TreeNode, 0),
	}
}

// AddChild adds a child node to this node
func (n *TreeNode) AddChild(child *TreeNode) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Toggle toggles the expanded state of the node. Tables are leaves.
func (n *TreeNode) Toggle() {
	if n.Type == TreeNodeTypeTable {
		return
	}
	if len(n.Children) > 0 {
		n.Expanded = !n.Expanded
	}
}

// Flatten returns a flat list of visible nodes for rendering
func (n *TreeNode) Flatten() []*TreeNode {
	result := make([]*TreeNode, 0)

	// Root is just a container
	if n.Type != TreeNodeTypeRoot {
		result = append(result, n)
	}

	if n.Expanded || n.Type == TreeNodeTypeRoot {
		for _, child := range n.Children {
			result = append(result, child.Flatten()...)
		}
	}

	return result
}

// FindByID finds a node by ID in the tree (depth-first search)
func (n *TreeNode) FindByID(id string) *TreeNode {
	if n.ID == id {
		return n
	}

	for _, child := range n.Children {
		if found := child.FindByID(id); found != nil {
			return found
		}
	}

	return nil
}

// GetDepth returns the depth of this node in the tree (root = 0)
func (n *TreeNode) GetDepth() int {
	depth := 0
	for current := n.Parent; current != nil; current = current.Parent {
		depth++
	}
	return depth
}

// DatabaseID returns the node ID of a database
func DatabaseID(database string) string {
	return fmt.Sprintf("db:%s", database)
}

// TableID returns the node ID of a table
func TableID(database, table string) string {
	return fmt.Sprintf("table:%s.%s", database, table)
}

// BuildSourceTree builds the selector tree from the source catalog.
// Databases start collapsed; their tables are known up front.
func BuildSourceTree(sources []DataSource) *TreeNode {
	root := NewTreeNode("root", TreeNodeTypeRoot, "Sources")
	root.Expanded = true

	for _, src := range sources {
		dbNode := NewTreeNode(DatabaseID(src.Name), TreeNodeTypeDatabase, src.Name)
		for _, table := range src.Tables {
			dbNode.AddChild(NewTreeNode(TableID(src.Name, table), TreeNodeTypeTable, table))
		}
		root.AddChild(dbNode)
	}

	return root
}

// ParseNodeID parses a node ID and returns its components
// For example: "table:net_logs.flows" -> ("table", ["net_logs", "flows"])
func ParseNodeID(id string) (nodeType string, components []string) {
	parts := strings.SplitN(id, ":", 2)
	if len(parts) != 2 {
		return "", nil
	}

	nodeType = parts[0]
	components = strings.SplitN(parts[1], ".", 2)
	return nodeType, components
}

// GetDatabaseFromNode returns the database name for any node in the tree
func GetDatabaseFromNode(node *TreeNode) string {
	for current := node; current != nil; current = current.Parent {
		if current.Type == TreeNodeTypeDatabase {
			return current.Label
		}
	}
	return ""
}
