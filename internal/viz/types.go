// Package viz renders story graphs as Cytoscape.js pages and plain-text lists.
package viz

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes  []Node   `json:"nodes"`
	Edges  []Edge   `json:"edges"`
	Owners []string `json:"owners"` // first-encounter order, as assembled
}

// Node is the origin or one chapter.
type Node struct {
	ID     string `json:"id"`
	Owner  string `json:"owner"`
	Origin bool   `json:"origin,omitempty"`

	// Display
	Label string `json:"label"`
	Color string `json:"color"`

	// Tooltip fields
	Title    string `json:"title,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Edge links a chapter to the next one in its owner's chain. Edges leaving the
// origin belong to the owner of their target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Owner  string `json:"owner"`
}

// IsEmpty returns true if the graph has no chapters, only the origin.
func (g *GraphData) IsEmpty() bool {
	for _, n := range g.Nodes {
		if !n.Origin {
			return false
		}
	}
	return true
}
