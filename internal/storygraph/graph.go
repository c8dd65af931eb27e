// Package storygraph assembles chapters from many owners into one directed graph
// rooted at a fixed origin node.
package storygraph

import (
	"errors"
	"fmt"

	"github.com/storymap/storymap/internal/chapter"
)

// Origin node identity. Every owner's chain hangs off this node.
const (
	OriginID    = "0"
	OriginOwner = "system"
	OriginTitle = "Origin"
)

// Assembly errors other than chapter.OrderingKeyError.
var (
	ErrReservedID  = errors.New("chapter id is reserved for the origin node")
	ErrDuplicateID = errors.New("duplicate chapter id")
)

// Graph is the assembled structure for one visualization pass.
type Graph struct {
	Nodes []chapter.Chapter `json:"nodes"`
	Edges []Edge            `json:"edges"`
}

// Edge is a directed link from one chapter to the next.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Origin returns the synthetic root chapter. Each call returns a fresh value.
func Origin() chapter.Chapter {
	return chapter.Chapter{
		ID:    OriginID,
		Owner: OriginOwner,
		Title: OriginTitle,
	}
}

// Assemble builds the story graph from an unordered collection of persisted chapters
// (all owners mixed, origin excluded).
//
// Owners are visited in the order they are first seen in the input. For each owner
// the graph gets an edge from the origin to the owner's lowest-keyed chapter and an
// edge between every consecutive pair of that owner's chapters. Any chapter without
// an ordering key aborts assembly: a partial graph is never returned.
func Assemble(chapters []chapter.Chapter) (*Graph, error) {
	if err := checkIDs(chapters); err != nil {
		return nil, err
	}

	owners, groups := chapter.GroupByOwner(chapters)

	ordered := make(map[string][]chapter.Chapter, len(owners))
	for _, owner := range owners {
		seq, err := chapter.Order(groups[owner])
		if err != nil {
			return nil, fmt.Errorf("ordering chapters of %q: %w", owner, err)
		}
		ordered[owner] = seq
	}

	g := &Graph{
		Nodes: make([]chapter.Chapter, 0, len(chapters)+1),
		Edges: make([]Edge, 0, len(chapters)),
	}
	g.Nodes = append(g.Nodes, Origin())

	for _, owner := range owners {
		seq := ordered[owner]
		g.Edges = append(g.Edges, Edge{Source: OriginID, Target: seq[0].ID})
		for i, c := range seq {
			g.Nodes = append(g.Nodes, c)
			if i > 0 {
				g.Edges = append(g.Edges, Edge{Source: seq[i-1].ID, Target: c.ID})
			}
		}
	}

	return g, nil
}

// checkIDs rejects ids that would collide with the origin or with each other.
func checkIDs(chapters []chapter.Chapter) error {
	seen := make(map[string]bool, len(chapters))
	for _, c := range chapters {
		if c.ID == OriginID {
			return fmt.Errorf("%w: %q (owner %q, filename %q)", ErrReservedID, c.ID, c.Owner, c.Filename)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateID, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// Owners returns the owners present in the graph in edge order, origin excluded.
func (g *Graph) Owners() []string {
	var owners []string
	byID := g.nodesByID()
	for _, e := range g.Edges {
		if e.Source == OriginID {
			owners = append(owners, byID[e.Target].Owner)
		}
	}
	return owners
}

// ChainOf returns the ids of one owner's chapters in chain order.
// Returns nil if the owner has no chapters in the graph.
func (g *Graph) ChainOf(owner string) []string {
	var chain []string
	for _, n := range g.Nodes {
		if n.ID != OriginID && n.Owner == owner {
			chain = append(chain, n.ID)
		}
	}
	return chain
}

// Node returns the chapter with the given id.
func (g *Graph) Node(id string) (chapter.Chapter, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return chapter.Chapter{}, false
}

// ChapterCount returns the number of nodes excluding the origin.
func (g *Graph) ChapterCount() int {
	return len(g.Nodes) - 1
}

func (g *Graph) nodesByID() map[string]chapter.Chapter {
	byID := make(map[string]chapter.Chapter, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}
	return byID
}
