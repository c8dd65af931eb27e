package viz

import (
	"github.com/storymap/storymap/internal/chapter"
	"github.com/storymap/storymap/internal/storygraph"
)

// originColor is the fill of the origin node.
const originColor = "#333333"

// ownerPalette colors owner chains; owners past the end reuse it from the start.
var ownerPalette = []string{
	"#4A90D9", "#E8923A", "#27AE60", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F1C40F", "#7F8C8D",
}

// FromGraph converts an assembled story graph into render data. Each owner gets a
// color by position in the graph's owner order.
func FromGraph(g *storygraph.Graph) *GraphData {
	owners := g.Owners()
	if owners == nil {
		owners = []string{}
	}
	colors := make(map[string]string, len(owners))
	for i, o := range owners {
		colors[o] = ownerPalette[i%len(ownerPalette)]
	}

	data := &GraphData{
		Nodes:  make([]Node, 0, len(g.Nodes)),
		Edges:  make([]Edge, 0, len(g.Edges)),
		Owners: owners,
	}

	ownerOf := make(map[string]string, len(g.Nodes))
	for _, c := range g.Nodes {
		ownerOf[c.ID] = c.Owner
		if c.ID == storygraph.OriginID {
			data.Nodes = append(data.Nodes, newOriginNode(c))
			continue
		}
		data.Nodes = append(data.Nodes, newChapterNode(c, colors[c.Owner]))
	}

	for _, e := range g.Edges {
		data.Edges = append(data.Edges, Edge{
			Source: e.Source,
			Target: e.Target,
			Owner:  ownerOf[e.Target],
		})
	}

	return data
}

func newOriginNode(c chapter.Chapter) Node {
	return Node{
		ID:     c.ID,
		Owner:  c.Owner,
		Origin: true,
		Label:  c.Title,
		Color:  originColor,
		Title:  c.Title,
	}
}

func newChapterNode(c chapter.Chapter, color string) Node {
	return Node{
		ID:       c.ID,
		Owner:    c.Owner,
		Label:    c.Title,
		Color:    color,
		Title:    c.Title,
		Summary:  c.Summary,
		Filename: c.Filename,
	}
}
