// Package export writes assembled story chains out as markdown manuscripts.
package export

import (
	"fmt"
	"strings"

	"github.com/storymap/storymap/internal/storygraph"
)

// Options controls manuscript output.
type Options struct {
	Summaries bool // Write each chapter's summary instead of its content
}

// ToMarkdown renders one owner's chain as a markdown document: the owner as the
// top heading, then each chapter's title and body in chain order.
// Returns an empty string if the owner has no chapters in g.
func ToMarkdown(g *storygraph.Graph, owner string, opts Options) string {
	chain := g.ChainOf(owner)
	if len(chain) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", owner)
	for _, id := range chain {
		c, _ := g.Node(id)
		body := c.Content
		if opts.Summaries {
			body = c.Summary
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", demoteHeadings(c.Title), strings.TrimSpace(demoteBody(body)))
	}
	return b.String()
}

// ToMarkdownList renders the chains of owners, or of every owner in g when owners
// is empty, separated by horizontal rules.
func ToMarkdownList(g *storygraph.Graph, owners []string, opts Options) string {
	if len(owners) == 0 {
		owners = g.Owners()
	}

	var docs []string
	for _, owner := range owners {
		if doc := ToMarkdown(g, owner, opts); doc != "" {
			docs = append(docs, doc)
		}
	}
	return strings.Join(docs, "\n---\n\n")
}

// demoteHeadings strips leading '#' so a title can't outrank its own heading.
func demoteHeadings(title string) string {
	return strings.TrimSpace(strings.TrimLeft(title, "#"))
}

// demoteBody pushes chapter headings below the manuscript's own two levels.
func demoteBody(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "#") {
			lines[i] = "##" + line
		}
	}
	return strings.Join(lines, "\n")
}
