package main

import (
	"github.com/spf13/cobra"
	"github.com/storymap/storymap/internal/storygraph"
	"github.com/storymap/storymap/internal/viz"
)

func init() {
	rootCmd.AddCommand(graphCmd)
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Assemble the story graph",
	Long: `Assemble every chapter into the story graph and print it.

JSON output carries nodes (the origin first), edges and owners. Human output
prints each owner's chain. A chapter whose filename has no ordering key makes
assembly fail with exit code 3; no partial graph is printed.`,
	Args: cobra.NoArgs,
	RunE: runGraph,
}

func runGraph(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	g, err := newService(repoRoot, cfg).BuildGraph(cmd.Context())
	if err != nil {
		exitWithError(exitCodeFor(err), "assembling graph: %v", err)
	}

	if humanOutput {
		printChains(g)
	} else {
		outputJSON(viz.FromGraph(g))
	}
	return nil
}

func printChains(g *storygraph.Graph) {
	owners := g.Owners()
	outputHuman("%d chapters, %d owners\n", g.ChapterCount(), len(owners))
	for _, owner := range owners {
		outputHuman("\n%s:\n", owner)
		for i, id := range g.ChainOf(owner) {
			c, _ := g.Node(id)
			outputHuman("  %d. %-16s %s\n", i+1, c.Filename, truncateString(c.Title, ListTitleMaxLen))
		}
	}
}
