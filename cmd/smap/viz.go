package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/storymap/storymap/internal/config"
	"github.com/storymap/storymap/internal/storygraph"
	"github.com/storymap/storymap/internal/viz"
)

var (
	vizOutput  string
	vizLayout  string
	vizOffline bool
	vizSelect  string
)

func init() {
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizLayout, "layout", "", "Layout algorithm: force, circle, or grid (default: layout from config)")
	vizCmd.Flags().BoolVar(&vizOffline, "offline", false, "Load Cytoscape.js from a local cytoscape.min.js instead of the CDN")
	vizCmd.Flags().StringVar(&vizSelect, "select", "", "Owner whose chain is highlighted when the page opens")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Generate the story graph visualization",
	Long: `Generate an interactive HTML visualization of the story graph.

Every owner's chain hangs off the shared origin node, colored by owner.
Clicking a chapter highlights its owner's chain. If assembly fails the page
explains why instead of showing a partial graph, and the command exits 3.

Examples:
  # Generate HTML to stdout
  smap viz > story.html

  # Generate to file with alice's chain highlighted
  smap viz -o story.html --select alice

  # Use a grid layout
  smap viz --layout grid -o story.html`,
	Args: cobra.NoArgs,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	layout := vizLayout
	if layout == "" {
		layout = cfg.Layout
	}
	if err := config.ValidateLayout(layout); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	selection := storygraph.NewSelection()
	selection.Select(vizSelect)

	g, err := newService(repoRoot, cfg).BuildGraph(cmd.Context())
	if err != nil {
		// The error page takes the graph's place; the message goes to stderr.
		writeVizOutput(viz.GenerateErrorHTML(err))
		os.Exit(outputError(exitCodeFor(err), "assembling graph: %v", err))
	}

	html, err := viz.GenerateHTML(viz.FromGraph(g), viz.HTMLOptions{
		Layout:    layout,
		Offline:   vizOffline,
		Selection: selection,
	})
	if err != nil {
		exitWithError(ExitError, "generating HTML: %v", err)
	}

	writeVizOutput(html)
	if vizOutput != "" {
		if humanOutput {
			outputHuman("Visualization written to %s\n", vizOutput)
		} else {
			outputJSON(StatusResponse{Status: "written", Path: vizOutput})
		}
	}
	return nil
}

// writeVizOutput writes the page to --output, or to stdout when none is given.
func writeVizOutput(html string) {
	if vizOutput == "" {
		fmt.Print(html)
		return
	}
	if err := os.WriteFile(vizOutput, []byte(html), 0644); err != nil {
		exitWithError(ExitError, "writing output file: %v", err)
	}
}
