package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/storymap/storymap/internal/export"
)

var (
	exportOwners    []string
	exportSummaries bool
	exportOutput    string
)

func init() {
	exportCmd.Flags().StringSliceVar(&exportOwners, "owner", nil, "Export only these owners (repeatable; default: all)")
	exportCmd.Flags().BoolVar(&exportSummaries, "summaries", false, "Write chapter summaries instead of full content")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export story chains as a markdown manuscript",
	Long: `Export each owner's chain, in chain order, as markdown.

Examples:
  smap export > story.md
  smap export --owner alice -o alice.md
  smap export --summaries`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	g, err := newService(repoRoot, cfg).BuildGraph(cmd.Context())
	if err != nil {
		exitWithError(exitCodeFor(err), "assembling graph: %v", err)
	}

	doc := export.ToMarkdownList(g, exportOwners, export.Options{Summaries: exportSummaries})

	if exportOutput == "" {
		fmt.Print(doc)
		return nil
	}
	if err := os.WriteFile(exportOutput, []byte(doc), 0644); err != nil {
		exitWithError(ExitError, "writing output file: %v", err)
	}
	if humanOutput {
		outputHuman("Manuscript written to %s\n", exportOutput)
	} else {
		outputJSON(StatusResponse{Status: "written", Path: exportOutput})
	}
	return nil
}
