package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/storymap/storymap/internal/chapter"
)

var searchLimit int

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over chapter titles, summaries and content",
	Long: `Search chapters using the SQLite full-text index.

Examples:
  smap search lighthouse
  smap search "storm passes" --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	query := strings.Join(args, " ")
	chapters, err := db.Search(query, searchLimit)
	if err != nil {
		exitWithError(ExitError, "search failed: %v", err)
	}

	if humanOutput {
		if len(chapters) == 0 {
			outputHuman("No chapters match %q\n", query)
			return nil
		}
		outputHuman("Found %d chapters:\n\n", len(chapters))
		for _, c := range chapters {
			outputHuman("  %-10s %-16s %s\n", c.Owner, c.Filename, truncateString(c.Title, ListTitleMaxLen))
		}
	} else {
		if chapters == nil {
			chapters = []chapter.Chapter{}
		}
		outputJSON(chapters)
	}
	return nil
}
