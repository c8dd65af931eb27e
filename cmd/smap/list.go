package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/storymap/storymap/internal/chapter"
	"github.com/storymap/storymap/internal/viz"
)

var (
	listOwner string
	listLimit int
)

func init() {
	listCmd.Flags().StringVar(&listOwner, "owner", "", "Only list this owner's chapters")
	listCmd.Flags().IntVar(&listLimit, "limit", DefaultListLimit, "Maximum results to return (0 = all)")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(ownersCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List chapters with their summaries",
	Long: `List chapters in the order they were added.

Human output is one "title: summary" line per chapter.

Examples:
  smap list
  smap list --owner alice --human`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	chapters, err := db.ListChapters(listOwner, listLimit)
	if err != nil {
		exitWithError(ExitError, "listing chapters: %v", err)
	}

	if humanOutput {
		if len(chapters) == 0 {
			outputHuman("No chapters in repository\n")
			return nil
		}
		if err := viz.RenderList(os.Stdout, chapters); err != nil {
			exitWithError(ExitError, "writing list: %v", err)
		}
	} else {
		if chapters == nil {
			chapters = []chapter.Chapter{}
		}
		outputJSON(chapters)
	}
	return nil
}

var ownersCmd = &cobra.Command{
	Use:   "owners",
	Short: "List owners and their chapter counts",
	Args:  cobra.NoArgs,
	RunE:  runOwners,
}

func runOwners(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	owners, err := db.ListOwners()
	if err != nil {
		exitWithError(ExitError, "listing owners: %v", err)
	}

	if humanOutput {
		if len(owners) == 0 {
			outputHuman("No chapters in repository\n")
			return nil
		}
		for _, o := range owners {
			fmt.Printf("  %-20s %d\n", o.Owner, o.Chapters)
		}
	} else {
		outputJSON(owners)
	}
	return nil
}
