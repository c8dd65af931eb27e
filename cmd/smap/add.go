package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/storymap/storymap/internal/chapter"
	"github.com/storymap/storymap/internal/source"
)

var (
	addOwner string
	addTitle string
)

func init() {
	addCmd.Flags().StringVar(&addOwner, "owner", "", "Chapter owner (default: default_owner from config)")
	addCmd.Flags().StringVar(&addTitle, "title", "", "Chapter title (default: first heading, then filename)")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add a markdown file as a chapter",
	Long: `Add a markdown file to the chapter log.

The filename must start with the chapter's ordering key, e.g. 01-storm.md or
12.md; files without one are rejected. The content is summarized before the
chapter is stored. If the summarization model fails, the summary falls back to
the first summary_max_length characters.

Examples:
  smap add 01-storm.md --owner alice
  smap add chapters/02-dawn.md --title "Dawn"`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	owner := resolveOwner(addOwner, cfg)

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		exitWithError(ExitError, "reading %s: %v", path, err)
	}

	name := filepath.Base(path)
	title := addTitle
	if title == "" {
		title = source.Title(name, string(content))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	svc := newService(repoRoot, cfg)
	c, err := svc.AddChapter(cmd.Context(), chapter.Draft{
		Owner:    owner,
		Filename: name,
		Title:    title,
		Content:  string(content),
		Source:   &chapter.Source{Type: chapter.SourceFile, URL: abs},
	})
	if err != nil {
		exitWithError(exitCodeFor(err), "adding %s: %v", name, err)
	}
	syncCache(repoRoot, []chapter.Chapter{c})

	if humanOutput {
		outputHuman("Added %s for %s: %s\n", c.Filename, c.Owner, c.Title)
		outputHuman("  id:      %s\n", c.ID)
		outputHuman("  summary: %s\n", c.Summary)
	} else {
		outputJSON(c)
	}
	return nil
}
