package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/storymap/storymap/internal/config"
)

var summarizeMaxLength int

func init() {
	summarizeCmd.Flags().IntVar(&summarizeMaxLength, "max-length", 0, "Summary bound in characters (default: summary_max_length from config)")
	rootCmd.AddCommand(summarizeCmd)
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Summarize a file without storing it",
	Long: `Summarize a file with the configured model and print the result.

Works outside a repository; the repository config, when found, supplies the
default bound. When the model is unavailable or fails, the summary is the first
max-length characters of the file.

Examples:
  smap summarize 01-storm.md
  smap summarize draft.md --max-length 120 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

// SummaryResult is the response for the summarize command.
type SummaryResult struct {
	File      string `json:"file"`
	MaxLength int    `json:"max_length"`
	Summary   string `json:"summary"`
}

func runSummarize(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		exitWithError(ExitError, "reading %s: %v", args[0], err)
	}

	maxLength := summarizeMaxLength
	if maxLength <= 0 {
		maxLength = repoSummaryMaxLength()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), mustSummaryTimeout())
	defer cancel()

	text := mustNewSummarizer().Summarize(ctx, string(content), maxLength)

	if humanOutput {
		outputHuman("%s\n", text)
	} else {
		outputJSON(SummaryResult{File: args[0], MaxLength: maxLength, Summary: text})
	}
	return nil
}

// repoSummaryMaxLength reads the bound from the enclosing repository, if any.
func repoSummaryMaxLength() int {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		return config.DefaultSummaryMaxLength
	}
	root, err := config.FindRepository(start)
	if err != nil {
		return config.DefaultSummaryMaxLength
	}
	return mustLoadConfig(root).SummaryMaxLength
}
