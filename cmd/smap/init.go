package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/storymap/storymap/internal/config"
)

var initOwner string

func init() {
	initCmd.Flags().StringVar(&initOwner, "owner", "", "Default owner for add and import")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new storymap repository",
	Long: `Initialize a new storymap repository in the current directory.

Creates:
  .storymap/
  ├── chapters.jsonl  # Empty chapter log
  ├── config.json     # Default config
  └── cache/          # SQLite cache (gitignored)`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	cfg, err := config.Init(root)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if initOwner != "" {
		cfg.DefaultOwner = initOwner
		if err := cfg.Save(root); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	if humanOutput {
		outputHuman("Initialized storymap repository in %s\n", root)
	} else {
		outputJSON(StatusResponse{
			Status: "initialized",
			Path:   root,
		})
	}
	return nil
}
