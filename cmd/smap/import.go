package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/storymap/storymap/internal/config"
	"github.com/storymap/storymap/internal/github"
	"github.com/storymap/storymap/internal/gitsource"
	"github.com/storymap/storymap/internal/story"
)

var (
	importGitOwner string
	importGitDir   string
)

func init() {
	importGitCmd.Flags().StringVar(&importGitOwner, "owner", "", "Owner of the imported chapters (default: default_owner from config)")
	importGitCmd.Flags().StringVar(&importGitDir, "dir", "", "Subdirectory holding the chapters (default: story_dir from config, then the repository root)")

	importCmd.AddCommand(importGitHubCmd)
	importCmd.AddCommand(importGitCmd)
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import chapters from a GitHub or local git repository",
	Long: `Import an owner's markdown files as chapters.

Files whose names carry no ordering key are skipped, as are files already
imported for the same owner, so importing again only picks up new chapters.`,
}

var importGitHubCmd = &cobra.Command{
	Use:   "github <owner|owner/repo|url>",
	Short: "Import chapters from an owner's GitHub story repository",
	Long: `Import the markdown files at the root of a GitHub repository.

With a bare owner the repository name comes from story_repo in the config
(default MyStory). Set GITHUB_TOKEN to raise the API rate limit or to read
private repositories.

Examples:
  smap import github alice
  smap import github alice/lighthouse
  smap import github https://github.com/alice/lighthouse`,
	Args: cobra.ExactArgs(1),
	RunE: runImportGitHub,
}

var importGitCmd = &cobra.Command{
	Use:   "git <path>",
	Short: "Import chapters from the HEAD commit of a local git checkout",
	Long: `Import the markdown files committed at HEAD in a local repository.

Uncommitted changes are not seen.

Examples:
  smap import git ../lighthouse --owner alice
  smap import git ~/stories --owner bob --dir chapters`,
	Args: cobra.ExactArgs(1),
	RunE: runImportGit,
}

// parseGitHubTarget splits an import argument into owner and repository name.
// A bare owner uses fallbackRepo.
func parseGitHubTarget(arg, fallbackRepo string) (owner, repo string, err error) {
	if !strings.Contains(arg, "/") {
		if !github.ValidOwner(arg) {
			return "", "", fmt.Errorf("%w: %q", github.ErrInvalidOwner, arg)
		}
		return arg, fallbackRepo, nil
	}
	return github.ParseGitHubURL(arg)
}

func runImportGitHub(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	owner, repo, err := parseGitHubTarget(args[0], cfg.StoryRepo)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	client := github.NewClient(
		github.WithToken(globalCfg.GitHubToken),
		github.WithRepoName(repo),
	)

	svc := newService(repoRoot, cfg)
	result, err := svc.Import(cmd.Context(), client, owner)
	if err != nil {
		exitWithError(importExitCode(err), "importing %s/%s: %v", owner, repo, err)
	}
	syncCache(repoRoot, result.Imported)

	printImportResult(result, fmt.Sprintf("github.com/%s/%s", owner, repo))
	return nil
}

func runImportGit(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	owner := resolveOwner(importGitOwner, cfg)

	dir := importGitDir
	if dir == "" {
		dir = cfg.StoryDir
	}

	path := config.ExpandPath(args[0])
	src, err := gitsource.Open(path, gitsource.WithDir(dir))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	svc := newService(repoRoot, cfg)
	result, err := svc.Import(cmd.Context(), src, owner)
	if err != nil {
		exitWithError(importExitCode(err), "importing %s: %v", path, err)
	}
	syncCache(repoRoot, result.Imported)

	printImportResult(result, fmt.Sprintf("%s@%s", path, shortCommit(src.Commit())))
	return nil
}

// importExitCode treats GitHub credential problems as configuration errors.
func importExitCode(err error) int {
	if errors.Is(err, github.ErrUnauthorized) {
		return ExitConfigError
	}
	return exitCodeFor(err)
}

func shortCommit(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func printImportResult(result *story.ImportResult, from string) {
	if !humanOutput {
		outputJSON(result)
		return
	}

	outputHuman("Imported %d chapters for %s from %s\n", len(result.Imported), result.Owner, from)
	for _, c := range result.Imported {
		outputHuman("  + %-20s %s\n", c.Filename, truncateString(c.Title, ImportTitleMaxLen))
	}
	for _, s := range result.Skipped {
		outputHuman("  - %-20s (%s)\n", s.File, strings.ReplaceAll(s.Reason, "_", " "))
	}
}
