// Package main provides the smap CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/storymap/storymap/internal/chapter"
	"github.com/storymap/storymap/internal/config"
	"github.com/storymap/storymap/internal/logging"
	"github.com/storymap/storymap/internal/storage"
	"github.com/storymap/storymap/internal/story"
	"github.com/storymap/storymap/internal/storygraph"
	"github.com/storymap/storymap/internal/summary"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	logLevel    string
	verbose     bool
)

// Loaded once in PersistentPreRunE and passed down from here.
var (
	globalCfg *config.GlobalConfig
	logger    = zerolog.Nop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// SilenceErrors is set, so cobra's own errors (bad flags, missing args) land here
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "smap",
	Short: "Assemble authored chapters into a story graph",
	Long: `smap collects story chapters written by many owners and assembles them
into a single graph: a shared origin node, and from it one chain per owner with
that owner's chapters in filename order.

Chapters live in a git-versionable JSONL log with an ephemeral SQLite cache for
queries. Each chapter is summarized when it is added. All commands output JSON
by default; use --human for readable text.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config, then warn)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level info")
	rootCmd.Version = Version
}

// setup loads .env, the global config and the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadGlobal(config.GlobalConfigPath())
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	globalCfg = cfg

	level := logLevel
	if level == "" && verbose {
		level = "info"
	}
	if level == "" {
		level = cfg.LogLevel
	}
	l, err := logging.New(os.Stderr, level, humanOutput)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	logger = l
	return nil
}

// getStartingDirectory returns the directory to start searching for a repository.
// The global story_path (or SMAP_STORY_PATH) wins over the working directory.
func getStartingDirectory() (string, int) {
	if globalCfg != nil && globalCfg.StoryPath != "" {
		return globalCfg.StoryPath, 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	repoRoot, err := config.FindRepository(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return repoRoot
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite cache, rebuilding it from the chapter log when
// the two hold a different number of chapters. The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(repoRoot), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}

	count, err := db.Count()
	if err != nil {
		db.Close()
		exitWithError(ExitError, "counting chapters: %v", err)
	}
	chapters, err := storage.ReadAllChapters(config.ChaptersPath(repoRoot))
	if err != nil {
		db.Close()
		exitWithError(exitCodeFor(err), "reading chapter log: %v", err)
	}
	if count != len(chapters) {
		logger.Debug().Int("cached", count).Int("logged", len(chapters)).Msg("Rebuilding chapter cache")
		if _, err := db.RebuildFromJSONL(config.ChaptersPath(repoRoot)); err != nil {
			db.Close()
			exitWithError(ExitDataError, "rebuilding database: %v", err)
		}
	}
	return db
}

// mustNewSummarizer builds the summarizer selected by the global config.
func mustNewSummarizer() *summary.Summarizer {
	model, err := summary.NewModel(summary.ModelConfig{
		Provider: globalCfg.Summary.Provider,
		Model:    globalCfg.Summary.Model,
		APIKey:   globalCfg.OpenAIAPIKey,
		BaseURL:  globalCfg.Summary.BaseURL,
	})
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return summary.New(model, summary.WithLogger(logger))
}

// mustSummaryTimeout returns the per-call summarization bound from the global config.
func mustSummaryTimeout() time.Duration {
	timeout, err := globalCfg.SummaryTimeout()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return timeout
}

// newService wires the chapter log, summarizer and logger into a story.Service.
func newService(repoRoot string, cfg *config.Config) *story.Service {
	return story.New(
		storage.NewChapterLog(config.ChaptersPath(repoRoot)),
		mustNewSummarizer(),
		story.WithSummaryMaxLength(cfg.SummaryMaxLength),
		story.WithSummaryTimeout(mustSummaryTimeout()),
		story.WithLogger(logger),
	)
}

// resolveOwner returns the --owner flag value, or the repository's default owner.
func resolveOwner(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg.DefaultOwner != "" {
		return cfg.DefaultOwner
	}
	exitWithError(ExitConfigError, "no owner given: pass --owner or set default_owner in %s", config.ConfigFile)
	return ""
}

// exitCodeFor maps errors from the story service to exit codes. Bad chapters, a
// chapter log that cannot form a graph, and an unreadable chapter log are data
// errors; everything else is a general failure.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrMalformedLog),
		errors.Is(err, chapter.ErrOrderingKey),
		errors.Is(err, chapter.ErrEmptyOwner),
		errors.Is(err, chapter.ErrEmptyTitle),
		errors.Is(err, chapter.ErrEmptyFilename),
		errors.Is(err, storygraph.ErrReservedID),
		errors.Is(err, storygraph.ErrDuplicateID):
		return ExitDataError
	default:
		return ExitError
	}
}

// syncCache copies newly stored chapters into the SQLite cache. The cache is
// rebuildable, so a failure here is logged rather than fatal.
func syncCache(repoRoot string, chapters []chapter.Chapter) {
	if len(chapters) == 0 {
		return
	}
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		logger.Warn().Err(err).Msg("Cache not updated; run 'smap rebuild'")
		return
	}
	defer db.Close()

	for _, c := range chapters {
		if err := db.InsertChapter(c); err != nil {
			logger.Warn().Err(err).Str("id", c.ID).Msg("Cache not updated; run 'smap rebuild'")
			return
		}
	}
}
