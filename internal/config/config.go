// Package config handles repository configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents repository configuration stored in .storymap/config.json.
type Config struct {
	DefaultOwner     string `json:"default_owner,omitempty"`      // Owner used when --owner is omitted
	StoryRepo        string `json:"story_repo,omitempty"`         // GitHub repository holding each owner's chapters
	StoryDir         string `json:"story_dir,omitempty"`          // Subdirectory of a git checkout holding chapters
	SummaryMaxLength int    `json:"summary_max_length,omitempty"` // Summary bound in characters
	Layout           string `json:"layout,omitempty"`             // Default visualization layout
}

const (
	StoryMapDir  = ".storymap"
	ConfigFile   = "config.json"
	ChaptersFile = "chapters.jsonl"
	CacheDir     = "cache"
	DBFile       = "chapters.db"

	DefaultStoryRepo        = "MyStory"
	DefaultSummaryMaxLength = 300
	DefaultLayout           = "force"
)

// ValidLayouts lists the supported visualization layouts.
var ValidLayouts = []string{"force", "circle", "grid"}

// Default returns the configuration written by `smap init`.
func Default() *Config {
	return &Config{
		StoryRepo:        DefaultStoryRepo,
		SummaryMaxLength: DefaultSummaryMaxLength,
		Layout:           DefaultLayout,
	}
}

// StoryMapPath returns the path to the .storymap directory from a root path.
func StoryMapPath(root string) string {
	return filepath.Join(root, StoryMapDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, StoryMapDir, ConfigFile)
}

// ChaptersPath returns the path to chapters.jsonl from a root path.
func ChaptersPath(root string) string {
	return filepath.Join(root, StoryMapDir, ChaptersFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, StoryMapDir, CacheDir)
}

// DBPath returns the path to chapters.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, StoryMapDir, CacheDir, DBFile)
}

// IsRepository checks if the given path contains a storymap repository.
func IsRepository(root string) bool {
	info, err := os.Stat(StoryMapPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a storymap repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a storymap repository (no .storymap directory found)")
		}
		abs = parent
	}
}

// Init creates the .storymap layout at root with a default config, an empty
// chapter log and a .gitignore for the cache. It fails if a repository already
// exists there.
func Init(root string) (*Config, error) {
	if IsRepository(root) {
		return nil, fmt.Errorf("storymap repository already exists at %s", root)
	}
	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", StoryMapDir, err)
	}
	if err := os.WriteFile(ChaptersPath(root), nil, 0644); err != nil {
		return nil, fmt.Errorf("creating chapter log: %w", err)
	}
	if err := os.WriteFile(filepath.Join(StoryMapPath(root), ".gitignore"), []byte(CacheDir+"/\n"), 0644); err != nil {
		return nil, fmt.Errorf("creating .gitignore: %w", err)
	}

	cfg := Default()
	if err := cfg.Save(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from the repository at the given root.
// Unset fields are filled with defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.StoryRepo == "" {
		c.StoryRepo = DefaultStoryRepo
	}
	if c.SummaryMaxLength == 0 {
		c.SummaryMaxLength = DefaultSummaryMaxLength
	}
	if c.Layout == "" {
		c.Layout = DefaultLayout
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.SummaryMaxLength < 0 {
		return fmt.Errorf("invalid summary_max_length: %d (must be positive)", c.SummaryMaxLength)
	}
	return ValidateLayout(c.Layout)
}

// ValidateLayout checks that the layout value is supported.
func ValidateLayout(layout string) error {
	if layout == "" {
		return nil // Empty defaults to "force"
	}

	for _, valid := range ValidLayouts {
		if layout == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid layout: %s (valid: %v)", layout, ValidLayouts)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
