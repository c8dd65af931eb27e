package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/smap/config.yml.
// It is loaded once by the host program and passed to whatever needs it.
type GlobalConfig struct {
	StoryPath    string        `yaml:"story_path,omitempty"`
	GitHubToken  string        `yaml:"github_token,omitempty"`
	OpenAIAPIKey string        `yaml:"openai_api_key,omitempty"`
	Summary      SummaryConfig `yaml:"summary,omitempty"`
	LogLevel     string        `yaml:"log_level,omitempty"`
}

// SummaryConfig selects the summarization model.
type SummaryConfig struct {
	Provider string `yaml:"provider,omitempty"` // openai, ollama, or none
	Model    string `yaml:"model,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Timeout  string `yaml:"timeout,omitempty"` // Go duration, applied by callers per summary
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "smap"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// DefaultSummaryTimeout bounds one summarization call made by the CLI.
	DefaultSummaryTimeout = 30 * time.Second
)

// Environment variables that override the global config file.
const (
	EnvGitHubToken     = "GITHUB_TOKEN"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvSummaryProvider = "SMAP_SUMMARY_PROVIDER"
	EnvStoryPath       = "SMAP_STORY_PATH"
)

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/smap/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobal loads the global configuration file at path and applies environment
// overrides. A missing file is not an error: the result then holds only
// environment values.
func LoadGlobal(path string) (*GlobalConfig, error) {
	var cfg GlobalConfig

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		case os.IsNotExist(err):
			// No file, env only
		default:
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	cfg.applyEnv(os.Getenv)

	if cfg.StoryPath != "" {
		cfg.StoryPath = ExpandPath(cfg.StoryPath)
	}
	if _, err := cfg.SummaryTimeout(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides file values with non-empty environment values.
func (c *GlobalConfig) applyEnv(getenv func(string) string) {
	if v := getenv(EnvGitHubToken); v != "" {
		c.GitHubToken = v
	}
	if v := getenv(EnvOpenAIAPIKey); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := getenv(EnvSummaryProvider); v != "" {
		c.Summary.Provider = v
	}
	if v := getenv(EnvStoryPath); v != "" {
		c.StoryPath = v
	}
}

// SummaryTimeout parses Summary.Timeout, defaulting to DefaultSummaryTimeout.
func (c *GlobalConfig) SummaryTimeout() (time.Duration, error) {
	if c.Summary.Timeout == "" {
		return DefaultSummaryTimeout, nil
	}
	d, err := time.ParseDuration(c.Summary.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid summary.timeout %q: %w", c.Summary.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid summary.timeout %q: must be positive", c.Summary.Timeout)
	}
	return d, nil
}

// HelpfulConfigMessage returns a helpful message when no repository is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No storymap repository found.

Run 'smap init' in a directory to create one, or create %s
to set a default location:
  mkdir -p %s
  echo 'story_path: /path/to/your/stories' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
