package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every override so a developer's shell can't leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvGitHubToken, EnvOpenAIAPIKey, EnvSummaryProvider, EnvStoryPath} {
		t.Setenv(key, "")
	}
}

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := GlobalConfigPath(), "/custom/config/smap/config.yml"; got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := GlobalConfigPath(), filepath.Join(home, ".config", "smap", "config.yml"); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadGlobal_NotFound(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadGlobal(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("LoadGlobal() error = %v", err)
	}
	if cfg.GitHubToken != "" || cfg.Summary.Provider != "" {
		t.Errorf("LoadGlobal() = %+v, want empty config", cfg)
	}
}

func TestLoadGlobal_Valid(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yml")
	content := `story_path: /srv/stories
github_token: gh-file
openai_api_key: sk-file
log_level: debug
summary:
  provider: ollama
  model: llama3
  base_url: http://gpu:11434
  timeout: 45s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadGlobal(path)
	if err != nil {
		t.Fatalf("LoadGlobal() error = %v", err)
	}

	if cfg.StoryPath != "/srv/stories" {
		t.Errorf("StoryPath = %q", cfg.StoryPath)
	}
	if cfg.GitHubToken != "gh-file" {
		t.Errorf("GitHubToken = %q", cfg.GitHubToken)
	}
	if cfg.Summary.Provider != "ollama" || cfg.Summary.Model != "llama3" || cfg.Summary.BaseURL != "http://gpu:11434" {
		t.Errorf("Summary = %+v", cfg.Summary)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}

	timeout, err := cfg.SummaryTimeout()
	if err != nil {
		t.Fatalf("SummaryTimeout() error = %v", err)
	}
	if timeout != 45*time.Second {
		t.Errorf("SummaryTimeout() = %v, want 45s", timeout)
	}
}

func TestLoadGlobal_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvGitHubToken, "gh-env")
	t.Setenv(EnvOpenAIAPIKey, "sk-env")
	t.Setenv(EnvSummaryProvider, "openai")

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("github_token: gh-file\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadGlobal(path)
	if err != nil {
		t.Fatalf("LoadGlobal() error = %v", err)
	}
	if cfg.GitHubToken != "gh-env" {
		t.Errorf("GitHubToken = %q, want env value", cfg.GitHubToken)
	}
	if cfg.OpenAIAPIKey != "sk-env" {
		t.Errorf("OpenAIAPIKey = %q, want env value", cfg.OpenAIAPIKey)
	}
	if cfg.Summary.Provider != "openai" {
		t.Errorf("Summary.Provider = %q, want openai", cfg.Summary.Provider)
	}
}

func TestLoadGlobal_Invalid(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "summary: [unclosed\n"},
		{"bad timeout", "summary:\n  timeout: soon\n"},
		{"negative timeout", "summary:\n  timeout: -3s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadGlobal(path); err == nil {
				t.Error("LoadGlobal() expected error")
			}
		})
	}
}

func TestSummaryTimeout_Default(t *testing.T) {
	cfg := &GlobalConfig{}
	got, err := cfg.SummaryTimeout()
	if err != nil {
		t.Fatal(err)
	}
	if got != DefaultSummaryTimeout {
		t.Errorf("SummaryTimeout() = %v, want %v", got, DefaultSummaryTimeout)
	}
}

func TestSummaryTimeout_Invalid(t *testing.T) {
	for _, value := range []string{"soon", "0s", "-3s"} {
		cfg := &GlobalConfig{}
		cfg.Summary.Timeout = value
		if _, err := cfg.SummaryTimeout(); err == nil {
			t.Errorf("SummaryTimeout(%q) expected error", value)
		}
	}
}
