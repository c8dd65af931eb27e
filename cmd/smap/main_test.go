package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/storymap/storymap/internal/chapter"
	"github.com/storymap/storymap/internal/config"
	"github.com/storymap/storymap/internal/github"
	"github.com/storymap/storymap/internal/storage"
	"github.com/storymap/storymap/internal/storygraph"
)

func TestExitCodeFor(t *testing.T) {
	_, keyErr := chapter.ParseOrderingKey("intro.md")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ordering key", keyErr, ExitDataError},
		{"wrapped ordering key", fmt.Errorf("chapter 2 (intro.md): %w", keyErr), ExitDataError},
		{"empty owner", chapter.ErrEmptyOwner, ExitDataError},
		{"empty title", chapter.ErrEmptyTitle, ExitDataError},
		{"empty filename", chapter.ErrEmptyFilename, ExitDataError},
		{"malformed log", fmt.Errorf("reading JSONL: %w", storage.ErrMalformedLog), ExitDataError},
		{"reserved id", fmt.Errorf("assembling: %w", storygraph.ErrReservedID), ExitDataError},
		{"duplicate id", storygraph.ErrDuplicateID, ExitDataError},
		{"storage failure", errors.New("disk full"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestImportExitCode(t *testing.T) {
	if got := importExitCode(fmt.Errorf("listing: %w", github.ErrUnauthorized)); got != ExitConfigError {
		t.Errorf("unauthorized = %d, want %d", got, ExitConfigError)
	}
	if got := importExitCode(github.ErrRepoNotFound); got != ExitError {
		t.Errorf("not found = %d, want %d", got, ExitError)
	}
}

func TestParseGitHubTarget(t *testing.T) {
	tests := []struct {
		arg       string
		wantOwner string
		wantRepo  string
		wantErr   error
	}{
		{"alice", "alice", "MyStory", nil},
		{"alice/lighthouse", "alice", "lighthouse", nil},
		{"https://github.com/alice/lighthouse.git", "alice", "lighthouse", nil},
		{"-alice", "", "", github.ErrInvalidOwner},
		{"not a url/with spaces", "", "", github.ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			owner, repo, err := parseGitHubTarget(tt.arg, config.DefaultStoryRepo)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("got (%q, %q), want (%q, %q)", owner, repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}

func TestResolveOwner(t *testing.T) {
	cfg := &config.Config{DefaultOwner: "alice"}
	if got := resolveOwner("bob", cfg); got != "bob" {
		t.Errorf("flag should win, got %q", got)
	}
	if got := resolveOwner("", cfg); got != "alice" {
		t.Errorf("default owner not used, got %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a much longer title", 10, "a much ..."},
		{"ééééééééééé", 8, "ééééé..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456" {
		t.Errorf("shortCommit() = %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("shortCommit() = %q", got)
	}
}
