// Package gitsource reads chapter markdown files from the HEAD commit of a local
// git checkout.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/storymap/storymap/internal/source"
)

// ErrNoCommits is returned when the checkout has no HEAD commit to read.
var ErrNoCommits = errors.New("repository has no commits")

// Repo is a read-only view of one commit of a local repository. The commit is
// resolved once, when the Repo is opened, so a listing and the fetches that follow
// it always see the same tree.
type Repo struct {
	path   string
	dir    string
	commit *object.Commit
}

// Option configures a Repo.
type Option func(*Repo)

// WithDir restricts listing to a subdirectory of the repository.
func WithDir(dir string) Option {
	return func(r *Repo) {
		r.dir = strings.Trim(path.Clean("/"+dir), "/")
	}
}

// Open opens the repository at repoPath and resolves its HEAD commit.
func Open(repoPath string, opts ...Option) (*Repo, error) {
	r := &Repo{path: repoPath}
	for _, opt := range opts {
		opt(r)
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCommits, err)
	}

	r.commit, err = repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("load commit object: %w", err)
	}
	return r, nil
}

// Kind identifies chapters imported from a local checkout.
func (r *Repo) Kind() string {
	return "git"
}

// Commit returns the hash of the commit being read.
func (r *Repo) Commit() string {
	return r.commit.Hash.String()
}

// ListMarkdownFiles lists the markdown blobs directly inside the configured directory,
// sorted by name. The owner is not part of a local checkout's layout and is ignored.
func (r *Repo) ListMarkdownFiles(ctx context.Context, owner string) ([]source.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree, err := r.commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}
	if r.dir != "" {
		tree, err = tree.Tree(r.dir)
		if err != nil {
			return nil, fmt.Errorf("load directory %s: %w", r.dir, err)
		}
	}

	var files []source.File
	for _, entry := range tree.Entries {
		if !entry.Mode.IsFile() || !source.IsMarkdown(entry.Name) {
			continue
		}
		files = append(files, source.File{
			Name: entry.Name,
			Path: path.Join(r.dir, entry.Name),
			SHA:  entry.Hash.String(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// FetchFile returns the content of a listed file at the opened commit.
func (r *Repo) FetchFile(ctx context.Context, f source.File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := r.commit.File(f.Path)
	if err != nil {
		return "", fmt.Errorf("load %s from commit: %w", f.Path, err)
	}
	content, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Path, err)
	}
	return content, nil
}
