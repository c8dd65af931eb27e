// Package chapter defines the core domain type for story chapters and the
// ordering rules that sequence one owner's chapters.
package chapter

import (
	"errors"
	"time"
)

// Chapter is one authored unit of story content.
type Chapter struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Filename string `json:"filename,omitempty"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Summary  string `json:"summary"`

	CreatedAt time.Time `json:"created_at"`
	Source    *Source   `json:"source,omitempty"`
}

// Source records where an imported chapter came from.
type Source struct {
	Type string `json:"type"` // "file", "github", "git", or "api"
	URL  string `json:"url,omitempty"`
}

// Source types.
const (
	SourceFile   = "file"
	SourceGitHub = "github"
	SourceGit    = "git"
	SourceAPI    = "api"
)

// Validation errors.
var (
	ErrEmptyOwner    = errors.New("owner is required")
	ErrEmptyTitle    = errors.New("title is required")
	ErrEmptyFilename = errors.New("filename is required")
)

// Draft is a chapter that has not been summarized or persisted yet.
type Draft struct {
	Owner    string
	Filename string
	Title    string
	Content  string
	Source   *Source
}

// Validate checks that a draft can become a non-origin chapter.
// The filename must carry an ordering key, otherwise the chapter could never be
// placed in its owner's chain.
func (d Draft) Validate() error {
	if d.Owner == "" {
		return ErrEmptyOwner
	}
	if d.Title == "" {
		return ErrEmptyTitle
	}
	if d.Filename == "" {
		return ErrEmptyFilename
	}
	if _, err := ParseOrderingKey(d.Filename); err != nil {
		return err
	}
	return nil
}

// OrderingKey returns the ordering key parsed from the chapter's filename.
func (c Chapter) OrderingKey() (int64, error) {
	return ParseOrderingKey(c.Filename)
}

// GroupByOwner partitions chapters by owner. The returned owners slice lists each
// owner once, in the order it was first seen in the input.
func GroupByOwner(chapters []Chapter) (owners []string, groups map[string][]Chapter) {
	groups = make(map[string][]Chapter)
	for _, c := range chapters {
		if _, seen := groups[c.Owner]; !seen {
			owners = append(owners, c.Owner)
		}
		groups[c.Owner] = append(groups[c.Owner], c)
	}
	return owners, groups
}
