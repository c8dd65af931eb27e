package story

import (
	"context"
	"fmt"

	"github.com/storymap/storymap/internal/chapter"
	"github.com/storymap/storymap/internal/source"
)

// Reasons a listed file is not imported.
const (
	SkipNoOrderingKey = "no_ordering_key"
	SkipExists        = "already_imported"
)

// Skipped is a listed file that Import left alone.
type Skipped struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// ImportResult reports what Import stored and what it passed over.
type ImportResult struct {
	Owner    string            `json:"owner"`
	Imported []chapter.Chapter `json:"imported"`
	Skipped  []Skipped         `json:"skipped"`
}

// Import turns owner's markdown files in src into chapters. Files whose names carry
// no ordering key are skipped, as are files already imported for owner. Each title is
// the file's first heading, or its name. Listing and fetch errors abort the import
// before anything is stored.
func (s *Service) Import(ctx context.Context, src Source, owner string) (*ImportResult, error) {
	if owner == "" {
		return nil, chapter.ErrEmptyOwner
	}

	files, err := src.ListMarkdownFiles(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing %s files for %s: %w", src.Kind(), owner, err)
	}

	existing, err := s.store.ListChapters(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool)
	for _, c := range existing {
		if c.Owner == owner && c.Filename != "" {
			have[c.Filename] = true
		}
	}

	result := &ImportResult{Owner: owner, Imported: []chapter.Chapter{}, Skipped: []Skipped{}}
	var drafts []chapter.Draft

	for _, f := range files {
		if !chapter.HasOrderingKey(f.Name) {
			s.logger.Info().Str("owner", owner).Str("file", f.Name).Msg("skipping file without ordering key")
			result.Skipped = append(result.Skipped, Skipped{File: f.Name, Reason: SkipNoOrderingKey})
			continue
		}
		if have[f.Name] {
			s.logger.Debug().Str("owner", owner).Str("file", f.Name).Msg("skipping imported file")
			result.Skipped = append(result.Skipped, Skipped{File: f.Name, Reason: SkipExists})
			continue
		}
		have[f.Name] = true

		content, err := src.FetchFile(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", f.Path, err)
		}

		drafts = append(drafts, chapter.Draft{
			Owner:    owner,
			Filename: f.Name,
			Title:    source.Title(f.Name, content),
			Content:  content,
			Source:   &chapter.Source{Type: src.Kind(), URL: fileURL(f)},
		})
	}

	stored, err := s.AddChapters(ctx, drafts)
	result.Imported = append(result.Imported, stored...)
	if err != nil {
		return result, err
	}

	s.logger.Info().Str("owner", owner).Int("imported", len(stored)).Int("skipped", len(result.Skipped)).Msg("import complete")
	return result, nil
}

func fileURL(f source.File) string {
	if f.DownloadURL != "" {
		return f.DownloadURL
	}
	return f.Path
}
