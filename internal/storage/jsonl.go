// Package storage handles chapter persistence in JSONL and SQLite formats.
//
// The JSONL chapter log is the source of truth and is meant to be committed to git.
// The SQLite database is an ephemeral query cache rebuilt from the log.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/storymap/storymap/internal/chapter"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines.
// Chapters carry their full content, so allow up to 16MB per line.
const MaxJSONLLineCapacity = 16 * 1024 * 1024

// ErrMalformedLog is wrapped by every error about a line of the chapter log that
// is not a valid chapter, including leftover git conflict markers.
var ErrMalformedLog = errors.New("malformed chapter log")

// ReadAllChapters reads all chapters from a JSONL file.
func ReadAllChapters(path string) ([]chapter.Chapter, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Missing file returns empty slice
		}
		return nil, fmt.Errorf("opening chapters file: %w", err)
	}
	defer f.Close()

	var chapters []chapter.Chapter
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	scanner.Buffer(make([]byte, 64*1024), MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var c chapter.Chapter
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("%w: parsing line %d: %v", ErrMalformedLog, lineNum, err)
		}
		if c.ID == "" {
			return nil, fmt.Errorf("%w: invalid chapter at line %d: id is required", ErrMalformedLog, lineNum)
		}
		chapters = append(chapters, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading chapters file: %w", err)
	}

	return chapters, nil
}

// writeChapterJSONL marshals a chapter to JSON and writes it as a JSONL line.
func writeChapterJSONL(w io.Writer, c chapter.Chapter) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding chapter: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing chapter: %w", err)
	}
	return nil
}

// AppendChapter adds a chapter to the end of a JSONL file.
func AppendChapter(path string, c chapter.Chapter) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening chapters file for append: %w", err)
	}
	defer f.Close()

	return writeChapterJSONL(f, c)
}

// WriteAllChapters writes all chapters to a JSONL file, replacing existing content.
func WriteAllChapters(path string, chapters []chapter.Chapter) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chapters file: %w", err)
	}
	defer f.Close()

	for _, c := range chapters {
		if err := writeChapterJSONL(f, c); err != nil {
			return err
		}
	}

	return nil
}

// FindByID searches for a chapter by ID.
func FindByID(chapters []chapter.Chapter, id string) (int, bool) {
	for i, c := range chapters {
		if c.ID == id {
			return i, true
		}
	}
	return -1, false
}

// FindByOwnerFilename searches for an owner's chapter by filename.
func FindByOwnerFilename(chapters []chapter.Chapter, owner, filename string) (int, bool) {
	if filename == "" {
		return -1, false
	}
	for i, c := range chapters {
		if c.Owner == owner && c.Filename == filename {
			return i, true
		}
	}
	return -1, false
}
