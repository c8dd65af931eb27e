package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storymap/storymap/internal/chapter"
)

// ChapterLog is the JSONL-backed chapter store. It assigns ids on append. Appends are serialized; reads see whatever has been written.
type ChapterLog struct {
	path string
	mu   sync.Mutex

	newID func() string
	now   func() time.Time
}

// NewChapterLog returns a store over the JSONL file at path.
func NewChapterLog(path string) *ChapterLog {
	return &ChapterLog{
		path:  path,
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Path returns the JSONL file path.
func (l *ChapterLog) Path() string {
	return l.path
}

// ListChapters returns every chapter in the log, in append order.
func (l *ChapterLog) ListChapters(ctx context.Context) ([]chapter.Chapter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadAllChapters(l.path)
}

// AppendChapter stores c under a fresh id and returns the stored record. Any id
// already on c is replaced; a zero creation time is set to now.
func (l *ChapterLog) AppendChapter(ctx context.Context, c chapter.Chapter) (chapter.Chapter, error) {
	if err := ctx.Err(); err != nil {
		return chapter.Chapter{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c.ID = l.newID()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = l.now()
	}
	if err := AppendChapter(l.path, c); err != nil {
		return chapter.Chapter{}, err
	}
	return c, nil
}
