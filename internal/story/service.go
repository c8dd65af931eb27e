// Package story ties chapter storage, summarization and graph assembly together.
// It is the layer the CLI and HTTP API call; nothing in it holds global state.
package story

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/storymap/storymap/internal/chapter"
	"github.com/storymap/storymap/internal/source"
	"github.com/storymap/storymap/internal/storygraph"
	"github.com/storymap/storymap/internal/summary"
)

// DefaultConcurrency is the number of summaries computed at once by AddChapters.
const DefaultConcurrency = 4

// Store persists chapters. AppendChapter assigns the stored id.
type Store interface {
	ListChapters(ctx context.Context) ([]chapter.Chapter, error)
	AppendChapter(ctx context.Context, c chapter.Chapter) (chapter.Chapter, error)
}

// Source lists and fetches markdown files that can become chapters.
type Source interface {
	Kind() string
	ListMarkdownFiles(ctx context.Context, owner string) ([]source.File, error)
	FetchFile(ctx context.Context, f source.File) (string, error)
}

// Service adds chapters and builds the story graph.
type Service struct {
	store      Store
	summarizer *summary.Summarizer

	maxLength      int
	summaryTimeout time.Duration
	concurrency    int
	now            func() time.Time
	logger         zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSummaryMaxLength sets the summary bound passed to the summarizer.
func WithSummaryMaxLength(n int) Option {
	return func(s *Service) {
		s.maxLength = n
	}
}

// WithSummaryTimeout bounds each summarization call. The deadline applies to the
// model call only; a chapter whose summary times out is still stored, with the
// truncated content as its summary. Zero means no bound beyond the caller's context.
func WithSummaryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.summaryTimeout = d
		}
	}
}

// WithConcurrency sets how many summaries AddChapters computes at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock sets the source of chapter creation times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger for import decisions.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a Service over store. A nil summarizer summarizes by truncation.
func New(store Store, summarizer *summary.Summarizer, opts ...Option) *Service {
	if summarizer == nil {
		summarizer = summary.New(nil)
	}
	s := &Service{
		store:       store,
		summarizer:  summarizer,
		maxLength:   summary.DefaultMaxLength,
		concurrency: DefaultConcurrency,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddChapter validates d, summarizes its content and stores the result.
// Storage errors are returned as-is.
func (s *Service) AddChapter(ctx context.Context, d chapter.Draft) (chapter.Chapter, error) {
	if err := d.Validate(); err != nil {
		return chapter.Chapter{}, err
	}
	return s.store.AppendChapter(ctx, s.newChapter(d, s.summarize(ctx, d.Content)))
}

// summarize runs one summarization under the configured timeout.
func (s *Service) summarize(ctx context.Context, content string) string {
	if s.summaryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.summaryTimeout)
		defer cancel()
	}
	return s.summarizer.Summarize(ctx, content, s.maxLength)
}

// AddChapters stores drafts in input order. Every draft is validated before any
// work starts. Summaries are computed concurrently; appends happen one at a time and
// stop at the first storage error, returning the chapters stored so far.
func (s *Service) AddChapters(ctx context.Context, drafts []chapter.Draft) ([]chapter.Chapter, error) {
	for i, d := range drafts {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("chapter %d (%s): %w", i+1, d.Filename, err)
		}
	}

	summaries := make([]string, len(drafts))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i := range drafts {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			summaries[idx] = s.summarize(ctx, drafts[idx].Content)
		}(i)
	}
	wg.Wait()

	stored := make([]chapter.Chapter, 0, len(drafts))
	for i, d := range drafts {
		c, err := s.store.AppendChapter(ctx, s.newChapter(d, summaries[i]))
		if err != nil {
			return stored, err
		}
		stored = append(stored, c)
	}
	return stored, nil
}

func (s *Service) newChapter(d chapter.Draft, synopsis string) chapter.Chapter {
	return chapter.Chapter{
		Owner:     d.Owner,
		Filename:  d.Filename,
		Title:     d.Title,
		Content:   d.Content,
		Summary:   synopsis,
		CreatedAt: s.now(),
		Source:    d.Source,
	}
}

// ListChapters returns every stored chapter.
func (s *Service) ListChapters(ctx context.Context) ([]chapter.Chapter, error) {
	return s.store.ListChapters(ctx)
}

// BuildGraph assembles the story graph from every stored chapter. Storage errors are
// returned as-is; an ordering error fails the whole build.
func (s *Service) BuildGraph(ctx context.Context) (*storygraph.Graph, error) {
	chapters, err := s.store.ListChapters(ctx)
	if err != nil {
		return nil, err
	}
	return storygraph.Assemble(chapters)
}
