// Package summary produces bounded-length chapter synopses with an LLM, falling back
// to deterministic truncation whenever the model cannot be used.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
)

const (
	// DefaultMaxLength is the summary bound used when callers pass maxLength <= 0.
	DefaultMaxLength = 300

	// charsPerToken converts a character bound into a completion token budget.
	// 300 characters -> 100 tokens.
	charsPerToken = 3
)

// ErrNoModel marks fallbacks taken because no model is configured.
var ErrNoModel = errors.New("no summarization model configured")

// Failure describes why the model path was abandoned. It is logged, never returned.
type Failure struct {
	Reason string // "no_model", "call_failed", "empty_response"
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("summarization failed (%s): %v", f.Reason, f.Err)
	}
	return fmt.Sprintf("summarization failed (%s)", f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Summarizer turns chapter content into a summary. It is safe for concurrent use:
// it holds no mutable state after construction.
type Summarizer struct {
	model  llms.Model
	logger zerolog.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Summarizer) {
		s.logger = l
	}
}

// New creates a Summarizer. A nil model is allowed; every call then falls back to
// truncation.
func New(model llms.Model, opts ...Option) *Summarizer {
	s := &Summarizer{
		model:  model,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize returns a synopsis of content.
//
// One model call is made, without retries and without an internal timeout; bound
// latency through ctx. A successful response is returned trimmed of surrounding
// whitespace and is not shortened even if it exceeds maxLength. On any failure the
// failure is logged and the first maxLength characters of content are returned.
func (s *Summarizer) Summarize(ctx context.Context, content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	text, fail := s.callModel(ctx, content, maxLength)
	if fail != nil {
		s.logger.Warn().
			Err(fail).
			Str("reason", fail.Reason).
			Int("content_length", utf8.RuneCountInString(content)).
			Int("max_length", maxLength).
			Msg("Summarization fell back to truncation")
		return Truncate(content, maxLength)
	}
	return text
}

func (s *Summarizer) callModel(ctx context.Context, content string, maxLength int) (string, *Failure) {
	if s.model == nil {
		return "", &Failure{Reason: "no_model", Err: ErrNoModel}
	}

	response, err := llms.GenerateFromSinglePrompt(ctx, s.model, Prompt(content, maxLength),
		llms.WithMaxTokens(TokenBudget(maxLength)),
	)
	if err != nil {
		return "", &Failure{Reason: "call_failed", Err: err}
	}

	text := strings.TrimSpace(response)
	if text == "" {
		return "", &Failure{Reason: "empty_response"}
	}
	return text, nil
}

// Prompt builds the fixed summarization instruction for content.
func Prompt(content string, maxLength int) string {
	return fmt.Sprintf("Summarize this text in under %d characters: %s", maxLength, content)
}

// TokenBudget returns the completion token limit for a summary of maxLength characters.
func TokenBudget(maxLength int) int {
	return (maxLength + charsPerToken - 1) / charsPerToken
}

// Truncate returns the first maxLength characters of content, without an ellipsis.
// Content that already fits is returned unchanged. Multi-byte characters are never
// split.
func Truncate(content string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if len(content) <= maxLength {
		return content
	}

	count := 0
	for i := range content {
		if count == maxLength {
			return content[:i]
		}
		count++
	}
	return content
}
