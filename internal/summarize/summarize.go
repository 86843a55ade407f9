// Package summarize condenses assistant replies with the configured language
// model, mainly so they can be spoken aloud.
package summarize

import (
	"context"
	"errors"
	"fmt"

	"github.com/iksnae/voicechat/internal"
	"github.com/iksnae/voicechat/internal/llm"
)

// Style selects the kind of summary requested
type Style string

const (
	StyleConcise      Style = "concise"
	StyleDetailed     Style = "detailed"
	StyleBulletPoints Style = "bullet-points"
)

const (
	DefaultMaxLength = 150
	SpokenMaxLength  = 100
)

// ErrSummaryFailed wraps every generator failure
var ErrSummaryFailed = errors.New("failed to generate summary")

type options struct {
	maxLength int
	keyPoints bool
	style     Style
}

// Option configures a single Summarize call
type Option func(*options)

// WithMaxLength sets the approximate word ceiling. Values below 1 keep the default.
func WithMaxLength(words int) Option {
	return func(o *options) {
		if words > 0 {
			o.maxLength = words
		}
	}
}

// WithKeyPoints toggles the request for key points or takeaways
func WithKeyPoints(include bool) Option {
	return func(o *options) {
		o.keyPoints = include
	}
}

// WithStyle sets the summary style
func WithStyle(style Style) Option {
	return func(o *options) {
		if style != "" {
			o.style = style
		}
	}
}

// ParseStyle validates a style name given on the command line
func ParseStyle(name string) (Style, error) {
	switch Style(name) {
	case StyleConcise, StyleDetailed, StyleBulletPoints:
		return Style(name), nil
	default:
		return "", fmt.Errorf("unknown summary style %q (supported: concise, detailed, bullet-points)", name)
	}
}

// Summarizer builds summarization prompts and sends them to a Generator
type Summarizer struct {
	gen llm.Generator
}

// New creates a Summarizer
func New(gen llm.Generator) *Summarizer {
	return &Summarizer{gen: gen}
}

// Summarize returns a summary of text. The prompt is sent without history.
func (s *Summarizer) Summarize(ctx context.Context, text string, opts ...Option) (string, error) {
	o := options{
		maxLength: DefaultMaxLength,
		keyPoints: true,
		style:     StyleConcise,
	}
	for _, opt := range opts {
		opt(&o)
	}

	summary, err := s.gen.GenerateResponse(ctx, buildPrompt(text, o), nil)
	if err != nil {
		internal.LogError("Error generating summary: %v", err)
		return "", fmt.Errorf("%w: %v", ErrSummaryFailed, err)
	}
	return summary, nil
}

// SpokenSummary is Summarize tuned for speech: at most SpokenMaxLength words
// in the concise style.
func (s *Summarizer) SpokenSummary(ctx context.Context, text string, opts ...Option) (string, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	maxLength := SpokenMaxLength
	if o.maxLength > 0 && o.maxLength < SpokenMaxLength {
		maxLength = o.maxLength
	}

	opts = append(opts, WithMaxLength(maxLength), WithStyle(StyleConcise))
	return s.Summarize(ctx, text, opts...)
}

func styleInstruction(style Style) string {
	switch style {
	case StyleConcise:
		return "Provide a concise summary that captures the main points in a clear, brief manner."
	case StyleDetailed:
		return "Provide a detailed summary that includes important context and nuances."
	case StyleBulletPoints:
		return "Provide a summary in bullet-point format highlighting the key information."
	default:
		return "Provide a clear and informative summary."
	}
}

func buildPrompt(text string, o options) string {
	keyPoints := ""
	if o.keyPoints {
		keyPoints = " Also include the most important key points or takeaways."
	}

	return fmt.Sprintf("Please summarize the following text in approximately %d words or less. %s%s\n\nText to summarize:\n%s\n\nSummary:",
		o.maxLength, styleInstruction(o.style), keyPoints, text)
}
