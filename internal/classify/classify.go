// Package classify extracts international events from an article with a
// single LLM call and validates them against the event taxonomy.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/TobiSchelling/geomonitor/internal/llm"
)

var (
	// ErrTimeout marks a classification call that exceeded its deadline.
	ErrTimeout = errors.New("classification timeout")
	// ErrProvider marks any other failure of the classification service.
	ErrProvider = errors.New("classification service error")
	// ErrNoProvider is returned when no LLM provider is configured.
	ErrNoProvider = errors.New("no classification provider configured")
)

const (
	DefaultMaxTokens = 4096
	DefaultMaxChars  = 6000
)

// Article is the input to classification.
type Article struct {
	NewsID          int64
	Title           string
	Text            string
	PublicationDate string
	SourceCountry   string
}

// Rejection records a candidate dropped by validation.
type Rejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Result is the outcome of one classification call. Zero events is valid.
type Result struct {
	Events     []Event
	Rejections []Rejection
	Raw        string
}

// Classifier performs event extraction. It holds no per-article state.
type Classifier struct {
	provider    llm.Provider
	lookup      Lookup
	maxTokens   int
	maxChars    int
	temperature float64
	logger      *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMaxTokens sets the response token budget.
func WithMaxTokens(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithMaxChars bounds the article text sent to the model.
func WithMaxChars(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Classifier) { c.temperature = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Classifier.
func New(provider llm.Provider, lookup Lookup, opts ...Option) *Classifier {
	c := &Classifier{
		provider:  provider,
		lookup:    lookup,
		maxTokens: DefaultMaxTokens,
		maxChars:  DefaultMaxChars,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify sends the article to the model once and validates the events it
// returns. Errors wrap ErrTimeout, ErrProvider or ErrParse.
func (c *Classifier) Classify(ctx context.Context, a Article) (Result, error) {
	if c.provider == nil {
		return Result{}, ErrNoProvider
	}

	raw, err := c.provider.Generate(ctx, llm.Request{
		System:      SystemPrompt(),
		Prompt:      BuildPrompt(a, c.maxChars),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		JSON:        true,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		if errors.Is(err, context.Canceled) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	parsed := Parse(raw)
	if !parsed.OK {
		return Result{Raw: raw}, parsed.Err()
	}

	res := Result{Raw: raw}
	for i, cand := range parsed.Candidates {
		ev, err := Validate(cand, c.lookup)
		if err != nil {
			res.Rejections = append(res.Rejections, Rejection{Index: i, Reason: err.Error()})
			c.logger.Debug("event rejected", "news_id", a.NewsID, "index", i, "reason", err)
			continue
		}
		res.Events = append(res.Events, ev)
	}
	return res, nil
}
