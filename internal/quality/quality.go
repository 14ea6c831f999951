// Package quality reports structural and sentiment inconsistencies in the
// stored events.
package quality

import (
	"context"
	"fmt"
	"math"

	"github.com/jonreiter/govader"

	"github.com/TobiSchelling/geomonitor/internal/database"
)

const (
	// Lexicon compound scores below this magnitude are treated as neutral.
	minCompound = 0.5
	// Model sentiments below this magnitude are treated as neutral.
	minSentiment = 3.0

	listLimit = 100
)

var analyzer = govader.NewSentimentIntensityAnalyzer()

// Store is the read surface the report needs.
type Store interface {
	BilateralWithoutActor2(ctx context.Context, limit int) ([]database.Event, error)
	CountNullSubDimension(ctx context.Context) (int, error)
	ListArticles(ctx context.Context, f database.ArticleFilter) ([]database.Article, error)
	EventSummaries(ctx context.Context) ([]database.EventSummary, error)
}

// FailedArticle is a stored article whose classification gave up.
type FailedArticle struct {
	NewsID    int64  `json:"news_id"`
	Title     string `json:"news_title"`
	SourceURL string `json:"source_url"`
}

// Disagreement is an event whose model sentiment and lexicon score point in
// opposite directions.
type Disagreement struct {
	EventID   string  `json:"event_id"`
	Summary   string  `json:"event_summary"`
	Sentiment float64 `json:"sentiment"`
	Compound  float64 `json:"lexicon_compound"`
}

// Report lists the soft-invariant violations found in storage.
type Report struct {
	BilateralWithoutActor2 []string        `json:"bilateral_without_actor2"`
	NullSubDimension       int             `json:"null_sub_dimension"`
	FailedArticles         []FailedArticle `json:"failed_articles"`
	EventsChecked          int             `json:"events_checked"`
	SentimentDisagreements []Disagreement  `json:"sentiment_disagreements"`
}

// Issues counts every reported problem.
func (r *Report) Issues() int {
	return len(r.BilateralWithoutActor2) + r.NullSubDimension + len(r.FailedArticles) + len(r.SentimentDisagreements)
}

// Build assembles the report.
func Build(ctx context.Context, store Store) (*Report, error) {
	r := &Report{
		BilateralWithoutActor2: []string{},
		FailedArticles:         []FailedArticle{},
		SentimentDisagreements: []Disagreement{},
	}

	events, err := store.BilateralWithoutActor2(ctx, listLimit)
	if err != nil {
		return nil, fmt.Errorf("bilateral check: %w", err)
	}
	for _, e := range events {
		r.BilateralWithoutActor2 = append(r.BilateralWithoutActor2, e.EventID)
	}

	if r.NullSubDimension, err = store.CountNullSubDimension(ctx); err != nil {
		return nil, fmt.Errorf("sub-dimension check: %w", err)
	}

	failed, err := store.ListArticles(ctx, database.ArticleFilter{Status: database.StatusFailed, Limit: listLimit})
	if err != nil {
		return nil, fmt.Errorf("failed articles: %w", err)
	}
	for _, a := range failed {
		r.FailedArticles = append(r.FailedArticles, FailedArticle{NewsID: a.NewsID, Title: a.Title, SourceURL: a.SourceURL})
	}

	summaries, err := store.EventSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("sentiment check: %w", err)
	}
	for _, s := range summaries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.EventsChecked++
		compound := analyzer.PolarityScores(s.Summary).Compound
		if Disagrees(s.Sentiment, compound) {
			r.SentimentDisagreements = append(r.SentimentDisagreements, Disagreement{
				EventID:   s.EventID,
				Summary:   s.Summary,
				Sentiment: s.Sentiment,
				Compound:  math.Round(compound*1000) / 1000,
			})
		}
	}
	return r, nil
}

// Disagrees reports whether a decisive model sentiment and a decisive
// lexicon score have opposite signs.
func Disagrees(sentiment, compound float64) bool {
	if math.Abs(sentiment) < minSentiment || math.Abs(compound) < minCompound {
		return false
	}
	return (sentiment > 0) != (compound > 0)
}
