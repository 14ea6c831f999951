// Package pipeline runs collection and ingestion as recorded runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/TobiSchelling/geomonitor/internal/collect"
	"github.com/TobiSchelling/geomonitor/internal/database"
	"github.com/TobiSchelling/geomonitor/internal/ingest"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID   string
	Steps   []StepResult
	Summary ingest.Summary
}

// Err returns the first step error.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

// Collector produces raw articles.
type Collector interface {
	Collect(ctx context.Context, daysBack int) ([]ingest.RawArticle, *collect.Result)
}

// Pipeline wires collection, ingestion and run history together.
type Pipeline struct {
	db           *database.DB
	collector    Collector
	orchestrator *ingest.Orchestrator
	seen         collect.SeenSet
	logger       *slog.Logger
}

// New creates a pipeline. collector and seen may be nil when only files are
// ingested.
func New(db *database.DB, collector Collector, orchestrator *ingest.Orchestrator, seen collect.SeenSet, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		db:           db,
		collector:    collector,
		orchestrator: orchestrator,
		seen:         seen,
		logger:       logger,
	}
}

// Run collects from the configured feeds and ingests the result.
func (p *Pipeline) Run(ctx context.Context, daysBack int) *Result {
	if p.collector == nil {
		return &Result{Steps: []StepResult{{Name: "Collect", Err: errors.New("no collector configured")}}}
	}

	p.logger.Info("step 1/2: collecting articles")
	articles, cr := p.collector.Collect(ctx, daysBack)
	collectStep := StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("Collected %d articles (%d found, %d already seen, %d description fallbacks, %d failed)",
			cr.Collected, cr.TotalFound, cr.Seen, cr.Fallbacks, cr.Failed),
	}

	p.logger.Info("step 2/2: ingesting articles", "count", len(articles))
	r := p.Ingest(ctx, articles)
	r.Steps = append([]StepResult{collectStep}, r.Steps...)
	return r
}

// Ingest runs one recorded batch over the given articles.
func (p *Pipeline) Ingest(ctx context.Context, articles []ingest.RawArticle) *Result {
	r := &Result{}

	runID, err := p.db.StartRun(ctx)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Ingest", Err: fmt.Errorf("starting run: %w", err)})
		return r
	}
	r.RunID = runID

	summary, batchErr := p.orchestrator.RunBatch(ctx, articles, p.markSeen(ctx))
	r.Summary = summary
	r.Steps = append(r.Steps, StepResult{Name: "Ingest", Summary: summary.String(), Err: batchErr})

	// The run record is written even when the batch was cancelled.
	finishCtx := context.WithoutCancel(ctx)
	if err := p.db.FinishRun(finishCtx, runID, summary.RunReport(batchErr)); err != nil {
		p.logger.Error("recording run failed", "run_id", runID, "error", err)
		r.Steps = append(r.Steps, StepResult{Name: "Record", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{Name: "Record", Summary: "Run " + runID})
	return r
}

// markSeen records URLs whose outcome is final, so the next collection
// does not fetch them again.
func (p *Pipeline) markSeen(ctx context.Context) ingest.Progress {
	return func(index, total int, a ingest.RawArticle, rep ingest.Report) {
		p.logger.Info("article processed",
			"index", index+1, "total", total, "source_url", a.SourceURL,
			"outcome", rep.Outcome, "events", len(rep.EventIDs))
		if p.seen == nil || !final(rep.Outcome) {
			return
		}
		if err := p.seen.Mark(ctx, a.SourceURL); err != nil {
			p.logger.Warn("marking URL seen failed", "source_url", a.SourceURL, "error", err)
		}
	}
}

// final excludes outcomes a later run may still turn into a stored article.
func final(o ingest.Outcome) bool {
	switch o {
	case ingest.OutcomeInvalid, ingest.OutcomeFailedTranslation, ingest.OutcomeStorageError, ingest.OutcomeAborted:
		return false
	}
	return true
}

// DryRun collects without storing anything.
func (p *Pipeline) DryRun(ctx context.Context, daysBack int) *Result {
	r := &Result{}
	if p.collector == nil {
		r.Steps = append(r.Steps, StepResult{Name: "Collect", Err: errors.New("no collector configured")})
		return r
	}
	articles, cr := p.collector.Collect(ctx, daysBack)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] %d articles would be ingested (%d already seen)", len(articles), cr.Seen),
	})
	return r
}

// Reclassify re-runs classification for articles in the given status
// (pending or failed). New events are appended to any existing ones.
func (p *Pipeline) Reclassify(ctx context.Context, status string, limit int) StepResult {
	step := StepResult{Name: "Reclassify"}
	articles, err := p.db.ListArticles(ctx, database.ArticleFilter{Status: status, Limit: limit})
	if err != nil {
		step.Err = err
		return step
	}

	var s ingest.Summary
	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			step.Err = err
			break
		}
		s.Fetched++
		rep, err := p.orchestrator.Reclassify(ctx, a)
		s.Add(rep)
		p.logger.Info("article reclassified", "news_id", a.NewsID, "outcome", rep.Outcome, "events", len(rep.EventIDs))
		if err != nil {
			step.Err = err
			break
		}
	}
	step.Summary = fmt.Sprintf("Reclassified %d %s articles: %d with events, %d zero events, %d failed, %d events",
		s.Fetched, status, s.StoredWithEvents, s.StoredZeroEvents, s.FailedClassification, s.Events)
	return step
}
