package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/TobiSchelling/geomonitor/internal/database"
)

// Progress is called once per finished article. index is the article's
// position in the input slice.
type Progress func(index, total int, article RawArticle, report Report)

// Summary aggregates the outcomes of a batch.
type Summary struct {
	Fetched              int
	Rejected             int
	Invalid              int
	StoredWithEvents     int
	StoredZeroEvents     int
	FailedClassification int
	FailedTranslation    int
	TranslationFallbacks int
	AlreadyIngested      int
	StorageErrors        int
	Events               int
	Aborted              bool
}

// Add folds one report into the summary.
func (s *Summary) Add(r Report) {
	switch r.Outcome {
	case OutcomeRejected:
		s.Rejected++
	case OutcomeInvalid:
		s.Invalid++
	case OutcomeAlreadyIngested:
		s.AlreadyIngested++
	case OutcomeFailedTranslation:
		s.FailedTranslation++
	case OutcomeStoredWithEvents:
		s.StoredWithEvents++
	case OutcomeStoredZeroEvents:
		s.StoredZeroEvents++
	case OutcomeFailedClassification:
		s.FailedClassification++
	case OutcomeStorageError:
		s.StorageErrors++
	case OutcomeAborted:
		s.Aborted = true
	}
	if r.TranslationFallback {
		s.TranslationFallbacks++
	}
	s.Events += len(r.EventIDs)
}

// String renders the summary on one line.
func (s Summary) String() string {
	out := fmt.Sprintf("fetched %d, rejected %d, stored with events %d, stored zero events %d, "+
		"failed classification %d, failed translation %d, already ingested %d, events %d",
		s.Fetched, s.Rejected, s.StoredWithEvents, s.StoredZeroEvents,
		s.FailedClassification, s.FailedTranslation, s.AlreadyIngested, s.Events)
	if s.TranslationFallbacks > 0 {
		out += fmt.Sprintf(", translation fallbacks %d", s.TranslationFallbacks)
	}
	if s.Invalid > 0 {
		out += fmt.Sprintf(", invalid %d", s.Invalid)
	}
	if s.StorageErrors > 0 {
		out += fmt.Sprintf(", storage errors %d", s.StorageErrors)
	}
	if s.Aborted {
		out += " (aborted)"
	}
	return out
}

// RunReport converts the summary into a run-history record.
func (s Summary) RunReport(err error) database.RunReport {
	rr := database.RunReport{
		Fetched:              s.Fetched,
		Rejected:             s.Rejected,
		Invalid:              s.Invalid,
		StoredWithEvents:     s.StoredWithEvents,
		StoredZeroEvents:     s.StoredZeroEvents,
		FailedClassification: s.FailedClassification,
		FailedTranslation:    s.FailedTranslation,
		AlreadyIngested:      s.AlreadyIngested,
		Events:               s.Events,
		Status:               database.RunFinished,
	}
	if s.Aborted {
		rr.Status = database.RunAborted
	}
	if err != nil {
		rr.Error = err.Error()
	}
	return rr
}

// RunBatch processes articles and returns the aggregate summary. The batch
// stops between articles when ctx is done and immediately when storage is
// unavailable; the returned error is the cause.
func (o *Orchestrator) RunBatch(ctx context.Context, articles []RawArticle, progress Progress) (Summary, error) {
	if o.workers > 1 && len(articles) > 1 {
		return o.runConcurrent(ctx, articles, progress)
	}

	var s Summary
	for i, a := range articles {
		if err := ctx.Err(); err != nil {
			s.Aborted = true
			return s, err
		}
		s.Fetched++
		r, err := o.Process(ctx, a)
		s.Add(r)
		if progress != nil {
			progress(i, len(articles), a, r)
		}
		if err != nil {
			s.Aborted = true
			o.logger.Error("batch aborted", "source_url", a.SourceURL, "error", err)
			return s, err
		}
	}
	o.logger.Info("batch complete", "summary", s.String())
	return s, nil
}

func (o *Orchestrator) runConcurrent(ctx context.Context, articles []RawArticle, progress Progress) (Summary, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		mu sync.Mutex
		s  Summary
		wg sync.WaitGroup
	)
	jobs := make(chan int)

	for range o.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				a := articles[i]
				r, err := o.Process(ctx, a)

				mu.Lock()
				s.Fetched++
				s.Add(r)
				if progress != nil {
					progress(i, len(articles), a, r)
				}
				mu.Unlock()

				if err != nil {
					cancel(err)
				}
			}
		}()
	}

feed:
	for i := range articles {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		s.Aborted = true
		o.logger.Error("batch aborted", "error", err)
		return s, err
	}
	o.logger.Info("batch complete", "summary", s.String())
	return s, nil
}
