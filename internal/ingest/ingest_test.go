package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TobiSchelling/geomonitor/internal/classify"
	"github.com/TobiSchelling/geomonitor/internal/countries"
	"github.com/TobiSchelling/geomonitor/internal/database"
	"github.com/TobiSchelling/geomonitor/internal/filter"
	"github.com/TobiSchelling/geomonitor/internal/llm"
	"github.com/TobiSchelling/geomonitor/internal/translate"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.Options{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeClassifier returns one bilateral USA/CHN event unless told otherwise
// for a title.
type fakeClassifier struct {
	mu      sync.Mutex
	calls   map[string]int
	timeout map[string]bool
	failN   map[string]int
	err     error
	events  int
}

func (f *fakeClassifier) Classify(ctx context.Context, a classify.Article) (classify.Result, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[a.Title]++
	n := f.calls[a.Title]
	f.mu.Unlock()

	if f.timeout[a.Title] {
		<-ctx.Done()
		return classify.Result{}, fmt.Errorf("%w: %v", classify.ErrTimeout, ctx.Err())
	}
	if n <= f.failN[a.Title] {
		return classify.Result{}, &classify.ParseError{Raw: "nope", Reason: "not JSON"}
	}
	if f.err != nil {
		return classify.Result{}, f.err
	}
	count := f.events
	if count == 0 {
		count = 1
	}
	var res classify.Result
	for range count {
		res.Events = append(res.Events, classify.Event{
			Summary:   "Tariffs announced",
			Dimension: "Economic Relations",
			Direction: "bilateral",
			Sentiment: -4,
			Actors:    []classify.Actor{{ISO3: "USA", Role: "actor1"}, {ISO3: "CHN", Role: "actor2"}},
		})
	}
	return res, nil
}

func (f *fakeClassifier) callsFor(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[title]
}

func admittable(url, title string) RawArticle {
	return RawArticle{
		Headline:      title,
		ArticleText:   "The United States announced new sanctions against China on Monday.",
		SourceURL:     url,
		SourceDomain:  "example.com",
		SourceCountry: "USA",
		PublishedDate: "2025-03-01",
	}
}

func newTestOrchestrator(db *database.DB, c Classifier, opts ...Option) *Orchestrator {
	opts = append([]Option{WithClassifyTimeout(50 * time.Millisecond)}, opts...)
	return New(db, nil, filter.New(countries.Default()), c, opts...)
}

func TestRejectedArticlePersistsNothing(t *testing.T) {
	db := openTestDB(t)
	c := &fakeClassifier{}
	o := newTestOrchestrator(db, c)

	raw := RawArticle{
		Headline:    "Local bakery wins award",
		ArticleText: "A bakery in Ohio won a regional prize for its bread.",
		SourceURL:   "https://example.com/bakery",
	}
	r, err := o.Process(context.Background(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Outcome != OutcomeRejected {
		t.Fatalf("expected rejected, got %s", r.Outcome)
	}
	exists, _ := db.ArticleExistsByURL(context.Background(), raw.SourceURL)
	if exists {
		t.Error("rejected article must not be stored")
	}
	if c.callsFor(raw.Headline) != 0 {
		t.Error("rejected article must not be classified")
	}
}

func TestMissingURLIsInvalidNotRejected(t *testing.T) {
	db := openTestDB(t)
	c := &fakeClassifier{}
	o := newTestOrchestrator(db, c)

	s, err := o.RunBatch(context.Background(), []RawArticle{
		admittable("", "No URL"),
		{Headline: "Local bakery wins award", ArticleText: "A bakery won.", SourceURL: "https://example.com/bakery"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Invalid != 1 || s.Rejected != 1 {
		t.Errorf("expected 1 invalid and 1 rejected, got %+v", s)
	}
	if c.callsFor("No URL") != 0 {
		t.Error("invalid article must not be classified")
	}
	if rr := s.RunReport(nil); rr.Invalid != 1 || rr.Rejected != 1 {
		t.Errorf("unexpected run report: %+v", rr)
	}
	if !strings.Contains(s.String(), "invalid 1") {
		t.Errorf("summary %q missing invalid count", s.String())
	}
}

func TestReingestIsNoOp(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	c := &fakeClassifier{events: 2}
	o := newTestOrchestrator(db, c)
	raw := admittable("https://example.com/tariffs", "Tariffs")

	first, err := o.Process(ctx, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Outcome != OutcomeStoredWithEvents || len(first.EventIDs) != 2 {
		t.Fatalf("unexpected first report: %+v", first)
	}
	if first.EventIDs[0] != fmt.Sprintf("%d-1", first.NewsID) || first.EventIDs[1] != fmt.Sprintf("%d-2", first.NewsID) {
		t.Errorf("unexpected event ids: %v", first.EventIDs)
	}

	second, err := o.Process(ctx, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Outcome != OutcomeAlreadyIngested {
		t.Errorf("expected already ingested, got %s", second.Outcome)
	}
	if c.callsFor("Tariffs") != 1 {
		t.Errorf("expected one classification call, got %d", c.callsFor("Tariffs"))
	}
	stats, _ := db.GetStats(ctx)
	if stats.TotalArticles != 1 || stats.TotalEvents != 2 {
		t.Errorf("expected 1 article and 2 events, got %d and %d", stats.TotalArticles, stats.TotalEvents)
	}
}

func TestBatchWithTimingOutArticle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	c := &fakeClassifier{timeout: map[string]bool{"Two": true}}
	o := newTestOrchestrator(db, c)

	batch := []RawArticle{
		admittable("https://example.com/1", "One"),
		admittable("https://example.com/2", "Two"),
		admittable("https://example.com/3", "Three"),
	}
	var seen []int
	s, err := o.RunBatch(ctx, batch, func(i, total int, _ RawArticle, _ Report) {
		seen = append(seen, i)
		if total != 3 {
			t.Errorf("expected total 3, got %d", total)
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Fetched != 3 || s.StoredWithEvents != 2 || s.FailedClassification != 1 || s.Events != 2 {
		t.Errorf("unexpected summary: %s", s)
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 progress calls, got %v", seen)
	}
	if c.callsFor("Two") != DefaultMaxAttempts {
		t.Errorf("expected %d attempts, got %d", DefaultMaxAttempts, c.callsFor("Two"))
	}

	a, err := db.GetArticleByURL(ctx, "https://example.com/2")
	if err != nil || a == nil {
		t.Fatalf("timed-out article should be stored: %v", err)
	}
	if a.ClassificationStatus != database.StatusFailed {
		t.Errorf("expected failed status, got %s", a.ClassificationStatus)
	}
	events, _ := db.EventsForArticle(ctx, a.NewsID)
	if len(events) != 0 {
		t.Errorf("expected zero events, got %d", len(events))
	}
}

func TestParseErrorRetriedThenSucceeds(t *testing.T) {
	db := openTestDB(t)
	c := &fakeClassifier{failN: map[string]int{"Flaky": 2}}
	o := newTestOrchestrator(db, c)

	r, err := o.Process(context.Background(), admittable("https://example.com/flaky", "Flaky"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Outcome != OutcomeStoredWithEvents || r.Attempts != 3 {
		t.Errorf("expected success on attempt 3, got %s after %d", r.Outcome, r.Attempts)
	}
}

func TestRetryExhaustionOnParseErrors(t *testing.T) {
	db := openTestDB(t)
	c := &fakeClassifier{failN: map[string]int{"Broken": 10}}
	o := newTestOrchestrator(db, c, WithMaxAttempts(2))

	r, _ := o.Process(context.Background(), admittable("https://example.com/broken", "Broken"))
	if r.Outcome != OutcomeFailedClassification || r.Attempts != 2 {
		t.Errorf("expected failure after 2 attempts, got %s after %d", r.Outcome, r.Attempts)
	}
	if !errors.Is(r.Err, classify.ErrParse) {
		t.Errorf("expected ErrParse, got %v", r.Err)
	}
}

func TestMissingProviderIsNotRetried(t *testing.T) {
	db := openTestDB(t)
	c := &fakeClassifier{err: classify.ErrNoProvider}
	o := newTestOrchestrator(db, c)

	r, _ := o.Process(context.Background(), admittable("https://example.com/np", "NoProvider"))
	if r.Outcome != OutcomeFailedClassification || r.Attempts != 1 {
		t.Errorf("expected a single failed attempt, got %s after %d", r.Outcome, r.Attempts)
	}
}

func TestZeroEventsIsDistinctFromFailure(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	provider := &llmStub{response: `{"events": []}`}
	o := newTestOrchestrator(db, classify.New(provider, countries.Default()))

	r, err := o.Process(ctx, admittable("https://example.com/zero", "Zero"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Outcome != OutcomeStoredZeroEvents {
		t.Fatalf("expected zero events outcome, got %s", r.Outcome)
	}
	a, _ := db.GetArticleByURL(ctx, "https://example.com/zero")
	if a.ClassificationStatus != database.StatusClassified {
		t.Errorf("expected classified, got %s", a.ClassificationStatus)
	}
}

type llmStub struct{ response string }

func (s *llmStub) Generate(context.Context, llm.Request) (string, error) { return s.response, nil }
func (s *llmStub) IsConfigured() bool                                    { return true }
func (s *llmStub) Name() string                                          { return "stub" }

func TestBilateralEndToEnd(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	provider := &llmStub{response: `[{"event_summary": "US sanctions on China", "dimension": "Economic Relations",
		"sub_dimension": "sanctions", "actor1": "United States", "actor2": ["China"], "sentiment": -14,
		"confidence_level": 0.8}]`}
	o := newTestOrchestrator(db, classify.New(provider, countries.Default()))

	r, err := o.Process(ctx, admittable("https://example.com/e2e", "Sanctions"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.EventIDs) != 1 {
		t.Fatalf("expected one event, got %+v", r)
	}
	ev, _ := db.GetEvent(ctx, r.EventIDs[0])
	if ev == nil || *ev.Direction != "bilateral" || *ev.Sentiment != -10 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if len(ev.Actors) != 2 || ev.Actors[0].ISO3 != "USA" || ev.Actors[1].ISO3 != "CHN" {
		t.Errorf("unexpected actors: %+v", ev.Actors)
	}
}

type fakeNormalizer struct {
	res translate.Result
	err error
}

func (f *fakeNormalizer) Normalize(_ context.Context, text, title, _ string) (translate.Result, error) {
	if f.err != nil {
		return translate.Result{Text: text, Title: title, DetectedLanguage: f.res.DetectedLanguage}, f.err
	}
	return f.res, nil
}

func TestTranslationFailurePolicies(t *testing.T) {
	ctx := context.Background()
	failing := &fakeNormalizer{
		res: translate.Result{DetectedLanguage: "de"},
		err: fmt.Errorf("%w: service down", translate.ErrUnavailable),
	}

	t.Run("skip", func(t *testing.T) {
		db := openTestDB(t)
		o := New(db, failing, filter.New(countries.Default()), &fakeClassifier{})
		r, err := o.Process(ctx, admittable("https://example.com/de", "Sanktionen"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Outcome != OutcomeFailedTranslation || !errors.Is(r.Err, translate.ErrUnavailable) {
			t.Errorf("unexpected report: %+v", r)
		}
		if exists, _ := db.ArticleExistsByURL(ctx, "https://example.com/de"); exists {
			t.Error("skipped article must not be stored")
		}
	})

	t.Run("passthrough", func(t *testing.T) {
		db := openTestDB(t)
		o := New(db, failing, filter.New(countries.Default()), &fakeClassifier{},
			WithTranslationPolicy(PolicyPassthrough))
		r, err := o.Process(ctx, admittable("https://example.com/de", "Sanktionen"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Outcome != OutcomeStoredWithEvents || !r.TranslationFallback || r.Translated {
			t.Errorf("unexpected report: %+v", r)
		}
		a, _ := db.GetArticleByURL(ctx, "https://example.com/de")
		if a == nil || *a.Language != "de" || *a.LanguageDetected != "de" {
			t.Errorf("expected original language recorded, got %+v", a)
		}
	})
}

func TestTranslatedTextIsFiltered(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	n := &fakeNormalizer{res: translate.Result{
		Text:             "France and Germany signed a defense treaty.",
		Title:            "Treaty signed",
		DetectedLanguage: "fr",
		WasTranslated:    true,
	}}
	o := New(db, n, filter.New(countries.Default()), &fakeClassifier{})

	raw := RawArticle{Headline: "Traité signé", ArticleText: "La France et l'Allemagne ont signé un traité.", SourceURL: "https://example.fr/a"}
	r, err := o.Process(ctx, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Outcome != OutcomeStoredWithEvents || !r.Translated {
		t.Fatalf("unexpected report: %+v", r)
	}
	a, _ := db.GetArticleByURL(ctx, raw.SourceURL)
	if a.Title != "Treaty signed" || *a.Language != "en" || *a.LanguageDetected != "fr" {
		t.Errorf("expected translated article, got %+v", a)
	}
}

// unavailableStore fails every call as if the database were gone.
type unavailableStore struct{}

func (unavailableStore) ArticleExistsByURL(context.Context, string) (bool, error) {
	return false, fmt.Errorf("checking url: %w", database.ErrUnavailable)
}
func (unavailableStore) InsertArticle(context.Context, database.NewArticle) (int64, error) {
	return 0, database.ErrUnavailable
}
func (unavailableStore) InsertEventSet(context.Context, int64, []database.NewEvent) ([]string, error) {
	return nil, database.ErrUnavailable
}
func (unavailableStore) SetClassificationStatus(context.Context, int64, string) error {
	return database.ErrUnavailable
}

func TestStorageUnavailableAbortsBatch(t *testing.T) {
	o := New(unavailableStore{}, nil, filter.New(countries.Default()), &fakeClassifier{})
	calls := 0
	s, err := o.RunBatch(context.Background(), []RawArticle{
		admittable("https://example.com/1", "One"),
		admittable("https://example.com/2", "Two"),
	}, func(int, int, RawArticle, Report) { calls++ })
	if !errors.Is(err, database.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !s.Aborted || s.Fetched != 1 || calls != 1 {
		t.Errorf("expected abort after first article, got %+v (calls %d)", s, calls)
	}
}

func TestCancellationStopsBetweenArticles(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o := newTestOrchestrator(db, &fakeClassifier{})

	s, err := o.RunBatch(ctx, []RawArticle{
		admittable("https://example.com/1", "One"),
		admittable("https://example.com/2", "Two"),
		admittable("https://example.com/3", "Three"),
	}, func(int, int, RawArticle, Report) { cancel() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.Fetched != 1 || s.StoredWithEvents != 1 || !s.Aborted {
		t.Errorf("unexpected summary: %s", s)
	}
	stats, _ := db.GetStats(context.Background())
	if stats.TotalArticles != 1 || stats.TotalEvents != 1 {
		t.Errorf("first article should be fully stored, got %+v", stats)
	}
}

type countingLimiter struct{ n atomic.Int32 }

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.n.Add(1)
	return ctx.Err()
}

func TestLimiterGuardsEveryAttempt(t *testing.T) {
	db := openTestDB(t)
	l := &countingLimiter{}
	c := &fakeClassifier{failN: map[string]int{"Flaky": 1}}
	o := newTestOrchestrator(db, c, WithLimiter(l))

	if _, err := o.Process(context.Background(), admittable("https://example.com/flaky", "Flaky")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.n.Load() != 2 {
		t.Errorf("expected 2 limiter waits, got %d", l.n.Load())
	}
}

func TestNewLimiterSpacesCalls(t *testing.T) {
	l := NewLimiter(30 * time.Millisecond)
	ctx := context.Background()
	start := time.Now()
	for range 3 {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected pacing, three calls took %v", elapsed)
	}
}

func TestConcurrentWorkersFirstWriterWins(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	o := newTestOrchestrator(db, &fakeClassifier{}, WithWorkers(4))

	var batch []RawArticle
	for i := range 8 {
		batch = append(batch, admittable(fmt.Sprintf("https://example.com/%d", i%3), "Article"))
	}
	s, err := o.RunBatch(ctx, batch, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Fetched != 8 || s.StoredWithEvents != 3 || s.AlreadyIngested != 5 {
		t.Errorf("unexpected summary: %s", s)
	}
	stats, _ := db.GetStats(ctx)
	if stats.TotalArticles != 3 || stats.TotalEvents != 3 {
		t.Errorf("expected 3 articles and events, got %d and %d", stats.TotalArticles, stats.TotalEvents)
	}
}

func TestReclassifyAppendsEvents(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	o := newTestOrchestrator(db, &fakeClassifier{})

	r, _ := o.Process(ctx, admittable("https://example.com/re", "Again"))
	a, _ := db.GetArticleByID(ctx, r.NewsID)
	again, err := o.Reclassify(ctx, *a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := fmt.Sprintf("%d-2", r.NewsID)
	if len(again.EventIDs) != 1 || again.EventIDs[0] != want {
		t.Errorf("expected %s, got %v", want, again.EventIDs)
	}
}

func TestSummaryString(t *testing.T) {
	s := Summary{Fetched: 3, Rejected: 1, StoredWithEvents: 2, Events: 4, Aborted: true}
	out := s.String()
	for _, want := range []string{"fetched 3", "rejected 1", "stored with events 2", "events 4", "aborted"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary %q missing %q", out, want)
		}
	}
	rr := s.RunReport(errors.New("boom"))
	if rr.Status != database.RunAborted || rr.Error != "boom" || rr.Events != 4 {
		t.Errorf("unexpected run report: %+v", rr)
	}
}
