// Package ingest drives raw articles through translation, admission,
// storage and classification.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/TobiSchelling/geomonitor/internal/classify"
	"github.com/TobiSchelling/geomonitor/internal/database"
	"github.com/TobiSchelling/geomonitor/internal/filter"
	"github.com/TobiSchelling/geomonitor/internal/translate"
)

// RawArticle is one record handed over by the collector.
type RawArticle struct {
	Headline      string `json:"headline"`
	ArticleText   string `json:"article_text"`
	SourceURL     string `json:"source_url"`
	SourceDomain  string `json:"source_domain"`
	SourceCountry string `json:"source_country"`
	PublishedDate string `json:"published_date"`
	LanguageHint  string `json:"language_hint,omitempty"`
}

// Outcome is the terminal state of one article.
type Outcome string

const (
	OutcomeRejected             Outcome = "rejected"
	OutcomeInvalid              Outcome = "invalid_input"
	OutcomeAlreadyIngested      Outcome = "already_ingested"
	OutcomeFailedTranslation    Outcome = "failed_translation"
	OutcomeStoredWithEvents     Outcome = "stored_with_events"
	OutcomeStoredZeroEvents     Outcome = "stored_zero_events"
	OutcomeFailedClassification Outcome = "failed_classification"
	OutcomeStorageError         Outcome = "storage_error"
	OutcomeAborted              Outcome = "aborted"
)

// TranslationPolicy decides what happens when translation is unavailable.
type TranslationPolicy string

const (
	// PolicySkip drops the article; nothing is stored.
	PolicySkip TranslationPolicy = "skip"
	// PolicyPassthrough keeps the original text and records the detected
	// language.
	PolicyPassthrough TranslationPolicy = "passthrough"
)

// DefaultMaxAttempts is one call plus two retries.
const DefaultMaxAttempts = 3

// Report describes what happened to one article.
type Report struct {
	SourceURL           string
	Outcome             Outcome
	NewsID              int64
	EventIDs            []string
	Attempts            int
	Rejections          int
	DetectedLanguage    string
	Translated          bool
	TranslationFallback bool
	Filter              filter.Details
	Err                 error
}

// Store is the subset of the storage layer the orchestrator writes to.
type Store interface {
	ArticleExistsByURL(ctx context.Context, url string) (bool, error)
	InsertArticle(ctx context.Context, a database.NewArticle) (int64, error)
	InsertEventSet(ctx context.Context, newsID int64, events []database.NewEvent) ([]string, error)
	SetClassificationStatus(ctx context.Context, newsID int64, status string) error
}

// Normalizer brings text into the working language.
type Normalizer interface {
	Normalize(ctx context.Context, text, title, hint string) (translate.Result, error)
}

// Admitter is the admission filter.
type Admitter interface {
	Admit(text, title string) (bool, filter.Details)
}

// Classifier extracts events from an article.
type Classifier interface {
	Classify(ctx context.Context, a classify.Article) (classify.Result, error)
}

// Limiter paces classification calls. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewLimiter allows one call per delay. A non-positive delay disables pacing.
func NewLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Orchestrator runs the per-article state machine. It holds no per-article
// state and is safe for concurrent use when its collaborators are.
type Orchestrator struct {
	store           Store
	normalizer      Normalizer
	admitter        Admitter
	classifier      Classifier
	limiter         Limiter
	maxAttempts     int
	classifyTimeout time.Duration
	policy          TranslationPolicy
	workingLanguage string
	workers         int
	logger          *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLimiter sets the pacing applied before every classification call.
func WithLimiter(l Limiter) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.limiter = l
		}
	}
}

// WithMaxAttempts sets the total number of classification attempts.
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithClassifyTimeout bounds each classification attempt.
func WithClassifyTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.classifyTimeout = d
		}
	}
}

// WithTranslationPolicy sets the behavior on translation failure.
func WithTranslationPolicy(p TranslationPolicy) Option {
	return func(o *Orchestrator) {
		if p == PolicySkip || p == PolicyPassthrough {
			o.policy = p
		}
	}
}

// WithWorkingLanguage sets the language recorded when no normalizer runs.
func WithWorkingLanguage(lang string) Option {
	return func(o *Orchestrator) {
		if lang != "" {
			o.workingLanguage = lang
		}
	}
}

// WithWorkers sets how many articles RunBatch processes concurrently.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an Orchestrator. normalizer may be nil when translation is
// disabled.
func New(store Store, normalizer Normalizer, admitter Admitter, classifier Classifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:           store,
		normalizer:      normalizer,
		admitter:        admitter,
		classifier:      classifier,
		limiter:         NewLimiter(0),
		maxAttempts:     DefaultMaxAttempts,
		classifyTimeout: 120 * time.Second,
		policy:          PolicySkip,
		workingLanguage: translate.DefaultTarget,
		workers:         1,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs one article to completion. Per-article failures are reported
// in the Report; the returned error is non-nil only when the batch must
// stop: storage is unavailable or ctx is done.
func (o *Orchestrator) Process(ctx context.Context, raw RawArticle) (Report, error) {
	r := Report{SourceURL: raw.SourceURL}
	log := o.logger.With("source_url", raw.SourceURL)

	if strings.TrimSpace(raw.SourceURL) == "" {
		r.Outcome = OutcomeInvalid
		r.Err = errors.New("missing source_url")
		return r, nil
	}

	exists, err := o.store.ArticleExistsByURL(ctx, raw.SourceURL)
	if err != nil {
		return o.abort(r, err)
	}
	if exists {
		r.Outcome = OutcomeAlreadyIngested
		log.Debug("already ingested")
		return r, nil
	}

	// Translated
	text, title := raw.ArticleText, raw.Headline
	language := o.workingLanguage
	var detected *string
	if o.normalizer != nil {
		res, err := o.normalizer.Normalize(ctx, raw.ArticleText, raw.Headline, raw.LanguageHint)
		r.DetectedLanguage = res.DetectedLanguage
		if res.DetectedLanguage != "" {
			detected = &r.DetectedLanguage
		}
		if err != nil {
			if ctx.Err() != nil {
				return o.abort(r, ctx.Err())
			}
			if o.policy == PolicySkip {
				r.Outcome = OutcomeFailedTranslation
				r.Err = err
				log.Warn("translation failed, skipping article", "error", err)
				return r, nil
			}
			r.TranslationFallback = true
			if res.DetectedLanguage != "" && res.DetectedLanguage != translate.Undetermined {
				language = res.DetectedLanguage
			}
			log.Warn("translation failed, keeping original text", "language", res.DetectedLanguage, "error", err)
		} else {
			text, title = res.Text, res.Title
			r.Translated = res.WasTranslated
		}
	}

	// Admitted or Rejected
	admitted, details := o.admitter.Admit(text, title)
	r.Filter = details
	if !admitted {
		r.Outcome = OutcomeRejected
		log.Debug("rejected by filter",
			"keywords", len(details.KeywordsFound), "countries", details.CountriesFound)
		return r, nil
	}

	// StoredArticle
	newsID, err := o.store.InsertArticle(ctx, database.NewArticle{
		Title:            title,
		Text:             text,
		PublicationDate:  optional(raw.PublishedDate),
		SourceURL:        raw.SourceURL,
		SourceDomain:     optional(raw.SourceDomain),
		SourceCountry:    optional(raw.SourceCountry),
		Language:         language,
		LanguageDetected: detected,
	})
	if errors.Is(err, database.ErrDuplicateArticle) {
		r.Outcome = OutcomeAlreadyIngested
		log.Debug("lost insert race, already ingested")
		return r, nil
	}
	if err != nil {
		if isFatal(ctx, err) {
			return o.abort(r, err)
		}
		r.Outcome = OutcomeStorageError
		r.Err = err
		log.Error("storing article failed", "error", err)
		return r, nil
	}
	r.NewsID = newsID

	return o.classifyAndStore(ctx, r, classify.Article{
		NewsID:          newsID,
		Title:           title,
		Text:            text,
		PublicationDate: raw.PublishedDate,
		SourceCountry:   raw.SourceCountry,
	})
}

// Reclassify runs classification again for an already stored article and
// appends the resulting events.
func (o *Orchestrator) Reclassify(ctx context.Context, a database.Article) (Report, error) {
	r := Report{SourceURL: a.SourceURL, NewsID: a.NewsID}
	return o.classifyAndStore(ctx, r, classify.Article{
		NewsID:          a.NewsID,
		Title:           a.Title,
		Text:            deref(a.Text),
		PublicationDate: deref(a.PublicationDate),
		SourceCountry:   deref(a.SourceCountry),
	})
}

func (o *Orchestrator) classifyAndStore(ctx context.Context, r Report, article classify.Article) (Report, error) {
	log := o.logger.With("source_url", r.SourceURL, "news_id", r.NewsID)

	// Classified
	res, attempts, err := o.classifyWithRetry(ctx, article)
	r.Attempts = attempts
	if err != nil {
		if ctx.Err() != nil {
			return o.abort(r, ctx.Err())
		}
		r.Err = err
		r.Outcome = OutcomeFailedClassification
		log.Warn("classification failed", "attempts", attempts, "error", err)
		if serr := o.store.SetClassificationStatus(ctx, r.NewsID, database.StatusFailed); serr != nil {
			if isFatal(ctx, serr) {
				return o.abort(r, serr)
			}
			log.Error("marking article failed", "error", serr)
		}
		return r, nil
	}
	r.Rejections = len(res.Rejections)

	// StoredEvents
	ids, err := o.store.InsertEventSet(ctx, r.NewsID, toNewEvents(res.Events))
	if err != nil {
		if isFatal(ctx, err) {
			return o.abort(r, err)
		}
		r.Outcome = OutcomeStorageError
		r.Err = err
		log.Error("storing events failed", "error", err)
		if serr := o.store.SetClassificationStatus(ctx, r.NewsID, database.StatusFailed); serr != nil && isFatal(ctx, serr) {
			return o.abort(r, serr)
		}
		return r, nil
	}
	r.EventIDs = ids
	if len(ids) > 0 {
		r.Outcome = OutcomeStoredWithEvents
	} else {
		r.Outcome = OutcomeStoredZeroEvents
	}
	log.Info("article stored", "events", len(ids), "rejected_events", r.Rejections, "attempts", r.Attempts)
	return r, nil
}

// classifyWithRetry calls the classifier up to maxAttempts times. Parse
// errors, timeouts and service errors are retried.
func (o *Orchestrator) classifyWithRetry(ctx context.Context, a classify.Article) (classify.Result, int, error) {
	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return classify.Result{}, attempt - 1, err
		}

		callCtx, cancel := context.WithTimeout(ctx, o.classifyTimeout)
		res, err := o.classifier.Classify(callCtx, a)
		cancel()
		if err == nil {
			return res, attempt, nil
		}
		if ctx.Err() != nil {
			return classify.Result{}, attempt, ctx.Err()
		}
		if !retryable(err) {
			return classify.Result{}, attempt, err
		}
		lastErr = err
		o.logger.Debug("classification attempt failed", "news_id", a.NewsID, "attempt", attempt, "error", err)
	}
	return classify.Result{}, o.maxAttempts, fmt.Errorf("after %d attempts: %w", o.maxAttempts, lastErr)
}

func retryable(err error) bool {
	return errors.Is(err, classify.ErrParse) ||
		errors.Is(err, classify.ErrTimeout) ||
		errors.Is(err, classify.ErrProvider)
}

func isFatal(ctx context.Context, err error) bool {
	return errors.Is(err, database.ErrUnavailable) || ctx.Err() != nil
}

func (o *Orchestrator) abort(r Report, err error) (Report, error) {
	r.Outcome = OutcomeAborted
	r.Err = err
	return r, err
}

func toNewEvents(events []classify.Event) []database.NewEvent {
	out := make([]database.NewEvent, 0, len(events))
	for _, ev := range events {
		actors := make([]database.Actor, len(ev.Actors))
		for i, a := range ev.Actors {
			actors[i] = database.Actor{ISO3: a.ISO3, Role: a.Role}
		}
		out = append(out, database.NewEvent{
			Summary:      ev.Summary,
			EventDate:    ev.Date,
			Location:     ev.Location,
			EventType:    ev.Type,
			Dimension:    ev.Dimension,
			SubDimension: ev.SubDimension,
			Direction:    ev.Direction,
			Sentiment:    ev.Sentiment,
			Confidence:   ev.Confidence,
			Actors:       actors,
		})
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
