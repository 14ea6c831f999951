// Package collect gathers raw articles from RSS feeds for ingestion.
package collect

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/TobiSchelling/geomonitor/internal/config"
	"github.com/TobiSchelling/geomonitor/internal/ingest"
)

// Result holds the results of a collection run.
type Result struct {
	TotalFound int
	Seen       int
	Collected  int
	// Fallbacks counts articles whose page could not be extracted and that
	// carry the feed description instead.
	Fallbacks int
	Failed    int
	Sources   map[string]int
}

// Collector orchestrates article collection from RSS feeds.
type Collector struct {
	feeds   *FeedParser
	fetcher *Fetcher
	seen    SeenSet
	logger  *slog.Logger
}

// New creates a collector over the configured feeds. seen may be nil.
func New(cfg *config.Config, logger *slog.Logger, seen SeenSet) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	fetcher := NewFetcher(cfg.Sources.FetchTimeout)
	return &Collector{
		feeds:   NewFeedParser(cfg.Sources.Feeds, cfg.Sources.MaxPerFeed, fetcher.Client(), logger),
		fetcher: fetcher,
		seen:    seen,
		logger:  logger,
	}
}

// Collect returns raw articles published within daysBack that are not yet
// in the seen set.
func (c *Collector) Collect(ctx context.Context, daysBack int) ([]ingest.RawArticle, *Result) {
	r := &Result{Sources: make(map[string]int)}

	c.logger.Info("collecting from RSS feeds")
	entries := c.feeds.ParseAll(ctx, daysBack)
	r.TotalFound = len(entries)

	var out []ingest.RawArticle
	dedup := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if _, dup := dedup[e.URL]; dup {
			r.Seen++
			continue
		}
		dedup[e.URL] = struct{}{}

		if c.seen != nil {
			seen, err := c.seen.Seen(ctx, e.URL)
			if err != nil {
				c.logger.Warn("seen check failed", "source_url", e.URL, "error", err)
			} else if seen {
				r.Seen++
				continue
			}
		}

		raw, fallback, ok := c.build(ctx, e)
		if !ok {
			r.Failed++
			continue
		}
		if fallback {
			r.Fallbacks++
		}
		r.Collected++
		r.Sources[e.Source]++
		out = append(out, raw)
	}

	c.logger.Info("collection complete",
		"found", r.TotalFound, "collected", r.Collected, "seen", r.Seen,
		"fallbacks", r.Fallbacks, "failed", r.Failed)
	return out, r
}

func (c *Collector) build(ctx context.Context, e FeedEntry) (ingest.RawArticle, bool, bool) {
	raw := ingest.RawArticle{
		Headline:      e.Title,
		SourceURL:     e.URL,
		SourceDomain:  domainOf(e.URL),
		SourceCountry: e.Country,
		PublishedDate: e.PublishedDate,
		LanguageHint:  e.Language,
	}

	page, err := c.fetcher.Fetch(ctx, e.URL)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			c.logger.Warn("http error, skipping remaining pages from domain",
				"source_url", e.URL, "domain", raw.SourceDomain, "status", httpErr.Code)
		} else {
			c.logger.Debug("page fetch failed", "source_url", e.URL, "error", err)
		}
	}
	if page.Lang != "" {
		raw.LanguageHint = page.Lang
	}

	if page.Text != "" {
		raw.ArticleText = page.Text
		return raw, false, true
	}
	if e.Description == "" {
		c.logger.Info("no extractable content", "source_url", e.URL)
		return raw, false, false
	}
	raw.ArticleText = e.Description
	return raw, true, true
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
