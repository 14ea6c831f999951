package collect

import (
	"context"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/geomonitor/internal/config"
)

const defaultMaxPerFeed = 20

// FeedEntry represents a parsed feed entry.
type FeedEntry struct {
	URL           string
	Title         string
	PublishedDate string // YYYY-MM-DD or empty
	Description   string
	Source        string
	Country       string
	Language      string
}

// FeedParser parses RSS/Atom feeds.
type FeedParser struct {
	feeds      []config.Feed
	maxPerFeed int
	parser     *gofeed.Parser
	policy     *bluemonday.Policy
	logger     *slog.Logger
}

// NewFeedParser creates a new FeedParser.
func NewFeedParser(feeds []config.Feed, maxPerFeed int, client *http.Client, logger *slog.Logger) *FeedParser {
	if maxPerFeed <= 0 {
		maxPerFeed = defaultMaxPerFeed
	}
	p := gofeed.NewParser()
	p.UserAgent = userAgent
	if client != nil {
		p.Client = client
	}
	return &FeedParser{
		feeds:      feeds,
		maxPerFeed: maxPerFeed,
		parser:     p,
		policy:     bluemonday.StrictPolicy(),
		logger:     logger,
	}
}

// ParseAll parses all configured feeds and returns entries within daysBack.
// A feed that fails to parse is logged and skipped.
func (fp *FeedParser) ParseAll(ctx context.Context, daysBack int) []FeedEntry {
	cutoff := time.Now().UTC().AddDate(0, 0, -daysBack)
	var all []FeedEntry

	for _, fc := range fp.feeds {
		if ctx.Err() != nil {
			break
		}
		name := fc.Name
		if name == "" {
			name = extractSourceName(fc.URL)
		}

		entries, err := fp.parseFeed(ctx, fc, name, cutoff)
		if err != nil {
			fp.logger.Warn("feed parse failed", "feed", fc.URL, "error", err)
			continue
		}
		all = append(all, entries...)
		fp.logger.Info("feed parsed", "source", name, "entries", len(entries), "days_back", daysBack)
	}

	return all
}

func (fp *FeedParser) parseFeed(ctx context.Context, fc config.Feed, sourceName string, cutoff time.Time) ([]FeedEntry, error) {
	feed, err := fp.parser.ParseURLWithContext(fc.URL, ctx)
	if err != nil {
		return nil, err
	}

	var entries []FeedEntry
	for _, item := range feed.Items {
		if len(entries) >= fp.maxPerFeed {
			break
		}

		entry := fp.parseItem(item, sourceName)
		if entry == nil {
			continue
		}
		if !isWithinWindow(entry.PublishedDate, cutoff) {
			continue
		}
		entry.Country = strings.ToUpper(strings.TrimSpace(fc.Country))
		entry.Language = feed.Language
		entries = append(entries, *entry)
	}

	return entries, nil
}

func (fp *FeedParser) parseItem(item *gofeed.Item, source string) *FeedEntry {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}
	if itemURL == "" {
		return nil
	}

	title := fp.sanitize(item.Title)
	if title == "" {
		return nil
	}

	var publishedDate string
	if item.PublishedParsed != nil {
		publishedDate = item.PublishedParsed.UTC().Format("2006-01-02")
	} else if item.UpdatedParsed != nil {
		publishedDate = item.UpdatedParsed.UTC().Format("2006-01-02")
	}

	description := item.Description
	if item.Content != "" {
		description = item.Content
	}

	return &FeedEntry{
		URL:           itemURL,
		Title:         title,
		PublishedDate: publishedDate,
		Description:   fp.sanitize(description),
		Source:        source,
	}
}

// sanitize strips markup and collapses whitespace.
func (fp *FeedParser) sanitize(s string) string {
	s = html.UnescapeString(fp.policy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func isWithinWindow(publishedDate string, cutoff time.Time) bool {
	if publishedDate == "" {
		return true // benefit of the doubt
	}
	pub, err := time.Parse("2006-01-02", publishedDate)
	if err != nil {
		return true
	}
	return !pub.Before(cutoff.Truncate(24 * time.Hour))
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "www3.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
