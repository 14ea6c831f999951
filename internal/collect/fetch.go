package collect

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	userAgent = "geomonitor/1.0 (news monitor)"
	// minTextLen is the shortest extracted body accepted as article text.
	minTextLen = 200
	maxBody    = 5 << 20
)

// Page is the extracted content of one article page.
type Page struct {
	Text string
	Lang string
}

// HTTPError is returned for a 4xx/5xx response.
type HTTPError struct {
	Code int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, http.StatusText(e.Code))
}

// Fetcher downloads article pages and extracts their readable text. After an
// HTTP error, remaining pages from the same domain are skipped.
type Fetcher struct {
	client *http.Client

	mu            sync.Mutex
	failedDomains map[string]struct{}
}

// NewFetcher creates a fetcher with a bounded per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		failedDomains: make(map[string]struct{}),
	}
}

// Client returns the underlying HTTP client.
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// Skipped reports whether the domain already failed in this run.
func (f *Fetcher) Skipped(domain string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.failedDomains[domain]
	return ok
}

// Fetch retrieves the page. Text is empty when nothing readable was found.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Page{}, fmt.Errorf("parse url: %w", err)
	}
	domain := strings.ToLower(u.Hostname())
	if f.Skipped(domain) {
		return Page{}, fmt.Errorf("domain %s skipped after earlier failure", domain)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		f.mu.Lock()
		f.failedDomains[domain] = struct{}{}
		f.mu.Unlock()
		return Page{}, &HTTPError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Page{}, fmt.Errorf("read body: %w", err)
	}

	var page Page
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		page.Lang = strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return page, nil
	}
	text := strings.Join(strings.Fields(article.TextContent), " ")
	if len(text) > minTextLen {
		page.Text = text
	}
	return page, nil
}
