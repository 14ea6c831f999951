package collect

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/geomonitor/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const articlePage = `<!DOCTYPE html>
<html lang="fr">
<head><title>Sommet</title></head>
<body>
<nav><a href="/">Accueil</a></nav>
<article>
<h1>Sommet entre la France et l'Allemagne</h1>
<p>Les dirigeants de la France et de l'Allemagne se sont réunis mardi à Berlin, pour discuter des sanctions, de l'énergie et de la sécurité européenne, dans un contexte de tensions croissantes.</p>
<p>Selon les deux délégations, les discussions ont porté sur un nouvel accord commercial, sur la coordination des exportations, et sur le soutien financier à apporter aux pays voisins, notamment en matière d'infrastructures.</p>
<p>Les ministres des affaires étrangères ont également évoqué la situation au Moyen-Orient, ainsi que les négociations en cours avec plusieurs partenaires, afin de préparer le prochain sommet européen.</p>
</article>
<footer>Droits réservés</footer>
</body>
</html>`

type memSeen map[string]bool

func (m memSeen) Seen(_ context.Context, url string) (bool, error) { return m[url], nil }
func (m memSeen) Mark(_ context.Context, url string) error {
	m[url] = true
	return nil
}

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	now := time.Now().UTC().Format(time.RFC1123Z)
	old := time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC1123Z)
	item := func(path, title, pub, desc string) string {
		return fmt.Sprintf(`<item><title>%s</title><link>%s%s</link><pubDate>%s</pubDate><description><![CDATA[%s]]></description></item>`,
			title, srv.URL, path, pub, desc)
	}
	rss := `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>Test</title><language>en</language>` +
		item("/news/summit", "Summit in Berlin", now, "<p>Short teaser</p>") +
		item("/news/gone", "Gone story", now, "<p>Leaders met &amp; talked</p>") +
		item("/news/after", "After story", now, "Second <b>fallback</b> text") +
		item("/news/empty", "Empty story", now, "") +
		item("/news/old", "Old story", old, "stale") +
		item("/news/known", "Known story", now, "already stored") +
		`</channel></rss>`

	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, rss)
	})
	mux.HandleFunc("/news/summit", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, articlePage)
	})
	mux.HandleFunc("/news/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return srv
}

func TestCollect(t *testing.T) {
	srv := newFeedServer(t)
	cfg := &config.Config{Sources: config.Sources{
		Feeds:        []config.Feed{{URL: srv.URL + "/feed.xml", Name: "Test", Country: "gbr"}},
		MaxPerFeed:   20,
		FetchTimeout: 5 * time.Second,
	}}
	seen := memSeen{srv.URL + "/news/known": true}

	articles, result := New(cfg, discardLogger(), seen).Collect(context.Background(), 1)

	if result.TotalFound != 5 {
		t.Errorf("expected 5 entries within the window, got %d", result.TotalFound)
	}
	if result.Seen != 1 {
		t.Errorf("expected 1 seen URL, got %d", result.Seen)
	}
	if result.Failed != 1 {
		t.Errorf("expected 1 failed entry, got %d", result.Failed)
	}
	if result.Fallbacks != 2 {
		t.Errorf("expected 2 description fallbacks, got %d", result.Fallbacks)
	}
	if len(articles) != 3 || result.Collected != 3 {
		t.Fatalf("expected 3 articles, got %d (result %d)", len(articles), result.Collected)
	}
	if result.Sources["Test"] != 3 {
		t.Errorf("expected 3 articles from Test, got %d", result.Sources["Test"])
	}

	summit := articles[0]
	if summit.Headline != "Summit in Berlin" {
		t.Errorf("unexpected headline %q", summit.Headline)
	}
	if !strings.Contains(summit.ArticleText, "sanctions") || len(summit.ArticleText) <= minTextLen {
		t.Errorf("expected extracted article text, got %q", summit.ArticleText)
	}
	if summit.LanguageHint != "fr" {
		t.Errorf("expected page language hint fr, got %q", summit.LanguageHint)
	}
	if summit.SourceCountry != "GBR" {
		t.Errorf("expected source country GBR, got %q", summit.SourceCountry)
	}
	if summit.SourceDomain != "127.0.0.1" {
		t.Errorf("unexpected source domain %q", summit.SourceDomain)
	}
	if summit.PublishedDate != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("unexpected published date %q", summit.PublishedDate)
	}

	gone := articles[1]
	if gone.ArticleText != "Leaders met & talked" {
		t.Errorf("expected sanitized description, got %q", gone.ArticleText)
	}
	if gone.LanguageHint != "en" {
		t.Errorf("expected feed language hint, got %q", gone.LanguageHint)
	}
	if articles[2].ArticleText != "Second fallback text" {
		t.Errorf("expected description for skipped domain, got %q", articles[2].ArticleText)
	}
}

func TestCollectSkipsBrokenFeed(t *testing.T) {
	srv := newFeedServer(t)
	cfg := &config.Config{Sources: config.Sources{
		Feeds: []config.Feed{
			{URL: srv.URL + "/missing.xml", Country: "USA"},
			{URL: srv.URL + "/feed.xml", Country: "GBR"},
		},
		MaxPerFeed: 1,
	}}

	articles, result := New(cfg, discardLogger(), nil).Collect(context.Background(), 1)
	if result.TotalFound != 1 || len(articles) != 1 {
		t.Fatalf("expected the working feed capped at one entry, got %d found and %d articles",
			result.TotalFound, len(articles))
	}
}

func TestFetcherSkipsFailedDomain(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(time.Second)
	_, err := f.Fetch(context.Background(), srv.URL+"/a")
	if httpErr, ok := err.(*HTTPError); !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected HTTPError 403, got %v", err)
	}
	if _, err := f.Fetch(context.Background(), srv.URL+"/b"); err == nil {
		t.Fatal("expected skipped domain error")
	}
	if calls != 1 {
		t.Errorf("expected one request, got %d", calls)
	}
}

func TestIsWithinWindow(t *testing.T) {
	cutoff := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	tests := map[string]bool{
		"":           true,
		"garbage":    true,
		"2024-03-10": true,
		"2024-03-11": true,
		"2024-03-09": false,
	}
	for date, want := range tests {
		if got := isWithinWindow(date, cutoff); got != want {
			t.Errorf("isWithinWindow(%q) = %v, want %v", date, got, want)
		}
	}
}

func TestExtractSourceName(t *testing.T) {
	tests := map[string]string{
		"https://feeds.npr.org/1004/rss.xml":        "Npr",
		"https://www.aljazeera.com/xml/rss/all.xml": "Aljazeera",
		"https://rss.dw.com/rdf/rss-en-world":       "Dw",
		"not a url":                                 "not a url",
	}
	for in, want := range tests {
		if got := extractSourceName(in); got != want {
			t.Errorf("extractSourceName(%q) = %q, want %q", in, got, want)
		}
	}
}

type urlStore map[string]bool

func (u urlStore) ArticleExistsByURL(_ context.Context, url string) (bool, error) {
	return u[url], nil
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	mem := memSeen{}
	chain := Chain{StoreSeen{Store: urlStore{"https://a": true}}, mem}

	if ok, _ := chain.Seen(ctx, "https://a"); !ok {
		t.Error("expected stored URL to be seen")
	}
	if ok, _ := chain.Seen(ctx, "https://b"); ok {
		t.Error("expected unknown URL to be unseen")
	}
	if err := chain.Mark(ctx, "https://b"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := chain.Seen(ctx, "https://b"); !ok {
		t.Error("expected marked URL to be seen")
	}
}

func TestValkeySeen(t *testing.T) {
	addr := os.Getenv("GEOMONITOR_TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("GEOMONITOR_TEST_VALKEY_ADDR not set")
	}
	ctx := context.Background()
	key := fmt.Sprintf("geomonitor:test:%d", time.Now().UnixNano())

	v, err := NewValkeySeen(ctx, addr, "", key)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer v.Close()
	defer v.client.Do(ctx, v.client.B().Del().Key(key).Build())

	if ok, err := v.Seen(ctx, "https://x"); err != nil || ok {
		t.Fatalf("expected unseen, got %v %v", ok, err)
	}
	if err := v.Mark(ctx, "https://x"); err != nil {
		t.Fatal(err)
	}
	if ok, err := v.Seen(ctx, "https://x"); err != nil || !ok {
		t.Fatalf("expected seen, got %v %v", ok, err)
	}
}
