package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Options{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func fptr(f float64) *float64 { return &f }

func insertTestArticle(t *testing.T, db *DB, url string) int64 {
	t.Helper()
	id, err := db.InsertArticle(context.Background(), NewArticle{
		Title:         "Title " + url,
		Text:          "Body of " + url,
		SourceURL:     url,
		SourceDomain:  ptr("example.com"),
		SourceCountry: ptr("USA"),
	})
	if err != nil {
		t.Fatalf("inserting %s: %v", url, err)
	}
	return id
}

func bilateralEvent() NewEvent {
	return NewEvent{
		Summary:      "Washington imposed tariffs on Chinese steel.",
		EventDate:    ptr("2025-03-01"),
		Dimension:    "Economic Relations",
		SubDimension: ptr("trade"),
		Direction:    "bilateral",
		Sentiment:    -4,
		Confidence:   fptr(0.9),
		Actors:       []Actor{{ISO3: "USA", Role: "actor1"}, {ISO3: "CHN", Role: "actor2"}},
	}
}

func TestInsertArticle(t *testing.T) {
	db := openTestDB(t)
	id := insertTestArticle(t, db, "https://example.com/test")
	if id == 0 {
		t.Error("expected non-zero article ID")
	}

	a, err := db.GetArticleByID(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ClassificationStatus != StatusPending {
		t.Errorf("expected pending status, got %q", a.ClassificationStatus)
	}
	if a.Language == nil || *a.Language != "en" {
		t.Errorf("expected default language en, got %v", a.Language)
	}
	if a.Summary != nil {
		t.Error("article_summary is never written")
	}
}

func TestInsertDuplicateArticle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertTestArticle(t, db, "https://example.com/dup")

	_, err := db.InsertArticle(ctx, NewArticle{Title: "Duplicate", SourceURL: "https://example.com/dup"})
	if !errors.Is(err, ErrDuplicateArticle) {
		t.Fatalf("expected ErrDuplicateArticle, got %v", err)
	}

	exists, err := db.ArticleExistsByURL(ctx, "https://example.com/dup")
	if err != nil || !exists {
		t.Errorf("expected article to exist, got %v, %v", exists, err)
	}
	exists, _ = db.ArticleExistsByURL(ctx, "https://example.com/other")
	if exists {
		t.Error("unexpected article for unknown URL")
	}

	stats, _ := db.GetStats(ctx)
	if stats.TotalArticles != 1 {
		t.Errorf("expected 1 article, got %d", stats.TotalArticles)
	}
}

func TestArticleRoundTripByURL(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	in := NewArticle{
		Title:            "Sanctions announced",
		Text:             "The United States announced sanctions on China.",
		PublicationDate:  ptr("Mon, 03 Mar 2025"),
		SourceURL:        "https://news.example.org/a",
		SourceDomain:     ptr("news.example.org"),
		SourceCountry:    ptr("DEU"),
		Language:         "en",
		LanguageDetected: ptr("de"),
	}
	id, err := db.InsertArticle(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := db.GetArticleByURL(ctx, in.SourceURL)
	if err != nil || a == nil {
		t.Fatalf("expected article, got %v, %v", a, err)
	}
	if a.NewsID != id || a.Title != in.Title || *a.Text != in.Text {
		t.Errorf("unexpected article: %+v", a)
	}
	if *a.PublicationDate != "Mon, 03 Mar 2025" || *a.SourceCountry != "DEU" || *a.LanguageDetected != "de" {
		t.Errorf("fields not preserved: %+v", a)
	}
	if a.DateScraped == "" {
		t.Error("expected date_scraped to be set")
	}

	missing, err := db.GetArticleByURL(ctx, "https://nowhere.example")
	if err != nil || missing != nil {
		t.Errorf("expected nil for unknown URL, got %v, %v", missing, err)
	}
}

func TestInsertEventSetAssignsSequentialIDs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := insertTestArticle(t, db, "https://example.com/seq")

	ids, err := db.InsertEventSet(ctx, id, []NewEvent{bilateralEvent(), bilateralEvent(), bilateralEvent()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"1-1", "1-2", "1-3"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], ids[i])
		}
	}

	// Reprocessing appends after the existing sequence.
	more, err := db.InsertEventSet(ctx, id, []NewEvent{bilateralEvent()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if more[0] != "1-4" {
		t.Errorf("expected 1-4, got %s", more[0])
	}

	a, _ := db.GetArticleByID(ctx, id)
	if a.ClassificationStatus != StatusClassified {
		t.Errorf("expected classified, got %s", a.ClassificationStatus)
	}
}

func TestBilateralEventRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	var id int64
	for _, u := range []string{"https://a.com", "https://b.com", "https://c.com", "https://d.com", "https://e.com"} {
		id = insertTestArticle(t, db, u)
	}
	if id != 5 {
		t.Fatalf("expected news_id 5, got %d", id)
	}

	if _, err := db.InsertEventSet(ctx, id, []NewEvent{bilateralEvent()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ev, err := db.GetEvent(ctx, "5-1")
	if err != nil || ev == nil {
		t.Fatalf("expected event 5-1, got %v, %v", ev, err)
	}
	if ev.Seq != 1 || ev.NewsID != 5 || *ev.Direction != "bilateral" || *ev.Sentiment != -4 {
		t.Errorf("unexpected event: %+v", ev)
	}
	if len(ev.Actors) != 2 || ev.Actors[0] != (Actor{ISO3: "USA", Role: "actor1"}) || ev.Actors[1] != (Actor{ISO3: "CHN", Role: "actor2"}) {
		t.Errorf("unexpected actors: %+v", ev.Actors)
	}

	missing, err := db.GetEvent(ctx, "5-9")
	if err != nil || missing != nil {
		t.Errorf("expected nil for unknown event, got %v, %v", missing, err)
	}
}

func TestCheckConstraintsRollBackEventSet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := insertTestArticle(t, db, "https://example.com/check")

	bad := bilateralEvent()
	bad.Sentiment = 11
	if _, err := db.InsertEventSet(ctx, id, []NewEvent{bilateralEvent(), bad}); err == nil {
		t.Fatal("expected CHECK violation for sentiment 11")
	}

	badConf := bilateralEvent()
	badConf.Confidence = fptr(1.5)
	if _, err := db.InsertEvent(ctx, id, badConf); err == nil {
		t.Fatal("expected CHECK violation for confidence 1.5")
	}

	badRole := bilateralEvent()
	badRole.Actors = []Actor{{ISO3: "USA", Role: "observer"}}
	if _, err := db.InsertEventSet(ctx, id, []NewEvent{badRole}); err == nil {
		t.Fatal("expected CHECK violation for actor role")
	}

	events, err := db.EventsForArticle(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events after failed sets, got %d", len(events))
	}
	a, _ := db.GetArticleByID(ctx, id)
	if a == nil || a.ClassificationStatus != StatusPending {
		t.Errorf("article should remain pending, got %+v", a)
	}
}

func TestNullSubDimensionStored(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := insertTestArticle(t, db, "https://example.com/null")

	ev := bilateralEvent()
	ev.SubDimension = nil
	eventID, err := db.InsertEvent(ctx, id, ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := db.GetEvent(ctx, eventID)
	if got.SubDimension != nil {
		t.Errorf("expected NULL sub_dimension, got %q", *got.SubDimension)
	}
	n, err := db.CountNullSubDimension(ctx)
	if err != nil || n != 1 {
		t.Errorf("expected 1 null sub-dimension, got %d, %v", n, err)
	}
}

func TestSetClassificationStatus(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := insertTestArticle(t, db, "https://example.com/status")

	if err := db.SetClassificationStatus(ctx, id, StatusFailed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := db.GetArticleByID(ctx, id)
	if a.ClassificationStatus != StatusFailed {
		t.Errorf("expected failed, got %s", a.ClassificationStatus)
	}
	if err := db.SetClassificationStatus(ctx, id, "bogus"); err == nil {
		t.Error("expected error for unknown status")
	}
	if err := db.SetClassificationStatus(ctx, 999, StatusFailed); err == nil {
		t.Error("expected error for unknown article")
	}

	failed, _ := db.ListArticles(ctx, ArticleFilter{Status: StatusFailed})
	if len(failed) != 1 {
		t.Errorf("expected 1 failed article, got %d", len(failed))
	}
}

func TestListEventsFilters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := insertTestArticle(t, db, "https://example.com/list")

	conflict := NewEvent{
		Summary:   "Russian forces shelled Ukrainian positions.",
		Dimension: "Material Conflict",
		Direction: "bilateral",
		Sentiment: -9,
		Actors:    []Actor{{ISO3: "RUS", Role: "actor1"}, {ISO3: "UKR", Role: "actor2"}},
	}
	if _, err := db.InsertEventSet(ctx, id, []NewEvent{bilateralEvent(), conflict}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := db.ListEvents(ctx, EventFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}

	byDim, _ := db.ListEvents(ctx, EventFilter{Dimension: "Material Conflict"})
	if len(byDim) != 1 || byDim[0].EventID != "1-2" {
		t.Errorf("unexpected dimension filter result: %+v", byDim)
	}

	byCountry, _ := db.ListEvents(ctx, EventFilter{Country: "CHN"})
	if len(byCountry) != 1 || byCountry[0].EventID != "1-1" {
		t.Errorf("unexpected country filter result: %+v", byCountry)
	}

	page, _ := db.ListEvents(ctx, EventFilter{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].EventID != "1-1" {
		t.Errorf("unexpected page: %+v", page)
	}

	forArticle, _ := db.EventsForArticle(ctx, id)
	if len(forArticle) != 2 || forArticle[0].Seq != 1 || len(forArticle[1].Actors) != 2 {
		t.Errorf("unexpected article events: %+v", forArticle)
	}
}

func TestFullExport(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := insertTestArticle(t, db, "https://example.com/export")

	ev := bilateralEvent()
	ev.Actors = append(ev.Actors, Actor{ISO3: "RUS", Role: "actor2_secondary"})
	if _, err := db.InsertEventSet(ctx, id, []NewEvent{ev}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := db.FullExport(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.SourceURL != "https://example.com/export" || r.EventID != "1-1" {
		t.Errorf("unexpected row: %+v", r)
	}
	if len(r.Actor1) != 1 || r.Actor1[0] != "USA" || len(r.Actor2Secondary) != 1 || r.Actor2Secondary[0] != "RUS" {
		t.Errorf("unexpected actor grouping: %+v", r)
	}
	if r.Actor1Secondary == nil || len(r.Actor1Secondary) != 0 {
		t.Error("empty roles should be empty lists")
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := insertTestArticle(t, db, "https://a.com")
	insertTestArticle(t, db, "https://b.com")
	db.InsertEventSet(ctx, a, []NewEvent{bilateralEvent(), bilateralEvent()})

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalArticles != 2 || stats.TotalEvents != 2 || stats.TotalActors != 4 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.EventsPerArticle != 1 {
		t.Errorf("expected 1 event per article, got %v", stats.EventsPerArticle)
	}
	if stats.ArticlesByStatus[StatusClassified] != 1 || stats.ArticlesByStatus[StatusPending] != 1 {
		t.Errorf("unexpected status counts: %v", stats.ArticlesByStatus)
	}
	if stats.AvgSentiment == nil || *stats.AvgSentiment != -4 {
		t.Errorf("unexpected average sentiment: %v", stats.AvgSentiment)
	}
	if len(stats.ByDimension) != 1 || stats.ByDimension[0].Events != 2 {
		t.Errorf("unexpected dimension stats: %+v", stats.ByDimension)
	}
	if stats.ByDirection["bilateral"] != 2 {
		t.Errorf("unexpected direction stats: %v", stats.ByDirection)
	}
	if len(stats.TopCountries) != 2 || stats.TopCountries[0].Events != 2 {
		t.Errorf("unexpected country stats: %+v", stats.TopCountries)
	}
}

func TestReferenceTablesSeeded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	pairs, err := db.TaxonomyPairs(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) == 0 {
		t.Fatal("expected seeded taxonomy")
	}

	cs, err := db.Countries(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, c := range cs {
		if c.ISO3 == "USA" {
			found = len(c.Aliases) > 0
		}
	}
	if !found {
		t.Error("expected USA with aliases in countries_reference")
	}
}

func TestRunHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	runID, err := db.StartRun(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report := RunReport{Fetched: 4, Rejected: 1, Invalid: 1, StoredWithEvents: 1, StoredZeroEvents: 1, Events: 2}
	if err := db.FinishRun(ctx, runID, report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.FinishRun(ctx, "missing", report); err == nil {
		t.Error("expected error for unknown run")
	}

	runs, err := db.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	r := runs[0]
	if r.RunID != runID || r.Status != RunFinished || r.Fetched != 4 || r.Invalid != 1 || r.Events != 2 || r.FinishedAt == nil {
		t.Errorf("unexpected run: %+v", r)
	}

	stats, _ := db.GetStats(ctx)
	if stats.LastRun == nil || stats.LastRun.RunID != runID {
		t.Error("expected last run in stats")
	}
}

func TestReset(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := insertTestArticle(t, db, "https://example.com/reset")
	db.InsertEventSet(ctx, id, []NewEvent{bilateralEvent()})

	if err := db.Reset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalArticles != 0 || stats.TotalEvents != 0 {
		t.Errorf("expected empty database, got %+v", stats)
	}
	pairs, _ := db.TaxonomyPairs(ctx)
	if len(pairs) == 0 {
		t.Error("reference data should be reseeded")
	}
}

func TestClosedDatabaseIsUnavailable(t *testing.T) {
	db := openTestDB(t)
	db.Close()

	_, err := db.InsertArticle(context.Background(), NewArticle{Title: "x", SourceURL: "https://x"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if errors.Is(err, ErrDuplicateArticle) {
		t.Error("closed database must not look like a duplicate")
	}
}
