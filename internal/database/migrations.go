package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/TobiSchelling/geomonitor/internal/countries"
	"github.com/TobiSchelling/geomonitor/internal/taxonomy"
)

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, db *DB, tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(ctx context.Context, db *DB, tx *sql.Tx) error {
			return execAll(ctx, tx, db.dialect, initialSchema)
		},
	},
	{
		Version:     2,
		Description: "add articles.language_detected",
		Up: func(ctx context.Context, db *DB, tx *sql.Tx) error {
			return addColumn(ctx, db, tx, "articles", "language_detected", "TEXT")
		},
	},
	{
		Version:     3,
		Description: "add articles.classification_status",
		Up: func(ctx context.Context, db *DB, tx *sql.Tx) error {
			exists, err := db.columnExists(ctx, tx, "articles", "classification_status")
			if err != nil || exists {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"ALTER TABLE articles ADD COLUMN classification_status TEXT NOT NULL DEFAULT 'pending'"); err != nil {
				return err
			}
			// Rows that predate the column were written only after
			// classification finished.
			_, err = tx.ExecContext(ctx, "UPDATE articles SET classification_status = 'classified'")
			return err
		},
	},
	{
		Version:     4,
		Description: "add events.seq with per-article uniqueness",
		Up: func(ctx context.Context, db *DB, tx *sql.Tx) error {
			if err := addColumn(ctx, db, tx, "events", "seq", "INTEGER"); err != nil {
				return err
			}
			// Legacy event ids are "{news_id}-{seq}".
			if _, err := tx.ExecContext(ctx, `UPDATE events
				SET seq = CAST(substr(event_id, length(CAST(news_id AS TEXT)) + 2) AS INTEGER)
				WHERE seq IS NULL`); err != nil {
				return fmt.Errorf("backfilling events.seq: %w", err)
			}
			_, err := tx.ExecContext(ctx,
				"CREATE UNIQUE INDEX IF NOT EXISTS idx_events_news_seq ON events(news_id, seq)")
			return err
		},
	},
	{
		Version:     5,
		Description: "seed taxonomy and country reference",
		Up:          seedReference,
	},
	{
		Version:     6,
		Description: "ingest run history",
		Up: func(ctx context.Context, db *DB, tx *sql.Tx) error {
			return execAll(ctx, tx, db.dialect, []string{`CREATE TABLE IF NOT EXISTS ingest_runs (
    run_id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    status TEXT NOT NULL DEFAULT 'running',
    fetched INTEGER NOT NULL DEFAULT 0,
    rejected INTEGER NOT NULL DEFAULT 0,
    stored_with_events INTEGER NOT NULL DEFAULT 0,
    stored_zero_events INTEGER NOT NULL DEFAULT 0,
    failed_classification INTEGER NOT NULL DEFAULT 0,
    failed_translation INTEGER NOT NULL DEFAULT 0,
    already_ingested INTEGER NOT NULL DEFAULT 0,
    events INTEGER NOT NULL DEFAULT 0,
    error TEXT
)`,
				"CREATE INDEX IF NOT EXISTS idx_ingest_runs_started ON ingest_runs(started_at)",
			})
		},
	},
	{
		Version:     7,
		Description: "index event filter columns",
		Up: func(ctx context.Context, db *DB, tx *sql.Tx) error {
			return execAll(ctx, tx, db.dialect, []string{
				"CREATE INDEX IF NOT EXISTS idx_events_direction ON events(direction)",
				"CREATE INDEX IF NOT EXISTS idx_events_event_date ON events(event_date)",
				"CREATE INDEX IF NOT EXISTS idx_events_sentiment ON events(sentiment)",
			})
		},
	},
	{
		Version:     8,
		Description: "add ingest_runs.invalid",
		Up: func(ctx context.Context, db *DB, tx *sql.Tx) error {
			return addColumn(ctx, db, tx, "ingest_runs", "invalid", "INTEGER NOT NULL DEFAULT 0")
		},
	},
}

var initialSchema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
    news_id {{autoid}},
    news_title TEXT NOT NULL,
    news_text TEXT,
    article_summary TEXT,
    publication_date TEXT,
    source_url TEXT UNIQUE NOT NULL,
    source_domain TEXT,
    source_country TEXT,
    language TEXT DEFAULT 'en',
    date_scraped TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS events (
    id {{autoid}},
    event_id TEXT UNIQUE NOT NULL,
    news_id {{bigint}} NOT NULL REFERENCES articles(news_id) ON DELETE CASCADE,
    event_summary TEXT,
    event_date TEXT,
    event_location TEXT,
    dimension TEXT NOT NULL,
    event_type TEXT,
    sub_dimension TEXT,
    direction TEXT CHECK (direction IN ('unilateral', 'bilateral', 'multilateral')),
    sentiment {{float}} CHECK (sentiment >= -10 AND sentiment <= 10),
    confidence_level {{float}} CHECK (confidence_level >= 0 AND confidence_level <= 1)
)`,
	`CREATE TABLE IF NOT EXISTS event_actors (
    id {{autoid}},
    event_id TEXT NOT NULL REFERENCES events(event_id) ON DELETE CASCADE,
    actor_iso3 TEXT NOT NULL,
    actor_role TEXT NOT NULL CHECK (actor_role IN ('actor1', 'actor1_secondary', 'actor2', 'actor2_secondary'))
)`,
	`CREATE TABLE IF NOT EXISTS dimensions_taxonomy (
    id {{autoid}},
    dimension TEXT NOT NULL,
    sub_dimension TEXT NOT NULL,
    description TEXT,
    UNIQUE(dimension, sub_dimension)
)`,
	`CREATE TABLE IF NOT EXISTS countries_reference (
    iso3 TEXT PRIMARY KEY,
    country_name TEXT NOT NULL,
    aliases TEXT
)`,
	"CREATE INDEX IF NOT EXISTS idx_events_news_id ON events(news_id)",
	"CREATE INDEX IF NOT EXISTS idx_events_dimension ON events(dimension)",
	"CREATE INDEX IF NOT EXISTS idx_event_actors_event_id ON event_actors(event_id)",
	"CREATE INDEX IF NOT EXISTS idx_event_actors_iso3 ON event_actors(actor_iso3)",
}

func execAll(ctx context.Context, tx *sql.Tx, d dialect, stmts []string) error {
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, d.ddl(s)); err != nil {
			return err
		}
	}
	return nil
}

// addColumn adds a column unless it already exists. Legacy databases may
// carry some of the later columns already.
func addColumn(ctx context.Context, db *DB, tx *sql.Tx, table, column, typ string) error {
	exists, err := db.columnExists(ctx, tx, table, column)
	if err != nil || exists {
		return err
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, typ))
	return err
}

func seedReference(ctx context.Context, db *DB, tx *sql.Tx) error {
	taxStmt := db.rebind(`INSERT INTO dimensions_taxonomy (dimension, sub_dimension, description)
		VALUES (?, ?, ?) ON CONFLICT (dimension, sub_dimension) DO NOTHING`)
	for _, e := range taxonomy.Entries {
		if _, err := tx.ExecContext(ctx, taxStmt, e.Dimension, e.SubDimension, e.Description); err != nil {
			return fmt.Errorf("seeding taxonomy: %w", err)
		}
	}

	countryStmt := db.rebind(`INSERT INTO countries_reference (iso3, country_name, aliases)
		VALUES (?, ?, ?) ON CONFLICT (iso3) DO NOTHING`)
	for _, c := range countries.Default().Entries() {
		aliases, err := json.Marshal(c.Aliases)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, countryStmt, c.ISO3, c.Name, string(aliases)); err != nil {
			return fmt.Errorf("seeding countries: %w", err)
		}
	}
	return nil
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
