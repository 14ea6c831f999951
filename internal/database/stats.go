package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/TobiSchelling/geomonitor/internal/countries"
)

// GetStats returns aggregate statistics about stored articles and events.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	s := &Stats{
		ArticlesByStatus: map[string]int{},
		ByDirection:      map[string]int{},
		ByDimension:      []DimensionStat{},
		TopCountries:     []CountryStat{},
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM articles", &s.TotalArticles},
		{"SELECT COUNT(*) FROM events", &s.TotalEvents},
		{"SELECT COUNT(*) FROM event_actors", &s.TotalActors},
	}
	for _, c := range counts {
		if err := db.conn.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, wrapErr("reading stats", err)
		}
	}
	if s.TotalArticles > 0 {
		s.EventsPerArticle = float64(s.TotalEvents) / float64(s.TotalArticles)
	}

	var avg sql.NullFloat64
	if err := db.conn.QueryRowContext(ctx, "SELECT AVG(sentiment) FROM events").Scan(&avg); err != nil {
		return nil, wrapErr("reading stats", err)
	}
	if avg.Valid {
		s.AvgSentiment = &avg.Float64
	}

	if err := db.groupCounts(ctx,
		"SELECT classification_status, COUNT(*) FROM articles GROUP BY classification_status",
		s.ArticlesByStatus); err != nil {
		return nil, err
	}
	if err := db.groupCounts(ctx,
		"SELECT COALESCE(direction, 'unknown'), COUNT(*) FROM events GROUP BY COALESCE(direction, 'unknown')",
		s.ByDirection); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT dimension, COUNT(*), AVG(sentiment)
		FROM events GROUP BY dimension ORDER BY COUNT(*) DESC, dimension`)
	if err != nil {
		return nil, wrapErr("reading dimension stats", err)
	}
	for rows.Next() {
		var d DimensionStat
		var avg sql.NullFloat64
		if err := rows.Scan(&d.Dimension, &d.Events, &avg); err != nil {
			rows.Close()
			return nil, wrapErr("reading dimension stats", err)
		}
		if avg.Valid {
			v := avg.Float64
			d.AvgSentiment = &v
		}
		s.ByDimension = append(s.ByDimension, d)
	}
	rows.Close()

	rows, err = db.conn.QueryContext(ctx, `SELECT actor_iso3, COUNT(DISTINCT event_id)
		FROM event_actors GROUP BY actor_iso3 ORDER BY COUNT(DISTINCT event_id) DESC, actor_iso3 LIMIT 10`)
	if err != nil {
		return nil, wrapErr("reading country stats", err)
	}
	for rows.Next() {
		var c CountryStat
		if err := rows.Scan(&c.ISO3, &c.Events); err != nil {
			rows.Close()
			return nil, wrapErr("reading country stats", err)
		}
		s.TopCountries = append(s.TopCountries, c)
	}
	rows.Close()

	runs, err := db.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		s.LastRun = &runs[0]
	}
	return s, nil
}

func (db *DB) groupCounts(ctx context.Context, query string, into map[string]int) error {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return wrapErr("reading grouped counts", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return wrapErr("reading grouped counts", err)
		}
		into[k] = n
	}
	return wrapErr("reading grouped counts", rows.Err())
}

// TaxonomyPairs returns the seeded dimension/sub-dimension reference rows.
func (db *DB) TaxonomyPairs(ctx context.Context) ([]TaxonomyPair, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT dimension, sub_dimension, description FROM dimensions_taxonomy ORDER BY id")
	if err != nil {
		return nil, wrapErr("reading taxonomy", err)
	}
	defer rows.Close()
	var out []TaxonomyPair
	for rows.Next() {
		var p TaxonomyPair
		if err := rows.Scan(&p.Dimension, &p.SubDimension, &p.Description); err != nil {
			return nil, wrapErr("reading taxonomy", err)
		}
		out = append(out, p)
	}
	return out, wrapErr("reading taxonomy", rows.Err())
}

// Countries returns the seeded country reference rows.
func (db *DB) Countries(ctx context.Context) ([]countries.Country, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT iso3, country_name, aliases FROM countries_reference ORDER BY iso3")
	if err != nil {
		return nil, wrapErr("reading countries", err)
	}
	defer rows.Close()
	var out []countries.Country
	for rows.Next() {
		var c countries.Country
		var aliases sql.NullString
		if err := rows.Scan(&c.ISO3, &c.Name, &aliases); err != nil {
			return nil, wrapErr("reading countries", err)
		}
		if aliases.Valid && aliases.String != "" {
			if err := json.Unmarshal([]byte(aliases.String), &c.Aliases); err != nil {
				return nil, fmt.Errorf("decoding aliases of %s: %w", c.ISO3, err)
			}
		}
		out = append(out, c)
	}
	return out, wrapErr("reading countries", rows.Err())
}

// BilateralWithoutActor2 returns bilateral events that have no actor2 row.
func (db *DB) BilateralWithoutActor2(ctx context.Context, limit int) ([]Event, error) {
	q := db.sb.Select(eventColumns).From("events").
		Where("direction = 'bilateral'").
		Where("NOT EXISTS (SELECT 1 FROM event_actors ea WHERE ea.event_id = events.event_id AND ea.actor_role = 'actor2')").
		OrderBy("id")
	q = paginate(q, limit, 0)
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building quality query: %w", err)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("finding incomplete bilateral events", err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var ev Event
		if err := scanEventInto(rows, &ev); err != nil {
			return nil, wrapErr("reading event", err)
		}
		out = append(out, ev)
	}
	return out, wrapErr("finding incomplete bilateral events", rows.Err())
}

// EventSummary pairs an event's summary with its model sentiment.
type EventSummary struct {
	EventID   string
	Summary   string
	Sentiment float64
}

// EventSummaries returns the id, summary and sentiment of every event that
// has both.
func (db *DB) EventSummaries(ctx context.Context) ([]EventSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT event_id, event_summary, sentiment FROM events
		WHERE event_summary IS NOT NULL AND event_summary <> '' AND sentiment IS NOT NULL
		ORDER BY id`)
	if err != nil {
		return nil, wrapErr("reading event summaries", err)
	}
	defer rows.Close()
	var out []EventSummary
	for rows.Next() {
		var e EventSummary
		if err := rows.Scan(&e.EventID, &e.Summary, &e.Sentiment); err != nil {
			return nil, wrapErr("reading event summaries", err)
		}
		out = append(out, e)
	}
	return out, wrapErr("reading event summaries", rows.Err())
}

// CountNullSubDimension counts events whose sub-dimension was not accepted.
func (db *DB) CountNullSubDimension(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM events WHERE sub_dimension IS NULL").Scan(&n)
	return n, wrapErr("counting null sub-dimensions", err)
}
