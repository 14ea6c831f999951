package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const eventColumns = `event_id, news_id, seq, event_summary, event_date, event_location,
	dimension, event_type, sub_dimension, direction, sentiment, confidence_level`

// InsertEventSet stores all events of one article with their actors and
// marks the article classified, in a single transaction. Sequence numbers
// continue after any events already stored for the article.
func (db *DB) InsertEventSet(ctx context.Context, newsID int64, events []NewEvent) ([]string, error) {
	var ids []string
	err := db.runTx(ctx, func(tx *sql.Tx) error {
		ids = ids[:0]
		for _, ev := range events {
			id, err := db.insertEvent(ctx, tx, newsID, ev)
			if err != nil {
				return err
			}
			if err := db.insertEventActors(ctx, tx, id, ev.Actors); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		_, err := tx.ExecContext(ctx,
			db.rebind("UPDATE articles SET classification_status = ? WHERE news_id = ?"),
			StatusClassified, newsID)
		return err
	})
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("storing events for article %d", newsID), err)
	}
	return ids, nil
}

// InsertEvent stores a single event and its actors, returning the event id.
func (db *DB) InsertEvent(ctx context.Context, newsID int64, ev NewEvent) (string, error) {
	var id string
	err := db.runTx(ctx, func(tx *sql.Tx) error {
		var err error
		if id, err = db.insertEvent(ctx, tx, newsID, ev); err != nil {
			return err
		}
		return db.insertEventActors(ctx, tx, id, ev.Actors)
	})
	if err != nil {
		return "", wrapErr("inserting event", err)
	}
	return id, nil
}

// InsertEventActors links countries to an existing event.
func (db *DB) InsertEventActors(ctx context.Context, eventID string, actors []Actor) error {
	err := db.runTx(ctx, func(tx *sql.Tx) error {
		return db.insertEventActors(ctx, tx, eventID, actors)
	})
	return wrapErr("inserting event actors", err)
}

func (db *DB) insertEvent(ctx context.Context, tx *sql.Tx, newsID int64, ev NewEvent) (string, error) {
	var maxSeq sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		db.rebind("SELECT MAX(seq) FROM events WHERE news_id = ?"), newsID).Scan(&maxSeq); err != nil {
		return "", fmt.Errorf("reading event sequence: %w", err)
	}
	seq := maxSeq.Int64 + 1
	id := fmt.Sprintf("%d-%d", newsID, seq)

	var direction *string
	if ev.Direction != "" {
		direction = &ev.Direction
	}
	_, err := tx.ExecContext(ctx, db.rebind(`
		INSERT INTO events (event_id, news_id, seq, event_summary, event_date, event_location,
			dimension, event_type, sub_dimension, direction, sentiment, confidence_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, newsID, seq, ev.Summary, ev.EventDate, ev.Location,
		ev.Dimension, ev.EventType, ev.SubDimension, direction, ev.Sentiment, ev.Confidence)
	if err != nil {
		return "", fmt.Errorf("inserting event %s: %w", id, err)
	}
	return id, nil
}

func (db *DB) insertEventActors(ctx context.Context, tx *sql.Tx, eventID string, actors []Actor) error {
	stmt := db.rebind("INSERT INTO event_actors (event_id, actor_iso3, actor_role) VALUES (?, ?, ?)")
	for _, a := range actors {
		if _, err := tx.ExecContext(ctx, stmt, eventID, a.ISO3, a.Role); err != nil {
			return fmt.Errorf("inserting actor %s for %s: %w", a.ISO3, eventID, err)
		}
	}
	return nil
}

// GetEvent retrieves an event with its actors. Returns nil if not found.
func (db *DB) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT "+eventColumns+" FROM events WHERE event_id = ?"), eventID)
	var ev Event
	err := scanEventInto(row, &ev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("reading event", err)
	}
	actors, err := db.loadActors(ctx, []string{eventID})
	if err != nil {
		return nil, err
	}
	ev.Actors = actors[eventID]
	return &ev, nil
}

// EventsForArticle returns an article's events in sequence order.
func (db *DB) EventsForArticle(ctx context.Context, newsID int64) ([]Event, error) {
	return db.ListEvents(ctx, EventFilter{NewsID: newsID, Limit: maxPageSize})
}

// ListEvents returns events with their actors, filtered and paginated.
func (db *DB) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	q := db.sb.Select(eventColumns).From("events")
	if f.NewsID > 0 {
		q = q.Where(sq.Eq{"news_id": f.NewsID}).OrderBy("seq")
	} else {
		q = q.OrderBy("id DESC")
	}
	if f.Dimension != "" {
		q = q.Where(sq.Eq{"dimension": f.Dimension})
	}
	if f.SubDimension != "" {
		q = q.Where(sq.Eq{"sub_dimension": f.SubDimension})
	}
	if f.Direction != "" {
		q = q.Where(sq.Eq{"direction": f.Direction})
	}
	if f.Country != "" {
		q = q.Where(sq.Expr("event_id IN (SELECT event_id FROM event_actors WHERE actor_iso3 = ?)", f.Country))
	}
	q = paginate(q, f.Limit, f.Offset)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building event query: %w", err)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("listing events", err)
	}
	defer rows.Close()

	var events []Event
	var ids []string
	for rows.Next() {
		var ev Event
		if err := scanEventInto(rows, &ev); err != nil {
			return nil, wrapErr("reading event", err)
		}
		events = append(events, ev)
		ids = append(ids, ev.EventID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("listing events", err)
	}

	actors, err := db.loadActors(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Actors = actors[events[i].EventID]
	}
	return events, nil
}

// FullExport returns events joined with their article and grouped actors,
// newest first.
func (db *DB) FullExport(ctx context.Context, limit int) ([]ExportRow, error) {
	q := db.sb.Select(
		"a.news_id", "a.news_title", "a.publication_date", "a.source_url", "a.source_country",
		"e.event_id", "e.event_summary", "e.event_date", "e.dimension", "e.sub_dimension",
		"e.direction", "e.sentiment", "e.confidence_level",
	).From("events e").
		Join("articles a ON a.news_id = e.news_id").
		OrderBy("e.id DESC")
	q = paginate(q, limit, 0)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building export query: %w", err)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("exporting events", err)
	}
	defer rows.Close()

	var out []ExportRow
	var ids []string
	for rows.Next() {
		var r ExportRow
		if err := rows.Scan(&r.NewsID, &r.NewsTitle, &r.PublicationDate, &r.SourceURL, &r.SourceCountry,
			&r.EventID, &r.EventSummary, &r.EventDate, &r.Dimension, &r.SubDimension,
			&r.Direction, &r.Sentiment, &r.Confidence); err != nil {
			return nil, wrapErr("reading export row", err)
		}
		out = append(out, r)
		ids = append(ids, r.EventID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("exporting events", err)
	}

	actors, err := db.loadActors(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		r := &out[i]
		r.Actor1, r.Actor1Secondary, r.Actor2, r.Actor2Secondary = []string{}, []string{}, []string{}, []string{}
		for _, a := range actors[r.EventID] {
			switch a.Role {
			case "actor1":
				r.Actor1 = append(r.Actor1, a.ISO3)
			case "actor1_secondary":
				r.Actor1Secondary = append(r.Actor1Secondary, a.ISO3)
			case "actor2":
				r.Actor2 = append(r.Actor2, a.ISO3)
			case "actor2_secondary":
				r.Actor2Secondary = append(r.Actor2Secondary, a.ISO3)
			}
		}
	}
	return out, nil
}

// loadActors fetches the actors of the given events keyed by event id.
func (db *DB) loadActors(ctx context.Context, eventIDs []string) (map[string][]Actor, error) {
	out := make(map[string][]Actor, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	query, args, err := db.sb.Select("event_id", "actor_iso3", "actor_role").
		From("event_actors").
		Where(sq.Eq{"event_id": eventIDs}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building actor query: %w", err)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("loading actors", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var a Actor
		if err := rows.Scan(&id, &a.ISO3, &a.Role); err != nil {
			return nil, wrapErr("reading actor", err)
		}
		out[id] = append(out[id], a)
	}
	return out, wrapErr("loading actors", rows.Err())
}

func scanEventInto(s rowScanner, ev *Event) error {
	return s.Scan(&ev.EventID, &ev.NewsID, &ev.Seq, &ev.Summary, &ev.EventDate, &ev.Location,
		&ev.Dimension, &ev.EventType, &ev.SubDimension, &ev.Direction, &ev.Sentiment, &ev.Confidence)
}
