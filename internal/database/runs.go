package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Run states.
const (
	RunRunning  = "running"
	RunFinished = "finished"
	RunAborted  = "aborted"
)

// StartRun records the start of an ingestion run and returns its id.
func (db *DB) StartRun(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.ExecContext(ctx,
		db.rebind("INSERT INTO ingest_runs (run_id, started_at, status) VALUES (?, ?, ?)"),
		id, now(), RunRunning)
	if err != nil {
		return "", wrapErr("starting run", err)
	}
	return id, nil
}

// FinishRun stores the counters of a completed or aborted run.
func (db *DB) FinishRun(ctx context.Context, runID string, r RunReport) error {
	status := r.Status
	if status == "" {
		status = RunFinished
	}
	var errText *string
	if r.Error != "" {
		errText = &r.Error
	}
	res, err := db.conn.ExecContext(ctx, db.rebind(`UPDATE ingest_runs SET
			finished_at = ?, status = ?, fetched = ?, rejected = ?, invalid = ?,
			stored_with_events = ?, stored_zero_events = ?, failed_classification = ?,
			failed_translation = ?, already_ingested = ?, events = ?, error = ?
		WHERE run_id = ?`),
		now(), status, r.Fetched, r.Rejected, r.Invalid,
		r.StoredWithEvents, r.StoredZeroEvents, r.FailedClassification,
		r.FailedTranslation, r.AlreadyIngested, r.Events, errText,
		runID)
	if err != nil {
		return wrapErr("finishing run", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run: unknown run %s", runID)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := db.sb.Select("run_id", "started_at", "finished_at", "status", "fetched", "rejected", "invalid",
		"stored_with_events", "stored_zero_events", "failed_classification",
		"failed_translation", "already_ingested", "events", "error").
		From("ingest_runs").
		OrderBy("started_at DESC", "run_id")
	q = paginate(q, limit, 0)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building run query: %w", err)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("listing runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Fetched, &r.Rejected, &r.Invalid,
			&r.StoredWithEvents, &r.StoredZeroEvents, &r.FailedClassification,
			&r.FailedTranslation, &r.AlreadyIngested, &r.Events, &r.Error); err != nil {
			return nil, wrapErr("reading run", err)
		}
		runs = append(runs, r)
	}
	return runs, wrapErr("listing runs", rows.Err())
}
