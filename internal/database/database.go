package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Engine selects the SQL backend.
type Engine string

const (
	EngineSQLite   Engine = "sqlite"
	EnginePostgres Engine = "postgres"
)

var (
	// ErrDuplicateArticle is returned when an article's source URL is
	// already stored.
	ErrDuplicateArticle = errors.New("article already stored")
	// ErrUnavailable wraps connection and driver failures. Callers treat it
	// as fatal for the current run.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrNotSelect is returned by ReadOnlyQuery for anything other than a
	// single SELECT statement.
	ErrNotSelect = errors.New("only a single SELECT statement is allowed")
)

// Options configures Open.
type Options struct {
	Engine Engine
	// Path is the SQLite database file.
	Path string
	// DSN is the PostgreSQL connection string.
	DSN    string
	Logger *slog.Logger
}

// DB wraps a database connection pool for either engine.
type DB struct {
	conn    *sql.DB
	path    string
	engine  Engine
	dialect dialect
	sb      sq.StatementBuilderType
	logger  *slog.Logger
}

// Open connects to the configured engine and brings the schema up to date.
// An empty Engine means SQLite.
func Open(ctx context.Context, opts Options) (*DB, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		conn *sql.DB
		err  error
	)
	switch opts.Engine {
	case EngineSQLite, "":
		opts.Engine = EngineSQLite
		conn, err = openSQLite(opts.Path)
	case EnginePostgres:
		conn, err = openPostgres(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown database engine %q", opts.Engine)
	}
	if err != nil {
		return nil, err
	}

	d := dialectFor(opts.Engine)
	db := &DB{
		conn:    conn,
		path:    opts.Path,
		engine:  opts.Engine,
		dialect: d,
		sb:      sq.StatementBuilder.PlaceholderFormat(d.placeholder),
		logger:  logger,
	}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

func openSQLite(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite database path is empty")
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := "file:" + dbPath +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(10000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening database: %w: %v", ErrUnavailable, err)
	}
	return conn, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres DSN is empty")
	}
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to postgres: %w: %v", ErrUnavailable, err)
	}
	return conn, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path (empty for PostgreSQL).
func (db *DB) Path() string {
	return db.path
}

// Engine returns the active backend.
func (db *DB) Engine() Engine {
	return db.engine
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// rebind rewrites '?' placeholders for the active engine.
func (db *DB) rebind(query string) string {
	if db.engine != EnginePostgres {
		return query
	}
	out, err := sq.Dollar.ReplacePlaceholders(query)
	if err != nil {
		return query
	}
	return out
}

// Reset drops every table and recreates the schema.
func (db *DB) Reset(ctx context.Context) error {
	tables := []string{
		"event_actors", "events", "articles", "ingest_runs",
		"dimensions_taxonomy", "countries_reference", "schema_migrations",
	}
	err := db.runTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+t+db.dialect.dropSuffix); err != nil {
				return fmt.Errorf("dropping %s: %w", t, err)
			}
		}
		return nil
	})
	if err != nil {
		return wrapErr("resetting database", err)
	}
	db.logger.Warn("database reset", "engine", db.engine)
	return db.migrate(ctx)
}

const maxBusyRetries = 5

// runTx executes fn in a transaction, retrying when SQLite reports BUSY.
func (db *DB) runTx(ctx context.Context, fn func(*sql.Tx) error) error {
	for i := range maxBusyRetries {
		err := db.runTxOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isBusy(err) || i == maxBusyRetries-1 {
			return err
		}
		if err := sleepCtx(ctx, time.Duration(100*(i+1))*time.Millisecond); err != nil {
			return err
		}
	}
	return errors.New("transaction retries exhausted")
}

func (db *DB) runTxOnce(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// isUnavailable reports whether err means the backend cannot be reached or
// used at all, as opposed to a problem with one statement.
func isUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	msg := err.Error()
	return isBusy(err) ||
		strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "unable to open database") ||
		strings.Contains(msg, "disk I/O error") ||
		strings.Contains(msg, "database or disk is full") ||
		strings.Contains(msg, "conn closed")
}

// wrapErr annotates err with op and marks backend failures as ErrUnavailable.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) && !errors.Is(err, ErrUnavailable) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
