package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// dialect captures the handful of places where SQLite and PostgreSQL differ.
type dialect struct {
	placeholder sq.PlaceholderFormat
	autoID      string
	float       string
	bigint      string
	dropSuffix  string
	readOnlyTx  bool
}

func dialectFor(e Engine) dialect {
	if e == EnginePostgres {
		return dialect{
			placeholder: sq.Dollar,
			autoID:      "BIGSERIAL PRIMARY KEY",
			float:       "DOUBLE PRECISION",
			bigint:      "BIGINT",
			dropSuffix:  " CASCADE",
			readOnlyTx:  true,
		}
	}
	return dialect{
		placeholder: sq.Question,
		autoID:      "INTEGER PRIMARY KEY AUTOINCREMENT",
		float:       "REAL",
		bigint:      "INTEGER",
	}
}

// ddl expands the {{autoid}}, {{float}} and {{bigint}} tokens.
func (d dialect) ddl(stmt string) string {
	return strings.NewReplacer(
		"{{autoid}}", d.autoID,
		"{{float}}", d.float,
		"{{bigint}}", d.bigint,
	).Replace(stmt)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (db *DB) tableExists(ctx context.Context, q queryRower, table string) (bool, error) {
	var query string
	if db.engine == EnginePostgres {
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
	} else {
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	}
	var n int
	if err := q.QueryRowContext(ctx, query, table).Scan(&n); err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}
	return n > 0, nil
}

func (db *DB) columnExists(ctx context.Context, q queryRower, table, column string) (bool, error) {
	var (
		query string
		args  []any
	)
	if db.engine == EnginePostgres {
		query = `SELECT COUNT(*) FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2`
		args = []any{table, column}
	} else {
		query = "SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?"
		args = []any{table, column}
	}
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}
