package database

import (
	"context"
	"database/sql"
	"fmt"
)

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at TEXT NOT NULL
)`

// getSchemaVersion returns the highest applied migration version.
func (db *DB) getSchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	if err := db.conn.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return int(version.Int64), nil
}

// isLegacyDB reports whether the database has an articles table but no
// migration ledger. Such databases were created by the earlier pipeline
// whose schema matches migration 1.
func (db *DB) isLegacyDB(ctx context.Context) (bool, error) {
	ledger, err := db.tableExists(ctx, db.conn, "schema_migrations")
	if err != nil || ledger {
		return false, err
	}
	return db.tableExists(ctx, db.conn, "articles")
}

// migrate brings the schema up to the latest version. Each migration and
// its ledger row are committed in one transaction.
func (db *DB) migrate(ctx context.Context) error {
	legacy, err := db.isLegacyDB(ctx)
	if err != nil {
		return wrapErr("detecting legacy schema", err)
	}

	if _, err := db.conn.ExecContext(ctx, createMigrationsTable); err != nil {
		return wrapErr("creating migration ledger", err)
	}

	if legacy {
		db.logger.Info("detected legacy database, stamping as version 1")
		if _, err := db.conn.ExecContext(ctx,
			db.rebind("INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)"),
			1, migrations[0].Description+" (legacy)", now()); err != nil {
			return wrapErr("stamping legacy version", err)
		}
	}

	current, err := db.getSchemaVersion(ctx)
	if err != nil {
		return wrapErr("migrate", err)
	}
	if current >= latestVersion() {
		return nil
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		db.logger.Info("applying migration", "version", m.Version, "description", m.Description)

		err := db.runTx(ctx, func(tx *sql.Tx) error {
			if err := m.Up(ctx, db, tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				db.rebind("INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)"),
				m.Version, m.Description, now())
			return err
		})
		if err != nil {
			return wrapErr(fmt.Sprintf("migration %d (%s)", m.Version, m.Description), err)
		}
	}

	return nil
}
