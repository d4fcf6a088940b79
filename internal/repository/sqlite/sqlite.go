// Package sqlite implements the repository interfaces on an embedded SQLite
// file through the pure-Go modernc.org/sqlite driver, so the console needs
// no C toolchain and no database server.
//
// The pattern is always:
//  1. sql.Open("sqlite", path) creates a pool
//  2. ExecContext / QueryContext run statements
//  3. rows.Scan reads results
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the connection pool and implements repository.ActivityRepository.
type DB struct {
	conn *sql.DB
}

// New opens the database and runs migrations.
//
// dbPath examples:
//   - "data/admin.db" → file-based, persistent
//   - ":memory:"      → in-memory, for tests
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would be a separate, empty
	// database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets page views read the activity log while a mutation appends to it.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS activity (
			id         TEXT PRIMARY KEY,
			admin      TEXT NOT NULL DEFAULT '',
			action     TEXT NOT NULL,
			entity     TEXT NOT NULL,
			entity_id  TEXT NOT NULL DEFAULT '',
			outcome    TEXT NOT NULL,
			detail     TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_activity_created_at ON activity(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating activity table: %w", err)
	}
	return nil
}
