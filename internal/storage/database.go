// Package storage handles persistence: the SQLite job log and the
// filesystem cache for processed outputs.
package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id    TEXT NOT NULL DEFAULT '',
    digest        TEXT NOT NULL,
    preset        TEXT NOT NULL,
    face_found    BOOLEAN NOT NULL DEFAULT 0,
    tight_crop    BOOLEAN NOT NULL DEFAULT 0,
    crop_left     INTEGER NOT NULL DEFAULT 0,
    crop_top      INTEGER NOT NULL DEFAULT 0,
    crop_width    INTEGER NOT NULL DEFAULT 0,
    crop_height   INTEGER NOT NULL DEFAULT 0,
    avg_luminance REAL NOT NULL DEFAULT 0,
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL,
    error_message TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_jobs_digest ON jobs(digest);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`

// NewDatabase opens the SQLite connection and runs migrations. WAL mode
// allows concurrent reads during writes; busy_timeout waits out lock
// contention instead of failing.
func NewDatabase(dbPath string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}
