// Package index provides a SQLite mirror of the post history log for keyed
// queries: recency, pillar shares, caption-match candidates, daily counts.
// The JSONL log remains the source of truth; the index is rebuilt by Sync.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS posts (
	id              TEXT PRIMARY KEY,
	pipeline        TEXT NOT NULL,
	caption         TEXT NOT NULL DEFAULT '',
	pillar          TEXT NOT NULL DEFAULT 'uncategorized',
	posted_at       DATETIME NOT NULL,
	harvest_count   INTEGER NOT NULL DEFAULT 0,
	viewers         INTEGER NOT NULL DEFAULT 0,
	engagement_rate REAL NOT NULL DEFAULT 0,
	avg_watch_time  REAL NOT NULL DEFAULT 0,
	distribution    REAL
);

CREATE INDEX IF NOT EXISTS idx_posts_pipeline_posted ON posts(pipeline, posted_at);
CREATE INDEX IF NOT EXISTS idx_posts_pillar ON posts(pipeline, pillar);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
