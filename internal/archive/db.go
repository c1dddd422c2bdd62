// Package archive keeps a durable history of fan-out runs in a local
// sqlite database so past sweeps can be audited after the fact.
package archive

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS run_reports (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	total       INTEGER NOT NULL,
	succeeded   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	details     TEXT NOT NULL DEFAULT '[]',
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_reports_finished_at ON run_reports(finished_at);
`

type DB struct {
	*sqlx.DB
}

// Connect opens (creating if needed) the archive database and applies the
// schema. sqlite tolerates exactly one writer, so the pool is capped.
func Connect(path string) (*DB, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}
