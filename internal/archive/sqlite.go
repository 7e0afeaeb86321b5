// Package archive persists extraction runs to a local SQLite database.
//
// Each appended row captures the configuration name, the source document
// path, the full result JSON and the error count, so past runs can be
// compared after a site changes its markup.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"xpath2json/internal/extract"
)

const createSQL = `
CREATE TABLE IF NOT EXISTS extraction_runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_at      TEXT    NOT NULL,
    config_name TEXT    NOT NULL,
    source      TEXT    NOT NULL,
    result      TEXT    NOT NULL,
    error_count INTEGER NOT NULL
)`

// Store appends extraction results to one SQLite database.
//
// SQLite has no native timestamp type; run_at is stored as an RFC3339Nano
// string in UTC for reliable round-trip behavior and easy debugging.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and ensures the
// extraction_runs table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create extraction_runs: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() { _ = s.db.Close() }

// Append records one run. source identifies the document the result came
// from, typically a file path.
func (s *Store) Append(ctx context.Context, source string, res *extract.Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO extraction_runs (run_at, config_name, source, result, error_count)
		 VALUES (?, ?, ?, ?, ?)`,
		formatSQLiteTime(time.Now()), res.ConfigName, source, string(body), len(res.Errors))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Count returns the number of archived runs for a configuration name. An
// empty name counts all runs.
func (s *Store) Count(ctx context.Context, configName string) (int64, error) {
	q := `SELECT COUNT(*) FROM extraction_runs`
	var args []any
	if configName != "" {
		q += ` WHERE config_name = ?`
		args = append(args, configName)
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
