// Package history persists completed runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	source      TEXT NOT NULL,
	result      TEXT NOT NULL DEFAULT '',
	kind        TEXT NOT NULL DEFAULT '',
	output      TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	duration_ns INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
)`

// Entry is one recorded run. Error is empty for successful runs.
type Entry struct {
	ID        int64
	Source    string
	Result    string
	Kind      string
	Output    string
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

// ToMap renders e for JSON responses.
func (e Entry) ToMap() map[string]any {
	m := map[string]any{
		"id":          e.ID,
		"source":      e.Source,
		"output":      e.Output,
		"duration_ms": float64(e.Duration) / float64(time.Millisecond),
		"created_at":  e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if e.Error != "" {
		m["error"] = e.Error
	} else {
		m["result"] = e.Result
		m["kind"] = e.Kind
	}
	return m
}

type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path. ":memory:" is allowed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history: missing database path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts e and returns its row id. A zero CreatedAt is stamped with
// the current time.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (source, result, kind, output, error, duration_ns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Source, e.Result, e.Kind, e.Output, e.Error, int64(e.Duration),
		e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("history: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: last insert id: %w", err)
	}
	return id, nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, result, kind, output, error, duration_ns, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			durNS   int64
			created string
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.Result, &e.Kind, &e.Output, &e.Error, &durNS, &created); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		e.Duration = time.Duration(durNS)
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("history: row %d: bad timestamp %q: %w", e.ID, created, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows: %w", err)
	}
	return entries, nil
}

// Count returns the number of recorded runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}
