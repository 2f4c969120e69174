// Package store is the SQLite persistence layer. It owns the schema, the
// transaction wrapper, and per-table statement helpers; all domain logic
// (migration, billing) runs on top of it through the Queryer interface.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Queryer is the subset of database/sql methods shared by *sql.DB and
// *sql.Tx. Table helpers take a Queryer so they work both standalone and
// inside a transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps the SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and bootstraps
// the schema. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer keeps SQLite happy; the app is single-user anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the store as a Queryer for non-transactional reads and writes.
func (s *Store) DB() Queryer {
	return s.db
}

// InTx runs fn inside a single transaction. If fn returns an error or panics,
// every write made through the handed Queryer is rolled back.
func (s *Store) InTx(ctx context.Context, fn func(q Queryer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Column names follow the original camelCase convention so the schema stays
// compatible with existing campusdash database files.
func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY NOT NULL,
		title TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		amount REAL NOT NULL,
		currency TEXT NOT NULL DEFAULT 'IDR',
		date TEXT NOT NULL,
		type TEXT NOT NULL,
		createdAt TEXT NOT NULL,
		updatedAt TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY NOT NULL,
		name TEXT NOT NULL,
		cost REAL NOT NULL,
		dueDay INTEGER NOT NULL,
		lastPaidDate TEXT,
		createdAt TEXT NOT NULL,
		updatedAt TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS performance_courses (
		id TEXT PRIMARY KEY NOT NULL,
		semester INTEGER NOT NULL,
		name TEXT NOT NULL,
		sks INTEGER NOT NULL,
		grade TEXT,
		updatedAt TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS performance_semesters (
		semester INTEGER PRIMARY KEY,
		ips REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY NOT NULL,
		title TEXT NOT NULL,
		course TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		deadline TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		createdAt TEXT NOT NULL,
		updatedAt TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schedule_items (
		id TEXT PRIMARY KEY NOT NULL,
		day TEXT NOT NULL,
		startTime TEXT NOT NULL DEFAULT '',
		endTime TEXT NOT NULL DEFAULT '',
		course TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		updatedAt TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY NOT NULL,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
	CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);
	CREATE INDEX IF NOT EXISTS idx_performance_courses_semester ON performance_courses(semester);
	CREATE INDEX IF NOT EXISTS idx_assignments_status ON assignments(status);
	CREATE INDEX IF NOT EXISTS idx_schedule_items_day ON schedule_items(day);
	`
	_, err := s.db.Exec(schema)
	return err
}

const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored timestamp. Stored values are always RFC3339, but
// rows written by the legacy app may carry millisecond precision or bare
// dates, so be lenient.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, timeLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
