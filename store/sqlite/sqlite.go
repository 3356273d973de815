/*
Package sqlite provides a SQLite-backed key-value store for the treasury
record store.

PURPOSE:
  Implements treasury.KV on a single table. Each treasury collection is
  one JSON document stored under its key, so every RecordStore mutation is
  a single upsert.

KEY TABLES:
  kv: key TEXT PRIMARY KEY, value TEXT, updated_at TEXT

WAL MODE:
  Opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Single writer at a time
  - Better crash recovery

USAGE:
  kv, err := sqlite.New("./data/treasury.db")
  if err != nil {
      log.Fatal(err)
  }
  defer kv.Close()

  records := treasury.NewRecordStore(kv)

MIGRATION:
  Versioned migrations in migrations/*.sql are embedded and applied on New.

SEE ALSO:
  - treasury/store.go: KV interface and RecordStore
  - treasury/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// KV implements treasury.KV using SQLite.
type KV struct {
	db *sql.DB
}

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*KV, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &KV{db: db}, nil
}

// Close closes the database connection.
func (s *KV) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key. ok is false if the key was never
// set.
func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *KV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
