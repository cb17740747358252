package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"niftywatch/pkg/model"
)

// SQLiteStore implements Store on a local SQLite file
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the cache database at path.
// Bundles older than ttl are treated as misses.
func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &SQLiteStore{db: db, ttl: ttl, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bundles (
			symbol     TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id     TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			universe   INTEGER NOT NULL,
			failed     INTEGER NOT NULL,
			filtered   INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrating cache db: %w", err)
		}
	}
	return nil
}

// GetBundle returns the cached bundle for symbol, honoring the TTL
func (s *SQLiteStore) GetBundle(symbol string) (*model.Bundle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload string
	var fetchedAt int64
	err := s.db.QueryRow(
		"SELECT payload, fetched_at FROM bundles WHERE symbol = ?", symbol,
	).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading bundle for %s: %w", symbol, err)
	}

	if s.now().Sub(time.Unix(fetchedAt, 0)) > s.ttl {
		return nil, false, nil // expired
	}

	var bundle model.Bundle
	if err := json.Unmarshal([]byte(payload), &bundle); err != nil {
		return nil, false, fmt.Errorf("decoding bundle for %s: %w", symbol, err)
	}
	return &bundle, true, nil
}

// PutBundle stores a freshly fetched bundle
func (s *SQLiteStore) PutBundle(bundle *model.Bundle) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encoding bundle for %s: %w", bundle.Symbol, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO bundles (symbol, payload, fetched_at) VALUES (?, ?, ?)",
		bundle.Symbol, string(payload), s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("storing bundle for %s: %w", bundle.Symbol, err)
	}
	return nil
}

// RecordRun appends one screening run's metadata
func (s *SQLiteStore) RecordRun(result *model.ScreenResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO runs (run_id, started_at, universe, failed, filtered, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?)",
		result.RunID, result.StartedAt.Unix(), result.Universe, result.Failed,
		len(result.Filtered), result.ScreenTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", result.RunID, err)
	}
	return nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
