// Package storage provides the durable keyed stores backing the history
// service.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/ports"
)

// SQLiteStore persists exchanges in a SQLite database keyed by timestamp.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the database at path. Any open or init
// failure is reported as StorageUnavailable so the caller can degrade to
// in-memory operation.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS exchanges (
		timestamp INTEGER PRIMARY KEY,
		model TEXT NOT NULL,
		prompt TEXT NOT NULL,
		response TEXT NOT NULL,
		duration_seconds REAL NOT NULL
	);`)
	return err
}

// Put inserts a new exchange. An existing timestamp key fails with
// DuplicateKey.
func (s *SQLiteStore) Put(entry domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM exchanges WHERE timestamp = ?`, entry.Timestamp).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return &domain.DuplicateKeyError{Timestamp: entry.Timestamp}
	}

	_, err = s.db.Exec(`INSERT INTO exchanges
		(timestamp, model, prompt, response, duration_seconds)
		VALUES (?, ?, ?, ?, ?)`,
		entry.Timestamp,
		entry.ModelID,
		entry.Prompt,
		entry.Response,
		entry.DurationSeconds,
	)
	return err
}

// Get looks up a single exchange by timestamp.
func (s *SQLiteStore) Get(timestamp int64) (domain.HistoryEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entry domain.HistoryEntry
	err := s.db.QueryRow(`SELECT timestamp, model, prompt, response, duration_seconds
		FROM exchanges WHERE timestamp = ?`, timestamp).
		Scan(&entry.Timestamp, &entry.ModelID, &entry.Prompt, &entry.Response, &entry.DurationSeconds)
	if err == sql.ErrNoRows {
		return domain.HistoryEntry{}, false, nil
	}
	if err != nil {
		return domain.HistoryEntry{}, false, err
	}
	return entry, true, nil
}

// All returns every exchange, timestamp descending.
func (s *SQLiteStore) All() ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT timestamp, model, prompt, response, duration_seconds
		FROM exchanges ORDER BY timestamp DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(&entry.Timestamp, &entry.ModelID, &entry.Prompt, &entry.Response, &entry.DurationSeconds); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes the exchange at timestamp. Absent keys are a no-op.
func (s *SQLiteStore) Delete(timestamp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM exchanges WHERE timestamp = ?`, timestamp)
	return err
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ports.EntryStore = (*SQLiteStore)(nil)
