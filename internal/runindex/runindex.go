// Package runindex is supplemental bookkeeping: a small sqlite registry
// of completed runs, grounded on the project's internal/northstar/store.go
// (one struct per table, sql.DB behind a mutex, schema created on open).
// It never feeds back into a verdict — its absence or corruption never
// changes truthState — it exists only so a later run of the same URL can
// report a previousDigest for operators doing drift triage.
package runindex

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"truthwatch/internal/model"
)

// Store is the run registry, backed by a single sqlite file.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the registry at <outDir>/runs/registry.db,
// creating the schema if absent.
func Open(outDir string) (*Store, error) {
	dbPath := filepath.Join(outDir, "runs", "registry.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init registry schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		truth_state TEXT NOT NULL,
		digest_json TEXT NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_url ON runs(url);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record is one completed-run row.
type Record struct {
	RunID       string
	URL         string
	TruthState  model.TruthState
	Digest      model.Digest
	StartedAt   string
	CompletedAt string
}

// RecordRun inserts one completed run's row. A failure here is logged by
// the caller and never changes the run's own exit code or truthState.
func (s *Store) RecordRun(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	digestJSON, err := json.Marshal(r.Digest)
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (run_id, url, truth_state, digest_json, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			url=excluded.url, truth_state=excluded.truth_state,
			digest_json=excluded.digest_json, completed_at=excluded.completed_at
	`, r.RunID, r.URL, string(r.TruthState), digestJSON, r.StartedAt, r.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// PreviousDigest returns the digest of the most recently completed run
// against url other than excludeRunID, for humans doing drift triage. ok
// is false when no such run exists.
func (s *Store) PreviousDigest(url, excludeRunID string) (digest model.Digest, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT digest_json FROM runs
		WHERE url = ? AND run_id != ?
		ORDER BY completed_at DESC LIMIT 1
	`, url, excludeRunID)

	var raw string
	if scanErr := row.Scan(&raw); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return model.Digest{}, false, nil
		}
		return model.Digest{}, false, fmt.Errorf("query previous digest: %w", scanErr)
	}

	if err := json.Unmarshal([]byte(raw), &digest); err != nil {
		return model.Digest{}, false, fmt.Errorf("unmarshal previous digest: %w", err)
	}
	return digest, true, nil
}
