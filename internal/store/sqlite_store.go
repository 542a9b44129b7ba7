// file: internal/store/sqlite_store.go
// version: 1.1.0
// guid: 3a486377-fabc-4d40-9786-a8620fc7cb01

package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements the Store interface using SQLite3. It is
// opt-in: cross-compilation of the cgo driver is painful, so PebbleDB
// is the default backend.
type SQLiteStore struct {
	db *sql.DB
}

const resultSelectColumns = `
	id, run_id, path, size, mod_time, algorithm, digest, created_at
`

// NewSQLiteStore opens (creating if needed) a SQLite history database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	// Migration bookkeeping table; the rest of the schema is created
	// by versioned migrations.
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Reset deletes all history rows.
func (s *SQLiteStore) Reset() error {
	for _, table := range []string{"results", "runs"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// CreateRun starts a new run record.
func (s *SQLiteStore) CreateRun(command string) (*Run, error) {
	id, err := newULID()
	if err != nil {
		return nil, err
	}
	run := &Run{ID: id, Command: command, StartedAt: time.Now().UTC()}
	_, err = s.db.Exec(
		`INSERT INTO runs (id, command, started_at, files, bytes, reused, errors)
		 VALUES (?, ?, ?, 0, 0, 0, 0)`,
		run.ID, run.Command, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

// FinishRun stamps completion time and persists final counters.
func (s *SQLiteStore) FinishRun(run *Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run has no ID")
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	_, err := s.db.Exec(
		`UPDATE runs SET completed_at = ?, files = ?, bytes = ?, reused = ?, errors = ?
		 WHERE id = ?`,
		run.CompletedAt, run.Files, run.Bytes, run.Reused, run.Errors, run.ID,
	)
	return err
}

// GetRunByID fetches a single run.
func (s *SQLiteStore) GetRunByID(id string) (*Run, error) {
	var run Run
	err := s.db.QueryRow(
		`SELECT id, command, started_at, completed_at, files, bytes, reused, errors
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Command, &run.StartedAt, &run.CompletedAt,
		&run.Files, &run.Bytes, &run.Reused, &run.Errors)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// RecordResult stores a result.
func (s *SQLiteStore) RecordResult(result *Result) (*Result, error) {
	if result.ID == "" {
		id, err := newULID()
		if err != nil {
			return nil, err
		}
		result.ID = id
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	runID := sql.NullString{String: result.RunID, Valid: result.RunID != ""}
	_, err := s.db.Exec(
		`INSERT INTO results (id, run_id, path, size, mod_time, algorithm, digest, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, runID, result.Path, result.Size, result.ModTime,
		result.Algorithm, result.Digest, result.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert result: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(scanner rowScanner, result *Result) error {
	var runID sql.NullString
	err := scanner.Scan(&result.ID, &runID, &result.Path, &result.Size,
		&result.ModTime, &result.Algorithm, &result.Digest, &result.CreatedAt)
	if err != nil {
		return err
	}
	result.RunID = runID.String
	return nil
}

// LatestResult returns the most recent result for (path, algorithm),
// or nil if none is recorded.
func (s *SQLiteStore) LatestResult(path, algorithm string) (*Result, error) {
	row := s.db.QueryRow(
		`SELECT`+resultSelectColumns+`FROM results
		 WHERE path = ? AND algorithm = ?
		 ORDER BY id DESC LIMIT 1`, path, algorithm)
	var result Result
	if err := scanResult(row, &result); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// RecentResults returns up to limit results, newest first.
func (s *SQLiteStore) RecentResults(limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT`+resultSelectColumns+`FROM results ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResults(rows, limit, nil)
}

// SearchResults returns results whose path matches the query, newest first.
func (s *SQLiteStore) SearchResults(query string, useFuzzy bool, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	if !useFuzzy {
		rows, err := s.db.Query(
			`SELECT`+resultSelectColumns+`FROM results
			 WHERE path LIKE ? ORDER BY id DESC LIMIT ?`,
			"%"+query+"%", limit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return collectResults(rows, limit, nil)
	}

	// Fuzzy matching happens in Go; scan newest-first and stop at limit.
	rows, err := s.db.Query(`SELECT` + resultSelectColumns + `FROM results ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResults(rows, limit, func(r *Result) bool {
		return fuzzy.MatchFold(query, r.Path)
	})
}

func collectResults(rows *sql.Rows, limit int, match func(*Result) bool) ([]Result, error) {
	results := []Result{}
	for rows.Next() && len(results) < limit {
		var result Result
		if err := scanResult(rows, &result); err != nil {
			return nil, err
		}
		if match != nil && !match(&result) {
			continue
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// DeleteResult removes a result row.
func (s *SQLiteStore) DeleteResult(id string) error {
	res, err := s.db.Exec("DELETE FROM results WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("result %s not found", id)
	}
	return nil
}

// GetStats aggregates the whole history.
func (s *SQLiteStore) GetStats() (*Stats, error) {
	stats := &Stats{ByAlgorithm: make(map[string]int)}

	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM results`,
	).Scan(&stats.Results, &stats.Bytes)
	if err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&stats.Runs); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT algorithm, COUNT(*) FROM results GROUP BY algorithm`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var algo string
		var count int
		if err := rows.Scan(&algo, &count); err != nil {
			return nil, err
		}
		stats.ByAlgorithm[algo] = count
	}
	return stats, rows.Err()
}

// SchemaVersion returns the highest applied migration version.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return 0, nil
		}
		return 0, err
	}
	return int(version.Int64), nil
}

// SetSchemaVersion records an applied migration version.
func (s *SQLiteStore) SetSchemaVersion(version int) error {
	description := ""
	for _, m := range migrations {
		if m.Version == version {
			description = m.Description
		}
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO schema_migrations (version, description, applied_at)
		 VALUES (?, ?, ?)`, version, description, time.Now().UTC())
	return err
}
