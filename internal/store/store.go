// file: internal/store/store.go
// version: 1.2.0
// guid: 39dd4b50-416c-485a-bd74-93fa49d8ef5d

package store

import (
	"crypto/rand"
	"fmt"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

// Result is one recorded digest computation.
type Result struct {
	ID        string    `json:"id"` // ULID
	RunID     string    `json:"run_id,omitempty"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	Algorithm string    `json:"algorithm"`
	Digest    string    `json:"digest"`
	CreatedAt time.Time `json:"created_at"`
}

// Run groups the results of one command invocation.
type Run struct {
	ID          string     `json:"id"` // ULID
	Command     string     `json:"command"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Files       int        `json:"files"`
	Bytes       int64      `json:"bytes"`
	Reused      int        `json:"reused"`
	Errors      int        `json:"errors"`
}

// Stats aggregates the whole history.
type Stats struct {
	Results     int            `json:"results"`
	Runs        int            `json:"runs"`
	Bytes       int64          `json:"bytes"`
	ByAlgorithm map[string]int `json:"by_algorithm"`
}

// Store defines the interface for history persistence.
// This abstraction allows us to support both PebbleDB (default) and
// SQLite3 (opt-in).
type Store interface {
	// Lifecycle
	Close() error
	Reset() error

	// Runs
	CreateRun(command string) (*Run, error)
	FinishRun(run *Run) error
	GetRunByID(id string) (*Run, error)

	// Results
	RecordResult(result *Result) (*Result, error) // generates ULID if ID is empty
	LatestResult(path, algorithm string) (*Result, error)
	RecentResults(limit int) ([]Result, error) // reverse chronological
	SearchResults(query string, fuzzy bool, limit int) ([]Result, error)
	DeleteResult(id string) error

	// Aggregation
	GetStats() (*Stats, error)

	// Schema versioning (used by migrations)
	SchemaVersion() (int, error)
	SetSchemaVersion(version int) error
}

// Global store instance
var GlobalStore Store

// InitializeStore initializes the history store based on configuration.
func InitializeStore(storeType, path string, enableSQLite bool) error {
	var err error

	switch storeType {
	case "sqlite", "sqlite3":
		if !enableSQLite {
			return fmt.Errorf("SQLite3 is not enabled. To use SQLite3, you must explicitly enable it with --enable-sqlite3-i-know-the-risks or set 'enable_sqlite3_i_know_the_risks: true' in your config file. PebbleDB is the recommended store")
		}
		GlobalStore, err = NewSQLiteStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
	case "pebble", "":
		// PebbleDB is the default
		GlobalStore, err = NewPebbleStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize PebbleDB store: %w", err)
		}
	default:
		return fmt.Errorf("unsupported store type: %s (supported: pebble, sqlite)", storeType)
	}

	if err := RunMigrations(GlobalStore); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// CloseStore closes the global store.
func CloseStore() error {
	if GlobalStore != nil {
		err := GlobalStore.Close()
		GlobalStore = nil
		return err
	}
	return nil
}

// newULID returns a time-ordered unique ID. Time ordering makes
// "recent" queries a reverse key scan in the Pebble backend.
func newULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}
