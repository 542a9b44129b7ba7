// file: internal/store/migrations.go
// version: 1.0.0
// guid: 011efe38-03b8-4aae-8389-ae7741907c28

package store

import (
	"fmt"
	"log"
)

// MigrationFunc represents a migration operation.
type MigrationFunc func(store Store) error

// Migration represents a single schema migration.
type Migration struct {
	Version     int
	Description string
	Up          MigrationFunc
}

// migrations is the ordered list of all migrations.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema with runs and results",
		Up:          migration001Up,
	},
	{
		Version:     2,
		Description: "Index results by path and algorithm",
		Up:          migration002Up,
	},
}

// RunMigrations applies any pending migrations to the store.
func RunMigrations(store Store) error {
	current, err := store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		log.Printf("[INFO] store: applying migration %d: %s", m.Version, m.Description)
		if err := m.Up(store); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
		if err := store.SetSchemaVersion(m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// migration001Up creates the base tables. The Pebble backend has an
// implicit schema and needs nothing here.
func migration001Up(store Store) error {
	s, ok := store.(*SQLiteStore)
	if !ok {
		return nil
	}
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		files INTEGER NOT NULL DEFAULT 0,
		bytes INTEGER NOT NULL DEFAULT 0,
		reused INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		run_id TEXT,
		path TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		mod_time TIMESTAMP,
		algorithm TEXT NOT NULL,
		digest TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	`)
	return err
}

// migration002Up speeds up latest-digest lookups.
func migration002Up(store Store) error {
	s, ok := store.(*SQLiteStore)
	if !ok {
		return nil
	}
	_, err := s.db.Exec(`
	CREATE INDEX IF NOT EXISTS idx_results_path_algorithm
		ON results (path, algorithm, id DESC);
	`)
	return err
}
