// file: internal/store/pebble_store.go
// version: 1.1.0
// guid: af640353-d6a9-4022-a958-8ef922e88f63

package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/pebble/v2"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// PebbleStore implements the Store interface using PebbleDB (LSM key-value store)
//
// Key Schema:
// - result:<ulid>                   -> Result JSON (ULIDs sort by creation time)
// - run:<ulid>                      -> Run JSON
// - idx:latest:<algorithm>:<path>   -> result ULID (latest digest per path+algo)
// - schema:version                  -> current schema version
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore creates a new PebbleDB store.
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Close closes the database.
func (p *PebbleStore) Close() error {
	return p.db.Close()
}

// Reset deletes all history but keeps the schema version.
func (p *PebbleStore) Reset() error {
	for _, prefix := range []string{"result:", "run:", "idx:"} {
		start := []byte(prefix)
		end := append([]byte(prefix), 0xFF)
		if err := p.db.DeleteRange(start, end, pebble.Sync); err != nil {
			return fmt.Errorf("failed to clear %s keys: %w", prefix, err)
		}
	}
	return nil
}

func (p *PebbleStore) getJSON(key string, out interface{}) error {
	value, closer, err := p.db.Get([]byte(key))
	if err != nil {
		return err
	}
	defer closer.Close()
	return json.Unmarshal(value, out)
}

func (p *PebbleStore) setJSON(key string, in interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return p.db.Set([]byte(key), data, pebble.Sync)
}

// CreateRun starts a new run record.
func (p *PebbleStore) CreateRun(command string) (*Run, error) {
	id, err := newULID()
	if err != nil {
		return nil, err
	}
	run := &Run{ID: id, Command: command, StartedAt: time.Now().UTC()}
	if err := p.setJSON("run:"+id, run); err != nil {
		return nil, fmt.Errorf("failed to store run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the completion time and persists final counters.
func (p *PebbleStore) FinishRun(run *Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run has no ID")
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	return p.setJSON("run:"+run.ID, run)
}

// GetRunByID fetches a single run.
func (p *PebbleStore) GetRunByID(id string) (*Run, error) {
	var run Run
	if err := p.getJSON("run:"+id, &run); err != nil {
		if err == pebble.ErrNotFound {
			return nil, fmt.Errorf("run %s not found", id)
		}
		return nil, err
	}
	return &run, nil
}

func latestKey(algorithm, path string) string {
	return "idx:latest:" + algorithm + ":" + path
}

// RecordResult stores a result and updates the latest-digest index.
func (p *PebbleStore) RecordResult(result *Result) (*Result, error) {
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

	if err := p.setJSON("result:"+result.ID, result); err != nil {
		return nil, fmt.Errorf("failed to store result: %w", err)
	}
	key := latestKey(result.Algorithm, result.Path)
	if err := p.db.Set([]byte(key), []byte(result.ID), pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to update latest index: %w", err)
	}
	return result, nil
}

// LatestResult returns the most recent result for (path, algorithm),
// or nil if none is recorded.
func (p *PebbleStore) LatestResult(path, algorithm string) (*Result, error) {
	value, closer, err := p.db.Get([]byte(latestKey(algorithm, path)))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id := string(value)
	closer.Close()

	var result Result
	if err := p.getJSON("result:"+id, &result); err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil // index points at a deleted result
		}
		return nil, err
	}
	return &result, nil
}

// RecentResults returns up to limit results, newest first.
func (p *PebbleStore) RecentResults(limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	return p.scanResultsDesc(limit, nil)
}

// SearchResults returns results whose path matches the query, newest
// first. With fuzzy=true a subsequence match is used instead of a
// substring match.
func (p *PebbleStore) SearchResults(query string, useFuzzy bool, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	match := func(r *Result) bool {
		if useFuzzy {
			return fuzzy.MatchFold(query, r.Path)
		}
		return strings.Contains(strings.ToLower(r.Path), strings.ToLower(query))
	}
	return p.scanResultsDesc(limit, match)
}

// scanResultsDesc walks the result keyspace newest-first, applying an
// optional filter, until limit results are collected.
func (p *PebbleStore) scanResultsDesc(limit int, match func(*Result) bool) ([]Result, error) {
	prefix := []byte("result:")
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: append([]byte("result:"), 0xFF),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	results := []Result{}
	for valid := iter.Last(); valid && len(results) < limit; valid = iter.Prev() {
		var result Result
		if err := json.Unmarshal(iter.Value(), &result); err != nil {
			return nil, fmt.Errorf("corrupt result at %s: %w", iter.Key(), err)
		}
		if match != nil && !match(&result) {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// DeleteResult removes a result and its latest-index entry if it is
// still the latest.
func (p *PebbleStore) DeleteResult(id string) error {
	var result Result
	if err := p.getJSON("result:"+id, &result); err != nil {
		if err == pebble.ErrNotFound {
			return fmt.Errorf("result %s not found", id)
		}
		return err
	}

	if err := p.db.Delete([]byte("result:"+id), pebble.Sync); err != nil {
		return err
	}

	key := []byte(latestKey(result.Algorithm, result.Path))
	value, closer, err := p.db.Get(key)
	if err == nil {
		latest := string(value)
		closer.Close()
		if latest == id {
			return p.db.Delete(key, pebble.Sync)
		}
	} else if err != pebble.ErrNotFound {
		return err
	}
	return nil
}

// GetStats aggregates the whole keyspace.
func (p *PebbleStore) GetStats() (*Stats, error) {
	stats := &Stats{ByAlgorithm: make(map[string]int)}

	prefix := []byte("result:")
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: append([]byte("result:"), 0xFF),
	})
	if err != nil {
		return nil, err
	}
	for valid := iter.First(); valid; valid = iter.Next() {
		var result Result
		if err := json.Unmarshal(iter.Value(), &result); err != nil {
			iter.Close()
			return nil, fmt.Errorf("corrupt result at %s: %w", iter.Key(), err)
		}
		stats.Results++
		stats.Bytes += result.Size
		stats.ByAlgorithm[result.Algorithm]++
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	runPrefix := []byte("run:")
	runIter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: runPrefix,
		UpperBound: append([]byte("run:"), 0xFF),
	})
	if err != nil {
		return nil, err
	}
	for valid := runIter.First(); valid; valid = runIter.Next() {
		stats.Runs++
	}
	if err := runIter.Close(); err != nil {
		return nil, err
	}

	return stats, nil
}

// SchemaVersion returns the current schema version, 0 if unset.
func (p *PebbleStore) SchemaVersion() (int, error) {
	value, closer, err := p.db.Get([]byte("schema:version"))
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	return strconv.Atoi(string(value))
}

// SetSchemaVersion persists the schema version.
func (p *PebbleStore) SetSchemaVersion(version int) error {
	return p.db.Set([]byte("schema:version"), []byte(strconv.Itoa(version)), pebble.Sync)
}
