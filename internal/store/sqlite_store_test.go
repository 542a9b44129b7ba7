// file: internal/store/sqlite_store_test.go
// version: 1.0.0
// guid: 6d45a35d-ef62-4c78-abe9-7ce0b63dc5a1

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, RunMigrations(s))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteMigrationsIdempotent(t *testing.T) {
	s := newTestSQLiteStore(t)

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)

	// Running again applies nothing and does not error.
	require.NoError(t, RunMigrations(s))
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)

	run, err := s.CreateRun("archive")
	require.NoError(t, err)

	run.Files = 2
	run.Errors = 1
	require.NoError(t, s.FinishRun(run))

	got, err := s.GetRunByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "archive", got.Command)
	assert.Equal(t, 2, got.Files)
	assert.Equal(t, 1, got.Errors)
	assert.NotNil(t, got.CompletedAt)
}

func TestSQLiteResultsRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)

	mod := time.Now().UTC().Truncate(time.Second)
	result, err := s.RecordResult(&Result{
		Path:      "/data/big.iso",
		Size:      4096,
		ModTime:   mod,
		Algorithm: "sha512",
		Digest:    "beef",
	})
	require.NoError(t, err)

	latest, err := s.LatestResult("/data/big.iso", "sha512")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, result.ID, latest.ID)
	assert.Equal(t, int64(4096), latest.Size)
	assert.True(t, latest.ModTime.Equal(mod))

	none, err := s.LatestResult("/data/big.iso", "md5")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSQLiteRecentAndSearch(t *testing.T) {
	s := newTestSQLiteStore(t)

	recordTestResult(t, s, "/srv/backup/db.tar.gz", "sha256", "1111")
	recordTestResult(t, s, "/home/user/notes.txt", "sha256", "2222")
	recordTestResult(t, s, "/srv/backup/media.tar.gz", "sha256", "3333")

	recent, err := s.RecentResults(10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "/srv/backup/media.tar.gz", recent[0].Path)

	hits, err := s.SearchResults("backup", false, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = s.SearchResults("nts.txt", true, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "/home/user/notes.txt", hits[0].Path)
}

func TestSQLiteDeleteAndStats(t *testing.T) {
	s := newTestSQLiteStore(t)

	result := recordTestResult(t, s, "/tmp/x", "md5", "abcd")
	recordTestResult(t, s, "/tmp/y", "sha1", "ef01")

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Results)
	assert.Equal(t, 1, stats.ByAlgorithm["md5"])

	require.NoError(t, s.DeleteResult(result.ID))
	assert.Error(t, s.DeleteResult(result.ID))

	require.NoError(t, s.Reset())
	stats, err = s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Results)
}

func TestInitializeStoreSQLiteOptIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opt.db")
	require.NoError(t, InitializeStore("sqlite", path, true))
	t.Cleanup(func() { CloseStore() })

	_, ok := GlobalStore.(*SQLiteStore)
	assert.True(t, ok)
}
