// file: internal/metrics/metrics_test.go
// version: 2.0.0
// guid: e9a6537c-f115-4205-9165-ef23519b89c9

package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRegisterIdempotent(t *testing.T) {
	Register()
	Register() // must not panic on double registration
}

func TestCounters(t *testing.T) {
	Register()
	IncFilesHashed("sha256")
	AddBytesHashed(4096)
	ObserveHashDuration("sha256", 15*time.Millisecond)
	IncHashErrors()
	IncCacheHits()
	IncVerifyFailures()
	IncArchivesCreated()
	AddArchiveBytes(1 << 20)
}

func TestWriteTextfile(t *testing.T) {
	Register()
	IncFilesHashed("md5")

	path := filepath.Join(t.TempDir(), "hashgen.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), "hashgen_files_hashed_total") {
		t.Errorf("expected hashgen_files_hashed_total in output, got:\n%s", data)
	}
}
