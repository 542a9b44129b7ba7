// file: cmd/watch_test.go
// version: 1.0.0
// guid: 9afb31fb-899f-4b52-8dec-2575d9ed7907

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DaemonWorx/hashgen/internal/cache"
	"github.com/DaemonWorx/hashgen/internal/config"
	"github.com/DaemonWorx/hashgen/internal/digest"
	"github.com/DaemonWorx/hashgen/internal/store"
)

func watchAlgos(t *testing.T) ([]digest.Algorithm, digest.Algorithm) {
	t.Helper()
	algos, err := digest.Parse("sha256")
	if err != nil {
		t.Fatalf("failed to parse algorithms: %v", err)
	}
	return algos, algos[0]
}

func TestReportChangeNewFile(t *testing.T) {
	setupCommandConfig(t)
	origStore := store.GlobalStore
	store.GlobalStore = nil
	t.Cleanup(func() {
		store.GlobalStore = origStore
	})

	file := writeTempFile(t, "watched.txt", "abc")
	algos, primary := watchAlgos(t)
	recent := cache.New[string](30 * time.Second)

	var out bytes.Buffer
	reportChange(&out, recent, file, algos, primary)
	if !strings.Contains(out.String(), "new        "+file) {
		t.Fatalf("expected new-file report, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), abcSHA256) {
		t.Fatal("expected digest in report")
	}

	// Same digest moments later is suppressed.
	out.Reset()
	reportChange(&out, recent, file, algos, primary)
	if out.Len() != 0 {
		t.Fatalf("expected suppressed duplicate report, got:\n%s", out.String())
	}
}

func TestReportChangeAgainstHistory(t *testing.T) {
	setupCommandConfig(t)

	if err := store.InitializeStore(config.AppConfig.StoreType, config.AppConfig.StorePath, false); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.CloseStore()
	})

	file := writeTempFile(t, "watched.txt", "abc")
	algos, primary := watchAlgos(t)

	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("failed to stat file: %v", err)
	}
	if _, err := store.GlobalStore.RecordResult(&store.Result{
		Path:      file,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		Algorithm: primary.Name,
		Digest:    abcSHA256,
	}); err != nil {
		t.Fatalf("failed to seed history: %v", err)
	}

	var out bytes.Buffer
	reportChange(&out, cache.New[string](30*time.Second), file, algos, primary)
	if !strings.Contains(out.String(), "unchanged  "+file) {
		t.Fatalf("expected unchanged report, got:\n%s", out.String())
	}

	if err := os.WriteFile(file, []byte("different"), 0644); err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}
	out.Reset()
	reportChange(&out, cache.New[string](30*time.Second), file, algos, primary)
	if !strings.Contains(out.String(), "changed    "+file) {
		t.Fatalf("expected changed report, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), abcSHA256+" ->") {
		t.Fatalf("expected old digest in transition, got:\n%s", out.String())
	}
}

func TestRunWatchRejectsFiles(t *testing.T) {
	setupCommandConfig(t)
	file := writeTempFile(t, "plain.txt", "abc")

	cmd, _ := newTestCommand(t)
	if err := runWatch(cmd, []string{file}); err == nil {
		t.Fatal("expected error when watching a regular file")
	}
	if err := runWatch(cmd, []string{filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected error for a missing directory")
	}
}
