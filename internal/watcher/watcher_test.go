// file: internal/watcher/watcher_test.go
// version: 2.0.0
// guid: ad6d2497-c3f7-403f-9e85-8df38ee15053

package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *batchRecorder) record(paths []string) {
	r.mu.Lock()
	r.batches = append(r.batches, paths)
	r.mu.Unlock()
}

func (r *batchRecorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func TestDebounceSingleEvent(t *testing.T) {
	dir := t.TempDir()

	rec := &batchRecorder{}
	w := New(rec.record, 100*time.Millisecond)
	if err := w.Start(dir); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	f := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(f, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)

	batches := rec.snapshot()
	if len(batches) != 1 {
		t.Fatalf("expected 1 callback, got %d", len(batches))
	}
	if len(batches[0]) != 1 || batches[0][0] != f {
		t.Errorf("expected batch [%s], got %v", f, batches[0])
	}
}

func TestDebounceCollectsBatch(t *testing.T) {
	dir := t.TempDir()

	rec := &batchRecorder{}
	w := New(rec.record, 200*time.Millisecond)
	if err := w.Start(dir); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Rapid-fire changes within the debounce window collapse into one batch.
	for i := 0; i < 5; i++ {
		f := filepath.Join(dir, "file"+string(rune('a'+i))+".dat")
		_ = os.WriteFile(f, []byte("data"), 0644)
		time.Sleep(30 * time.Millisecond)
	}

	time.Sleep(400 * time.Millisecond)

	batches := rec.snapshot()
	if len(batches) != 1 {
		t.Fatalf("expected exactly 1 debounced callback, got %d", len(batches))
	}
	if len(batches[0]) != 5 {
		t.Errorf("expected 5 paths in batch, got %d: %v", len(batches[0]), batches[0])
	}
	// Batches arrive sorted.
	for i := 1; i < len(batches[0]); i++ {
		if batches[0][i-1] > batches[0][i] {
			t.Errorf("batch not sorted: %v", batches[0])
		}
	}
}

func TestHiddenFilesIgnored(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	w := New(func([]string) { calls.Add(1) }, 100*time.Millisecond)
	if err := w.Start(dir); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	_ = os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0644)

	time.Sleep(300 * time.Millisecond)
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 callbacks for hidden files, got %d", c)
	}
}

func TestRecursiveWatching(t *testing.T) {
	dir := t.TempDir()
	subdir := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}

	rec := &batchRecorder{}
	w := New(rec.record, 100*time.Millisecond)
	if err := w.Start(dir); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	f := filepath.Join(subdir, "deep.bin")
	_ = os.WriteFile(f, []byte("data"), 0644)

	time.Sleep(300 * time.Millisecond)

	batches := rec.snapshot()
	if len(batches) != 1 {
		t.Fatalf("expected 1 callback for nested dir, got %d", len(batches))
	}
	if batches[0][0] != f {
		t.Errorf("expected %s, got %v", f, batches[0])
	}
}

func TestRemovalsNotReported(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "gone.bin")
	_ = os.WriteFile(f, []byte("data"), 0644)

	rec := &batchRecorder{}
	w := New(rec.record, 100*time.Millisecond)
	if err := w.Start(dir); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	_ = os.Remove(f)
	time.Sleep(300 * time.Millisecond)

	// A removed file cannot be hashed, so no batch fires for it.
	if batches := rec.snapshot(); len(batches) != 0 {
		t.Errorf("expected no callbacks for a removal, got %v", batches)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	w := New(func([]string) {}, 100*time.Millisecond)
	if err := w.Start(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop() // should not panic
}

func TestStartIsIdempotent(t *testing.T) {
	w := New(func([]string) {}, 100*time.Millisecond)
	if err := w.Start(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := w.Start(t.TempDir()); err != nil {
		t.Fatal(err)
	}
}
