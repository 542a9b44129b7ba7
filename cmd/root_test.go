// file: cmd/root_test.go
// version: 2.0.0
// guid: eb5f1025-c5ca-452f-bc95-23bef843d930

package cmd

import (
	"path/filepath"
	"testing"

	"github.com/DaemonWorx/hashgen/internal/config"
	"github.com/DaemonWorx/hashgen/internal/store"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.00 KB"},
		{3 << 20, "3.00 MB"},
		{5 << 30, "5.00 GB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Fatalf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOpenStoreDisabled(t *testing.T) {
	setupCommandConfig(t)
	config.AppConfig.NoStore = true

	closer, err := openStore()
	if err != nil {
		t.Fatalf("openStore with no_store must succeed: %v", err)
	}
	closer()
	if store.GlobalStore != nil {
		t.Fatal("expected no global store when disabled")
	}
}

func TestRequireStoreDisabled(t *testing.T) {
	setupCommandConfig(t)
	config.AppConfig.NoStore = true

	if _, err := requireStore(); err == nil {
		t.Fatal("expected error when the store is disabled")
	}
}

func TestOpenStoreCreatesDirectory(t *testing.T) {
	setupCommandConfig(t)
	config.AppConfig.StorePath = filepath.Join(t.TempDir(), "nested", "dir", "history.pebble")

	closer, err := openStore()
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer closer()

	if store.GlobalStore == nil {
		t.Fatal("expected global store to be initialized")
	}
}
