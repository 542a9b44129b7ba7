// file: cmd/interactive_test.go
// version: 1.0.0
// guid: b1dc6836-ef05-4fbb-964a-a046c897ab75

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DaemonWorx/hashgen/internal/config"
	"github.com/spf13/cobra"
)

const (
	abcMD5    = "900150983cd24fb0d6963f7d28e17f72"
	abcSHA1   = "a9993e364706816aba3e25717850c26c9cd0d89d"
	abcSHA256 = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
)

func setupInteractiveConfig(t *testing.T) {
	t.Helper()
	origConfig := config.AppConfig
	t.Cleanup(func() {
		config.AppConfig = origConfig
	})
	config.AppConfig = config.Config{
		DefaultAlgorithms: "sha256",
		ChunkSize:         32 * 1024,
		Workers:           2,
		NoStore:           true,
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func runInteractiveWithInput(t *testing.T, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	err := runInteractive(cmd, nil)
	return out.String(), err
}

func TestInteractiveSingleAlgorithm(t *testing.T) {
	setupInteractiveConfig(t)
	file := writeTempFile(t, "sample.txt", "abc")

	out, err := runInteractiveWithInput(t, file+"\n3\n")
	if err != nil {
		t.Fatalf("interactive flow failed: %v", err)
	}

	if !strings.Contains(out, "File Hash Generator") {
		t.Fatal("expected banner in output")
	}
	if !strings.Contains(out, "Hash Results for: "+file) {
		t.Fatal("expected results header")
	}
	if !strings.Contains(out, "SHA256:\n  "+abcSHA256) {
		t.Fatalf("expected sha256 digest in output, got:\n%s", out)
	}
	if strings.Contains(out, "MD5:") {
		t.Fatal("did not expect md5 output for choice 3")
	}
	if !strings.Contains(out, "Done!") {
		t.Fatal("expected completion message")
	}
}

func TestInteractiveAllAlgorithmsOrdered(t *testing.T) {
	setupInteractiveConfig(t)
	file := writeTempFile(t, "sample.txt", "abc")

	out, err := runInteractiveWithInput(t, file+"\n6\n")
	if err != nil {
		t.Fatalf("interactive flow failed: %v", err)
	}

	labels := []string{"MD5:", "SHA1:", "SHA256:", "SHA384:", "SHA512:"}
	last := -1
	for _, label := range labels {
		idx := strings.Index(out, "\n"+label)
		if idx < 0 {
			t.Fatalf("missing %s in output", label)
		}
		if idx < last {
			t.Fatalf("%s printed out of order", label)
		}
		last = idx
	}
	if !strings.Contains(out, abcMD5) || !strings.Contains(out, abcSHA1) || !strings.Contains(out, abcSHA256) {
		t.Fatal("expected all reference digests in output")
	}
}

func TestInteractiveEmptyFilenameReprompts(t *testing.T) {
	setupInteractiveConfig(t)
	file := writeTempFile(t, "sample.txt", "abc")

	out, err := runInteractiveWithInput(t, "\n"+file+"\n1\n")
	if err != nil {
		t.Fatalf("interactive flow failed: %v", err)
	}
	if !strings.Contains(out, "Filename cannot be empty. Please try again.") {
		t.Fatal("expected empty-filename message")
	}
	if !strings.Contains(out, abcMD5) {
		t.Fatal("expected md5 digest after re-prompt")
	}
}

func TestInteractiveMissingFileDeclineRetry(t *testing.T) {
	setupInteractiveConfig(t)

	out, err := runInteractiveWithInput(t, "/no/such/file\nn\n")
	if err == nil {
		t.Fatal("expected non-nil error after declining retry")
	}
	if !strings.Contains(out, "Error: File '/no/such/file' not found.") {
		t.Fatal("expected not-found message")
	}
	if !strings.Contains(out, "Exiting...") {
		t.Fatal("expected exit message")
	}
	if strings.Contains(out, "Hash Results") {
		t.Fatal("did not expect any digests")
	}
}

func TestInteractiveMissingFileThenRetry(t *testing.T) {
	setupInteractiveConfig(t)
	file := writeTempFile(t, "sample.txt", "abc")

	out, err := runInteractiveWithInput(t, "/no/such/file\ny\n"+file+"\n2\n")
	if err != nil {
		t.Fatalf("interactive flow failed: %v", err)
	}
	if !strings.Contains(out, "Try again? (y/n): ") {
		t.Fatal("expected retry prompt")
	}
	if !strings.Contains(out, abcSHA1) {
		t.Fatal("expected sha1 digest after retry")
	}
}

func TestInteractiveInvalidMenuChoiceReprompts(t *testing.T) {
	setupInteractiveConfig(t)
	file := writeTempFile(t, "sample.txt", "abc")

	out, err := runInteractiveWithInput(t, file+"\n9\nabc\n3\n")
	if err != nil {
		t.Fatalf("interactive flow failed: %v", err)
	}
	if strings.Count(out, "Invalid choice. Please enter a number between 1 and 6.") != 2 {
		t.Fatalf("expected two invalid-choice messages, got:\n%s", out)
	}
	if !strings.Contains(out, abcSHA256) {
		t.Fatal("expected sha256 digest after valid choice")
	}
}

func TestInteractiveInputClosed(t *testing.T) {
	setupInteractiveConfig(t)

	_, err := runInteractiveWithInput(t, "")
	if err == nil {
		t.Fatal("expected error when input closes before a filename")
	}
}
