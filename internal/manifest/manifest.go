// file: internal/manifest/manifest.go
// version: 1.0.0
// guid: cfc9ee28-2100-484e-9451-7b6cdbd6324c

package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DaemonWorx/hashgen/internal/digest"
)

// Entry is one manifest line: a hex digest and the path it belongs to.
type Entry struct {
	Digest string
	Path   string
}

// VerifyStatus classifies the outcome for one manifest entry.
type VerifyStatus string

const (
	StatusOK      VerifyStatus = "OK"
	StatusFailed  VerifyStatus = "FAILED"
	StatusMissing VerifyStatus = "MISSING"
)

// VerifyResult is the verification outcome for one entry.
type VerifyResult struct {
	Entry  Entry
	Status VerifyStatus
	Actual string // recomputed digest, empty for MISSING
}

// Write writes entries in GNU coreutils checksum format, one
// "<hex>  <path>" line per file, atomically (temp file + rename).
func Write(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return fmt.Errorf("failed to create temp manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s  %s\n", e.Digest, e.Path); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write manifest: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move manifest into place: %w", err)
	}
	return nil
}

// Read parses a manifest file. Blank lines and lines starting with '#'
// are skipped. Parse errors name the offending line.
func Read(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open manifest: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hex, rest, found := strings.Cut(line, "  ")
		if !found || hex == "" || rest == "" {
			return nil, fmt.Errorf("%s:%d: malformed manifest line", path, lineNo)
		}
		if !isHex(hex) {
			return nil, fmt.Errorf("%s:%d: %q is not a hex digest", path, lineNo, hex)
		}
		entries = append(entries, Entry{Digest: strings.ToLower(hex), Path: rest})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return entries, nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return len(s) > 0
}

// InferAlgorithm guesses the algorithm from the digest's hex length.
func InferAlgorithm(hexDigest string) (digest.Algorithm, error) {
	var name string
	switch len(hexDigest) {
	case 32:
		name = "md5"
	case 40:
		name = "sha1"
	case 64:
		name = "sha256"
	case 96:
		name = "sha384"
	case 128:
		name = "sha512"
	default:
		return digest.Algorithm{}, fmt.Errorf("cannot infer algorithm from %d-character digest", len(hexDigest))
	}
	return digest.Lookup(name)
}

// Verify re-hashes every entry and classifies it. Relative entry paths
// are resolved against baseDir. algoName may be empty, in which case
// the algorithm is inferred per entry from the digest length.
func Verify(entries []Entry, baseDir, algoName string, chunkSize int) ([]VerifyResult, error) {
	var fixed *digest.Algorithm
	if algoName != "" {
		a, err := digest.Lookup(algoName)
		if err != nil {
			return nil, err
		}
		fixed = &a
	}

	results := make([]VerifyResult, 0, len(entries))
	for _, e := range entries {
		algo := fixed
		if algo == nil {
			a, err := InferAlgorithm(e.Digest)
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.Path, err)
			}
			algo = &a
		}

		path := e.Path
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}

		if _, err := os.Stat(path); err != nil {
			results = append(results, VerifyResult{Entry: e, Status: StatusMissing})
			continue
		}

		fd, err := digest.HashFile(path, []digest.Algorithm{*algo}, digest.Options{ChunkSize: chunkSize})
		if err != nil {
			return nil, fmt.Errorf("verifying %s: %w", path, err)
		}
		actual := fd.Results[0].Digest
		status := StatusOK
		if actual != e.Digest {
			status = StatusFailed
		}
		results = append(results, VerifyResult{Entry: e, Status: status, Actual: actual})
	}
	return results, nil
}
