// file: internal/digest/digest.go
// version: 1.1.0
// guid: 612694dc-11ea-4505-9d56-a6ead0aecca4

package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// DefaultChunkSize is the read buffer size used when streaming files.
const DefaultChunkSize = 32 * 1024

// ErrUnknownAlgorithm is returned when an algorithm name is not recognized.
var ErrUnknownAlgorithm = fmt.Errorf("unknown hash algorithm")

// Algorithm describes a supported hash algorithm.
type Algorithm struct {
	Name string
	Size int // digest size in bytes
	New  func() hash.Hash
}

// Standard is the canonical algorithm set, in fixed output order.
// "all" in user input expands to exactly this list.
var Standard = []Algorithm{
	{Name: "md5", Size: md5.Size, New: md5.New},
	{Name: "sha1", Size: sha1.Size, New: sha1.New},
	{Name: "sha256", Size: sha256.Size, New: sha256.New},
	{Name: "sha384", Size: sha512.Size384, New: sha512.New384},
	{Name: "sha512", Size: sha512.Size, New: sha512.New},
}

// Lookup resolves an algorithm by name (case-insensitive). Both the
// standard set and the extended set are searched.
func Lookup(name string) (Algorithm, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, a := range Standard {
		if a.Name == n {
			return a, nil
		}
	}
	if a, ok := extended[n]; ok {
		return a, nil
	}
	return Algorithm{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Parse converts a comma-separated algorithm list into Algorithms.
// "all" expands to the standard five. Duplicates are collapsed and the
// result keeps canonical order for standard algorithms.
func Parse(list string) ([]Algorithm, error) {
	seen := map[string]bool{}
	var extra []Algorithm
	for _, part := range strings.Split(list, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if part == "all" {
			for _, a := range Standard {
				seen[a.Name] = true
			}
			continue
		}
		a, err := Lookup(part)
		if err != nil {
			return nil, err
		}
		if seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		if !isStandard(a.Name) {
			extra = append(extra, a)
		}
	}
	var algos []Algorithm
	for _, a := range Standard {
		if seen[a.Name] {
			algos = append(algos, a)
		}
	}
	algos = append(algos, extra...)
	if len(algos) == 0 {
		return nil, fmt.Errorf("no algorithms selected")
	}
	return algos, nil
}

func isStandard(name string) bool {
	for _, a := range Standard {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Result is a single computed digest.
type Result struct {
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	Digest    string `json:"digest" yaml:"digest"` // lowercase hex
}

// FileDigests holds all digests computed for one file in a single pass.
type FileDigests struct {
	Path    string   `json:"path" yaml:"path"`
	Size    int64    `json:"size" yaml:"size"`
	Results []Result `json:"results" yaml:"results"`
}

// Result returns the digest for the named algorithm, or "" if absent.
func (f *FileDigests) Result(algorithm string) string {
	for _, r := range f.Results {
		if r.Algorithm == algorithm {
			return r.Digest
		}
	}
	return ""
}

// Options control how files are streamed.
type Options struct {
	ChunkSize int  // read buffer size; DefaultChunkSize if <= 0
	Progress  bool // render a byte-accurate progress bar on stderr
}

// HashReader streams r through every algorithm in a single pass and
// returns the digests in the order the algorithms were given, plus the
// number of bytes consumed.
func HashReader(r io.Reader, algos []Algorithm, chunkSize int) ([]Result, int64, error) {
	if len(algos) == 0 {
		return nil, 0, fmt.Errorf("no algorithms selected")
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	hashers := make([]hash.Hash, len(algos))
	writers := make([]io.Writer, len(algos))
	for i, a := range algos {
		hashers[i] = a.New()
		writers[i] = hashers[i]
	}

	buf := make([]byte, chunkSize)
	n, err := io.CopyBuffer(io.MultiWriter(writers...), r, buf)
	if err != nil {
		return nil, n, fmt.Errorf("read failed: %w", err)
	}

	results := make([]Result, len(algos))
	for i, a := range algos {
		results[i] = Result{
			Algorithm: a.Name,
			Digest:    hex.EncodeToString(hashers[i].Sum(nil)),
		}
	}
	return results, n, nil
}

// HashFile opens path and streams it through every algorithm in one
// chunked pass. The file handle is closed on all paths.
func HashFile(path string, algos []Algorithm, opts Options) (*FileDigests, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if opts.Progress {
		bar := progressbar.DefaultBytes(info.Size(), "hashing "+info.Name())
		reader = io.TeeReader(file, bar)
		defer bar.Finish()
	}

	results, n, err := HashReader(reader, algos, opts.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}

	return &FileDigests{Path: path, Size: n, Results: results}, nil
}
