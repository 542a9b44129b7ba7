// file: cmd/hash.go
// version: 1.0.0
// guid: 50b671e2-7ca6-489b-81f8-ad8838a38186

package cmd

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/DaemonWorx/hashgen/internal/config"
	"github.com/DaemonWorx/hashgen/internal/digest"
	"github.com/DaemonWorx/hashgen/internal/manifest"
	"github.com/DaemonWorx/hashgen/internal/metrics"
	"github.com/DaemonWorx/hashgen/internal/store"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

var (
	hashAlgoFlag     string
	hashRecursive    bool
	hashWorkers      int
	hashMaxPerSecond float64
	hashManifestPath string
	hashCheck        string
	hashFormat       string
	hashNoCache      bool
)

// hashCmd represents the batch hashing command
var hashCmd = &cobra.Command{
	Use:   "hash FILE...",
	Short: "Hash files without prompts",
	Long: `Hash one or more files in a single pass per file. Directories are
accepted with --recursive and walked for regular files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHash,
}

func init() {
	hashCmd.Flags().StringVar(&hashAlgoFlag, "algo", "", "comma-separated algorithms (default from config; 'all' = the standard five)")
	hashCmd.Flags().BoolVar(&hashRecursive, "recursive", false, "walk directory arguments for regular files")
	hashCmd.Flags().IntVar(&hashWorkers, "workers", 0, "number of parallel hashing workers (default from config)")
	hashCmd.Flags().Float64Var(&hashMaxPerSecond, "max-per-second", 0, "limit the number of files hashed per second (0 = unlimited)")
	hashCmd.Flags().StringVar(&hashManifestPath, "manifest", "", "write a checksum manifest of the results to this path")
	hashCmd.Flags().StringVar(&hashCheck, "check", "", "verify a single file against this expected hex digest")
	hashCmd.Flags().StringVar(&hashFormat, "format", "text", "output format: text, json or yaml")
	hashCmd.Flags().BoolVar(&hashNoCache, "no-cache", false, "always re-hash, even when the store has a current digest")
}

// hashOutcome is the per-file output record for the hash command.
type hashOutcome struct {
	Path    string          `json:"path" yaml:"path"`
	Size    int64           `json:"size" yaml:"size"`
	Results []outcomeDigest `json:"results,omitempty" yaml:"results,omitempty"`
	Error   string          `json:"error,omitempty" yaml:"error,omitempty"`
}

type outcomeDigest struct {
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	Digest    string `json:"digest" yaml:"digest"`
	Reused    bool   `json:"reused,omitempty" yaml:"reused,omitempty"`
}

func runHash(cmd *cobra.Command, args []string) error {
	algoList := hashAlgoFlag
	if algoList == "" {
		algoList = config.AppConfig.DefaultAlgorithms
	}
	algos, err := digest.Parse(algoList)
	if err != nil {
		return err
	}

	files, err := collectFiles(args, hashRecursive)
	if err != nil {
		return err
	}

	if hashCheck != "" {
		return runHashCheck(cmd, files, algos)
	}

	closer, err := openStore()
	if err != nil {
		return err
	}
	defer closer()

	workers := hashWorkers
	if workers <= 0 {
		workers = config.AppConfig.Workers
	}

	var limiter *rate.Limiter
	if hashMaxPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(hashMaxPerSecond), 1)
	}

	var bar *progressbar.ProgressBar
	if showProgress() && len(files) > 1 {
		bar = progressbar.Default(int64(len(files)), "hashing")
	}

	outcomes := make([]hashOutcome, len(files))
	var reusedCount int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	ctx := cmd.Context()

	for i, file := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, file string) {
			defer wg.Done()
			defer func() { <-sem }()

			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					outcomes[i] = hashOutcome{Path: file, Error: err.Error()}
					return
				}
			}

			outcome, reused := hashOneFile(file, algos)
			mu.Lock()
			reusedCount += int64(reused)
			mu.Unlock()
			outcomes[i] = outcome

			if bar != nil {
				bar.Add(1)
			}
		}(i, file)
	}
	wg.Wait()
	if bar != nil {
		bar.Finish()
	}

	failed := 0
	var toRecord []*digest.FileDigests
	for _, o := range outcomes {
		if o.Error != "" {
			failed++
			continue
		}
		fd := &digest.FileDigests{Path: o.Path, Size: o.Size}
		for _, r := range o.Results {
			if !r.Reused {
				fd.Results = append(fd.Results, digest.Result{Algorithm: r.Algorithm, Digest: r.Digest})
			}
		}
		if len(fd.Results) > 0 {
			toRecord = append(toRecord, fd)
		}
	}

	if err := recordRun("hash", toRecord, int(reusedCount), failed); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to record history: %v\n", err)
	}

	if hashManifestPath != "" {
		if err := writeHashManifest(outcomes, algos); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Manifest written to %s\n", hashManifestPath)
	}

	if err := printOutcomes(cmd, outcomes); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(files))
	}
	return nil
}

// hashOneFile computes (or reuses) every requested digest for one file.
// It returns the outcome and how many digests came from the store.
func hashOneFile(file string, algos []digest.Algorithm) (hashOutcome, int) {
	info, err := os.Stat(file)
	if err != nil {
		metrics.IncHashErrors()
		return hashOutcome{Path: file, Error: err.Error()}, 0
	}

	outcome := hashOutcome{Path: file, Size: info.Size()}
	reused := map[string]string{}
	if store.GlobalStore != nil && !hashNoCache {
		for _, a := range algos {
			latest, err := store.GlobalStore.LatestResult(file, a.Name)
			if err != nil || latest == nil {
				continue
			}
			// Stored size and mtime must still match the file on disk.
			if latest.Size == info.Size() && latest.ModTime.Unix() == info.ModTime().Unix() {
				reused[a.Name] = latest.Digest
			}
		}
	}

	var toCompute []digest.Algorithm
	for _, a := range algos {
		if _, ok := reused[a.Name]; !ok {
			toCompute = append(toCompute, a)
		}
	}

	computed := map[string]string{}
	if len(toCompute) > 0 {
		started := time.Now()
		fd, err := digest.HashFile(file, toCompute, digest.Options{
			ChunkSize: config.AppConfig.ChunkSize,
		})
		if err != nil {
			metrics.IncHashErrors()
			return hashOutcome{Path: file, Error: err.Error()}, 0
		}
		for _, r := range fd.Results {
			computed[r.Algorithm] = r.Digest
			metrics.IncFilesHashed(r.Algorithm)
			metrics.ObserveHashDuration(r.Algorithm, time.Since(started))
		}
		metrics.AddBytesHashed(fd.Size)
	}

	for _, a := range algos {
		if d, ok := reused[a.Name]; ok {
			metrics.IncCacheHits()
			outcome.Results = append(outcome.Results, outcomeDigest{Algorithm: a.Name, Digest: d, Reused: true})
		} else {
			outcome.Results = append(outcome.Results, outcomeDigest{Algorithm: a.Name, Digest: computed[a.Name]})
		}
	}
	return outcome, len(reused)
}

func runHashCheck(cmd *cobra.Command, files []string, algos []digest.Algorithm) error {
	if len(files) != 1 {
		return fmt.Errorf("--check verifies exactly one file, got %d", len(files))
	}
	expected := strings.ToLower(strings.TrimSpace(hashCheck))

	algo := algos[0]
	if hashAlgoFlag == "" {
		// No explicit algorithm: infer it from the digest length.
		inferred, err := manifest.InferAlgorithm(expected)
		if err != nil {
			return err
		}
		algo = inferred
	} else if len(algos) != 1 {
		return fmt.Errorf("--check needs a single algorithm, got %d", len(algos))
	}

	fd, err := digest.HashFile(files[0], []digest.Algorithm{algo}, digest.Options{
		ChunkSize: config.AppConfig.ChunkSize,
		Progress:  showProgress(),
	})
	if err != nil {
		return err
	}
	actual := fd.Results[0].Digest
	if actual != expected {
		metrics.IncVerifyFailures()
		return fmt.Errorf("%s: FAILED (%s %s, expected %s)", files[0], algo.Name, actual, expected)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (%s)\n", files[0], algo.Name)
	return nil
}

// collectFiles expands directory arguments (with recursive set) and
// validates that everything else is a regular file.
func collectFiles(args []string, recursive bool) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot stat %s: %w", arg, err)
		}
		if info.IsDir() {
			if !recursive {
				return nil, fmt.Errorf("%s is a directory (use --recursive to walk it)", arg)
			}
			err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.Type().IsRegular() {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walking %s: %w", arg, err)
			}
			continue
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s is not a regular file", arg)
		}
		files = append(files, arg)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to hash")
	}
	return files, nil
}

func writeHashManifest(outcomes []hashOutcome, algos []digest.Algorithm) error {
	if len(algos) != 1 {
		return fmt.Errorf("--manifest needs exactly one algorithm, got %d", len(algos))
	}
	var entries []manifest.Entry
	for _, o := range outcomes {
		if o.Error != "" {
			continue
		}
		for _, r := range o.Results {
			if r.Algorithm == algos[0].Name {
				entries = append(entries, manifest.Entry{Digest: r.Digest, Path: o.Path})
			}
		}
	}
	return manifest.Write(hashManifestPath, entries)
}

func printOutcomes(cmd *cobra.Command, outcomes []hashOutcome) error {
	out := cmd.OutOrStdout()
	switch hashFormat {
	case "", "text":
		for _, o := range outcomes {
			if o.Error != "" {
				fmt.Fprintf(out, "%s: error: %s\n", o.Path, o.Error)
				continue
			}
			fmt.Fprintln(out, o.Path)
			for _, r := range o.Results {
				note := ""
				if r.Reused {
					note = " (reused)"
				}
				fmt.Fprintf(out, "  %s: %s%s\n", strings.ToUpper(r.Algorithm), r.Digest, note)
			}
		}
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcomes); err != nil {
			return err
		}
	case "yaml":
		data, err := yaml.Marshal(outcomes)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
	default:
		return fmt.Errorf("unknown output format: %s (supported: text, json, yaml)", hashFormat)
	}
	return nil
}
