// file: cmd/interactive.go
// version: 1.0.0
// guid: 81cf9812-0b05-4c38-9c23-84ac971a6ed6

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/DaemonWorx/hashgen/internal/config"
	"github.com/DaemonWorx/hashgen/internal/digest"
	"github.com/DaemonWorx/hashgen/internal/metrics"
	"github.com/DaemonWorx/hashgen/internal/store"
	"github.com/spf13/cobra"
)

const bannerLine = "=================================================="

// menu choices 1-5 map onto the standard algorithms in canonical
// order; 6 selects all five.
var menuLabels = []string{"MD5", "SHA1", "SHA256", "SHA384", "SHA512"}

// runInteractive implements the prompt flow: ask for a file, ask for an
// algorithm, stream the file once, print labeled digests.
func runInteractive(cmd *cobra.Command, args []string) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, bannerLine)
	fmt.Fprintln(out, "File Hash Generator")
	fmt.Fprintln(out, bannerLine)
	if wd, err := os.Getwd(); err == nil {
		fmt.Fprintf(out, "Working directory: %s\n", wd)
	}

	filename, err := promptFilename(in, out)
	if err != nil {
		return err
	}
	if filename == "" {
		fmt.Fprintln(out, "\nExiting...")
		return fmt.Errorf("no file selected")
	}

	algos, err := promptAlgorithms(in, out)
	if err != nil {
		return err
	}

	started := time.Now()
	fd, err := digest.HashFile(filename, algos, digest.Options{
		ChunkSize: config.AppConfig.ChunkSize,
	})
	if err != nil {
		metrics.IncHashErrors()
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, bannerLine)
	fmt.Fprintf(out, "Hash Results for: %s\n", filename)
	fmt.Fprintln(out, bannerLine)
	for _, r := range fd.Results {
		fmt.Fprintf(out, "\n%s:\n", strings.ToUpper(r.Algorithm))
		fmt.Fprintf(out, "  %s\n", r.Digest)
		metrics.IncFilesHashed(r.Algorithm)
		metrics.ObserveHashDuration(r.Algorithm, time.Since(started))
	}
	metrics.AddBytesHashed(fd.Size)
	fmt.Fprintln(out)
	fmt.Fprintln(out, bannerLine)

	recordInteractiveResults(fd)

	fmt.Fprintln(out, "\nDone!")
	return nil
}

// promptFilename asks until it gets an existing regular file. A missing
// file offers a retry; declining returns "" for a clean abort.
func promptFilename(in *bufio.Scanner, out io.Writer) (string, error) {
	for {
		fmt.Fprint(out, "\nEnter the filename (full path): ")
		line, err := readLine(in)
		if err != nil {
			return "", err
		}
		filename := strings.TrimSpace(line)
		if filename == "" {
			fmt.Fprintln(out, "Filename cannot be empty. Please try again.")
			continue
		}

		info, statErr := os.Stat(filename)
		if statErr == nil && info.Mode().IsRegular() {
			return filename, nil
		}

		fmt.Fprintf(out, "Error: File '%s' not found.\n", filename)
		fmt.Fprint(out, "Try again? (y/n): ")
		retry, err := readLine(in)
		if err != nil {
			return "", err
		}
		if strings.ToLower(strings.TrimSpace(retry)) != "y" {
			return "", nil
		}
	}
}

// promptAlgorithms shows the 1-6 menu and re-prompts on invalid input.
func promptAlgorithms(in *bufio.Scanner, out io.Writer) ([]digest.Algorithm, error) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, bannerLine)
	fmt.Fprintln(out, "Select Hash Algorithm:")
	fmt.Fprintln(out, bannerLine)
	for i, label := range menuLabels {
		fmt.Fprintf(out, "%d. %s\n", i+1, label)
	}
	fmt.Fprintf(out, "%d. All 5 algorithms\n", len(menuLabels)+1)
	fmt.Fprintln(out, bannerLine)

	for {
		fmt.Fprintf(out, "\nEnter your choice (1-%d): ", len(menuLabels)+1)
		line, err := readLine(in)
		if err != nil {
			return nil, err
		}
		switch choice := strings.TrimSpace(line); choice {
		case "1", "2", "3", "4", "5":
			idx := int(choice[0] - '1')
			return []digest.Algorithm{digest.Standard[idx]}, nil
		case "6":
			return digest.Standard, nil
		default:
			fmt.Fprintf(out, "Invalid choice. Please enter a number between 1 and %d.\n", len(menuLabels)+1)
		}
	}
}

func readLine(in *bufio.Scanner) (string, error) {
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", fmt.Errorf("input closed")
	}
	return in.Text(), nil
}

// recordInteractiveResults stores the digests in the history store.
// History is auxiliary here: failures are logged, never fatal.
func recordInteractiveResults(fd *digest.FileDigests) {
	if config.AppConfig.NoStore {
		return
	}
	closer, err := openStore()
	if err != nil {
		log.Printf("[WARN] history disabled: %v", err)
		return
	}
	defer closer()

	if err := recordRun("interactive", []*digest.FileDigests{fd}, 0, 0); err != nil {
		log.Printf("[WARN] failed to record history: %v", err)
	}
}

// recordRun writes one run plus all its results to the global store.
func recordRun(command string, fds []*digest.FileDigests, reused, errors int) error {
	if store.GlobalStore == nil {
		return nil
	}
	run, err := store.GlobalStore.CreateRun(command)
	if err != nil {
		return err
	}
	for _, fd := range fds {
		info, statErr := os.Stat(fd.Path)
		var modTime time.Time
		if statErr == nil {
			modTime = info.ModTime()
		}
		for _, r := range fd.Results {
			if _, err := store.GlobalStore.RecordResult(&store.Result{
				RunID:     run.ID,
				Path:      fd.Path,
				Size:      fd.Size,
				ModTime:   modTime,
				Algorithm: r.Algorithm,
				Digest:    r.Digest,
			}); err != nil {
				return err
			}
		}
		run.Files++
		run.Bytes += fd.Size
	}
	run.Reused = reused
	run.Errors = errors
	return store.GlobalStore.FinishRun(run)
}
