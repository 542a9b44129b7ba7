// file: cmd/watch.go
// version: 1.0.0
// guid: 632fd6ad-8166-4faa-a14b-207dfa6849e3

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DaemonWorx/hashgen/internal/cache"
	"github.com/DaemonWorx/hashgen/internal/config"
	"github.com/DaemonWorx/hashgen/internal/digest"
	"github.com/DaemonWorx/hashgen/internal/metrics"
	"github.com/DaemonWorx/hashgen/internal/store"
	"github.com/DaemonWorx/hashgen/internal/watcher"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	watchAlgoFlag     string
	watchDebounce     time.Duration
	watchMaxPerSecond float64
)

// watchCmd hashes files as they change under a directory tree.
var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Watch a directory and hash files as they change",
	Long: `Watches DIR recursively. After changes settle for the debounce
period, each changed file is hashed and compared with its last stored
digest: the result is reported as new, changed or unchanged.

Stops cleanly on SIGINT or SIGTERM.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchAlgoFlag, "algo", "", "comma-separated algorithms (default from config)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "settle period before a change batch is hashed")
	watchCmd.Flags().Float64Var(&watchMaxPerSecond, "max-per-second", 0, "limit the number of files hashed per second (0 = unlimited)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	algoList := watchAlgoFlag
	if algoList == "" {
		algoList = config.AppConfig.DefaultAlgorithms
	}
	algos, err := digest.Parse(algoList)
	if err != nil {
		return err
	}
	// The first algorithm drives the new/changed/unchanged comparison.
	primary := algos[0]

	closer, err := openStore()
	if err != nil {
		return err
	}
	defer closer()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var limiter *rate.Limiter
	if watchMaxPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(watchMaxPerSecond), 1)
	}

	// Suppress duplicate reports for files re-hashed moments apart.
	recent := cache.New[string](30 * time.Second)
	out := cmd.OutOrStdout()

	w := watcher.New(func(paths []string) {
		for _, path := range paths {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return // shutting down
				}
			}
			reportChange(out, recent, path, algos, primary)
		}
	}, watchDebounce)

	if err := w.Start(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	defer w.Stop()

	fmt.Fprintf(out, "Watching %s (algorithms: %s, debounce %s). Ctrl-C to stop.\n",
		dir, algoList, watchDebounce)

	<-ctx.Done()
	fmt.Fprintln(out, "\nStopping watcher...")
	return nil
}

// reportChange hashes one changed file and prints its state relative
// to the last stored digest.
func reportChange(out io.Writer, recent *cache.Cache[string], path string, algos []digest.Algorithm, primary digest.Algorithm) {
	var previous *store.Result
	if store.GlobalStore != nil {
		prev, err := store.GlobalStore.LatestResult(path, primary.Name)
		if err != nil {
			log.Printf("[WARN] watch: history lookup for %s failed: %v", path, err)
		} else {
			previous = prev
		}
	}

	started := time.Now()
	fd, err := digest.HashFile(path, algos, digest.Options{ChunkSize: config.AppConfig.ChunkSize})
	if err != nil {
		metrics.IncHashErrors()
		log.Printf("[WARN] watch: cannot hash %s: %v", path, err)
		return
	}
	current := fd.Result(primary.Name)
	for _, r := range fd.Results {
		metrics.IncFilesHashed(r.Algorithm)
		metrics.ObserveHashDuration(r.Algorithm, time.Since(started))
	}
	metrics.AddBytesHashed(fd.Size)

	// Already reported with this exact digest moments ago.
	if last, ok := recent.Get(path); ok && last == current {
		return
	}
	recent.Set(path, current)

	switch {
	case previous == nil:
		fmt.Fprintf(out, "new        %s  %s %s\n", path, strings.ToUpper(primary.Name), current)
	case previous.Digest == current:
		fmt.Fprintf(out, "unchanged  %s\n", path)
	default:
		fmt.Fprintf(out, "changed    %s  %s %s -> %s\n", path, strings.ToUpper(primary.Name), previous.Digest, current)
	}

	if err := recordRun("watch", []*digest.FileDigests{fd}, 0, 0); err != nil {
		log.Printf("[WARN] watch: failed to record history for %s: %v", path, err)
	}
}
