// file: cmd/history.go
// version: 1.0.0
// guid: 4a5da5a5-9047-445c-bd94-51fbc3259f69

package cmd

import (
	"bufio"
	"fmt"
	"sort"
	"strings"

	"github.com/DaemonWorx/hashgen/internal/store"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyFuzzy bool
	historyYes   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect previously computed digests",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent digests, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		closer, err := requireStore()
		if err != nil {
			return err
		}
		defer closer()

		results, err := store.GlobalStore.RecentResults(historyLimit)
		if err != nil {
			return fmt.Errorf("failed to fetch history: %w", err)
		}
		printResults(cmd, results)
		return nil
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search history by file path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		closer, err := requireStore()
		if err != nil {
			return err
		}
		defer closer()

		results, err := store.GlobalStore.SearchResults(args[0], historyFuzzy, historyLimit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		printResults(cmd, results)
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the history store",
	RunE: func(cmd *cobra.Command, args []string) error {
		closer, err := requireStore()
		if err != nil {
			return err
		}
		defer closer()

		stats, err := store.GlobalStore.GetStats()
		if err != nil {
			return fmt.Errorf("failed to aggregate stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Results: %d\n", stats.Results)
		fmt.Fprintf(out, "Runs:    %d\n", stats.Runs)
		fmt.Fprintf(out, "Hashed:  %s\n", formatBytes(stats.Bytes))

		algos := make([]string, 0, len(stats.ByAlgorithm))
		for a := range stats.ByAlgorithm {
			algos = append(algos, a)
		}
		sort.Strings(algos)
		for _, a := range algos {
			fmt.Fprintf(out, "  %s: %d\n", strings.ToUpper(a), stats.ByAlgorithm[a])
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !historyYes {
			fmt.Fprint(cmd.OutOrStdout(), "Delete all history? Type 'yes' to confirm: ")
			reader := bufio.NewReader(cmd.InOrStdin())
			response, err := reader.ReadString('\n')
			if err != nil {
				return err
			}
			if strings.TrimSpace(strings.ToLower(response)) != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}

		closer, err := requireStore()
		if err != nil {
			return err
		}
		defer closer()

		if err := store.GlobalStore.Reset(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	},
}

func init() {
	historyCmd.PersistentFlags().IntVar(&historyLimit, "limit", 20, "maximum number of entries to show")
	historySearchCmd.Flags().BoolVar(&historyFuzzy, "fuzzy", false, "use fuzzy (subsequence) path matching")
	historyClearCmd.Flags().BoolVar(&historyYes, "yes", false, "skip the confirmation prompt")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func printResults(cmd *cobra.Command, results []store.Result) {
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No history entries found.")
		return
	}
	for _, r := range results {
		fmt.Fprintf(out, "%s  %s  %s  %s  (%s)\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			strings.ToUpper(r.Algorithm), r.Digest, r.Path, formatBytes(r.Size))
	}
}

// formatBytes renders a size in a human-friendly unit.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
