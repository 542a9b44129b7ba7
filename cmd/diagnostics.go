// file: cmd/diagnostics.go
// version: 1.0.0
// guid: 05af7e5b-52d2-4cd6-a566-20839792e889

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/pebble/v2"
	"github.com/spf13/cobra"

	"github.com/DaemonWorx/hashgen/internal/config"
	"github.com/DaemonWorx/hashgen/internal/store"
)

var (
	diagnosticsCmd = &cobra.Command{
		Use:   "diagnostics",
		Short: "Debugging and cleanup helpers",
		Long:  "Diagnostic utilities for inspecting and repairing the hash history store.",
	}

	cleanupMissingCmd = &cobra.Command{
		Use:   "cleanup-missing",
		Short: "Remove history entries for files that no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("yes")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return runCleanupMissing(force, dryRun)
		},
	}

	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Inspect stored history records",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			prefix, _ := cmd.Flags().GetString("prefix")
			raw, _ := cmd.Flags().GetBool("raw")
			return runDiagnosticsQuery(limit, prefix, raw)
		},
	}
)

func init() {
	cleanupMissingCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	cleanupMissingCmd.Flags().Bool("dry-run", false, "List stale records without deleting")

	queryCmd.Flags().Int("limit", 5, "Number of records to display")
	queryCmd.Flags().String("prefix", "result:", "Key prefix to inspect when --raw is set")
	queryCmd.Flags().Bool("raw", false, "Show raw Pebble key/value data (Pebble only)")

	diagnosticsCmd.AddCommand(cleanupMissingCmd)
	diagnosticsCmd.AddCommand(queryCmd)
}

func runCleanupMissing(force, dryRun bool) error {
	closer, err := requireStore()
	if err != nil {
		return err
	}
	defer closer()

	fmt.Printf("Inspecting history in %s (%s)\n", config.AppConfig.StorePath, config.AppConfig.StoreType)

	const batchSize = 5000
	results, err := store.GlobalStore.RecentResults(batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch results: %w", err)
	}

	stale := make([]store.Result, 0)
	for _, res := range results {
		if _, err := os.Stat(res.Path); os.IsNotExist(err) {
			stale = append(stale, res)
		}
	}

	if len(stale) == 0 {
		fmt.Println("No stale history records detected.")
		return nil
	}

	fmt.Printf("Found %d stale records:\n", len(stale))
	for i, res := range stale {
		fmt.Printf("%2d. ID: %s\n", i+1, res.ID)
		fmt.Printf("    Algorithm: %s\n", res.Algorithm)
		fmt.Printf("    Path:      %s\n", res.Path)
	}

	if dryRun {
		fmt.Println("Dry run enabled; no deletions were performed.")
		return nil
	}

	if !force {
		confirmed, err := promptYesNo(fmt.Sprintf("Delete %d records", len(stale)))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted. No records deleted.")
			return nil
		}
	}

	deleted := 0
	for _, res := range stale {
		if err := store.GlobalStore.DeleteResult(res.ID); err != nil {
			fmt.Printf("Failed to delete %s: %v\n", res.ID, err)
			continue
		}
		deleted++
	}

	fmt.Printf("Deleted %d stale records.\n", deleted)
	return nil
}

func runDiagnosticsQuery(limit int, prefix string, raw bool) error {
	if limit <= 0 {
		return errors.New("limit must be positive")
	}

	if raw {
		if config.AppConfig.StoreType != "pebble" {
			return fmt.Errorf("raw inspection is only available for Pebble stores")
		}
		return runRawPebbleQuery(limit, prefix)
	}

	closer, err := requireStore()
	if err != nil {
		return err
	}
	defer closer()

	results, err := store.GlobalStore.RecentResults(limit)
	if err != nil {
		return fmt.Errorf("failed to fetch results: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for i, res := range results {
		fmt.Printf("%2d. ID: %s\n", i+1, res.ID)
		fmt.Printf("    Path:      %s\n", res.Path)
		fmt.Printf("    Algorithm: %s\n", res.Algorithm)
		fmt.Printf("    Digest:    %s\n", res.Digest)
		fmt.Printf("    Size:      %d\n", res.Size)
		fmt.Println("---")
	}

	return nil
}

func runRawPebbleQuery(limit int, prefix string) error {
	db, err := pebble.Open(config.AppConfig.StorePath, &pebble.Options{
		FormatMajorVersion: pebble.FormatNewest,
	})
	if err != nil {
		return fmt.Errorf("failed to open Pebble store: %w", err)
	}
	defer db.Close()

	iterOpts := &pebble.IterOptions{}
	if prefix != "" {
		iterOpts.LowerBound = []byte(prefix)
		iterOpts.UpperBound = append([]byte(prefix), 0xFF)
	}

	iter, err := db.NewIter(iterOpts)
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	count := 0
	ok := iter.First()
	if prefix != "" {
		ok = iter.SeekGE([]byte(prefix))
	}

	for ; ok && iter.Valid(); ok = iter.Next() {
		fmt.Printf("Key: %s\n", string(iter.Key()))
		val := iter.Value()
		fmt.Printf("Value length: %d bytes\n", len(val))
		preview := truncateString(string(val), 500)
		fmt.Printf("Value preview: %s\n", preview)
		fmt.Println("---")

		count++
		if count >= limit {
			break
		}
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterator error: %w", err)
	}

	if count == 0 {
		fmt.Println("No keys matched the requested prefix.")
	}

	return nil
}

func promptYesNo(action string) (bool, error) {
	fmt.Printf("%s? Type 'yes' to confirm: ", action)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes", nil
}

func truncateString(in string, max int) string {
	if len(in) <= max {
		return in
	}
	return in[:max] + "..."
}
