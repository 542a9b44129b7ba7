// file: cmd/archive.go
// version: 1.0.0
// guid: 25581783-9fa1-40d8-89e1-02ba415d1a25

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/DaemonWorx/hashgen/internal/archive"
	"github.com/DaemonWorx/hashgen/internal/config"
	"github.com/DaemonWorx/hashgen/internal/metrics"
	"github.com/DaemonWorx/hashgen/internal/store"
	"github.com/spf13/cobra"
)

var (
	archiveOutput       string
	archiveFormat       string
	archiveLevel        int
	archiveSkipExisting bool
)

// archiveCmd packs each subfolder of a directory into its own
// checksummed tar archive.
var archiveCmd = &cobra.Command{
	Use:   "archive [DIR]",
	Short: "Compress each subfolder of a directory into its own archive",
	Long: `Packs every immediate subfolder of DIR (default: current directory)
into <name>.tar.<ext>. Each created archive is SHA-256 checksummed and
the digest recorded in the history store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().StringVar(&archiveOutput, "output", "", "directory for the archives (default: DIR itself)")
	archiveCmd.Flags().StringVar(&archiveFormat, "format", "", "archive compression: gz (default), zst or lz4")
	archiveCmd.Flags().IntVar(&archiveLevel, "level", 0, "compression level (format-specific, 0 = default)")
	archiveCmd.Flags().BoolVar(&archiveSkipExisting, "skip-existing", true, "skip folders whose archive already exists")
}

func runArchive(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	format := archiveFormat
	if format == "" {
		format = config.AppConfig.ArchiveFormat
	}
	level := archiveLevel
	if level == 0 {
		level = config.AppConfig.ArchiveLevel
	}

	closer, err := openStore()
	if err != nil {
		return err
	}
	defer closer()

	summary, err := archive.CompressFolders(dir, archive.Options{
		OutputDir:    archiveOutput,
		Format:       format,
		Level:        level,
		SkipExisting: archiveSkipExisting,
		Progress:     showProgress(),
		ChunkSize:    config.AppConfig.ChunkSize,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range summary.Results {
		switch {
		case r.Skipped:
			fmt.Fprintf(out, "skipped  %s\n", r.ArchivePath)
		case r.Error != "":
			fmt.Fprintf(out, "failed   %s: %s\n", r.Folder, r.Error)
		default:
			fmt.Fprintf(out, "created  %s (%s, sha256 %s)\n", r.ArchivePath, formatBytes(r.Size), r.Digest)
			metrics.IncArchivesCreated()
			metrics.AddArchiveBytes(r.Size)
		}
	}

	recordArchiveRun(cmd, summary)

	fmt.Fprintln(out, "\nCompression Summary:")
	fmt.Fprintf(out, "  Created: %d\n", summary.Created)
	fmt.Fprintf(out, "  Skipped: %d\n", summary.Skipped)
	fmt.Fprintf(out, "  Failed:  %d\n", summary.Failed)

	if summary.Failed > 0 {
		return fmt.Errorf("%d folder(s) failed to compress", summary.Failed)
	}
	return nil
}

// recordArchiveRun stores each created archive's checksum in history.
func recordArchiveRun(cmd *cobra.Command, summary *archive.Summary) {
	if store.GlobalStore == nil {
		return
	}
	run, err := store.GlobalStore.CreateRun("archive")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to record history: %v\n", err)
		return
	}
	for _, r := range summary.Results {
		if r.Skipped || r.Error != "" || r.Digest == "" {
			continue
		}
		var modTime time.Time
		if info, err := os.Stat(r.ArchivePath); err == nil {
			modTime = info.ModTime()
		}
		if _, err := store.GlobalStore.RecordResult(&store.Result{
			RunID:     run.ID,
			Path:      r.ArchivePath,
			Size:      r.Size,
			ModTime:   modTime,
			Algorithm: "sha256",
			Digest:    r.Digest,
		}); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to record %s: %v\n", r.ArchivePath, err)
		}
		run.Files++
		run.Bytes += r.Size
	}
	run.Reused = summary.Skipped
	run.Errors = summary.Failed
	if err := store.GlobalStore.FinishRun(run); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to finish run: %v\n", err)
	}
}
