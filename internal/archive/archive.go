// file: internal/archive/archive.go
// version: 1.0.0
// guid: ce4da0b7-ff28-46f3-aebb-11efcc6194be

package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/DaemonWorx/hashgen/internal/digest"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	lz4 "github.com/pierrec/lz4/v4"
	"github.com/schollz/progressbar/v3"
)

// Options control folder compression.
type Options struct {
	OutputDir    string // defaults to the parent directory
	Format       string // "gz" (default), "zst" or "lz4"
	Level        int    // compression level, format-specific; 0 picks the default
	SkipExisting bool
	Progress     bool
	ChunkSize    int // copy buffer size for tar writes and checksumming
}

// FolderResult is the outcome for one subfolder.
type FolderResult struct {
	Folder      string `json:"folder"`
	ArchivePath string `json:"archive_path,omitempty"`
	Size        int64  `json:"size,omitempty"`   // archive size in bytes
	Digest      string `json:"digest,omitempty"` // sha256 of the archive
	Skipped     bool   `json:"skipped,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Summary aggregates a whole compression pass.
type Summary struct {
	Created int            `json:"created"`
	Skipped int            `json:"skipped"`
	Failed  int            `json:"failed"`
	Results []FolderResult `json:"results"`
}

// Extension returns the archive suffix for a format.
func Extension(format string) (string, error) {
	switch format {
	case "", "gz", "gzip":
		return ".tar.gz", nil
	case "zst", "zstd":
		return ".tar.zst", nil
	case "lz4":
		return ".tar.lz4", nil
	default:
		return "", fmt.Errorf("unsupported archive format: %s (supported: gz, zst, lz4)", format)
	}
}

// CompressFolders packs each immediate subfolder of dir into its own
// tar archive. A failing folder does not abort the rest.
func CompressFolders(dir string, opts Options) (*Summary, error) {
	ext, err := Extension(opts.Format)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", dir, err)
	}
	var folders []string
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}
	sort.Strings(folders)

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = dir
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}

	summary := &Summary{}
	for _, name := range folders {
		folder := filepath.Join(dir, name)
		archivePath := filepath.Join(outputDir, name+ext)
		result := FolderResult{Folder: folder, ArchivePath: archivePath}

		if _, err := os.Stat(archivePath); err == nil && opts.SkipExisting {
			log.Printf("[INFO] archive: skipping %s: archive already exists", name)
			result.Skipped = true
			summary.Skipped++
			summary.Results = append(summary.Results, result)
			continue
		}

		if err := compressFolder(folder, archivePath, opts); err != nil {
			log.Printf("[WARN] archive: %s failed: %v", name, err)
			result.Error = err.Error()
			summary.Failed++
			summary.Results = append(summary.Results, result)
			continue
		}

		info, err := os.Stat(archivePath)
		if err != nil {
			result.Error = err.Error()
			summary.Failed++
			summary.Results = append(summary.Results, result)
			continue
		}
		result.Size = info.Size()

		// Checksum the archive so it can be verified later.
		sha256, _ := digest.Lookup("sha256")
		fd, err := digest.HashFile(archivePath, []digest.Algorithm{sha256}, digest.Options{ChunkSize: opts.ChunkSize})
		if err != nil {
			result.Error = err.Error()
			summary.Failed++
			summary.Results = append(summary.Results, result)
			continue
		}
		result.Digest = fd.Results[0].Digest

		summary.Created++
		summary.Results = append(summary.Results, result)
	}
	return summary, nil
}

// DirSize sums the sizes of all regular files under root.
func DirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}

func compressFolder(folder, archivePath string, opts Options) (err error) {
	total, err := DirSize(folder)
	if err != nil {
		return fmt.Errorf("cannot size %s: %w", folder, err)
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("cannot create archive: %w", err)
	}
	defer func() {
		out.Close()
		if err != nil {
			os.Remove(archivePath) // no partial archives
		}
	}()

	compressor, err := newCompressor(out, opts.Format, opts.Level)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(compressor)

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.DefaultBytes(total, "packing "+filepath.Base(folder))
		defer bar.Finish()
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = digest.DefaultChunkSize
	}
	buf := make([]byte, chunkSize)
	base := filepath.Base(folder)

	err = filepath.WalkDir(folder, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		// Symlinks are skipped rather than followed.
		if d.Type()&fs.ModeSymlink != 0 {
			log.Printf("[INFO] archive: skipping symlink %s", path)
			return nil
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(base, rel))

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = name
		if d.IsDir() {
			header.Name += "/"
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		var w io.Writer = tw
		if bar != nil {
			w = io.MultiWriter(tw, bar)
		}
		if _, err := io.CopyBuffer(w, file, buf); err != nil {
			return fmt.Errorf("packing %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		tw.Close()
		compressor.Close()
		return err
	}

	if err = tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize tar: %w", err)
	}
	if err = compressor.Close(); err != nil {
		return fmt.Errorf("failed to finalize compressor: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return nil
}

// lz4Levels maps our 0-9 scale onto lz4 compression levels.
var lz4Levels = []lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

func newCompressor(w io.Writer, format string, level int) (io.WriteCloser, error) {
	switch format {
	case "", "gz", "gzip":
		if level <= 0 {
			level = gzip.DefaultCompression
		}
		zw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, fmt.Errorf("invalid gzip level %d: %w", level, err)
		}
		return zw, nil
	case "zst", "zstd":
		opts := []zstd.EOption{}
		if level > 0 {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		}
		zw, err := zstd.NewWriter(w, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zw, nil
	case "lz4":
		zw := lz4.NewWriter(w)
		if level > 0 {
			if level >= len(lz4Levels) {
				level = len(lz4Levels) - 1
			}
			if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[level])); err != nil {
				return nil, fmt.Errorf("invalid lz4 level %d: %w", level, err)
			}
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", format)
	}
}
