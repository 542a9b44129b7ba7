// file: cmd/verify.go
// version: 1.0.0
// guid: 658aa1fd-fcf3-4aaa-b85a-f6d161c3ba13

package cmd

import (
	"fmt"
	"strings"

	"github.com/DaemonWorx/hashgen/internal/config"
	"github.com/DaemonWorx/hashgen/internal/digest"
	"github.com/DaemonWorx/hashgen/internal/manifest"
	"github.com/DaemonWorx/hashgen/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	verifyBaseDir string
	verifyAlgo    string
)

// verifyCmd re-hashes manifest entries, or a single file against a digest.
var verifyCmd = &cobra.Command{
	Use:   "verify MANIFEST | verify FILE DIGEST",
	Short: "Verify files against a checksum manifest or a digest",
	Long: `With one argument, re-hashes every file listed in a checksum manifest
and reports OK, FAILED or MISSING per entry. With two arguments,
compares a single file against the given hex digest.

The algorithm is taken from --algo, or inferred from the digest length
(32 hex chars = md5, 40 = sha1, 64 = sha256, 96 = sha384, 128 = sha512).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyBaseDir, "base", "", "directory that relative manifest paths are resolved against")
	verifyCmd.Flags().StringVar(&verifyAlgo, "algo", "", "algorithm to verify with (default: inferred from digest length)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	if len(args) == 2 {
		return verifySingle(cmd, args[0], args[1])
	}
	return verifyManifest(cmd, args[0])
}

func verifySingle(cmd *cobra.Command, file, expected string) error {
	expected = strings.ToLower(strings.TrimSpace(expected))

	var algo digest.Algorithm
	var err error
	if verifyAlgo != "" {
		algo, err = digest.Lookup(verifyAlgo)
	} else {
		algo, err = manifest.InferAlgorithm(expected)
	}
	if err != nil {
		return err
	}

	fd, err := digest.HashFile(file, []digest.Algorithm{algo}, digest.Options{
		ChunkSize: config.AppConfig.ChunkSize,
		Progress:  showProgress(),
	})
	if err != nil {
		return err
	}
	if fd.Results[0].Digest != expected {
		metrics.IncVerifyFailures()
		return fmt.Errorf("%s: FAILED (%s digest does not match)", file, algo.Name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (%s)\n", file, algo.Name)
	return nil
}

func verifyManifest(cmd *cobra.Command, path string) error {
	entries, err := manifest.Read(path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("manifest %s lists no files", path)
	}

	results, err := manifest.Verify(entries, verifyBaseDir, verifyAlgo, config.AppConfig.ChunkSize)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ok, failed, missing := 0, 0, 0
	for _, r := range results {
		fmt.Fprintf(out, "%s: %s\n", r.Entry.Path, r.Status)
		switch r.Status {
		case manifest.StatusOK:
			ok++
		case manifest.StatusFailed:
			metrics.IncVerifyFailures()
			failed++
		case manifest.StatusMissing:
			metrics.IncVerifyFailures()
			missing++
		}
	}
	fmt.Fprintf(out, "\n%d OK, %d failed, %d missing\n", ok, failed, missing)

	if failed > 0 || missing > 0 {
		return fmt.Errorf("verification failed: %d failed, %d missing", failed, missing)
	}
	return nil
}
