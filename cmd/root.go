// file: cmd/root.go
// version: 2.0.0
// guid: f5b04685-9b1c-4a46-bad5-95e6ba8fccd7

package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/DaemonWorx/hashgen/internal/config"
	"github.com/DaemonWorx/hashgen/internal/metrics"
	"github.com/DaemonWorx/hashgen/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var storePath string
var storeType string
var enableSQLite bool
var chunkSize int
var noStore bool
var noProgress bool

// rootCmd represents the base command. Called without a subcommand it
// runs the interactive prompt flow.
var rootCmd = &cobra.Command{
	Use:   "hashgen",
	Short: "Compute cryptographic hashes of files",
	Long: `Hashgen computes MD5, SHA1, SHA256, SHA384 and SHA512 digests of
files, streaming them in fixed-size chunks so memory use stays bounded.

Run without arguments for the interactive prompt flow, or use the hash,
verify, archive, watch and history subcommands for batch work.`,
	RunE:          runInteractive,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// interactiveCmd is an explicit alias for the default prompt flow.
var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Prompt for a file and algorithm, then print digests",
	RunE:  runInteractive,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	metrics.Register()
	err := rootCmd.Execute()

	if path := config.AppConfig.MetricsFile; path != "" {
		if werr := metrics.WriteTextfile(path); werr != nil {
			log.Printf("[WARN] failed to write metrics file %s: %v", path, werr)
		}
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hashgen.yaml)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "hashgen.pebble", "path to the history store (default: hashgen.pebble for PebbleDB)")
	rootCmd.PersistentFlags().StringVar(&storeType, "store-type", "pebble", "history store type: pebble (default) or sqlite")
	rootCmd.PersistentFlags().BoolVar(&enableSQLite, "enable-sqlite3-i-know-the-risks", false, "enable SQLite3 store (WARNING: cross-compilation issues, PebbleDB recommended)")
	rootCmd.PersistentFlags().IntVar(&chunkSize, "chunk-size", 32*1024, "read buffer size in bytes for chunked hashing")
	rootCmd.PersistentFlags().BoolVar(&noStore, "no-store", false, "do not record results in the history store")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bars")

	viper.BindPFlag("store_path", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("store_type", rootCmd.PersistentFlags().Lookup("store-type"))
	viper.BindPFlag("enable_sqlite3_i_know_the_risks", rootCmd.PersistentFlags().Lookup("enable-sqlite3-i-know-the-risks"))
	viper.BindPFlag("chunk_size", rootCmd.PersistentFlags().Lookup("chunk-size"))
	viper.BindPFlag("no_store", rootCmd.PersistentFlags().Lookup("no-store"))

	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(diagnosticsCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".hashgen")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	config.InitConfig()

	if noProgress {
		config.AppConfig.Progress = false
	}
}

// showProgress reports whether progress bars are wanted.
func showProgress() bool {
	return config.AppConfig.Progress && !noProgress
}

// openStore initializes the global history store unless recording is
// disabled. The returned closer is safe to defer either way.
func openStore() (func(), error) {
	if config.AppConfig.NoStore {
		return func() {}, nil
	}

	// Ensure the store directory exists.
	if dir := filepath.Dir(config.AppConfig.StorePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create store directory: %w", err)
		}
	}

	if err := store.InitializeStore(
		config.AppConfig.StoreType,
		config.AppConfig.StorePath,
		config.AppConfig.EnableSQLite,
	); err != nil {
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}
	return func() {
		if err := store.CloseStore(); err != nil {
			log.Printf("[WARN] failed to close history store: %v", err)
		}
	}, nil
}

// requireStore is openStore for commands that cannot work without one.
func requireStore() (func(), error) {
	if config.AppConfig.NoStore {
		return nil, fmt.Errorf("the history store is disabled (no_store is set)")
	}
	return openStore()
}
