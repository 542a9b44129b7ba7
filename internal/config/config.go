// file: internal/config/config.go
// version: 2.0.0
// guid: 3c6f208d-44f6-4586-8cab-d09572351f0e

package config

import (
	"os"

	"github.com/spf13/viper"
	"golang.org/x/term"
)

// Config holds application configuration
type Config struct {
	DefaultAlgorithms string `yaml:"default_algorithms"`
	ChunkSize         int    `yaml:"chunk_size"`
	Workers           int    `yaml:"workers"`
	StorePath         string `yaml:"store_path"`
	StoreType         string `yaml:"store_type"` // "pebble" (default) or "sqlite"
	EnableSQLite      bool   `yaml:"enable_sqlite3_i_know_the_risks"`
	NoStore           bool   `yaml:"no_store"`
	Progress          bool   `yaml:"progress"`
	MetricsFile       string `yaml:"metrics_file"`
	ArchiveFormat     string `yaml:"archive_format"`
	ArchiveLevel      int    `yaml:"archive_level"`
}

var AppConfig Config

// InitConfig initializes the application configuration
func InitConfig() {
	// Set defaults
	viper.SetDefault("default_algorithms", "sha256")
	viper.SetDefault("chunk_size", 32*1024)
	viper.SetDefault("workers", 4)
	viper.SetDefault("store_path", "hashgen.pebble")
	viper.SetDefault("store_type", "pebble")
	viper.SetDefault("enable_sqlite3_i_know_the_risks", false)
	viper.SetDefault("no_store", false)
	// Progress bars default to on only when stdout is a terminal.
	viper.SetDefault("progress", term.IsTerminal(int(os.Stdout.Fd())))
	viper.SetDefault("archive_format", "gz")
	viper.SetDefault("archive_level", 0)

	AppConfig = Config{
		DefaultAlgorithms: viper.GetString("default_algorithms"),
		ChunkSize:         viper.GetInt("chunk_size"),
		Workers:           viper.GetInt("workers"),
		StorePath:         viper.GetString("store_path"),
		StoreType:         viper.GetString("store_type"),
		EnableSQLite:      viper.GetBool("enable_sqlite3_i_know_the_risks"),
		NoStore:           viper.GetBool("no_store"),
		Progress:          viper.GetBool("progress"),
		MetricsFile:       viper.GetString("metrics_file"),
		ArchiveFormat:     viper.GetString("archive_format"),
		ArchiveLevel:      viper.GetInt("archive_level"),
	}

	// Normalize store type
	if AppConfig.StoreType == "sqlite3" {
		AppConfig.StoreType = "sqlite"
	}
	if AppConfig.StoreType == "" {
		AppConfig.StoreType = "pebble"
	}
	if AppConfig.ChunkSize <= 0 {
		AppConfig.ChunkSize = 32 * 1024
	}
	if AppConfig.Workers < 1 {
		AppConfig.Workers = 1
	}
}
