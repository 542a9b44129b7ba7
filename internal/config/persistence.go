// file: internal/config/persistence.go
// version: 2.0.0
// guid: a6bd722b-ee65-4e04-ac2e-52484dec21f9

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configHeader = `# hashgen configuration
# Generated by "hashgen config init". Flags and environment variables
# override the values below.
`

// Defaults returns the built-in configuration, independent of any
// flags, env or config file already loaded.
func Defaults() Config {
	return Config{
		DefaultAlgorithms: "sha256",
		ChunkSize:         32 * 1024,
		Workers:           4,
		StorePath:         "hashgen.pebble",
		StoreType:         "pebble",
		ArchiveFormat:     "gz",
	}
}

// WriteDefault writes a commented default config file. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	content := append([]byte(configHeader), data...)

	// 0600: the file may later hold store paths under $HOME.
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Render returns the effective configuration as YAML, for "config show".
func Render(cfg Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(data), nil
}
