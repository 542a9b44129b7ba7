// file: internal/config/config_test.go
// version: 2.0.0
// guid: f39779ef-d496-43af-ab32-6b4f71fb44c4

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestInitConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	InitConfig()

	assert.Equal(t, "sha256", AppConfig.DefaultAlgorithms)
	assert.Equal(t, 32*1024, AppConfig.ChunkSize)
	assert.Equal(t, 4, AppConfig.Workers)
	assert.Equal(t, "pebble", AppConfig.StoreType)
	assert.Equal(t, "hashgen.pebble", AppConfig.StorePath)
	assert.False(t, AppConfig.EnableSQLite)
	assert.Equal(t, "gz", AppConfig.ArchiveFormat)
}

func TestInitConfigNormalizesStoreType(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("store_type", "sqlite3")
	InitConfig()
	assert.Equal(t, "sqlite", AppConfig.StoreType)

	viper.Set("store_type", "")
	InitConfig()
	assert.Equal(t, "pebble", AppConfig.StoreType)
}

func TestInitConfigClampsBadValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("chunk_size", -1)
	viper.Set("workers", 0)
	InitConfig()
	assert.Equal(t, 32*1024, AppConfig.ChunkSize)
	assert.Equal(t, 1, AppConfig.Workers)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".hashgen.yaml")
	require.NoError(t, WriteDefault(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# hashgen configuration"))

	var cfg Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, Defaults(), cfg)

	// Never clobber an existing file.
	assert.Error(t, WriteDefault(path))
}

func TestRender(t *testing.T) {
	out, err := Render(Defaults())
	require.NoError(t, err)
	assert.Contains(t, out, "default_algorithms: sha256")
	assert.Contains(t, out, "store_type: pebble")
}
