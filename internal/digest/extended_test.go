// file: internal/digest/extended_test.go
// version: 1.0.0
// guid: 7fd4ee53-cffe-4792-86af-0581b40f20cc

package digest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtendedLookup(t *testing.T) {
	for _, name := range ExtendedNames() {
		a, err := Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, a.Name)
		assert.Greater(t, a.Size, 0)
	}
}

func TestExtendedDigestLengths(t *testing.T) {
	content := []byte("extended algorithms")
	for _, name := range ExtendedNames() {
		a, err := Lookup(name)
		require.NoError(t, err)

		results, n, err := HashReader(bytes.NewReader(content), []Algorithm{a}, 0)
		require.NoError(t, err, name)
		assert.Equal(t, int64(len(content)), n)
		require.Len(t, results, 1)
		assert.Len(t, results[0].Digest, a.Size*2, name)
	}
}

func TestExtendedDeterministic(t *testing.T) {
	content := []byte("same input, same digest")
	for _, name := range ExtendedNames() {
		a, _ := Lookup(name)

		first, _, err := HashReader(bytes.NewReader(content), []Algorithm{a}, 7)
		require.NoError(t, err)
		second, _, err := HashReader(bytes.NewReader(content), []Algorithm{a}, 1024)
		require.NoError(t, err)
		assert.Equal(t, first, second, name)
	}
}

func TestParseMixedStandardAndExtended(t *testing.T) {
	algos, err := Parse("blake3,sha256")
	require.NoError(t, err)
	require.Len(t, algos, 2)
	// Standard algorithms stay in canonical order ahead of extended ones.
	assert.Equal(t, "sha256", algos[0].Name)
	assert.Equal(t, "blake3", algos[1].Name)
}
