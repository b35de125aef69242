package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsFirstRun(t *testing.T) {
	result, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.True(t, result.FirstRun)
	assert.False(t, result.Migrated)
	assert.Empty(t, result.File.ScoreValues)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	scores := map[string]int{
		"aabbccddeeff00112233445566778899:0:3": 123456,
		"aabbccddeeff00112233445566778899:4:2": 9999,
	}

	require.NoError(t, Save(path, scores))

	result, err := Load(path)
	require.NoError(t, err)
	assert.False(t, result.FirstRun)
	assert.False(t, result.Migrated)
	assert.Equal(t, scores, result.File.ScoreValues)
	assert.NotZero(t, result.File.LastUpdated)
}

func TestLoadLegacyFormatTriggersMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	legacy := `{"known_scores": ["aabbccddeeff00112233445566778899:0:3"]}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	result, err := Load(path)
	require.NoError(t, err)
	assert.True(t, result.Migrated)
	assert.False(t, result.FirstRun)
	// Legacy files carry no score values; the caller re-seeds from the
	// current store.
	assert.Empty(t, result.File.ScoreValues)
}

func TestLoadGarbageFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	require.NoError(t, Save(path, map[string]int{}))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestSaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, Save(path, map[string]int{"a:0:0": 1}))
	require.NoError(t, Save(path, map[string]int{"b:0:0": 2}))

	result, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"b:0:0": 2}, result.File.ScoreValues)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
