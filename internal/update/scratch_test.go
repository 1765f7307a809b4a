package update

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanScratch(t *testing.T) {
	dir := t.TempDir()
	stale := []string{
		filepath.Join(dir, ScratchPrefix+"123"),
		filepath.Join(dir, ScratchPrefix+"456"),
	}
	for _, s := range stale {
		require.NoError(t, os.MkdirAll(s, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(s, "yt-dlp"), []byte("partial"), 0644))
	}
	// Neither of these may be touched.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "yt-dlp"), []byte("live"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ScratchPrefix+"file"), nil, 0644))

	removed, err := CleanScratch(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, stale, removed)

	for _, s := range stale {
		_, err := os.Stat(s)
		assert.True(t, os.IsNotExist(err))
	}
	assert.FileExists(t, filepath.Join(dir, "yt-dlp"))
	assert.FileExists(t, filepath.Join(dir, ScratchPrefix+"file"))
}

func TestCleanScratchMissingDir(t *testing.T) {
	removed, err := CleanScratch(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, removed)
}
