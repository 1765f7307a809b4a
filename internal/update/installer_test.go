package update

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileInstallerInstall(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec bit is not tracked on windows")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "scratch", "yt-dlp")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))

	final := filepath.Join(dir, "data", "yt-dlp")
	require.NoError(t, os.MkdirAll(filepath.Dir(final), 0755))
	require.NoError(t, os.WriteFile(final, []byte("old"), 0755))

	inst := NewFileInstaller(PolicyFor("linux", ""))
	require.NoError(t, inst.Install(src, final))

	content, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))

	info, err := os.Stat(final)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "src must be moved, not copied")
}

func TestFileInstallerCreatesParent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "yt-dlp.download")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))

	final := filepath.Join(dir, "a", "b", "yt-dlp")
	require.NoError(t, NewFileInstaller(PolicyFor(runtime.GOOS, "")).Install(src, final))

	content, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestFileInstallerNoExecBit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
	final := filepath.Join(dir, "yt-dlp.exe")

	require.NoError(t, NewFileInstaller(PolicyFor("windows", "")).Install(src, final))

	info, err := os.Stat(final)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm(), "windows policy must not chmod")
}

func TestFileInstallerMissingSource(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "yt-dlp")
	require.NoError(t, os.WriteFile(final, []byte("old"), 0755))

	err := NewFileInstaller(PolicyFor("linux", "")).Install(filepath.Join(dir, "missing"), final)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFilesystem)

	var ie *InstallError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, StepRename, ie.Step)
	assert.False(t, ie.Renamed)

	content, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "old", string(content), "failed install must not touch final")
}

func TestFileInstallerParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))

	err := NewFileInstaller(PolicyFor("linux", "")).Install(src, filepath.Join(blocker, "yt-dlp"))

	var ie *InstallError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, StepMkdir, ie.Step)
}
