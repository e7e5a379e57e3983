package driver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nogafriedman/nand2tetris/internal/driver"
)

func TestCollectFiles_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Main.jack")
	require.NoError(t, os.WriteFile(path, []byte("class Main {}"), 0o644))

	files, err := driver.CollectFiles(path, ".jack")
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestCollectFiles_DirectoryFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Main.jack"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Main.vm"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	files, err := driver.CollectFiles(dir, ".jack")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "Main.jack"), files[0])
}

func TestCollectFiles_MissingPathErrors(t *testing.T) {
	_, err := driver.CollectFiles(filepath.Join(t.TempDir(), "nope"), ".jack")
	assert.Error(t, err)
}

func TestOutputPath_ReplacesExtension(t *testing.T) {
	assert.Equal(t, "foo.vm", driver.OutputPath("foo.jack", ".vm"))
	assert.Equal(t, "dir/foo.asm", driver.OutputPath("dir/foo.vm", ".asm"))
}

func TestCombinedOutputPath_DirectoryUsesDirName(t *testing.T) {
	dir := t.TempDir()
	got := driver.CombinedOutputPath(dir, ".asm")
	assert.Equal(t, filepath.Join(dir, filepath.Base(dir)+".asm"), got)
}

func TestCombinedOutputPath_FileReplacesExtension(t *testing.T) {
	got := driver.CombinedOutputPath("Foo.vm", ".asm")
	assert.Equal(t, "Foo.asm", got)
}
