package toolchain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "source.mkv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestNewScopesATempDirAndDerivesOutputExt(t *testing.T) {
	input := writeInput(t, "original")

	ws, err := New(input)
	require.NoError(t, err)
	defer ws.Close()

	assert.Equal(t, input, ws.InputPath())
	assert.Equal(t, ".mkv", filepath.Ext(ws.OutputPath()))

	info, err := os.Stat(ws.TempDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCloseRemovesTheTempDir(t *testing.T) {
	input := writeInput(t, "original")

	ws, err := New(input)
	require.NoError(t, err)
	dir := ws.TempDir()

	require.NoError(t, ws.Close())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestFinalizeRenamesOutputOverInputAndKeepsBackup(t *testing.T) {
	input := writeInput(t, "original")

	ws, err := New(input)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, os.WriteFile(ws.OutputPath(), []byte("transformed"), 0o644))
	require.NoError(t, ws.Finalize("bak"))

	got, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "transformed", string(got))

	backup, err := os.ReadFile(input + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "original", string(backup))
}

func TestFinalizeWithoutBackupExtOverwritesInputOnly(t *testing.T) {
	input := writeInput(t, "original")

	ws, err := New(input)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, os.WriteFile(ws.OutputPath(), []byte("transformed"), 0o644))
	require.NoError(t, ws.Finalize(""))

	got, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "transformed", string(got))

	_, err = os.Stat(input + ".")
	assert.True(t, os.IsNotExist(err))
}

func TestFinalizeMissingOutputFails(t *testing.T) {
	input := writeInput(t, "original")

	ws, err := New(input)
	require.NoError(t, err)
	defer ws.Close()

	assert.Error(t, ws.Finalize("bak"))
}

func TestRestoreBackupReversesTheBackupRename(t *testing.T) {
	input := writeInput(t, "original")

	ws, err := New(input)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, os.WriteFile(ws.OutputPath(), []byte("transformed"), 0o644))
	require.NoError(t, ws.Finalize("bak"))

	require.NoError(t, RestoreBackup(input, "bak"))

	got, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	_, err = os.Stat(input + ".bak")
	assert.True(t, os.IsNotExist(err))
}
