package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartWritesPoisonMarker(t *testing.T) {
	base := t.TempDir()
	m := New(base, "run-1")
	require.NoError(t, m.Start())
	require.True(t, m.PoisonPresent())
	_, err := os.Stat(filepath.Join(m.RunDir(), poisonFileName))
	require.NoError(t, err)
}

func TestCommitRemovesPoisonMarker(t *testing.T) {
	base := t.TempDir()
	m := New(base, "run-1")
	require.NoError(t, m.Start())
	require.NoError(t, m.Commit())
	require.False(t, m.PoisonPresent())
}

func TestWriteIsAtomicAndReadable(t *testing.T) {
	base := t.TempDir()
	m := New(base, "run-1")
	require.NoError(t, m.Start())
	require.NoError(t, m.Write("evidence/exp1_before.png", []byte("pngdata")))

	data, err := os.ReadFile(filepath.Join(m.RunDir(), "evidence", "exp1_before.png"))
	require.NoError(t, err)
	require.Equal(t, "pngdata", string(data))

	_, statErr := os.Stat(filepath.Join(m.RunDir(), "evidence", "exp1_before.png.staging"))
	require.True(t, os.IsNotExist(statErr))
}

func TestWriteRejectsPathEscape(t *testing.T) {
	base := t.TempDir()
	m := New(base, "run-1")
	require.NoError(t, m.Start())
	err := m.Write("../../etc/passwd", []byte("x"))
	require.Error(t, err)
}

func TestExistsReflectsCommittedFiles(t *testing.T) {
	base := t.TempDir()
	m := New(base, "run-1")
	require.NoError(t, m.Start())
	require.False(t, m.Exists("findings.json"))
	require.NoError(t, m.Write("findings.json", []byte("{}")))
	require.True(t, m.Exists("findings.json"))
}

func TestExistingBasenamesListsDirectory(t *testing.T) {
	base := t.TempDir()
	m := New(base, "run-1")
	require.NoError(t, m.Start())
	require.NoError(t, m.Write("evidence/a.png", []byte("a")))
	require.NoError(t, m.Write("evidence/b.png", []byte("b")))

	names, err := m.ExistingBasenames("evidence")
	require.NoError(t, err)
	require.True(t, names["a.png"])
	require.True(t, names["b.png"])
}

func TestExistingBasenamesMissingDirIsEmpty(t *testing.T) {
	base := t.TempDir()
	m := New(base, "run-1")
	require.NoError(t, m.Start())
	names, err := m.ExistingBasenames("nope")
	require.NoError(t, err)
	require.Empty(t, names)
}
