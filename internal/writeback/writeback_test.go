package writeback

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "layout-*.qd")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestWriteFile_Replaces(t *testing.T) {
	path := tempFile(t, "old(a)\n")
	require.NoError(t, WriteFile(path, []byte("new(b)\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new(b)\n", string(got))
}

func TestWriteFile_CreatesNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.qd")
	require.NoError(t, WriteFile(path, []byte("root\n")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWriteFile_PreservesPermissions(t *testing.T) {
	path := tempFile(t, "x\n")
	require.NoError(t, os.Chmod(path, 0o600))

	require.NoError(t, WriteFile(path, []byte("y\n")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteFile_NoTempLeftBehind(t *testing.T) {
	path := tempFile(t, "x\n")
	require.NoError(t, WriteFile(path, []byte("y\n")))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFile_MissingDir(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "nope", "x.qd"), []byte("x"))
	assert.Error(t, err)
}

func TestRewrite(t *testing.T) {
	path := tempFile(t, "b(z)\n")

	changed, err := Rewrite(path, func(src []byte) ([]byte, error) {
		return append([]byte("a\n"), src...), nil
	})
	require.NoError(t, err)
	assert.True(t, changed)
	got, _ := os.ReadFile(path)
	assert.Equal(t, "a\nb(z)\n", string(got))

	changed, err = Rewrite(path, func(src []byte) ([]byte, error) { return src, nil })
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRewrite_EditError(t *testing.T) {
	path := tempFile(t, "keep\n")
	boom := errors.New("boom")

	_, err := Rewrite(path, func([]byte) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	got, _ := os.ReadFile(path)
	assert.Equal(t, "keep\n", string(got))
}

func TestRewrite_MissingFile(t *testing.T) {
	_, err := Rewrite(filepath.Join(t.TempDir(), "missing.qd"), func(b []byte) ([]byte, error) { return b, nil })
	assert.Error(t, err)
}
