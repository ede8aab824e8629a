package fsutil_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/binsplice/pkg/fsutil"
)

func writeFile(t *testing.T, path string, content []byte, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, content, mode))
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	writeFile(t, path, []byte{0xCA, 0xFE, 0xBA, 0xBE}, 0o755)

	content, snap, err := fsutil.ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCA, 0xFE, 0xBA, 0xBE}, content)
	assert.Equal(t, path, snap.Path)
	assert.Equal(t, int64(4), snap.Size)
	assert.Equal(t, os.FileMode(0o755), snap.Mode.Perm())
}

func TestReadFile_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, _, err := fsutil.ReadFile(context.Background(), filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, fsutil.ErrNotFound)

	_, _, err = fsutil.ReadFile(context.Background(), dir)
	require.ErrorIs(t, err, fsutil.ErrIsDirectory)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = fsutil.ReadFile(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	t.Run("unchanged file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "image.bin")
		writeFile(t, path, []byte("original"), 0o644)

		_, snap, err := fsutil.ReadFile(context.Background(), path)
		require.NoError(t, err)
		assert.NoError(t, fsutil.Verify(context.Background(), snap))
	})

	t.Run("size change", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "image.bin")
		writeFile(t, path, []byte("original"), 0o644)

		_, snap, err := fsutil.ReadFile(context.Background(), path)
		require.NoError(t, err)
		writeFile(t, path, []byte("changed content"), 0o644)

		assert.ErrorIs(t, fsutil.Verify(context.Background(), snap), fsutil.ErrModified)
	})

	t.Run("same size same mtime different bytes", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "image.bin")
		writeFile(t, path, []byte("aaaa"), 0o644)

		_, snap, err := fsutil.ReadFile(context.Background(), path)
		require.NoError(t, err)
		writeFile(t, path, []byte("bbbb"), 0o644)
		require.NoError(t, os.Chtimes(path, time.Time{}, snap.ModTime))

		assert.ErrorIs(t, fsutil.Verify(context.Background(), snap), fsutil.ErrModified)
	})

	t.Run("removed file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "image.bin")
		writeFile(t, path, []byte("x"), 0o644)

		_, snap, err := fsutil.ReadFile(context.Background(), path)
		require.NoError(t, err)
		require.NoError(t, os.Remove(path))

		assert.ErrorIs(t, fsutil.Verify(context.Background(), snap), fsutil.ErrModified)
	})

	t.Run("nil snapshot", func(t *testing.T) {
		t.Parallel()

		assert.ErrorIs(t, fsutil.Verify(context.Background(), nil), fsutil.ErrNilSnapshot)
	})
}
