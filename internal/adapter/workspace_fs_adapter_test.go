package adapter

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

func TestLocalWorkspaceFSAdapter_Walk(t *testing.T) {
	t.Run("visits nested files in lexical order", func(t *testing.T) {
		adapter := NewLocalWorkspaceFSAdapter()

		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "b.txt"), "b")
		writeTestFile(t, filepath.Join(root, "a", "z.txt"), "z")
		writeTestFile(t, filepath.Join(root, "a", "y.txt"), "y")

		var files []string
		err := adapter.Walk(m.Path(root), func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.Mode().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, []string{
			filepath.Join(root, "a", "y.txt"),
			filepath.Join(root, "a", "z.txt"),
			filepath.Join(root, "b.txt"),
		}, files)
	})

	t.Run("missing root is reported to the callback", func(t *testing.T) {
		adapter := NewLocalWorkspaceFSAdapter()
		missing := filepath.Join(t.TempDir(), "missing")

		var gotErr error
		err := adapter.Walk(m.Path(missing), func(path string, info os.FileInfo, err error) error {
			gotErr = err
			return nil
		})
		require.NoError(t, err)
		assert.True(t, os.IsNotExist(gotErr))
	})
}

func TestLocalWorkspaceFSAdapter_Paths(t *testing.T) {
	adapter := NewLocalWorkspaceFSAdapter()

	abs, err := adapter.Abs("relative/file.txt")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(string(abs)))

	rel, err := adapter.RelPath("/work/build", "/work/build/out/app.elf")
	require.NoError(t, err)
	assert.Equal(t, m.Path(filepath.Join("out", "app.elf")), rel)
}

func TestLocalWorkspaceFSAdapter_ReadWrite(t *testing.T) {
	adapter := NewLocalWorkspaceFSAdapter()
	dir := m.Path(filepath.Join(t.TempDir(), "nested", "dir"))

	require.NoError(t, adapter.MkdirAll(dir))

	target := dir.Join("file.txt")
	w, err := adapter.Create(target)
	require.NoError(t, err)
	_, err = io.WriteString(w, "content")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := adapter.Open(target)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "content", string(data))

	require.NoError(t, adapter.WriteFile(target, []byte("other"), 0o600))
	data, err = adapter.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "other", string(data))

	info, err := adapter.FileInfo(target)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	moved := dir.Join("moved.txt")
	require.NoError(t, adapter.Rename(target, moved))
	_, err = adapter.FileInfo(target)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, adapter.Remove(moved))
	_, err = adapter.FileInfo(moved)
	assert.True(t, os.IsNotExist(err))
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
