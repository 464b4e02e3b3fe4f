package storage

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndDownload(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	path := StatementPath(42)
	assert.False(t, s.Exists(path))

	require.NoError(t, s.Save(path, []byte("first")))
	require.NoError(t, s.Save(path, []byte("second")))
	assert.True(t, s.Exists(path))

	f, err := s.Download(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocalStorage_SafeFullPath(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	full, err := s.SafeFullPath("../../etc/passwd")
	require.NoError(t, err, "traversal is clamped to the root")
	assert.Equal(t, filepath.Join(s.basePath, "etc", "passwd"), full)

	full, err = s.SafeFullPath("statements/loan-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.basePath, "statements", "loan-1.pdf"), full)
}
