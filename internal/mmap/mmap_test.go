package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snap")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestMapping_OpenReadClose(t *testing.T) {
	content := []byte("Hello, Mmap!")
	m, err := Open(writeFile(t, content))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())
	require.NoError(t, m.Advise(AccessSequential))

	buf := make([]byte, 5)
	n, err := m.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "Mmap!", string(buf))

	n, err = m.ReadAt(make([]byte, 10), 100)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	partial := make([]byte, 10)
	n, err = m.ReadAt(partial, 7)
	assert.Equal(t, 5, n)
	assert.Equal(t, io.EOF, err)

	_, err = m.ReadAt(buf, -1)
	assert.Equal(t, ErrInvalidOffset, err)

	r, err := m.Reader()
	require.NoError(t, err)
	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, all)
}

func TestMapping_EmptyFile(t *testing.T) {
	m, err := Open(writeFile(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Size())
	assert.Empty(t, m.Bytes())
	require.NoError(t, m.Advise(AccessRandom))
}

func TestMapping_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMapping_RegionAndClose(t *testing.T) {
	m, err := Open(writeFile(t, make([]byte, 1024)))
	require.NoError(t, err)

	r, err := m.Region(100, 200)
	require.NoError(t, err)
	assert.Len(t, r.Bytes(), 200)

	_, err = m.Region(-1, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = m.Region(1000, 100)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close(), "close is idempotent")

	assert.Nil(t, r.Bytes())
	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)
	_, err = m.Region(0, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.Reader()
	assert.ErrorIs(t, err, ErrClosed)
}
