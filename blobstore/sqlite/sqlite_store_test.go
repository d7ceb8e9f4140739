package sqlite

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fieldarray/blobstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "blobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Lifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Open(ctx, "missing")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	w, err := store.Create(ctx, "users/000001.snap")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = w.Write([]byte("sqlite"))
	require.NoError(t, err)

	_, err = store.Open(ctx, "users/000001.snap")
	require.ErrorIs(t, err, blobstore.ErrNotFound, "not visible before Close")
	require.NoError(t, w.Close())

	blob, err := store.Open(ctx, "users/000001.snap")
	require.NoError(t, err)
	assert.Equal(t, int64(12), blob.Size())

	buf := make([]byte, 6)
	n, err := blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", string(buf[:n]))

	rc, err := blob.ReadRange(ctx, 0, 5)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = blob.ReadRange(ctx, 12, 1)
	require.ErrorIs(t, err, io.EOF)
	require.NoError(t, blob.Close())

	require.NoError(t, store.Put(ctx, "users/CURRENT", []byte("000001.snap")))
	require.NoError(t, store.Put(ctx, "users0", []byte("x")))
	require.NoError(t, store.Put(ctx, "groups/CURRENT", nil))

	names, err := store.List(ctx, "users/")
	require.NoError(t, err)
	assert.Equal(t, []string{"users/000001.snap", "users/CURRENT"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"groups/CURRENT", "users/000001.snap", "users/CURRENT", "users0"}, all)

	require.NoError(t, store.Delete(ctx, "users/000001.snap"))
	require.NoError(t, store.Delete(ctx, "users/000001.snap"))
	_, err = store.Open(ctx, "users/000001.snap")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_PutIfNotExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutIfNotExists(ctx, "v/1", []byte("first")))
	require.ErrorIs(t, store.PutIfNotExists(ctx, "v/1", []byte("second")), blobstore.ErrExists)

	blob, err := store.Open(ctx, "v/1")
	require.NoError(t, err)
	r, err := blobstore.NewReader(ctx, blob)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestStore_Abort(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w, err := store.Create(ctx, "partial")
	require.NoError(t, err)
	_, err = w.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, blobstore.Abort(ctx, w))
	require.NoError(t, w.Close())

	_, err = store.Open(ctx, "partial")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_InMemory(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "a", []byte("1")))
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names)
}
