package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storesUnderTest(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"local":  NewLocalStore(t.TempDir()),
	}
}

func TestStore_Contract(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Open(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Put(ctx, "a/1", []byte("one")))
			require.NoError(t, store.Put(ctx, "a/1", []byte("uno")), "put replaces")
			require.NoError(t, store.Put(ctx, "a/2", nil))
			require.NoError(t, store.Put(ctx, "b/1", []byte("b")))

			names, err := store.List(ctx, "a/")
			require.NoError(t, err)
			assert.Equal(t, []string{"a/1", "a/2"}, names)

			blob, err := store.Open(ctx, "a/1")
			require.NoError(t, err)
			r, err := NewReader(ctx, blob)
			require.NoError(t, err)
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "uno", string(data))
			require.NoError(t, r.Close())
			require.NoError(t, blob.Close())

			empty, err := store.Open(ctx, "a/2")
			require.NoError(t, err)
			assert.Equal(t, int64(0), empty.Size())
			r, err = NewReader(ctx, empty)
			require.NoError(t, err)
			data, err = io.ReadAll(r)
			require.NoError(t, err)
			assert.Empty(t, data)
			require.NoError(t, empty.Close())

			w, err := store.Create(ctx, "c")
			require.NoError(t, err)
			_, err = w.Write([]byte("aborted"))
			require.NoError(t, err)
			require.NoError(t, Abort(ctx, w))
			_, err = store.Open(ctx, "c")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Delete(ctx, "b/1"))
			names, err = store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"a/1", "a/2"}, names)
		})
	}
}

func TestMemoryStore_PutCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'x'

	blob, err := store.Open(ctx, "k")
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf))
}

func TestMemoryStore_PutIfNotExists(t *testing.T) {
	ctx := context.Background()
	var store ConditionalStore = NewMemoryStore()

	require.NoError(t, store.PutIfNotExists(ctx, "v/1", []byte("first")))
	require.ErrorIs(t, store.PutIfNotExists(ctx, "v/1", []byte("second")), ErrExists)

	blob, err := store.Open(ctx, "v/1")
	require.NoError(t, err)
	assert.Equal(t, int64(len("first")), blob.Size())
}
