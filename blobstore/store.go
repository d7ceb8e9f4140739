package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrExists is returned by conditional writes when the blob already exists.
var ErrExists = errors.New("blob already exists")

// Store is an abstraction over named, immutable blobs such as snapshots and
// version pointers. Implementations must be safe for concurrent use.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create starts a streaming write. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a small blob in one call, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// ReadAt follows io.ReaderAt semantics.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader over at most length bytes starting at off.
	// It returns io.EOF when off is at or past the end of the blob.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data where the backend supports it.
	Sync() error
}

// Aborter is implemented by writable blobs that can discard a partial write
// instead of publishing it on Close.
type Aborter interface {
	Abort(ctx context.Context) error
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// ConditionalStore is implemented by stores that can create a blob only when
// the name is still free. Losers of a race get ErrExists.
type ConditionalStore interface {
	Store
	PutIfNotExists(ctx context.Context, name string, data []byte) error
}
