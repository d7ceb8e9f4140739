package blobstore

import (
	"bytes"
	"context"
	"io"
)

// NewReader returns a sequential reader over the whole blob. Mappable blobs
// are read in place; others stream through ReadRange. Closing the reader
// does not close the blob.
func NewReader(ctx context.Context, b Blob) (io.ReadCloser, error) {
	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	if b.Size() == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return b.ReadRange(ctx, 0, b.Size())
}

// Abort discards w if it supports aborting and closes it otherwise.
func Abort(ctx context.Context, w WritableBlob) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort(ctx)
	}
	return w.Close()
}
