package fieldarray

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/fieldarray/blobstore"
)

// Save streams a snapshot of fa into store under name. A failed write is
// aborted where the store supports it, so no partial blob is published.
func Save(ctx context.Context, store blobstore.Store, name string, fa *FieldArray, optFns ...SnapshotOption) error {
	o := applySnapshotOptions(append(optFns[:len(optFns):len(optFns)], withContext(ctx)))
	logger := o.logger
	if logger == nil {
		logger = fa.logger
	}

	err := save(ctx, store, name, fa, o)
	logger.LogSave(ctx, name, err)
	return err
}

func save(ctx context.Context, store blobstore.Store, name string, fa *FieldArray, o snapshotOptions) error {
	const op = "save"

	if store == nil {
		return ioFailure(op, errors.New("nil store"))
	}
	w, err := store.Create(ctx, name)
	if err != nil {
		return ioFailure(op, err)
	}

	if _, err := fa.writeSnapshot(w, o); err != nil {
		_ = blobstore.Abort(ctx, w)
		return err
	}
	if err := w.Close(); err != nil {
		return ioFailure(op, err)
	}
	return nil
}

// Load reads the snapshot stored under name. A missing blob is reported as
// ErrIOFailure that also matches blobstore.ErrNotFound.
func Load(ctx context.Context, store blobstore.Store, name string, optFns ...SnapshotOption) (*FieldArray, error) {
	o := applySnapshotOptions(append(optFns[:len(optFns):len(optFns)], withContext(ctx)))
	logger := o.logger
	if logger == nil {
		logger = applyOptions(o.arrayOpts).logger
	}

	fa, err := load(ctx, store, name, o)
	logger.LogLoad(ctx, name, err)
	return fa, err
}

func load(ctx context.Context, store blobstore.Store, name string, o snapshotOptions) (*FieldArray, error) {
	const op = "load"

	if store == nil {
		return nil, ioFailure(op, errors.New("nil store"))
	}
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, ioFailure(op, err)
	}
	defer blob.Close()

	r, err := blobstore.NewReader(ctx, blob)
	if err != nil {
		return nil, ioFailure(op, err)
	}
	defer r.Close()

	fa, _, err := readSnapshot(r, o)
	if err == io.EOF {
		return nil, malformed(op, errors.New("empty blob"))
	}
	return fa, err
}
