package catalog

import (
	"bytes"
	"context"
	"io"

	"github.com/hupe1980/fieldarray/blobstore"
)

// claimStore routes Create through PutIfNotExists, so a streamed snapshot
// only lands under a name nobody else has taken.
type claimStore struct {
	blobstore.ConditionalStore
}

func (s claimStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return &claimBlob{ctx: ctx, store: s.ConditionalStore, name: name}, nil
}

type claimBlob struct {
	ctx   context.Context
	store blobstore.ConditionalStore
	name  string
	buf   bytes.Buffer
	done  bool
}

func (b *claimBlob) Write(p []byte) (int, error) {
	if b.done {
		return 0, io.ErrClosedPipe
	}
	return b.buf.Write(p)
}

func (b *claimBlob) Close() error {
	if b.done {
		return nil
	}
	b.done = true
	return b.store.PutIfNotExists(b.ctx, b.name, b.buf.Bytes())
}

func (b *claimBlob) Abort(context.Context) error {
	b.done = true
	b.buf.Reset()
	return nil
}

func (b *claimBlob) Sync() error {
	return nil
}
