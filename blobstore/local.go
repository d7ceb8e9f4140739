package blobstore

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/fieldarray/internal/fs"
	"github.com/hupe1980/fieldarray/internal/mmap"
)

// LocalStore implements Store on a local directory. Blob names use forward
// slashes and map to nested files below the root. Writes go through a
// temporary file that is synced and renamed, so readers never see partial
// blobs.
type LocalStore struct {
	root string
	fs   fs.FileSystem
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithFileSystem replaces the file system used for writes and listing.
// Reads always memory-map the real file.
func WithFileSystem(fsys fs.FileSystem) LocalOption {
	return func(s *LocalStore) {
		s.fs = fsys
	}
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string, optFns ...LocalOption) *LocalStore {
	s := &LocalStore{root: root, fs: fs.Default}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

func (s *LocalStore) path(name string) (string, error) {
	clean := path.Clean("/" + name)
	if name == "" || clean == "/" || strings.Contains(name, fs.TempSuffix) {
		return "", fmt.Errorf("blobstore: invalid blob name %q", name)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean[1:])), nil
}

// Open memory-maps a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Open(p)
	if err != nil {
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// Create starts writing a blob through a temporary file. Close publishes it;
// Abort removes it.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}

	tmp := fmt.Sprintf("%s%s%d-%d", p, fs.TempSuffix, os.Getpid(), localSeq.Add(1))
	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{
		fs:   s.fs,
		f:    f,
		w:    bufio.NewWriterSize(f, 256*1024),
		tmp:  tmp,
		path: p,
	}, nil
}

var localSeq atomic.Uint64

// Put writes a blob atomically.
func (s *LocalStore) Put(_ context.Context, name string, data []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return fs.WriteFileAtomic(s.fs, p, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List walks the root and returns the slash-separated names starting with
// prefix. In-progress writes are skipped.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	var walk func(dir, rel string) error
	walk = func(dir, rel string) error {
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		for _, e := range entries {
			name := e.Name()
			if rel != "" {
				name = rel + "/" + name
			}
			if e.IsDir() {
				// Only descend where the prefix can still match.
				if strings.HasPrefix(name+"/", prefix) || strings.HasPrefix(prefix, name+"/") {
					if err := walk(filepath.Join(dir, e.Name()), name); err != nil {
						return err
					}
				}
				continue
			}
			if strings.Contains(name, fs.TempSuffix) || !strings.HasPrefix(name, prefix) {
				continue
			}
			names = append(names, name)
		}
		return nil
	}
	if err := walk(s.root, ""); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return b.m.ReadAt(p, off)
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	size := int64(b.m.Size())
	if off >= size {
		return nil, io.EOF
	}
	r, err := b.m.Region(int(off), int(min(length, size-off)))
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(r.Bytes())), nil
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Size())
}

func (b *localBlob) Bytes() ([]byte, error) {
	data := b.m.Bytes()
	if data == nil && b.m.Size() > 0 {
		return nil, mmap.ErrClosed
	}
	return data, nil
}

type localWritableBlob struct {
	fs   fs.FileSystem
	f    fs.File
	w    *bufio.Writer
	tmp  string
	path string
	done bool
}

func (b *localWritableBlob) Write(p []byte) (int, error) {
	if b.done {
		return 0, os.ErrClosed
	}
	return b.w.Write(p)
}

func (b *localWritableBlob) Sync() error {
	if b.done {
		return os.ErrClosed
	}
	if err := b.w.Flush(); err != nil {
		return err
	}
	return b.f.Sync()
}

// Close flushes, syncs and renames the blob into place. On failure the
// temporary file is removed.
func (b *localWritableBlob) Close() error {
	if b.done {
		return nil
	}
	b.done = true

	err := b.w.Flush()
	if err == nil {
		err = b.f.Sync()
	}
	if cerr := b.f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = b.fs.Rename(b.tmp, b.path)
	}
	if err != nil {
		_ = b.fs.Remove(b.tmp)
	}
	return err
}

// Abort discards the partial blob.
func (b *localWritableBlob) Abort(context.Context) error {
	if b.done {
		return nil
	}
	b.done = true
	_ = b.f.Close()
	if err := b.fs.Remove(b.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
