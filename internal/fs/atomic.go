package fs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
)

var tmpSeq atomic.Uint64

// TempSuffix marks in-progress files. Readers listing a directory skip names
// containing it.
const TempSuffix = ".tmp-"

// WriteFileAtomic writes path through a temporary sibling that is synced and
// renamed into place, so readers never observe a partial file. The temporary
// file is closed and removed on every failure path.
func WriteFileAtomic(fsys FileSystem, path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmpName := fmt.Sprintf("%s%s%d-%d", path, TempSuffix, os.Getpid(), tmpSeq.Add(1))

	tmp, err := fsys.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if err != nil {
			_ = fsys.Remove(tmpName)
		}
	}()

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err = write(buf); err != nil {
		return err
	}
	if err = buf.Flush(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = fsys.Rename(tmpName, path); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, derr := fsys.OpenFile(dir, os.O_RDONLY, 0); derr == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
