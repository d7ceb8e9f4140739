package fieldarray

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/fieldarray/internal/format"
	"github.com/hupe1980/fieldarray/internal/fs"
	"github.com/hupe1980/fieldarray/internal/mmap"
	"github.com/hupe1980/fieldarray/plane"
	"github.com/hupe1980/fieldarray/resource"
)

// WriteSnapshot serializes the field width and every plane to w.
//
// The blob is self-describing: a fixed header, one framed block per plane in
// plane order (most significant first) and a CRC32C trailer. Any failure of w
// is reported as ErrIOFailure.
func (fa *FieldArray) WriteSnapshot(w io.Writer, optFns ...SnapshotOption) error {
	o := applySnapshotOptions(optFns)
	logger := o.logger
	if logger == nil {
		logger = fa.logger
	}

	n, err := fa.writeSnapshot(w, o)
	logger.LogSnapshotWrite(o.ctx, fa.width, n, err)
	return err
}

func (fa *FieldArray) writeSnapshot(w io.Writer, o snapshotOptions) (int64, error) {
	start := time.Now()
	n, err := fa.encodeSnapshot(w, o)
	o.metrics.RecordSnapshotWrite(n, time.Since(start), err)
	return n, err
}

func (fa *FieldArray) encodeSnapshot(w io.Writer, o snapshotOptions) (int64, error) {
	const op = "write snapshot"

	if w == nil {
		return 0, ioFailure(op, errors.New("nil writer"))
	}
	if !o.compression.Valid() {
		return 0, fmt.Errorf("%w: compression %s", ErrInvalidArgument, o.compression)
	}

	blocks, err := fa.encodePlanes(o)
	if err != nil {
		return 0, err
	}

	if o.controller != nil {
		w = resource.NewRateLimitedWriter(o.ctx, w, o.controller)
	}
	cw := format.NewChecksumWriter(w)

	hdr := format.NewHeader(fa.width, uint8(fa.kind), o.compression)
	hdrBytes, err := hdr.MarshalBinary()
	if err != nil {
		return 0, ioFailure(op, err)
	}
	if _, err := cw.Write(hdrBytes); err != nil {
		return cw.Written(), ioFailure(op, err)
	}
	for i, block := range blocks {
		if _, err := cw.Write(block); err != nil {
			return cw.Written(), ioFailure(op, fmt.Errorf("plane %d: %w", i, err))
		}
	}

	var trailer [format.TrailerSize]byte
	binary.LittleEndian.PutUint32(trailer[:], cw.Sum())
	if _, err := w.Write(trailer[:]); err != nil {
		return cw.Written(), ioFailure(op, err)
	}
	return cw.Written() + format.TrailerSize, nil
}

// encodePlanes marshals and frames every plane. Planes are only read, so
// they can be encoded concurrently.
func (fa *FieldArray) encodePlanes(o snapshotOptions) ([][]byte, error) {
	blocks := make([][]byte, len(fa.planes))

	workers := min(o.concurrency, len(fa.planes))
	if o.controller != nil {
		workers = min(workers, o.controller.Workers())
	}

	g, ctx := errgroup.WithContext(o.ctx)
	g.SetLimit(max(workers, 1))
	for i, p := range fa.planes {
		g.Go(func() error {
			if err := o.controller.AcquireWorker(ctx); err != nil {
				return err
			}
			defer o.controller.ReleaseWorker()

			raw, err := p.MarshalBinary()
			if err != nil {
				return fmt.Errorf("marshal plane %d: %w", i, err)
			}
			block, err := format.EncodeBlock(raw, o.compression)
			if err != nil {
				return fmt.Errorf("encode plane %d: %w", i, err)
			}
			blocks[i] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, ioFailure("write snapshot", err)
	}
	return blocks, nil
}

// WriteSnapshotToPath writes a snapshot to path through a temporary file that
// is synced and renamed into place. The file is released on every exit path.
// An empty or unwritable path is reported as ErrIOFailure.
func (fa *FieldArray) WriteSnapshotToPath(path string, optFns ...SnapshotOption) error {
	const op = "write snapshot to path"

	o := applySnapshotOptions(optFns)
	logger := o.logger
	if logger == nil {
		logger = fa.logger
	}

	var err error
	if path == "" {
		err = ioFailure(op, errors.New("empty path"))
	} else {
		err = fs.WriteFileAtomic(o.fs, path, func(w io.Writer) error {
			_, werr := fa.writeSnapshot(w, o)
			return werr
		})
		if err != nil {
			var se *SnapshotError
			if !errors.As(err, &se) && !errors.Is(err, ErrInvalidArgument) {
				err = ioFailure(op, err)
			}
		}
	}

	logger.LogSnapshotPath(o.ctx, "write", path, err)
	return err
}

// ReadSnapshot decodes exactly one snapshot from r and returns a new,
// independent array. Bytes following the snapshot are left unread, so
// snapshots can be concatenated on one stream.
//
// It returns (nil, io.EOF) when r is exhausted before the first byte. Corrupt
// or truncated data is reported as ErrMalformedSnapshot and failures of r as
// ErrIOFailure.
func ReadSnapshot(r io.Reader, optFns ...SnapshotOption) (*FieldArray, error) {
	o := applySnapshotOptions(optFns)
	logger := o.logger
	if logger == nil {
		logger = NoopLogger()
	}

	fa, n, err := readSnapshot(r, o)
	if err == io.EOF {
		return nil, io.EOF
	}

	width := 0
	if fa != nil {
		width = fa.width
	}
	logger.LogSnapshotRead(o.ctx, width, n, err)
	return fa, err
}

// sourceReader remembers the first non-EOF error of the wrapped reader, which
// separates an unusable source from malformed bytes.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF && s.err == nil {
		s.err = err
	}
	return n, err
}

func readSnapshot(r io.Reader, o snapshotOptions) (*FieldArray, int64, error) {
	start := time.Now()
	fa, n, err := decodeSnapshot(r, o)
	if err != io.EOF {
		o.metrics.RecordSnapshotRead(n, time.Since(start), err)
	}
	return fa, n, err
}

func decodeSnapshot(r io.Reader, o snapshotOptions) (*FieldArray, int64, error) {
	const op = "read snapshot"

	if r == nil {
		return nil, 0, ioFailure(op, errors.New("nil reader"))
	}
	if o.controller != nil {
		r = resource.NewRateLimitedReader(o.ctx, r, o.controller)
	}
	src := &sourceReader{r: r}
	cr := format.NewChecksumReader(src)

	fail := func(err error) (*FieldArray, int64, error) {
		switch {
		case src.err != nil:
			return nil, cr.BytesRead(), ioFailure(op, src.err)
		case errors.Is(err, resource.ErrMemoryLimit):
			return nil, cr.BytesRead(), ioFailure(op, err)
		default:
			return nil, cr.BytesRead(), translateReadError(op, err)
		}
	}

	var hdrBytes [format.HeaderSize]byte
	if _, err := io.ReadFull(cr, hdrBytes[:]); err != nil {
		if err == io.EOF && src.err == nil {
			return nil, 0, io.EOF
		}
		return fail(err)
	}
	var hdr format.Header
	if err := hdr.UnmarshalBinary(hdrBytes[:]); err != nil {
		return fail(err)
	}
	kind := plane.Kind(hdr.PlaneKind)
	if !kind.Valid() {
		return fail(fmt.Errorf("%w: plane kind %d", format.ErrInvalidHeader, hdr.PlaneKind))
	}

	var reserved int64
	defer func() { o.controller.ReleaseMemory(reserved) }()
	reserve := func(n int64) error {
		if err := o.controller.ReserveMemory(n); err != nil {
			return err
		}
		reserved += n
		return nil
	}

	width := int(hdr.FieldWidth)
	planes := make([]plane.Plane, width)
	for i := range planes {
		raw, err := format.ReadBlock(cr, hdr.Compression, reserve)
		if err != nil {
			return fail(fmt.Errorf("plane %d: %w", i, err))
		}
		p, err := plane.New(kind)
		if err != nil {
			return fail(err)
		}
		if err := p.UnmarshalBinary(raw); err != nil {
			return fail(malformed(op, fmt.Errorf("plane %d: %w", i, err)))
		}
		if p.Len() > MaxIndex+1 {
			return fail(malformed(op, fmt.Errorf("plane %d: length %d exceeds max index", i, p.Len())))
		}
		planes[i] = p
	}

	var trailer [format.TrailerSize]byte
	if _, err := io.ReadFull(src, trailer[:]); err != nil {
		return fail(err)
	}
	n := cr.BytesRead() + format.TrailerSize
	if err := cr.Verify(binary.LittleEndian.Uint32(trailer[:])); err != nil {
		return nil, n, translateReadError(op, err)
	}

	opts := applyOptions(o.arrayOpts)
	opts.planeKind = kind
	return newWithPlanes(width, opts, planes), n, nil
}

// ReadSnapshotFromPath memory-maps path and decodes the snapshot it holds.
// Trailing bytes after the first snapshot are ignored. An empty file yields
// (nil, io.EOF).
func ReadSnapshotFromPath(path string, optFns ...SnapshotOption) (*FieldArray, error) {
	o := applySnapshotOptions(optFns)
	logger := o.logger
	if logger == nil {
		logger = NoopLogger()
	}

	fa, err := readSnapshotFromPath(path, o)
	if err != io.EOF {
		logger.LogSnapshotPath(o.ctx, "read", path, err)
	}
	return fa, err
}

func readSnapshotFromPath(path string, o snapshotOptions) (*FieldArray, error) {
	const op = "read snapshot from path"

	if path == "" {
		return nil, ioFailure(op, errors.New("empty path"))
	}
	m, err := mmap.Open(path)
	if err != nil {
		return nil, ioFailure(op, err)
	}
	defer m.Close()

	_ = m.Advise(mmap.AccessSequential)
	r, err := m.Reader()
	if err != nil {
		return nil, ioFailure(op, err)
	}

	fa, _, err := readSnapshot(r, o)
	return fa, err
}
