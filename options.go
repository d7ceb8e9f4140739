package fieldarray

import (
	"context"
	"log/slog"

	"github.com/hupe1980/fieldarray/internal/format"
	"github.com/hupe1980/fieldarray/internal/fs"
	"github.com/hupe1980/fieldarray/plane"
	"github.com/hupe1980/fieldarray/resource"
)

type options struct {
	planeKind plane.Kind
	logger    *Logger
}

// Option configures FieldArray construction.
type Option func(*options)

// WithPlaneKind selects the plane backend.
//
// plane.KindDense (the default) suits arrays populated from a dense key space.
// plane.KindSegmented only allocates 64 KiB-bit segments that contain a set
// bit, which keeps arrays with a few very high indices small.
func WithPlaneKind(kind plane.Kind) Option {
	return func(o *options) {
		o.planeKind = kind
	}
}

// WithLogger configures structured logging for snapshot and store operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := fieldarray.NewJSONLogger(slog.LevelInfo)
//	fa, _ := fieldarray.New(4, fieldarray.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		planeKind: plane.KindDense,
		logger:    NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}

type snapshotOptions struct {
	ctx         context.Context
	compression format.Compression
	controller  *resource.Controller
	concurrency int
	fs          fs.FileSystem
	logger      *Logger
	arrayOpts   []Option
	metrics     MetricsCollector
}

// SnapshotOption configures snapshot encoding and decoding.
type SnapshotOption func(*snapshotOptions)

// Compression selects how planes are compressed inside a snapshot.
type Compression = format.Compression

const (
	CompressionNone = format.CompressionNone
	CompressionLZ4  = format.CompressionLZ4
	CompressionZSTD = format.CompressionZSTD
)

// ParseCompression maps "none", "lz4" or "zstd" to a Compression.
func ParseCompression(s string) (Compression, error) {
	return format.ParseCompression(s)
}

// WithCompression compresses plane blocks with the given algorithm. A plane
// is only stored compressed when that saves at least 10%.
// Ignored on read: the snapshot header records the algorithm.
func WithCompression(c Compression) SnapshotOption {
	return func(o *snapshotOptions) {
		o.compression = c
	}
}

// WithResourceController throttles snapshot I/O, bounds encoder
// parallelism and accounts decoded plane buffers against a memory limit.
func WithResourceController(rc *resource.Controller) SnapshotOption {
	return func(o *snapshotOptions) {
		o.controller = rc
	}
}

// WithConcurrency sets how many planes are encoded in parallel.
// Values below 1 are treated as 1. A resource controller, if set,
// further bounds the number of active encoders.
func WithConcurrency(n int) SnapshotOption {
	return func(o *snapshotOptions) {
		o.concurrency = n
	}
}

// WithFileSystem replaces the file system used by the path-based snapshot
// functions. Intended for fault-injection tests.
func WithFileSystem(fsys fs.FileSystem) SnapshotOption {
	return func(o *snapshotOptions) {
		o.fs = fsys
	}
}

// WithSnapshotLogger logs snapshot operations. When unset, writes use the
// array's logger and reads stay silent.
func WithSnapshotLogger(logger *Logger) SnapshotOption {
	return func(o *snapshotOptions) {
		o.logger = logger
	}
}

// WithArrayOptions passes construction options (logger, ...) to the array
// produced by a snapshot read. The plane kind is taken from the snapshot.
func WithArrayOptions(opts ...Option) SnapshotOption {
	return func(o *snapshotOptions) {
		o.arrayOpts = append(o.arrayOpts, opts...)
	}
}

// WithMetrics reports every snapshot encode and decode to mc.
func WithMetrics(mc MetricsCollector) SnapshotOption {
	return func(o *snapshotOptions) {
		o.metrics = mc
	}
}

func withContext(ctx context.Context) SnapshotOption {
	return func(o *snapshotOptions) {
		o.ctx = ctx
	}
}

func applySnapshotOptions(optFns []SnapshotOption) snapshotOptions {
	o := snapshotOptions{
		ctx:         context.Background(),
		compression: CompressionNone,
		concurrency: 1,
		fs:          fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	if o.fs == nil {
		o.fs = fs.Default
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}
	return o
}
