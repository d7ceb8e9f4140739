package fieldarray

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with fieldarray-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithFieldWidth adds a field_width field to the logger.
func (l *Logger) WithFieldWidth(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("field_width", k),
	}
}

// WithName adds a blob name field to the logger.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("name", name),
	}
}

// LogSnapshotWrite logs a snapshot encode.
func (l *Logger) LogSnapshotWrite(ctx context.Context, fieldWidth int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot write failed",
			"field_width", fieldWidth,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "snapshot written",
			"field_width", fieldWidth,
			"bytes", bytes,
		)
	}
}

// LogSnapshotRead logs a snapshot decode. fieldWidth is 0 when the header
// could not be read.
func (l *Logger) LogSnapshotRead(ctx context.Context, fieldWidth int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot read failed",
			"field_width", fieldWidth,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "snapshot read",
			"field_width", fieldWidth,
			"bytes", bytes,
		)
	}
}

// LogSnapshotPath logs a path-based snapshot operation.
func (l *Logger) LogSnapshotPath(ctx context.Context, op, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot "+op+" failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot "+op+" completed",
			"path", path,
		)
	}
}

// LogSave logs a snapshot upload to a blob store.
func (l *Logger) LogSave(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"name", name,
		)
	}
}

// LogLoad logs a snapshot download from a blob store.
func (l *Logger) LogLoad(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot loaded",
			"name", name,
		)
	}
}

// LogPublish logs a catalog publish.
func (l *Logger) LogPublish(ctx context.Context, name string, version uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed",
			"name", name,
			"version", version,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "version published",
			"name", name,
			"version", version,
		)
	}
}
