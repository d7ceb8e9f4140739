package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/fieldarray/blobstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
	name TEXT PRIMARY KEY,
	data BLOB NOT NULL
) WITHOUT ROWID;
`

// Store keeps blobs as rows of a single SQLite table. Reads load the whole
// blob, which suits snapshot files that are decoded into memory anyway.
type Store struct {
	db *sql.DB
}

var _ blobstore.ConditionalStore = (*Store)(nil)

// Open creates or opens the database at path. Use ":memory:" for a private
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// shared by every call.
	db.SetMaxOpenConns(1)

	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database handle and creates the schema if needed.
func New(db *sql.DB) (*Store, error) {
	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Open loads a blob.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM blobs WHERE name = ?", name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, blobstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sqliteBlob{r: bytes.NewReader(data), data: data}, nil
}

// Create buffers writes and stores the row on Close.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if name == "" {
		return nil, errors.New("sqlite: empty blob name")
	}
	return &sqliteWritableBlob{ctx: ctx, store: s, name: name}, nil
}

// Put inserts or replaces a blob.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO blobs (name, data) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET data = excluded.data",
		name, data)
	return err
}

// PutIfNotExists inserts a blob unless the name is taken.
func (s *Store) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO blobs (name, data) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		name, data)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return blobstore.ErrExists
	}
	return nil
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE name = ?", name)
	return err
}

// List returns the names starting with prefix in byte order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM blobs WHERE name >= ? ORDER BY name", prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(name, prefix) {
			break
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

type sqliteBlob struct {
	r    *bytes.Reader
	data []byte
}

func (b *sqliteBlob) Close() error {
	return nil
}

func (b *sqliteBlob) Size() int64 {
	return b.r.Size()
}

func (b *sqliteBlob) Bytes() ([]byte, error) {
	return b.data, nil
}

func (b *sqliteBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return b.r.ReadAt(p, off)
}

func (b *sqliteBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= b.r.Size() {
		return nil, io.EOF
	}
	return io.NopCloser(io.NewSectionReader(b.r, off, length)), nil
}

type sqliteWritableBlob struct {
	ctx   context.Context
	store *Store
	name  string
	buf   bytes.Buffer
	done  bool
}

func (w *sqliteWritableBlob) Write(p []byte) (int, error) {
	if w.done {
		return 0, io.ErrClosedPipe
	}
	return w.buf.Write(p)
}

func (w *sqliteWritableBlob) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.store.Put(w.ctx, w.name, w.buf.Bytes())
}

func (w *sqliteWritableBlob) Abort(context.Context) error {
	w.done = true
	w.buf.Reset()
	return nil
}

func (w *sqliteWritableBlob) Sync() error {
	return nil
}
