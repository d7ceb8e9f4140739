package format

import (
	"fmt"
	"hash"
	"io"

	vhash "github.com/hupe1980/fieldarray/internal/hash"
)

// ChecksumWriter wraps an io.Writer and computes a running CRC32C checksum.
type ChecksumWriter struct {
	w       io.Writer
	hash    hash.Hash32
	written int64
}

// NewChecksumWriter creates a new checksumming writer.
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{
		w:    w,
		hash: vhash.NewCRC32C(),
	}
}

// Write implements io.Writer. Only bytes accepted by the underlying writer
// are folded into the checksum.
func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 {
		_, _ = cw.hash.Write(p[:n])
		cw.written += int64(n)
	}
	return n, err
}

// Sum returns the current checksum value.
func (cw *ChecksumWriter) Sum() uint32 {
	return cw.hash.Sum32()
}

// Written returns the number of bytes written so far.
func (cw *ChecksumWriter) Written() int64 {
	return cw.written
}

// ChecksumReader wraps an io.Reader and computes a running CRC32C checksum.
type ChecksumReader struct {
	r    io.Reader
	hash hash.Hash32
	read int64
}

// NewChecksumReader creates a new checksumming reader.
func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{
		r:    r,
		hash: vhash.NewCRC32C(),
	}
}

// Read implements io.Reader.
func (cr *ChecksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		_, _ = cr.hash.Write(p[:n])
		cr.read += int64(n)
	}
	return n, err
}

// Sum returns the current checksum value.
func (cr *ChecksumReader) Sum() uint32 {
	return cr.hash.Sum32()
}

// BytesRead returns the number of bytes consumed so far.
func (cr *ChecksumReader) BytesRead() int64 {
	return cr.read
}

// Verify checks if the computed checksum matches the expected value.
func (cr *ChecksumReader) Verify(expected uint32) error {
	actual := cr.Sum()
	if actual != expected {
		return &ChecksumMismatchError{
			Expected: expected,
			Actual:   actual,
		}
	}
	return nil
}

// ChecksumMismatchError is returned when checksum verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}
