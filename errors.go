package fieldarray

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/fieldarray/internal/format"
)

var (
	// ErrIndexOutOfRange is returned for negative indices, indices above
	// MaxIndex, and ranges whose upper bound is below the lower bound.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidArgument is returned for values outside [0, DomainSize) and for
	// field widths outside [1, MaxFieldWidth].
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIOFailure is returned when a snapshot sink or source cannot be used.
	ErrIOFailure = errors.New("snapshot i/o failure")

	// ErrMalformedSnapshot is returned when snapshot bytes do not decode to a
	// valid field array.
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrChecksumMismatch refines ErrMalformedSnapshot when the trailer does
	// not match the decoded bytes.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// IndexError reports an index or index range that failed validation.
//
// errors.Is(err, ErrIndexOutOfRange) holds for every IndexError.
type IndexError struct {
	Op    string
	Index int
	// To is set for range operations.
	To      int
	IsRange bool
}

func (e *IndexError) Error() string {
	if e.IsRange {
		return fmt.Sprintf("%s: invalid range [%d, %d]: %s", e.Op, e.Index, e.To, ErrIndexOutOfRange)
	}
	return fmt.Sprintf("%s: index %d: %s", e.Op, e.Index, ErrIndexOutOfRange)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// ValueError reports a field value outside the array's domain.
//
// errors.Is(err, ErrInvalidArgument) holds for every ValueError.
type ValueError struct {
	Value      int
	DomainSize int
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("value %d outside domain [0, %d): %s", e.Value, e.DomainSize, ErrInvalidArgument)
}

func (e *ValueError) Unwrap() error { return ErrInvalidArgument }

// SnapshotError describes a failed snapshot read or write.
//
// errors.Is matches both the category sentinel (ErrIOFailure or
// ErrMalformedSnapshot) and the underlying cause, if any.
type SnapshotError struct {
	Op    string
	Kind  error
	cause error
}

func (e *SnapshotError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.cause)
}

func (e *SnapshotError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.cause}
}

func ioFailure(op string, cause error) error {
	return &SnapshotError{Op: op, Kind: ErrIOFailure, cause: cause}
}

func malformed(op string, cause error) error {
	return &SnapshotError{Op: op, Kind: ErrMalformedSnapshot, cause: cause}
}

// translateReadError classifies a decode failure on a healthy source. Source
// failures are reported by the caller as ErrIOFailure before getting here, so
// whatever remains is a problem with the bytes themselves.
func translateReadError(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *SnapshotError
	if errors.As(err, &se) {
		return err
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return malformed(op, fmt.Errorf("truncated: %w", err))
	}
	var cm *format.ChecksumMismatchError
	if errors.As(err, &cm) {
		return malformed(op, fmt.Errorf("%w: %w", ErrChecksumMismatch, err))
	}

	return malformed(op, err)
}
