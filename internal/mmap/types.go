package mmap

import "errors"

// AccessPattern provides hints to the kernel about how the data will be accessed.
type AccessPattern int

const (
	// AccessDefault is the default access pattern (no specific advice).
	AccessDefault AccessPattern = iota
	// AccessSequential suits a single front-to-back pass such as a snapshot decode.
	AccessSequential
	// AccessRandom suits scattered ReadAt calls.
	AccessRandom
	// AccessWillNeed asks the kernel to prefetch.
	AccessWillNeed
)

var (
	// ErrClosed is returned when attempting to access a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned when the file size is negative or does not fit an int.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrOutOfBounds is returned when a region extends past the mapping.
	ErrOutOfBounds = errors.New("mmap: out of bounds")
	// ErrInvalidOffset is returned for negative offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
