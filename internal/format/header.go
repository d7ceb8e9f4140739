package format

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies field array snapshots (ASCII: "FAR1").
	MagicNumber = 0x46415231
	// Version is the current snapshot format version (v1.0.0).
	Version = 0x00010000

	// HeaderSize is the fixed size of the encoded Header.
	HeaderSize = 32
	// TrailerSize is the size of the CRC32C trailer.
	TrailerSize = 4

	// MaxFieldWidth keeps every value representable as a non-negative int32.
	MaxFieldWidth = 31
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrInvalidHeader  = errors.New("invalid header")
)

// Header is the 32-byte header at the start of every snapshot.
//
//	off  size  field
//	0    4     Magic
//	4    4     Version
//	8    4     FieldWidth
//	12   4     DomainSize (2^FieldWidth)
//	16   1     PlaneKind
//	17   1     Compression
//	18   2     Flags (reserved, zero)
//	20   4     PlaneCount (== FieldWidth)
//	24   8     Reserved
type Header struct {
	Magic       uint32
	Version     uint32
	FieldWidth  uint32
	DomainSize  uint32
	PlaneKind   uint8
	Compression Compression
	Flags       uint16
	PlaneCount  uint32
}

// NewHeader returns a header for an array of the given width.
func NewHeader(fieldWidth int, planeKind uint8, c Compression) Header {
	return Header{
		Magic:       MagicNumber,
		Version:     Version,
		FieldWidth:  uint32(fieldWidth),
		DomainSize:  uint32(1) << uint(fieldWidth),
		PlaneKind:   planeKind,
		Compression: c,
		PlaneCount:  uint32(fieldWidth),
	}
}

// MarshalBinary encodes the header in little-endian order.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.Version)
	binary.LittleEndian.PutUint32(buf[8:], h.FieldWidth)
	binary.LittleEndian.PutUint32(buf[12:], h.DomainSize)
	buf[16] = h.PlaneKind
	buf[17] = uint8(h.Compression)
	binary.LittleEndian.PutUint16(buf[18:], h.Flags)
	binary.LittleEndian.PutUint32(buf[20:], h.PlaneCount)
	return buf, nil
}

// UnmarshalBinary decodes and validates a header.
func (h *Header) UnmarshalBinary(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: short header (%d bytes)", ErrInvalidHeader, len(buf))
	}
	h.Magic = binary.LittleEndian.Uint32(buf[0:])
	h.Version = binary.LittleEndian.Uint32(buf[4:])
	h.FieldWidth = binary.LittleEndian.Uint32(buf[8:])
	h.DomainSize = binary.LittleEndian.Uint32(buf[12:])
	h.PlaneKind = buf[16]
	h.Compression = Compression(buf[17])
	h.Flags = binary.LittleEndian.Uint16(buf[18:])
	h.PlaneCount = binary.LittleEndian.Uint32(buf[20:])
	return h.Validate()
}

// Validate checks the header for internal consistency. Plane kinds are
// checked by the caller, which owns the kind registry.
func (h *Header) Validate() error {
	if h.Magic != MagicNumber {
		return fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("%w: 0x%08x", ErrInvalidVersion, h.Version)
	}
	if h.FieldWidth == 0 || h.FieldWidth > MaxFieldWidth {
		return fmt.Errorf("%w: field width %d", ErrInvalidHeader, h.FieldWidth)
	}
	if h.DomainSize != uint32(1)<<h.FieldWidth {
		return fmt.Errorf("%w: domain size %d does not match field width %d", ErrInvalidHeader, h.DomainSize, h.FieldWidth)
	}
	if h.PlaneCount != h.FieldWidth {
		return fmt.Errorf("%w: %d planes for field width %d", ErrInvalidHeader, h.PlaneCount, h.FieldWidth)
	}
	if !h.Compression.Valid() {
		return fmt.Errorf("%w: compression %d", ErrInvalidHeader, h.Compression)
	}
	if h.Flags != 0 {
		return fmt.Errorf("%w: unknown flags 0x%04x", ErrInvalidHeader, h.Flags)
	}
	return nil
}
