package plane

import (
	"encoding"
	"fmt"
)

// Kind identifies a plane backend. It is persisted in snapshots, so values
// must never be renumbered.
type Kind uint8

const (
	// KindDense is a contiguous growable bitset (github.com/bits-and-blooms/bitset).
	KindDense Kind = 1
	// KindSegmented allocates fixed 65536-bit segments on first write.
	KindSegmented Kind = 2
)

// MaxLen bounds the logical length of a decoded plane: the int32 index space.
const MaxLen = 1 << 31

// String returns the backend name.
func (k Kind) String() string {
	switch k {
	case KindDense:
		return "dense"
	case KindSegmented:
		return "segmented"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps a backend name back to its Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "dense":
		return KindDense, nil
	case "segmented":
		return KindSegmented, nil
	default:
		return 0, fmt.Errorf("plane: unknown kind %q", s)
	}
}

// Valid reports whether k names a known backend.
func (k Kind) Valid() bool {
	return k == KindDense || k == KindSegmented
}

// Plane is a growable bit-vector holding one bit of significance for every
// slot of a field array.
//
// Indices are non-negative; callers validate them. Scan methods return -1
// when no matching index exists, except NextClear which always succeeds
// because every bit past the logical length is clear.
type Plane interface {
	// Test reports whether bit i is set.
	Test(i int) bool
	// Set sets bit i, growing the plane if needed.
	Set(i int)
	// Clear clears bit i. Clearing past the end is a no-op.
	Clear(i int)
	// Range returns a new plane holding bits [from, to) re-based to index 0.
	Range(from, to int) Plane
	// Count returns the number of set bits.
	Count() int
	// Len returns one plus the highest set bit, or 0 for an empty plane.
	Len() int
	// Cap returns the number of bits currently allocated.
	Cap() int
	// NextSet returns the first set bit >= i, or -1.
	NextSet(i int) int
	// NextClear returns the first clear bit >= i.
	NextClear(i int) int
	// PreviousSet returns the last set bit <= i, or -1.
	PreviousSet(i int) int
	// PreviousClear returns the last clear bit <= i, or -1.
	PreviousClear(i int) int
	// Equal reports whether both planes hold the same set bits.
	Equal(other Plane) bool
	// Hash returns a content hash consistent with Equal.
	Hash() uint32
	// Clone returns an independent deep copy.
	Clone() Plane
	// Kind returns the backend identifier.
	Kind() Kind

	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// New returns an empty plane of the given kind.
func New(kind Kind) (Plane, error) {
	switch kind {
	case KindDense:
		return NewDense(), nil
	case KindSegmented:
		return NewSegmented(), nil
	default:
		return nil, fmt.Errorf("plane: unknown kind %d", uint8(kind))
	}
}

// Equal compares two planes by content, independent of backend and capacity.
func Equal(a, b Plane) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Count() != b.Count() {
		return false
	}
	for i := a.NextSet(0); i >= 0; i = a.NextSet(i + 1) {
		if !b.Test(i) {
			return false
		}
	}
	return true
}

// HashWords folds 64-bit words into a 32-bit hash. Zero words do not
// contribute, so trailing capacity never changes the result.
func HashWords(h uint64, base int, words []uint64) uint64 {
	for i, w := range words {
		if w != 0 {
			h ^= w * uint64(base+i+1)
		}
	}
	return h
}

// hashSeed is the initial accumulator value for HashWords.
const hashSeed = 1234

func foldHash(h uint64) uint32 {
	return uint32((h >> 32) ^ h)
}
