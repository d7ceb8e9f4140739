package plane

import (
	"errors"

	"github.com/bits-and-blooms/bitset"
)

var errDenseFormat = errors.New("plane: malformed dense encoding")

// denseHeaderSize is the bitset length prefix of the binary form.
const denseHeaderSize = 8

// Dense is a Plane backed by a contiguous word slice.
type Dense struct {
	bs *bitset.BitSet
}

// NewDense creates an empty dense plane.
func NewDense() *Dense {
	return &Dense{bs: bitset.New(0)}
}

// NewDenseFrom wraps an existing bitset without copying it.
func NewDenseFrom(bs *bitset.BitSet) *Dense {
	if bs == nil {
		bs = bitset.New(0)
	}
	return &Dense{bs: bs}
}

func (d *Dense) Kind() Kind { return KindDense }

func (d *Dense) Test(i int) bool {
	return d.bs.Test(uint(i))
}

func (d *Dense) Set(i int) {
	d.bs.Set(uint(i))
}

func (d *Dense) Clear(i int) {
	d.bs.Clear(uint(i))
}

func (d *Dense) Range(from, to int) Plane {
	out := bitset.New(0)
	if to > from {
		for i, ok := d.bs.NextSet(uint(from)); ok && i < uint(to); i, ok = d.bs.NextSet(i + 1) {
			out.Set(i - uint(from))
		}
	}
	return NewDenseFrom(out)
}

func (d *Dense) Count() int {
	return int(d.bs.Count())
}

// Len returns the logical length. bitset.Len reports the extent ever written,
// which may end in cleared bits, so the last set bit is looked up instead.
func (d *Dense) Len() int {
	n := d.bs.Len()
	if n == 0 {
		return 0
	}
	last, ok := d.bs.PreviousSet(n - 1)
	if !ok {
		return 0
	}
	return int(last) + 1
}

func (d *Dense) Cap() int {
	return len(d.bs.Words()) * 64
}

func (d *Dense) NextSet(i int) int {
	next, ok := d.bs.NextSet(uint(i))
	if !ok {
		return -1
	}
	return int(next)
}

func (d *Dense) NextClear(i int) int {
	next, ok := d.bs.NextClear(uint(i))
	if ok {
		return int(next)
	}
	// Every bit at or past the extent is clear.
	return max(i, int(d.bs.Len()))
}

func (d *Dense) PreviousSet(i int) int {
	if i < 0 {
		return -1
	}
	n := d.bs.Len()
	if n == 0 {
		return -1
	}
	from := uint(i)
	if from >= n {
		from = n - 1
	}
	prev, ok := d.bs.PreviousSet(from)
	if !ok {
		return -1
	}
	return int(prev)
}

func (d *Dense) PreviousClear(i int) int {
	if i < 0 {
		return -1
	}
	if uint(i) >= d.bs.Len() {
		return i
	}
	prev, ok := d.bs.PreviousClear(uint(i))
	if !ok {
		return -1
	}
	return int(prev)
}

func (d *Dense) Equal(other Plane) bool {
	if o, ok := other.(*Dense); ok {
		return d.bs.SymmetricDifferenceCardinality(o.bs) == 0
	}
	return Equal(d, other)
}

func (d *Dense) Hash() uint32 {
	return foldHash(HashWords(hashSeed, 0, d.bs.Words()))
}

func (d *Dense) Clone() Plane {
	return NewDenseFrom(d.bs.Clone())
}

// MarshalBinary encodes the plane in the bitset library's binary format.
func (d *Dense) MarshalBinary() ([]byte, error) {
	return d.bs.MarshalBinary()
}

// UnmarshalBinary replaces the plane contents. The length prefix is checked
// against MaxLen and the payload size before anything is allocated.
func (d *Dense) UnmarshalBinary(data []byte) error {
	if len(data) < denseHeaderSize {
		return errDenseFormat
	}
	length := bitset.BinaryOrder().Uint64(data)
	if length > MaxLen {
		return errDenseFormat
	}
	words := (length + 63) / 64
	if uint64(len(data)-denseHeaderSize) != words*8 {
		return errDenseFormat
	}

	bs := bitset.New(0)
	if err := bs.UnmarshalBinary(data); err != nil {
		return err
	}
	d.bs = bs
	return nil
}
