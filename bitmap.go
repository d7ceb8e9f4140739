package fieldarray

import (
	"iter"
	"math/bits"

	"github.com/RoaringBitmap/roaring/v2"
)

// All iterates the non-zero slots in index order, yielding index and value.
// The array must not be mutated during iteration.
func (fa *FieldArray) All() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for i := fa.nextSet(0); i >= 0; i = fa.nextSet(i + 1) {
			if !yield(i, fa.read(i)) {
				return
			}
		}
	}
}

// Match returns the indices in [0, Length()) whose value equals value.
// Matching 0 yields the clear slots below Length().
func (fa *FieldArray) Match(value int) (*roaring.Bitmap, error) {
	if err := fa.checkValue(value); err != nil {
		return nil, err
	}

	bm := roaring.New()
	if value == 0 {
		length := fa.Length()
		for i := fa.nextClear(0); i < length; {
			end := fa.nextSet(i)
			if end < 0 {
				end = length
			}
			bm.AddRange(uint64(i), uint64(end))
			i = fa.nextClear(end)
		}
		return bm, nil
	}

	// Every match has a 1 in the plane of value's highest set bit, so only
	// that plane's set bits need decoding.
	p := fa.planes[fa.width-bits.Len(uint(value))]
	for i := p.NextSet(0); i >= 0; i = p.NextSet(i + 1) {
		if fa.read(i) == value {
			bm.Add(uint32(i))
		}
	}
	return bm, nil
}

// Assign stores value at every index in bm. The value and the largest index
// are validated before the first write.
func (fa *FieldArray) Assign(value int, bm *roaring.Bitmap) error {
	if err := fa.checkValue(value); err != nil {
		return err
	}
	if bm == nil || bm.IsEmpty() {
		return nil
	}
	if err := checkIndex("assign", int(bm.Maximum())); err != nil {
		return err
	}

	var buf [MaxFieldWidth]bool
	planeBits := fa.decompose(value, buf[:fa.width])
	it := bm.Iterator()
	for it.HasNext() {
		fa.write(int(it.Next()), planeBits)
	}
	return nil
}

// Histogram counts how many slots in [0, Length()) hold each value. Values
// that do not occur are absent from the map.
func (fa *FieldArray) Histogram() map[int]int {
	hist := make(map[int]int)
	nonZero := 0
	for _, v := range fa.All() {
		hist[v]++
		nonZero++
	}
	if zeros := fa.Length() - nonZero; zeros > 0 {
		hist[0] = zeros
	}
	return hist
}
