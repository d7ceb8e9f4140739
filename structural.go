package fieldarray

// Equal reports whether other has the same field width and every plane holds
// the same bits. Allocated capacity and plane backend do not matter.
func (fa *FieldArray) Equal(other *FieldArray) bool {
	if fa == other {
		return true
	}
	if fa == nil || other == nil || fa.width != other.width {
		return false
	}
	for i, p := range fa.planes {
		if !p.Equal(other.planes[i]) {
			return false
		}
	}
	return true
}

// Hash returns a content hash consistent with Equal: plane hashes are summed
// in 64 bits and the halves folded together.
func (fa *FieldArray) Hash() uint32 {
	var h uint64
	for _, p := range fa.planes {
		h += uint64(p.Hash())
	}
	return uint32((h >> 32) ^ h)
}
