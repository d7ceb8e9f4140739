package mmap

// Region is a view of part of a Mapping. It does not own the memory.
type Region struct {
	parent *Mapping
	offset int
	size   int
}

// Region returns a view of [offset, offset+size).
func (m *Mapping) Region(offset, size int) (*Region, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if offset < 0 || size < 0 || offset > len(m.data)-size {
		return nil, ErrOutOfBounds
	}
	return &Region{parent: m, offset: offset, size: size}, nil
}

// Bytes returns the region's bytes, or nil once the parent is closed.
func (r *Region) Bytes() []byte {
	if r.parent.closed.Load() {
		return nil
	}
	return r.parent.data[r.offset : r.offset+r.size]
}
