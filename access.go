package fieldarray

import "github.com/hupe1980/fieldarray/plane"

// Set stores value at index.
func (fa *FieldArray) Set(index, value int) error {
	if err := checkIndex("set", index); err != nil {
		return err
	}
	if err := fa.checkValue(value); err != nil {
		return err
	}

	var buf [MaxFieldWidth]bool
	fa.write(index, fa.decompose(value, buf[:fa.width]))
	return nil
}

// SetRange stores value at every index in the inclusive range [from, to].
// Arguments are validated before the first write.
func (fa *FieldArray) SetRange(from, to, value int) error {
	if err := checkRange("set range", from, to); err != nil {
		return err
	}
	if err := fa.checkValue(value); err != nil {
		return err
	}

	var buf [MaxFieldWidth]bool
	bits := fa.decompose(value, buf[:fa.width])
	for i := from; i <= to; i++ {
		fa.write(i, bits)
	}
	return nil
}

// SetIndices stores value at each of indices, in any order. Every index and
// the value are validated before the first write. An empty list is a no-op.
func (fa *FieldArray) SetIndices(value int, indices ...int) error {
	if err := fa.checkValue(value); err != nil {
		return err
	}
	for _, i := range indices {
		if err := checkIndex("set indices", i); err != nil {
			return err
		}
	}

	var buf [MaxFieldWidth]bool
	bits := fa.decompose(value, buf[:fa.width])
	for _, i := range indices {
		fa.write(i, bits)
	}
	return nil
}

// Clear resets the slot at index to 0.
func (fa *FieldArray) Clear(index int) error {
	return fa.Set(index, 0)
}

// ClearRange resets every slot in the inclusive range [from, to] to 0.
func (fa *FieldArray) ClearRange(from, to int) error {
	return fa.SetRange(from, to, 0)
}

// ClearIndices resets each of indices to 0.
func (fa *FieldArray) ClearIndices(indices ...int) error {
	return fa.SetIndices(0, indices...)
}

// Get returns the value at index. Slots never written read as 0.
func (fa *FieldArray) Get(index int) (int, error) {
	if err := checkIndex("get", index); err != nil {
		return 0, err
	}
	return fa.read(index), nil
}

// GetRange returns a new array of the same width holding the slots of the
// half-open range [from, to), re-based so that slot from becomes slot 0.
//
// Note the convention differs from SetRange, whose upper bound is inclusive.
func (fa *FieldArray) GetRange(from, to int) (*FieldArray, error) {
	if err := checkRange("get range", from, to); err != nil {
		return nil, err
	}

	planes := make([]plane.Plane, len(fa.planes))
	for i, p := range fa.planes {
		planes[i] = p.Range(from, to)
	}
	return &FieldArray{
		width:  fa.width,
		domain: fa.domain,
		kind:   fa.kind,
		planes: planes,
		logger: fa.logger,
	}, nil
}
