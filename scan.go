package fieldarray

// A slot counts as set when any plane holds a 1 at its index, i.e. its value
// is non-zero, and as clear when every plane holds a 0.

// Cardinality returns the largest per-plane count of set bits.
//
// This is an approximation of the number of non-zero slots: it is exact for
// one-bit arrays and a lower bound otherwise, since slots whose set bits lie in
// different planes are not combined.
func (fa *FieldArray) Cardinality() int {
	n := 0
	for _, p := range fa.planes {
		n = max(n, p.Count())
	}
	return n
}

// Length returns one plus the highest non-zero slot, or 0 if every slot is 0.
func (fa *FieldArray) Length() int {
	n := 0
	for _, p := range fa.planes {
		n = max(n, p.Len())
	}
	return n
}

// Size returns the total number of bits allocated across planes. It is a
// capacity hint, not a slot count.
func (fa *FieldArray) Size() int {
	n := 0
	for _, p := range fa.planes {
		n += p.Cap()
	}
	return n
}

// NextSet returns the first index >= from holding a non-zero value, or -1.
func (fa *FieldArray) NextSet(from int) (int, error) {
	if err := checkIndex("next set", from); err != nil {
		return 0, err
	}
	return fa.nextSet(from), nil
}

// NextClear returns the first index >= from holding 0. Every index at or past
// Length() is clear, so the result is -1 only when every slot in
// [from, MaxIndex] is non-zero.
func (fa *FieldArray) NextClear(from int) (int, error) {
	if err := checkIndex("next clear", from); err != nil {
		return 0, err
	}
	if next := fa.nextClear(from); next <= MaxIndex {
		return next, nil
	}
	return -1, nil
}

// PreviousSet returns the last index <= from holding a non-zero value, or -1.
// from may be -1, in which case the result is -1.
func (fa *FieldArray) PreviousSet(from int) (int, error) {
	if from == -1 {
		return -1, nil
	}
	if err := checkIndex("previous set", from); err != nil {
		return 0, err
	}
	return fa.previousSet(from), nil
}

// PreviousClear returns the last index <= from holding 0, or -1 when every
// slot in [0, from] is non-zero. from may be -1, in which case the result is -1.
func (fa *FieldArray) PreviousClear(from int) (int, error) {
	if from == -1 {
		return -1, nil
	}
	if err := checkIndex("previous clear", from); err != nil {
		return 0, err
	}
	return fa.previousClear(from), nil
}

func (fa *FieldArray) nextSet(from int) int {
	next := -1
	for _, p := range fa.planes {
		i := p.NextSet(from)
		if i == from {
			return from
		}
		if i >= 0 && (next < 0 || i < next) {
			next = i
		}
	}
	return next
}

// nextClear seeds at the furthest per-plane next clear bit and repeats from
// there until every plane agrees. Planes are clear past their length, so the
// loop terminates.
func (fa *FieldArray) nextClear(from int) int {
	candidate := from
	for {
		next := candidate
		for _, p := range fa.planes {
			next = max(next, p.NextClear(candidate))
		}
		if next == candidate {
			return candidate
		}
		candidate = next
	}
}

func (fa *FieldArray) previousSet(from int) int {
	prev := -1
	for _, p := range fa.planes {
		i := p.PreviousSet(from)
		if i == from {
			return from
		}
		prev = max(prev, i)
	}
	return prev
}

func (fa *FieldArray) previousClear(from int) int {
	candidate := from
	for {
		prev := candidate
		for _, p := range fa.planes {
			prev = min(prev, p.PreviousClear(candidate))
		}
		if prev < 0 || prev == candidate {
			return prev
		}
		candidate = prev
	}
}
