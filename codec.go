package fieldarray

// decompose writes one bit per plane for value into bits, most significant
// first: bits[i] carries weight 2^(k-1-i). bits must have length k.
func (fa *FieldArray) decompose(value int, bits []bool) []bool {
	for i := range bits {
		bits[i] = value&(1<<(fa.width-1-i)) != 0
	}
	return bits
}

// recompose is the inverse of decompose.
func (fa *FieldArray) recompose(bits []bool) int {
	value := 0
	for i, b := range bits {
		if b {
			value |= 1 << (fa.width - 1 - i)
		}
	}
	return value
}

// write stores pre-decomposed bits at index. Planes whose bit is false are
// cleared so an overwrite never leaves stale ones behind.
func (fa *FieldArray) write(index int, bits []bool) {
	for i, p := range fa.planes {
		if bits[i] {
			p.Set(index)
		} else {
			p.Clear(index)
		}
	}
}

func (fa *FieldArray) read(index int) int {
	var buf [MaxFieldWidth]bool
	bits := buf[:fa.width]
	for i, p := range fa.planes {
		bits[i] = p.Test(index)
	}
	return fa.recompose(bits)
}

func (fa *FieldArray) checkValue(value int) error {
	if value < 0 || value >= fa.domain {
		return &ValueError{Value: value, DomainSize: fa.domain}
	}
	return nil
}

func checkIndex(op string, index int) error {
	if index < 0 || index > MaxIndex {
		return &IndexError{Op: op, Index: index}
	}
	return nil
}

func checkRange(op string, from, to int) error {
	if from < 0 || to < from || to > MaxIndex {
		return &IndexError{Op: op, Index: from, To: to, IsRange: true}
	}
	return nil
}
