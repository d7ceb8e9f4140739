package testutil

import "sort"

// Model is a reference field array: a map from index to non-zero value.
// Absent indices read 0. Scans are computed by brute force and serve as an
// oracle for the plane-based implementation.
type Model map[int]int

// Set stores value at index; 0 deletes the entry.
func (m Model) Set(index, value int) {
	if value == 0 {
		delete(m, index)
		return
	}
	m[index] = value
}

// Get returns the value at index.
func (m Model) Get(index int) int {
	return m[index]
}

// Indices returns the non-zero indices in ascending order.
func (m Model) Indices() []int {
	out := make([]int, 0, len(m))
	for i := range m {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Length returns one plus the highest non-zero index, or 0.
func (m Model) Length() int {
	n := 0
	for i := range m {
		n = max(n, i+1)
	}
	return n
}

// NextSet returns the first non-zero index >= from, or -1.
func (m Model) NextSet(from int) int {
	next := -1
	for i := range m {
		if i >= from && (next < 0 || i < next) {
			next = i
		}
	}
	return next
}

// NextClear returns the first zero index >= from.
func (m Model) NextClear(from int) int {
	i := from
	for m[i] != 0 {
		i++
	}
	return i
}

// PreviousSet returns the last non-zero index <= from, or -1.
func (m Model) PreviousSet(from int) int {
	prev := -1
	for i := range m {
		if i <= from && i > prev {
			prev = i
		}
	}
	return prev
}

// PreviousClear returns the last zero index <= from, or -1.
func (m Model) PreviousClear(from int) int {
	i := from
	for i >= 0 && m[i] != 0 {
		i--
	}
	return i
}
