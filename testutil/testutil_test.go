package testutil

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValues(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.Values(100, 16)
	assert.Len(t, v, 100)
	for _, x := range v {
		assert.GreaterOrEqual(t, x, 0)
		assert.Less(t, x, 16)
	}
}

func TestIndices(t *testing.T) {
	rng := NewRNG(4711)

	idx := rng.Indices(50, 100)
	require.Len(t, idx, 50)
	assert.True(t, sort.IntsAreSorted(idx))
	for i := 1; i < len(idx); i++ {
		assert.NotEqual(t, idx[i-1], idx[i])
	}

	assert.Len(t, rng.Indices(10, 5), 5, "capped at maxIndex")
}

func TestZipfValues(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.ZipfValues(10000, 8, 1.5)
	counts := make([]int, 8)
	for _, x := range v {
		counts[x]++
	}
	assert.Greater(t, counts[0], counts[7], "low codes dominate")
}

func TestAssignments(t *testing.T) {
	rng := NewRNG(4711)

	m := rng.Assignments(100, 1000, 4)
	assert.Len(t, m, 100)
	for i, v := range m {
		assert.Less(t, i, 1000)
		assert.Greater(t, v, 0)
		assert.Less(t, v, 4)
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.Values(10, 100)

	rng.Reset()
	v2 := rng.Values(10, 100)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestModel(t *testing.T) {
	m := Model{}
	m.Set(2, 15)
	m.Set(3, 6)
	m.Set(4, 6)
	m.Set(10, 1)
	m.Set(10, 0)

	assert.Equal(t, []int{2, 3, 4}, m.Indices())
	assert.Equal(t, 5, m.Length())
	assert.Equal(t, 0, m.Get(10))

	assert.Equal(t, 2, m.NextSet(0))
	assert.Equal(t, -1, m.NextSet(5))
	assert.Equal(t, 0, m.NextClear(0))
	assert.Equal(t, 5, m.NextClear(2))
	assert.Equal(t, 4, m.PreviousSet(100))
	assert.Equal(t, -1, m.PreviousSet(1))
	assert.Equal(t, 1, m.PreviousClear(4))
	assert.Equal(t, -1, Model{0: 1}.PreviousClear(0))
}
