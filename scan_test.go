package fieldarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fieldarray/plane"
	"github.com/hupe1980/fieldarray/testutil"
)

func TestScanPrimitives(t *testing.T) {
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			fa := newScenario(t, kind)
			require.NoError(t, fa.Set(20, 1))

			cases := []struct {
				name string
				fn   func(int) (int, error)
				from int
				want int
			}{
				{"NextSet/0", fa.NextSet, 0, 2},
				{"NextSet/3", fa.NextSet, 3, 3},
				{"NextSet/9", fa.NextSet, 9, 20},
				{"NextSet/21", fa.NextSet, 21, -1},
				{"NextClear/0", fa.NextClear, 0, 0},
				{"NextClear/2", fa.NextClear, 2, 9},
				{"NextClear/20", fa.NextClear, 20, 21},
				{"NextClear/500", fa.NextClear, 500, 500},
				{"PreviousSet/-1", fa.PreviousSet, -1, -1},
				{"PreviousSet/1", fa.PreviousSet, 1, -1},
				{"PreviousSet/19", fa.PreviousSet, 19, 8},
				{"PreviousSet/100", fa.PreviousSet, 100, 20},
				{"PreviousClear/-1", fa.PreviousClear, -1, -1},
				{"PreviousClear/8", fa.PreviousClear, 8, 1},
				{"PreviousClear/20", fa.PreviousClear, 20, 19},
				{"PreviousClear/100", fa.PreviousClear, 100, 100},
			}
			for _, tc := range cases {
				got, err := tc.fn(tc.from)
				require.NoError(t, err, tc.name)
				assert.Equal(t, tc.want, got, tc.name)
			}
		})
	}
}

func TestNextClearAtMaxIndex(t *testing.T) {
	fa, err := New(2, WithPlaneKind(plane.KindSegmented))
	require.NoError(t, err)
	require.NoError(t, fa.SetRange(MaxIndex-10, MaxIndex, 3))

	got, err := fa.NextClear(MaxIndex - 5)
	require.NoError(t, err)
	assert.Equal(t, -1, got, "nothing clear up to MaxIndex")

	got, err = fa.NextClear(MaxIndex)
	require.NoError(t, err)
	assert.Equal(t, -1, got)

	got, err = fa.NextClear(MaxIndex - 20)
	require.NoError(t, err)
	assert.Equal(t, MaxIndex-20, got)

	require.NoError(t, fa.Clear(MaxIndex))
	got, err = fa.NextClear(MaxIndex - 5)
	require.NoError(t, err)
	assert.Equal(t, MaxIndex, got)
}

func TestPreviousClearAllSet(t *testing.T) {
	fa := NewDefault()
	require.NoError(t, fa.SetRange(0, 10, 1))

	got, err := fa.PreviousClear(10)
	require.NoError(t, err)
	assert.Equal(t, -1, got)

	got, err = fa.PreviousClear(11)
	require.NoError(t, err)
	assert.Equal(t, 11, got)
}

func TestScanCrossPlane(t *testing.T) {
	// Slot 5 has only the high bit, slot 6 only the low bit: the scans must
	// combine planes rather than trust any single one.
	fa, err := New(2)
	require.NoError(t, err)
	require.NoError(t, fa.Set(5, 2))
	require.NoError(t, fa.Set(6, 1))

	next, _ := fa.NextClear(5)
	assert.Equal(t, 7, next)
	prev, _ := fa.PreviousClear(6)
	assert.Equal(t, 4, prev)
	set, _ := fa.NextSet(6)
	assert.Equal(t, 6, set)
	set, _ = fa.PreviousSet(5)
	assert.Equal(t, 5, set)
}

func TestScanAgainstModel(t *testing.T) {
	rng := testutil.NewRNG(4711)

	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			model := rng.Assignments(300, 5000, 8)
			fa, err := New(3, WithPlaneKind(kind))
			require.NoError(t, err)
			for i, v := range model {
				require.NoError(t, fa.Set(i, v))
			}

			assert.Equal(t, model.Length(), fa.Length())

			for _, from := range rng.Values(200, 5100) {
				got, err := fa.NextSet(from)
				require.NoError(t, err)
				assert.Equal(t, model.NextSet(from), got, "NextSet(%d)", from)

				got, err = fa.NextClear(from)
				require.NoError(t, err)
				assert.Equal(t, model.NextClear(from), got, "NextClear(%d)", from)

				got, err = fa.PreviousSet(from)
				require.NoError(t, err)
				assert.Equal(t, model.PreviousSet(from), got, "PreviousSet(%d)", from)

				got, err = fa.PreviousClear(from)
				require.NoError(t, err)
				assert.Equal(t, model.PreviousClear(from), got, "PreviousClear(%d)", from)
			}
		})
	}
}

func TestCardinalityLengthSize(t *testing.T) {
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			fa, err := New(2, WithPlaneKind(kind))
			require.NoError(t, err)

			assert.Equal(t, 0, fa.Cardinality())
			assert.Equal(t, 0, fa.Length())

			// Four slots with the high bit, one with the low bit.
			require.NoError(t, fa.SetRange(0, 3, 2))
			require.NoError(t, fa.Set(10, 1))

			assert.Equal(t, 4, fa.Cardinality(), "max over planes")
			assert.Equal(t, 11, fa.Length())
			assert.GreaterOrEqual(t, fa.Size(), fa.Length(), "size is allocated capacity")

			require.NoError(t, fa.Clear(10))
			assert.Equal(t, 4, fa.Length())
		})
	}
}
