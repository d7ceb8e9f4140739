package fieldarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fieldarray/plane"
)

var kinds = []plane.Kind{plane.KindDense, plane.KindSegmented}

// newScenario builds the width-4 user-type example: 2 is type 15, 3..8 are
// type 6.
func newScenario(t *testing.T, kind plane.Kind) *FieldArray {
	t.Helper()
	fa, err := New(4, WithPlaneKind(kind))
	require.NoError(t, err)
	require.NoError(t, fa.Set(2, 15))
	require.NoError(t, fa.SetRange(3, 8, 6))
	return fa
}

func TestNew(t *testing.T) {
	t.Run("Widths", func(t *testing.T) {
		for _, k := range []int{1, 4, 16, MaxFieldWidth} {
			fa, err := New(k)
			require.NoError(t, err)
			assert.Equal(t, k, fa.FieldWidth())
			assert.Equal(t, 1<<k, fa.DomainSize())
			assert.Equal(t, plane.KindDense, fa.PlaneKind())
		}
	})

	t.Run("InvalidWidth", func(t *testing.T) {
		for _, k := range []int{-1, 0, MaxFieldWidth + 1, 64} {
			_, err := New(k)
			assert.ErrorIs(t, err, ErrInvalidArgument, "width %d", k)
		}
	})

	t.Run("InvalidKind", func(t *testing.T) {
		_, err := New(4, WithPlaneKind(plane.Kind(99)))
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Panics(t, func() { NewDefault(WithPlaneKind(plane.Kind(99))) })
	})

	t.Run("Default", func(t *testing.T) {
		fa := NewDefault()
		assert.Equal(t, DefaultFieldWidth, fa.FieldWidth())
		assert.Equal(t, 2, fa.DomainSize())
		assert.Equal(t, 0, fa.Length())
	})
}

func TestScenario(t *testing.T) {
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			fa := newScenario(t, kind)

			for index, want := range map[int]int{2: 15, 3: 6, 7: 6, 8: 6, 1000: 0, 5: 6, 0: 0, 9: 0} {
				got, err := fa.Get(index)
				require.NoError(t, err)
				assert.Equal(t, want, got, "index %d", index)
			}

			require.NoError(t, fa.Clear(5))
			got, err := fa.Get(5)
			require.NoError(t, err)
			assert.Equal(t, 0, got)

			next, err := fa.NextSet(0)
			require.NoError(t, err)
			assert.Equal(t, 2, next)

			next, err = fa.NextClear(0)
			require.NoError(t, err)
			assert.Equal(t, 0, next)
		})
	}
}

func TestBoundaries(t *testing.T) {
	fa, err := New(4)
	require.NoError(t, err)

	err = fa.Set(-1, 0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	var ie *IndexError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, -1, ie.Index)

	err = fa.Set(0, 16)
	require.ErrorIs(t, err, ErrInvalidArgument)
	var ve *ValueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 16, ve.Value)
	assert.Equal(t, 16, ve.DomainSize)

	assert.ErrorIs(t, fa.Set(0, -1), ErrInvalidArgument)
	assert.NoError(t, fa.Set(0, 15))
	assert.ErrorIs(t, fa.Set(MaxIndex+1, 1), ErrIndexOutOfRange)

	_, err = fa.Get(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	assert.ErrorIs(t, fa.SetRange(5, 4, 1), ErrIndexOutOfRange)
	assert.ErrorIs(t, fa.SetRange(-1, 4, 1), ErrIndexOutOfRange)
	assert.ErrorIs(t, fa.SetRange(1, 4, 16), ErrInvalidArgument)
	assert.ErrorIs(t, fa.ClearRange(5, 4), ErrIndexOutOfRange)

	_, err = fa.GetRange(5, 4)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = fa.GetRange(-2, 4)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	for _, from := range []int{-1, MaxIndex + 1} {
		_, err = fa.NextSet(from)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		_, err = fa.NextClear(from)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
	_, err = fa.PreviousSet(-2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = fa.PreviousClear(-2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestMaxIndex(t *testing.T) {
	// A segmented plane addresses the top slot without a dense prefix.
	fa, err := New(2, WithPlaneKind(plane.KindSegmented))
	require.NoError(t, err)

	require.NoError(t, fa.Set(MaxIndex, 3))
	v, err := fa.Get(MaxIndex)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, MaxIndex+1, fa.Length())

	next, err := fa.NextSet(0)
	require.NoError(t, err)
	assert.Equal(t, MaxIndex, next)

	prev, err := fa.PreviousSet(MaxIndex)
	require.NoError(t, err)
	assert.Equal(t, MaxIndex, prev)
}

func TestValidationBeforeWrite(t *testing.T) {
	fa, err := New(4)
	require.NoError(t, err)

	err = fa.SetIndices(3, 1, 2, -5, 4)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, 0, fa.Length(), "no index written")

	err = fa.SetIndices(99, 1, 2)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, fa.Length())

	require.NoError(t, fa.SetIndices(7))
	assert.Equal(t, 0, fa.Length(), "empty list is a no-op")

	require.NoError(t, fa.SetIndices(7, 9, 1, 4))
	for _, i := range []int{1, 4, 9} {
		v, err := fa.Get(i)
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	}

	require.NoError(t, fa.ClearIndices(1, 9))
	v, _ := fa.Get(1)
	assert.Equal(t, 0, v)
	v, _ = fa.Get(4)
	assert.Equal(t, 7, v)
}

func TestCodecRoundTrip(t *testing.T) {
	for k := 1; k <= MaxFieldWidth; k++ {
		fa, err := New(k)
		require.NoError(t, err)

		values := []int{0, 1, fa.DomainSize() - 1, fa.DomainSize() / 2, (fa.DomainSize() - 1) &^ 1}
		var buf [MaxFieldWidth]bool
		for _, v := range values {
			bits := fa.decompose(v, buf[:k])
			assert.Equal(t, v, fa.recompose(bits), "k=%d v=%d", k, v)
		}

		// MSB lives in plane 0.
		bits := fa.decompose(fa.DomainSize()/2, buf[:k])
		assert.True(t, bits[0])
		for _, b := range bits[1:] {
			assert.False(t, b)
		}

		for i, v := range values {
			require.NoError(t, fa.Set(i, v))
		}
		for i, v := range values {
			got, err := fa.Get(i)
			require.NoError(t, err)
			assert.Equal(t, v, got, "k=%d index=%d", k, i)
		}
	}
}

func TestOverwriteClearsStaleBits(t *testing.T) {
	for _, kind := range kinds {
		fa, err := New(4, WithPlaneKind(kind))
		require.NoError(t, err)

		require.NoError(t, fa.Set(10, 15))
		require.NoError(t, fa.Set(10, 4))
		v, err := fa.Get(10)
		require.NoError(t, err)
		assert.Equal(t, 4, v)

		require.NoError(t, fa.Set(10, 0))
		assert.Equal(t, 0, fa.Length())
	}
}

func TestGetRange(t *testing.T) {
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			fa := newScenario(t, kind)

			sub, err := fa.GetRange(2, 5)
			require.NoError(t, err)
			assert.Equal(t, 4, sub.FieldWidth())
			assert.Equal(t, kind, sub.PlaneKind())

			// Exclusive upper bound, re-based to 0.
			for index, want := range map[int]int{0: 15, 1: 6, 2: 6, 3: 0} {
				got, err := sub.Get(index)
				require.NoError(t, err)
				assert.Equal(t, want, got, "index %d", index)
			}
			assert.Equal(t, 3, sub.Length())

			// Copies are independent.
			require.NoError(t, sub.Set(0, 1))
			got, _ := fa.Get(2)
			assert.Equal(t, 15, got)
			require.NoError(t, fa.Set(3, 2))
			got, _ = sub.Get(1)
			assert.Equal(t, 6, got)

			empty, err := fa.GetRange(4, 4)
			require.NoError(t, err)
			assert.Equal(t, 0, empty.Length())

			past, err := fa.GetRange(100, 200)
			require.NoError(t, err)
			assert.Equal(t, 0, past.Length())
		})
	}
}

func TestClone(t *testing.T) {
	fa := newScenario(t, plane.KindDense)
	c := fa.Clone()
	assert.True(t, fa.Equal(c))

	require.NoError(t, c.Set(2, 0))
	assert.False(t, fa.Equal(c))
	v, _ := fa.Get(2)
	assert.Equal(t, 15, v)
}

func TestString(t *testing.T) {
	fa := newScenario(t, plane.KindDense)
	assert.Equal(t, "FieldArray(k=4){2:15, 3:6, 4:6, 5:6, 6:6, 7:6, 8:6}", fa.String())

	empty := NewDefault()
	assert.Equal(t, "FieldArray(k=1){}", empty.String())

	long := NewDefault()
	require.NoError(t, long.SetRange(0, 99, 1))
	assert.Contains(t, long.String(), "15:1, ...}")
}
