package bindless

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWindow_Errors(t *testing.T) {
	_, err := NewWindow(64, 0)
	require.Error(t, err)

	_, err = NewWindow(64, 65)
	require.Error(t, err)

	window, err := NewWindow(64, 64)
	require.NoError(t, err)
	require.Equal(t, 0, window.Advance())
}

func TestWindow_AdvanceWraps(t *testing.T) {
	window, err := NewWindow(2048, 64)
	require.NoError(t, err)

	var bases []int
	for i := 0; i < 33; i++ {
		bases = append(bases, window.Base())
		window.Advance()
	}

	require.Equal(t, 0, bases[0])
	require.Equal(t, 64, bases[1])
	require.Equal(t, 1984, bases[31])
	require.Equal(t, 0, bases[32])
}

func TestWindow_NeverLeavesCapacity(t *testing.T) {
	for _, capacity := range []int{1, 7, 64, 100, 1000, 2048} {
		for _, size := range []int{1, 3, 64, 99, 2048} {
			if size > capacity {
				continue
			}

			window, err := NewWindow(capacity, size)
			require.NoError(t, err)

			// enough advances to wrap several times
			for step := 0; step < 3*capacity/size+3; step++ {
				for i := 0; i < size; i++ {
					slot := window.Slot(i)
					require.GreaterOrEqual(t, slot, 0)
					require.Less(t, slot, capacity, "capacity %d size %d step %d entry %d", capacity, size, step, i)
				}
				window.Advance()
			}

			require.Panics(t, func() { window.Slot(size) })
			require.Panics(t, func() { window.Slot(-1) })
		}
	}
}

func TestPermutation(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		for _, n := range []int{1, 2, 64, 2048} {
			permutation := Permutation(seed, n)
			require.Len(t, permutation, n)

			seen := make([]bool, n)
			for _, index := range permutation {
				require.GreaterOrEqual(t, index, 0)
				require.Less(t, index, n)
				require.False(t, seen[index])
				seen[index] = true
			}
		}
	}

	require.Equal(t, Permutation(42, 64), Permutation(42, 64))
	require.Nil(t, Permutation(42, 0))
}
