package bindless

import (
	"math/rand"

	"github.com/cockroachdb/errors"
)

// Window is a cursor streaming fixed-size batches of writes through a heap.
// Each batch covers [Base, Base+Size); advancing past the end wraps to 0 so a
// batch never straddles the end of the heap.
type Window struct {
	capacity int
	size     int
	base     int
}

func NewWindow(capacity, size int) (*Window, error) {
	if size <= 0 || size > capacity {
		return nil, errors.Newf("window of %d slots does not fit a heap of %d", size, capacity)
	}

	return &Window{capacity: capacity, size: size}, nil
}

func (w *Window) Base() int { return w.base }
func (w *Window) Size() int { return w.size }

// Slot returns the heap slot for the i'th entry of the current batch.
func (w *Window) Slot(i int) int {
	if i < 0 || i >= w.size {
		panic(errors.AssertionFailedf("window entry %d outside batch of %d", i, w.size))
	}
	return w.base + i
}

// Advance moves to the next batch and returns its base.
func (w *Window) Advance() int {
	w.base += w.size
	if w.base+w.size > w.capacity {
		w.base = 0
	}
	return w.base
}

// Permutation returns a seeded shuffle of [0, n). The same seed always yields
// the same order.
func Permutation(seed int64, n int) []int {
	if n <= 0 {
		return nil
	}
	return rand.New(rand.NewSource(seed)).Perm(n)
}
