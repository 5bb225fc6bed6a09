// Package bindless manages a fixed-capacity table of descriptors that shaders
// select by index.
package bindless

import (
	"github.com/cockroachdb/errors"
)

type SlotState int

const (
	// Unbound slots hold the placeholder resource.
	Unbound SlotState = iota
	Bound
)

func (s SlotState) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Bound:
		return "bound"
	}
	return "unknown"
}

// Writer publishes descriptors for consecutive heap slots starting at first.
type Writer[R any] interface {
	WriteSlots(first int, resources []R) error
}

// Heap is a descriptor array of fixed capacity. Every slot always refers to a
// valid resource: slots start out pointing at a placeholder and are only ever
// rebound, never cleared.
//
// Indexing outside [0, capacity) is a programming error and panics.
type Heap[R any] struct {
	placeholder R
	writer      Writer[R]

	slots  []R
	states []SlotState
}

// New creates a heap of capacity slots and writes the placeholder into all of
// them before returning.
func New[R any](capacity int, placeholder R, writer Writer[R]) (*Heap[R], error) {
	if capacity <= 0 {
		return nil, errors.Newf("heap capacity must be positive, got %d", capacity)
	}

	heap := &Heap[R]{
		placeholder: placeholder,
		writer:      writer,
		slots:       make([]R, capacity),
		states:      make([]SlotState, capacity),
	}
	for i := range heap.slots {
		heap.slots[i] = placeholder
	}

	err := writer.WriteSlots(0, heap.slots)
	if err != nil {
		return nil, errors.Wrapf(err, "fill %d heap slots with the placeholder", capacity)
	}

	return heap, nil
}

func (h *Heap[R]) Capacity() int     { return len(h.slots) }
func (h *Heap[R]) Placeholder() R    { return h.placeholder }
func (h *Heap[R]) Writer() Writer[R] { return h.writer }

func (h *Heap[R]) checkRange(first, count int) {
	if first < 0 || count < 0 || first+count > len(h.slots) {
		panic(errors.AssertionFailedf("heap slots [%d, %d) outside capacity %d", first, first+count, len(h.slots)))
	}
}

// Bind points slot at resource. The descriptor write happens immediately; the
// caller is responsible for making sure no pending submission still reads the
// old descriptor unless the heap was created for update-after-bind.
func (h *Heap[R]) Bind(slot int, resource R) error {
	return h.BindRange(slot, []R{resource})
}

// BindRange binds resources to consecutive slots starting at first with a
// single descriptor write.
func (h *Heap[R]) BindRange(first int, resources []R) error {
	h.checkRange(first, len(resources))
	if len(resources) == 0 {
		return nil
	}

	err := h.writer.WriteSlots(first, resources)
	if err != nil {
		return errors.Wrapf(err, "bind heap slots [%d, %d)", first, first+len(resources))
	}

	copy(h.slots[first:], resources)
	for i := first; i < first+len(resources); i++ {
		h.states[i] = Bound
	}
	return nil
}

// Slot returns what slot currently refers to.
func (h *Heap[R]) Slot(slot int) (R, SlotState) {
	h.checkRange(slot, 1)
	return h.slots[slot], h.states[slot]
}

// Select returns slot as the index a shader receives, e.g. through a push
// constant.
func (h *Heap[R]) Select(slot int) uint32 {
	h.checkRange(slot, 1)
	return uint32(slot)
}

// BoundCount returns how many slots hold something other than the placeholder.
func (h *Heap[R]) BoundCount() int {
	count := 0
	for _, state := range h.states {
		if state == Bound {
			count++
		}
	}
	return count
}
