package descbuf

import (
	"fmt"
	"sort"

	"github.com/vkngwrapper/core/v3/core1_0"
)

// Binding is one entry of a descriptor set layout.
type Binding struct {
	Binding        int
	DescriptorType core1_0.DescriptorType
	Count          int
	Stages         core1_0.ShaderStageFlags
}

// LayoutDescriptor names a set of bindings from which a descriptor set layout
// and its backing-store requirements are derived. It is not modified after the
// layout is created.
type LayoutDescriptor struct {
	Name     string
	Bindings []Binding
}

// Layout is a descriptor set layout created for use with descriptor buffers,
// together with the storage requirements the driver reported for it.
type Layout struct {
	Descriptor LayoutDescriptor
	Handle     core1_0.DescriptorSetLayout

	// RequiredSize is the size reported by the driver, Size is RequiredSize
	// rounded up to the descriptor buffer offset alignment.
	RequiredSize int
	Size         int

	offsets map[int]int
}

// BindingOffset returns the byte offset of binding within any region carved for
// this layout.
func (l *Layout) BindingOffset(binding int) (int, bool) {
	offset, ok := l.offsets[binding]
	return offset, ok
}

// Bindings returns the binding numbers of this layout in ascending order.
func (l *Layout) Bindings() []int {
	bindings := make([]int, 0, len(l.offsets))
	for binding := range l.offsets {
		bindings = append(bindings, binding)
	}
	sort.Ints(bindings)
	return bindings
}

func (l *Layout) String() string {
	return fmt.Sprintf("%s(size=%d aligned=%d bindings=%d)", l.Descriptor.Name, l.RequiredSize, l.Size, len(l.offsets))
}
