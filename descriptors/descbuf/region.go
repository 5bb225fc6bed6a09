package descbuf

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Block is one storage allocation shared by several regions.
type Block struct {
	kind    StorageKind
	size    int
	storage *Storage
	regions []*Region
}

func (b *Block) Kind() StorageKind        { return b.kind }
func (b *Block) Size() int                { return b.size }
func (b *Block) Regions() []*Region       { return b.regions }
func (b *Block) Region(index int) *Region { return b.regions[index] }
func (b *Block) Buffer() core1_0.Buffer   { return b.storage.Buffer }
func (b *Block) Address() uint64          { return b.storage.Address }
func (b *Block) Storage() *Storage        { return b.storage }

// Region is the byte range of a block backing one instance of a layout. Offset
// and Size are both multiples of the manager's alignment.
type Region struct {
	Layout *Layout
	Offset int
	Size   int

	block *Block
}

func (r *Region) Block() *Block { return r.block }

// Bytes returns the mapped memory of the region, or nil once its storage has
// been freed.
func (r *Region) Bytes() []byte {
	if r.block.storage == nil {
		return nil
	}
	return r.block.storage.Data[r.Offset : r.Offset+r.Size]
}

// Write copies a serialized descriptor into binding of the region, replacing
// whatever was there. There is no tracking of in-flight reads: the caller
// must have waited for every submission that reads this region.
func (r *Region) Write(binding int, descriptor []byte) error {
	if r.block.storage == nil {
		return errors.Newf("region of layout %q written after its storage was freed", r.Layout.Descriptor.Name)
	}

	bindingOffset, ok := r.Layout.BindingOffset(binding)
	if !ok {
		return errors.Newf("layout %q has no binding %d", r.Layout.Descriptor.Name, binding)
	}

	if bindingOffset+len(descriptor) > r.Size {
		return errors.Newf("descriptor of %d bytes at binding offset %d overflows region of %d bytes",
			len(descriptor), bindingOffset, r.Size)
	}

	start := r.Offset + bindingOffset
	copy(r.block.storage.Data[start:start+len(descriptor)], descriptor)
	return nil
}
