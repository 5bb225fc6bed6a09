package descbuf

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// StorageKind selects which descriptor buffer usage a block of storage is
// created with. Sampler and combined image sampler descriptors must live in
// StorageSamplers; everything else lives in StorageResources.
type StorageKind int

const (
	StorageResources StorageKind = iota
	StorageSamplers
)

func (k StorageKind) String() string {
	switch k {
	case StorageResources:
		return "resources"
	case StorageSamplers:
		return "samplers"
	}
	return "unknown"
}

// Storage is a host-writable, GPU-visible buffer holding descriptor data.
type Storage struct {
	Buffer  core1_0.Buffer
	Memory  core1_0.DeviceMemory
	Address uint64
	Data    []byte
}

// Driver is the set of driver entry points the manager relies on. Every
// descriptor byte written through the manager comes from the driver; nothing
// is hand-encoded.
type Driver interface {
	CreateLayout(desc LayoutDescriptor) (core1_0.DescriptorSetLayout, error)
	DestroyLayout(layout *Layout)
	LayoutSize(layout *Layout) (int, error)
	LayoutBindingOffset(layout *Layout, binding int) (int, error)

	AllocateStorage(size int, kind StorageKind) (*Storage, error)
	FreeStorage(storage *Storage)

	UniformBufferDescriptor(address uint64, size int) ([]byte, error)
	CombinedImageSamplerDescriptor(sampler core1_0.Sampler, view core1_0.ImageView, layout core1_0.ImageLayout) ([]byte, error)
}

// Manager builds descriptor set layouts, sizes them against the device's
// descriptor buffer offset alignment, carves regions for them out of shared
// storage and writes driver-serialized descriptors into those regions.
type Manager struct {
	driver    Driver
	alignment int

	layouts []*Layout
	blocks  []*Block
}

func NewManager(driver Driver, alignment int) *Manager {
	return &Manager{
		driver:    driver,
		alignment: alignment,
	}
}

func (m *Manager) Alignment() int { return m.alignment }

// CreateLayout creates the descriptor set layout for desc and queries its
// required size and binding offsets.
func (m *Manager) CreateLayout(desc LayoutDescriptor) (*Layout, error) {
	if len(desc.Bindings) == 0 {
		return nil, errors.Newf("layout %q has no bindings", desc.Name)
	}

	seen := make(map[int]struct{}, len(desc.Bindings))
	for _, binding := range desc.Bindings {
		if _, duplicate := seen[binding.Binding]; duplicate {
			return nil, errors.Newf("layout %q declares binding %d twice", desc.Name, binding.Binding)
		}
		seen[binding.Binding] = struct{}{}
	}

	handle, err := m.driver.CreateLayout(desc)
	if err != nil {
		return nil, errors.Wrapf(err, "create descriptor set layout %q", desc.Name)
	}

	layout := &Layout{
		Descriptor: desc,
		Handle:     handle,
		offsets:    make(map[int]int, len(desc.Bindings)),
	}

	layout.RequiredSize, err = m.driver.LayoutSize(layout)
	if err != nil {
		m.driver.DestroyLayout(layout)
		return nil, errors.Wrapf(err, "query size of layout %q", desc.Name)
	}
	layout.Size = AlignUp(layout.RequiredSize, m.alignment)

	for _, binding := range desc.Bindings {
		offset, err := m.driver.LayoutBindingOffset(layout, binding.Binding)
		if err != nil {
			m.driver.DestroyLayout(layout)
			return nil, errors.Wrapf(err, "query offset of binding %d in layout %q", binding.Binding, desc.Name)
		}
		if offset < 0 || offset >= layout.RequiredSize {
			m.driver.DestroyLayout(layout)
			return nil, errors.Newf("binding %d of layout %q reported at offset %d outside size %d", binding.Binding, desc.Name, offset, layout.RequiredSize)
		}
		layout.offsets[binding.Binding] = offset
	}

	m.layouts = append(m.layouts, layout)
	return layout, nil
}

// Request asks for Count consecutive regions of Layout.
type Request struct {
	Layout *Layout
	Count  int
}

// Allocate carves one region per requested layout instance out of a single
// storage block. Regions are laid out in request order.
func (m *Manager) Allocate(kind StorageKind, requests ...Request) (*Block, error) {
	block := &Block{kind: kind}

	offset := 0
	for _, request := range requests {
		if request.Layout == nil {
			return nil, errors.New("allocation request without a layout")
		}
		if request.Count <= 0 {
			return nil, errors.Newf("allocation request for layout %q has count %d", request.Layout.Descriptor.Name, request.Count)
		}

		for i := 0; i < request.Count; i++ {
			offset = AlignUp(offset, m.alignment)
			block.regions = append(block.regions, &Region{
				Layout: request.Layout,
				Offset: offset,
				Size:   request.Layout.Size,
				block:  block,
			})
			offset += request.Layout.Size
		}
	}

	if offset == 0 {
		return nil, errors.New("allocation requested no storage")
	}
	block.size = offset

	storage, err := m.driver.AllocateStorage(block.size, kind)
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %d bytes of %s descriptor storage", block.size, kind)
	}
	if len(storage.Data) < block.size {
		m.driver.FreeStorage(storage)
		return nil, errors.Newf("descriptor storage mapped %d bytes, need %d", len(storage.Data), block.size)
	}
	block.storage = storage

	m.blocks = append(m.blocks, block)
	return block, nil
}

// WriteUniformBuffer serializes a uniform buffer descriptor for the range
// [address, address+size) into binding of region.
func (m *Manager) WriteUniformBuffer(region *Region, binding int, address uint64, size int) error {
	if region.block.kind != StorageResources {
		return errors.Newf("uniform buffer written to %s storage", region.block.kind)
	}

	descriptor, err := m.driver.UniformBufferDescriptor(address, size)
	if err != nil {
		return errors.Wrap(err, "get uniform buffer descriptor")
	}
	return region.Write(binding, descriptor)
}

// WriteCombinedImageSampler serializes a combined image sampler descriptor into
// binding of region.
func (m *Manager) WriteCombinedImageSampler(region *Region, binding int, sampler core1_0.Sampler, view core1_0.ImageView, imageLayout core1_0.ImageLayout) error {
	if region.block.kind != StorageSamplers {
		return errors.Newf("combined image sampler written to %s storage", region.block.kind)
	}

	descriptor, err := m.driver.CombinedImageSamplerDescriptor(sampler, view, imageLayout)
	if err != nil {
		return errors.Wrap(err, "get combined image sampler descriptor")
	}
	return region.Write(binding, descriptor)
}

// Destroy frees every block and layout the manager created, newest first.
func (m *Manager) Destroy() {
	for i := len(m.blocks) - 1; i >= 0; i-- {
		m.driver.FreeStorage(m.blocks[i].storage)
		m.blocks[i].storage = nil
	}
	m.blocks = nil

	for i := len(m.layouts) - 1; i >= 0; i-- {
		m.driver.DestroyLayout(m.layouts[i])
	}
	m.layouts = nil
}
