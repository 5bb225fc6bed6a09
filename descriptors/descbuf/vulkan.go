package descbuf

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_1"
	"github.com/vkngwrapper/core/v3/core1_2"
	"github.com/vkngwrapper/descriptor-examples/extensions/ext_descriptor_buffer"
)

// MemoryTypeFinder picks a memory type index from typeBits that has all of properties.
type MemoryTypeFinder func(typeBits uint32, properties core1_0.MemoryPropertyFlags) (int, error)

// VulkanDriver is the Driver backed by a device with VK_EXT_descriptor_buffer enabled.
type VulkanDriver struct {
	device     core1_2.DeviceDriver
	extension  ext_descriptor_buffer.ExtensionDriver
	properties *ext_descriptor_buffer.PhysicalDeviceDescriptorBufferProperties
	memoryType MemoryTypeFinder
}

var _ Driver = &VulkanDriver{}

func NewVulkanDriver(device core1_2.DeviceDriver, extension ext_descriptor_buffer.ExtensionDriver, properties *ext_descriptor_buffer.PhysicalDeviceDescriptorBufferProperties, memoryType MemoryTypeFinder) *VulkanDriver {
	return &VulkanDriver{
		device:     device,
		extension:  extension,
		properties: properties,
		memoryType: memoryType,
	}
}

func (d *VulkanDriver) CreateLayout(desc LayoutDescriptor) (core1_0.DescriptorSetLayout, error) {
	bindings := make([]core1_0.DescriptorSetLayoutBinding, 0, len(desc.Bindings))
	for _, binding := range desc.Bindings {
		count := binding.Count
		if count == 0 {
			count = 1
		}

		bindings = append(bindings, core1_0.DescriptorSetLayoutBinding{
			Binding:         binding.Binding,
			DescriptorType:  binding.DescriptorType,
			DescriptorCount: count,
			StageFlags:      binding.Stages,
		})
	}

	layout, _, err := d.device.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Flags:    ext_descriptor_buffer.DescriptorSetLayoutCreateDescriptorBuffer,
		Bindings: bindings,
	})
	return layout, err
}

func (d *VulkanDriver) DestroyLayout(layout *Layout) {
	if layout.Handle.Initialized() {
		d.device.DestroyDescriptorSetLayout(layout.Handle, nil)
	}
}

func (d *VulkanDriver) LayoutSize(layout *Layout) (int, error) {
	return d.extension.GetDescriptorSetLayoutSize(layout.Handle), nil
}

func (d *VulkanDriver) LayoutBindingOffset(layout *Layout, binding int) (int, error) {
	return d.extension.GetDescriptorSetLayoutBindingOffset(layout.Handle, binding), nil
}

// Usage returns the buffer usage flags storage of kind is created with. The same flags must be
// passed when the buffer is bound with CmdBindDescriptorBuffers.
func Usage(kind StorageKind) core1_0.BufferUsageFlags {
	usage := core1_2.BufferUsageShaderDeviceAddress
	if kind == StorageSamplers {
		return usage | ext_descriptor_buffer.BufferUsageSamplerDescriptorBuffer
	}
	return usage | ext_descriptor_buffer.BufferUsageResourceDescriptorBuffer
}

// AllocateStorage creates a persistently mapped, host coherent descriptor buffer.
func (d *VulkanDriver) AllocateStorage(size int, kind StorageKind) (*Storage, error) {
	buffer, _, err := d.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       Usage(kind),
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, err
	}

	memReqs := d.device.GetBufferMemoryRequirements(buffer)
	memoryTypeIndex, err := d.memoryType(memReqs.MemoryTypeBits, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		d.device.DestroyBuffer(buffer, nil)
		return nil, err
	}

	memory, _, err := d.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryTypeIndex,
		NextOptions: common.NextOptions{
			Next: core1_1.MemoryAllocateFlagsInfo{
				Flags: core1_2.MemoryAllocateDeviceAddress,
			},
		},
	})
	if err != nil {
		d.device.DestroyBuffer(buffer, nil)
		return nil, err
	}

	_, err = d.device.BindBufferMemory(buffer, memory, 0)
	if err != nil {
		d.device.DestroyBuffer(buffer, nil)
		d.device.FreeMemory(memory, nil)
		return nil, err
	}

	address, err := d.device.GetBufferDeviceAddress(core1_2.BufferDeviceAddressInfo{Buffer: buffer})
	if err != nil {
		d.device.DestroyBuffer(buffer, nil)
		d.device.FreeMemory(memory, nil)
		return nil, err
	}

	memoryPtr, _, err := d.device.MapMemory(memory, 0, size, 0)
	if err != nil {
		d.device.DestroyBuffer(buffer, nil)
		d.device.FreeMemory(memory, nil)
		return nil, err
	}

	return &Storage{
		Buffer:  buffer,
		Memory:  memory,
		Address: address,
		Data:    unsafe.Slice((*byte)(memoryPtr), size),
	}, nil
}

func (d *VulkanDriver) FreeStorage(storage *Storage) {
	if storage == nil {
		return
	}

	storage.Data = nil
	d.device.UnmapMemory(storage.Memory)
	d.device.DestroyBuffer(storage.Buffer, nil)
	d.device.FreeMemory(storage.Memory, nil)
}

func (d *VulkanDriver) UniformBufferDescriptor(address uint64, size int) ([]byte, error) {
	if address == 0 {
		return nil, errors.New("uniform buffer descriptor requested for a null device address")
	}
	if size <= 0 {
		return nil, errors.Newf("uniform buffer descriptor requested for range of %d bytes", size)
	}

	return d.extension.GetUniformBufferDescriptor(address, size, d.properties.UniformBufferDescriptorSize), nil
}

func (d *VulkanDriver) CombinedImageSamplerDescriptor(sampler core1_0.Sampler, view core1_0.ImageView, layout core1_0.ImageLayout) ([]byte, error) {
	if !sampler.Initialized() || !view.Initialized() {
		return nil, errors.New("combined image sampler descriptor requested for an uninitialized sampler or view")
	}

	return d.extension.GetCombinedImageSamplerDescriptor(sampler, view, layout, d.properties.CombinedImageSamplerDescriptorSize), nil
}
