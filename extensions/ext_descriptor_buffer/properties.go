package ext_descriptor_buffer

/*
#include <stdlib.h>
#include <vulkan/vulkan.h>
*/
import "C"

import (
	"unsafe"

	"github.com/CannibalVox/cgoparam"
	"github.com/vkngwrapper/core/v3/common"
)

// PhysicalDeviceDescriptorBufferProperties describes descriptor buffer properties supported by
// an implementation. Chain it onto core1_1.PhysicalDeviceProperties2 to query it.
type PhysicalDeviceDescriptorBufferProperties struct {
	CombinedImageSamplerDescriptorSingleArray bool
	BufferlessPushDescriptors                 bool
	AllowSamplerImageViewPostSubmitCreation   bool

	// DescriptorBufferOffsetAlignment is the required alignment in bytes when setting offsets
	// into a descriptor buffer
	DescriptorBufferOffsetAlignment int

	MaxDescriptorBufferBindings         int
	MaxResourceDescriptorBufferBindings int
	MaxSamplerDescriptorBufferBindings  int
	MaxEmbeddedImmutableSamplerBindings int
	MaxEmbeddedImmutableSamplers        int

	SamplerDescriptorSize              int
	CombinedImageSamplerDescriptorSize int
	SampledImageDescriptorSize         int
	StorageImageDescriptorSize         int
	UniformBufferDescriptorSize        int
	StorageBufferDescriptorSize        int

	MaxSamplerDescriptorBufferRange          uint64
	MaxResourceDescriptorBufferRange         uint64
	SamplerDescriptorBufferAddressSpaceSize  uint64
	ResourceDescriptorBufferAddressSpaceSize uint64
	DescriptorBufferAddressSpaceSize         uint64

	common.NextOutData
}

func (o *PhysicalDeviceDescriptorBufferProperties) PopulateHeader(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(int(unsafe.Sizeof(C.VkPhysicalDeviceDescriptorBufferPropertiesEXT{})))
	}

	info := (*C.VkPhysicalDeviceDescriptorBufferPropertiesEXT)(preallocatedPointer)
	info.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_DESCRIPTOR_BUFFER_PROPERTIES_EXT
	info.pNext = next

	return preallocatedPointer, nil
}

func (o *PhysicalDeviceDescriptorBufferProperties) PopulateOutData(cDataPointer unsafe.Pointer, helpers ...any) (next unsafe.Pointer, err error) {
	info := (*C.VkPhysicalDeviceDescriptorBufferPropertiesEXT)(cDataPointer)

	o.CombinedImageSamplerDescriptorSingleArray = info.combinedImageSamplerDescriptorSingleArray != C.VkBool32(0)
	o.BufferlessPushDescriptors = info.bufferlessPushDescriptors != C.VkBool32(0)
	o.AllowSamplerImageViewPostSubmitCreation = info.allowSamplerImageViewPostSubmitCreation != C.VkBool32(0)

	o.DescriptorBufferOffsetAlignment = int(info.descriptorBufferOffsetAlignment)

	o.MaxDescriptorBufferBindings = int(info.maxDescriptorBufferBindings)
	o.MaxResourceDescriptorBufferBindings = int(info.maxResourceDescriptorBufferBindings)
	o.MaxSamplerDescriptorBufferBindings = int(info.maxSamplerDescriptorBufferBindings)
	o.MaxEmbeddedImmutableSamplerBindings = int(info.maxEmbeddedImmutableSamplerBindings)
	o.MaxEmbeddedImmutableSamplers = int(info.maxEmbeddedImmutableSamplers)

	o.SamplerDescriptorSize = int(info.samplerDescriptorSize)
	o.CombinedImageSamplerDescriptorSize = int(info.combinedImageSamplerDescriptorSize)
	o.SampledImageDescriptorSize = int(info.sampledImageDescriptorSize)
	o.StorageImageDescriptorSize = int(info.storageImageDescriptorSize)
	o.UniformBufferDescriptorSize = int(info.uniformBufferDescriptorSize)
	o.StorageBufferDescriptorSize = int(info.storageBufferDescriptorSize)

	o.MaxSamplerDescriptorBufferRange = uint64(info.maxSamplerDescriptorBufferRange)
	o.MaxResourceDescriptorBufferRange = uint64(info.maxResourceDescriptorBufferRange)
	o.SamplerDescriptorBufferAddressSpaceSize = uint64(info.samplerDescriptorBufferAddressSpaceSize)
	o.ResourceDescriptorBufferAddressSpaceSize = uint64(info.resourceDescriptorBufferAddressSpaceSize)
	o.DescriptorBufferAddressSpaceSize = uint64(info.descriptorBufferAddressSpaceSize)

	return info.pNext, nil
}
