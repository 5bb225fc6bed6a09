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

// PhysicalDeviceDescriptorBufferFeatures describes the descriptor buffer features that can be
// supported by an implementation. It is passed to GetPhysicalDeviceFeatures2 to query support and
// chained onto DeviceCreateInfo to enable them.
type PhysicalDeviceDescriptorBufferFeatures struct {
	// DescriptorBuffer indicates that the implementation supports putting shader-accessible
	// descriptors directly in memory
	DescriptorBuffer bool
	// DescriptorBufferCaptureReplay indicates that the implementation supports capture and replay
	// when using descriptor buffers
	DescriptorBufferCaptureReplay bool
	// DescriptorBufferImageLayoutIgnored indicates that the implementation will ignore ImageLayout
	// when getting image descriptors
	DescriptorBufferImageLayoutIgnored bool
	// DescriptorBufferPushDescriptors indicates that the implementation supports using push
	// descriptors with descriptor buffers
	DescriptorBufferPushDescriptors bool

	common.NextOptions
	common.NextOutData
}

func (o *PhysicalDeviceDescriptorBufferFeatures) PopulateHeader(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(int(unsafe.Sizeof(C.VkPhysicalDeviceDescriptorBufferFeaturesEXT{})))
	}

	info := (*C.VkPhysicalDeviceDescriptorBufferFeaturesEXT)(preallocatedPointer)
	info.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_DESCRIPTOR_BUFFER_FEATURES_EXT
	info.pNext = next

	return preallocatedPointer, nil
}

func (o *PhysicalDeviceDescriptorBufferFeatures) PopulateOutData(cDataPointer unsafe.Pointer, helpers ...any) (next unsafe.Pointer, err error) {
	info := (*C.VkPhysicalDeviceDescriptorBufferFeaturesEXT)(cDataPointer)

	o.DescriptorBuffer = info.descriptorBuffer != C.VkBool32(0)
	o.DescriptorBufferCaptureReplay = info.descriptorBufferCaptureReplay != C.VkBool32(0)
	o.DescriptorBufferImageLayoutIgnored = info.descriptorBufferImageLayoutIgnored != C.VkBool32(0)
	o.DescriptorBufferPushDescriptors = info.descriptorBufferPushDescriptors != C.VkBool32(0)

	return info.pNext, nil
}

func (o PhysicalDeviceDescriptorBufferFeatures) PopulateCPointer(allocator *cgoparam.Allocator, preallocatedPointer unsafe.Pointer, next unsafe.Pointer) (unsafe.Pointer, error) {
	if preallocatedPointer == nil {
		preallocatedPointer = allocator.Malloc(int(unsafe.Sizeof(C.VkPhysicalDeviceDescriptorBufferFeaturesEXT{})))
	}

	info := (*C.VkPhysicalDeviceDescriptorBufferFeaturesEXT)(preallocatedPointer)
	info.sType = C.VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_DESCRIPTOR_BUFFER_FEATURES_EXT
	info.pNext = next
	info.descriptorBuffer = toVkBool(o.DescriptorBuffer)
	info.descriptorBufferCaptureReplay = toVkBool(o.DescriptorBufferCaptureReplay)
	info.descriptorBufferImageLayoutIgnored = toVkBool(o.DescriptorBufferImageLayoutIgnored)
	info.descriptorBufferPushDescriptors = toVkBool(o.DescriptorBufferPushDescriptors)

	return preallocatedPointer, nil
}

func toVkBool(value bool) C.VkBool32 {
	if value {
		return C.VkBool32(1)
	}
	return C.VkBool32(0)
}
