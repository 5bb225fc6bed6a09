package ext_descriptor_buffer

/*
#include <stdlib.h>
#include <string.h>
#include <vulkan/vulkan.h>

static void cgoGetDescriptorSetLayoutSizeEXT(void *fn, void *device, void *layout, VkDeviceSize *pLayoutSizeInBytes) {
	((PFN_vkGetDescriptorSetLayoutSizeEXT)fn)((VkDevice)device, (VkDescriptorSetLayout)layout, pLayoutSizeInBytes);
}

static void cgoGetDescriptorSetLayoutBindingOffsetEXT(void *fn, void *device, void *layout, uint32_t binding, VkDeviceSize *pOffset) {
	((PFN_vkGetDescriptorSetLayoutBindingOffsetEXT)fn)((VkDevice)device, (VkDescriptorSetLayout)layout, binding, pOffset);
}

static void cgoGetUniformBufferDescriptorEXT(void *fn, void *device, VkDeviceAddress address, VkDeviceSize range, size_t dataSize, void *pDescriptor) {
	VkDescriptorAddressInfoEXT addressInfo;
	memset(&addressInfo, 0, sizeof(addressInfo));
	addressInfo.sType = VK_STRUCTURE_TYPE_DESCRIPTOR_ADDRESS_INFO_EXT;
	addressInfo.address = address;
	addressInfo.range = range;
	addressInfo.format = VK_FORMAT_UNDEFINED;

	VkDescriptorGetInfoEXT getInfo;
	memset(&getInfo, 0, sizeof(getInfo));
	getInfo.sType = VK_STRUCTURE_TYPE_DESCRIPTOR_GET_INFO_EXT;
	getInfo.type = VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER;
	getInfo.data.pUniformBuffer = &addressInfo;

	((PFN_vkGetDescriptorEXT)fn)((VkDevice)device, &getInfo, dataSize, pDescriptor);
}

static void cgoGetCombinedImageSamplerDescriptorEXT(void *fn, void *device, void *sampler, void *imageView, VkImageLayout imageLayout, size_t dataSize, void *pDescriptor) {
	VkDescriptorImageInfo imageInfo;
	imageInfo.sampler = (VkSampler)sampler;
	imageInfo.imageView = (VkImageView)imageView;
	imageInfo.imageLayout = imageLayout;

	VkDescriptorGetInfoEXT getInfo;
	memset(&getInfo, 0, sizeof(getInfo));
	getInfo.sType = VK_STRUCTURE_TYPE_DESCRIPTOR_GET_INFO_EXT;
	getInfo.type = VK_DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER;
	getInfo.data.pCombinedImageSampler = &imageInfo;

	((PFN_vkGetDescriptorEXT)fn)((VkDevice)device, &getInfo, dataSize, pDescriptor);
}

static void cgoCmdBindDescriptorBuffersEXT(void *fn, void *commandBuffer, uint32_t bufferCount, const VkDeviceAddress *addresses, const VkBufferUsageFlags *usages) {
	VkDescriptorBufferBindingInfoEXT *bindingInfos = calloc(bufferCount, sizeof(VkDescriptorBufferBindingInfoEXT));
	for (uint32_t i = 0; i < bufferCount; i++) {
		bindingInfos[i].sType = VK_STRUCTURE_TYPE_DESCRIPTOR_BUFFER_BINDING_INFO_EXT;
		bindingInfos[i].address = addresses[i];
		bindingInfos[i].usage = usages[i];
	}

	((PFN_vkCmdBindDescriptorBuffersEXT)fn)((VkCommandBuffer)commandBuffer, bufferCount, bindingInfos);
	free(bindingInfos);
}

static void cgoCmdSetDescriptorBufferOffsetsEXT(void *fn, void *commandBuffer, VkPipelineBindPoint bindPoint, void *layout, uint32_t firstSet, uint32_t setCount, const uint32_t *bufferIndices, const VkDeviceSize *offsets) {
	((PFN_vkCmdSetDescriptorBufferOffsetsEXT)fn)((VkCommandBuffer)commandBuffer, bindPoint, (VkPipelineLayout)layout, firstSet, setCount, bufferIndices, offsets);
}
*/
import "C"

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/loader"
)

// DescriptorBufferBindingInfo describes one descriptor buffer binding. Usage must carry the
// descriptor buffer usage flags the buffer was created with.
type DescriptorBufferBindingInfo struct {
	Address uint64
	Usage   core1_0.BufferUsageFlags
}

// ExtensionDriver contains all the commands for the ext_descriptor_buffer extension
type ExtensionDriver interface {
	// GetDescriptorSetLayoutSize gets the size in bytes of a descriptor set layout when placed in
	// a descriptor buffer
	GetDescriptorSetLayoutSize(layout core1_0.DescriptorSetLayout) int
	// GetDescriptorSetLayoutBindingOffset gets the offset of a binding within a descriptor set
	// layout
	GetDescriptorSetLayoutBindingOffset(layout core1_0.DescriptorSetLayout, binding int) int
	// GetUniformBufferDescriptor serializes a uniform buffer descriptor for the address range
	// [address, address+rangeSize) into a slice of descriptorSize bytes
	GetUniformBufferDescriptor(address uint64, rangeSize int, descriptorSize int) []byte
	// GetCombinedImageSamplerDescriptor serializes a combined image sampler descriptor into a
	// slice of descriptorSize bytes
	GetCombinedImageSamplerDescriptor(sampler core1_0.Sampler, imageView core1_0.ImageView, imageLayout core1_0.ImageLayout, descriptorSize int) []byte
	// CmdBindDescriptorBuffers binds descriptor buffers to a command buffer
	CmdBindDescriptorBuffers(commandBuffer core1_0.CommandBuffer, bindingInfos ...DescriptorBufferBindingInfo)
	// CmdSetDescriptorBufferOffsets sets descriptor buffer offsets for consecutive sets starting
	// at firstSet. bufferIndices index into the buffers passed to CmdBindDescriptorBuffers.
	CmdSetDescriptorBufferOffsets(commandBuffer core1_0.CommandBuffer, bindPoint core1_0.PipelineBindPoint, layout core1_0.PipelineLayout, firstSet int, bufferIndices []int, offsets []int) error
}

// VulkanExtensionDriver is an implementation of ExtensionDriver that calls the device entry
// points directly
type VulkanExtensionDriver struct {
	device unsafe.Pointer

	getDescriptorSetLayoutSize          unsafe.Pointer
	getDescriptorSetLayoutBindingOffset unsafe.Pointer
	getDescriptor                       unsafe.Pointer
	cmdBindDescriptorBuffers            unsafe.Pointer
	cmdSetDescriptorBufferOffsets       unsafe.Pointer
}

var _ ExtensionDriver = &VulkanExtensionDriver{}

// CreateExtensionDriverFromCoreDriver produces an ExtensionDriver object from a Device with
// ext_descriptor_buffer loaded
func CreateExtensionDriverFromCoreDriver(coreDriver core1_0.DeviceDriver) (*VulkanExtensionDriver, error) {
	device := coreDriver.Device()
	if !device.IsDeviceExtensionActive(ExtensionName) {
		return nil, errors.Newf("%s is not active on the device", ExtensionName)
	}

	driver := &VulkanExtensionDriver{device: unsafe.Pointer(device.Handle())}

	entryPoints := []struct {
		target *unsafe.Pointer
		name   string
	}{
		{&driver.getDescriptorSetLayoutSize, "vkGetDescriptorSetLayoutSizeEXT"},
		{&driver.getDescriptorSetLayoutBindingOffset, "vkGetDescriptorSetLayoutBindingOffsetEXT"},
		{&driver.getDescriptor, "vkGetDescriptorEXT"},
		{&driver.cmdBindDescriptorBuffers, "vkCmdBindDescriptorBuffersEXT"},
		{&driver.cmdSetDescriptorBufferOffsets, "vkCmdSetDescriptorBufferOffsetsEXT"},
	}

	for _, entryPoint := range entryPoints {
		*entryPoint.target = loadProcAddr(coreDriver.Loader(), entryPoint.name)
		if *entryPoint.target == nil {
			return nil, errors.Newf("load %s: %s not found", ExtensionName, entryPoint.name)
		}
	}

	return driver, nil
}

func loadProcAddr(l loader.Loader, name string) unsafe.Pointer {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	return l.LoadProcAddr((*loader.Char)(unsafe.Pointer(cName)))
}

func (d *VulkanExtensionDriver) GetDescriptorSetLayoutSize(layout core1_0.DescriptorSetLayout) int {
	var size C.VkDeviceSize
	C.cgoGetDescriptorSetLayoutSizeEXT(d.getDescriptorSetLayoutSize, d.device, unsafe.Pointer(layout.Handle()), &size)
	return int(size)
}

func (d *VulkanExtensionDriver) GetDescriptorSetLayoutBindingOffset(layout core1_0.DescriptorSetLayout, binding int) int {
	var offset C.VkDeviceSize
	C.cgoGetDescriptorSetLayoutBindingOffsetEXT(d.getDescriptorSetLayoutBindingOffset, d.device, unsafe.Pointer(layout.Handle()), C.uint32_t(binding), &offset)
	return int(offset)
}

func (d *VulkanExtensionDriver) GetUniformBufferDescriptor(address uint64, rangeSize int, descriptorSize int) []byte {
	descriptor := C.malloc(C.size_t(descriptorSize))
	defer C.free(descriptor)

	C.cgoGetUniformBufferDescriptorEXT(d.getDescriptor, d.device, C.VkDeviceAddress(address), C.VkDeviceSize(rangeSize), C.size_t(descriptorSize), descriptor)
	return C.GoBytes(descriptor, C.int(descriptorSize))
}

func (d *VulkanExtensionDriver) GetCombinedImageSamplerDescriptor(sampler core1_0.Sampler, imageView core1_0.ImageView, imageLayout core1_0.ImageLayout, descriptorSize int) []byte {
	descriptor := C.malloc(C.size_t(descriptorSize))
	defer C.free(descriptor)

	C.cgoGetCombinedImageSamplerDescriptorEXT(d.getDescriptor, d.device,
		unsafe.Pointer(sampler.Handle()),
		unsafe.Pointer(imageView.Handle()),
		C.VkImageLayout(imageLayout),
		C.size_t(descriptorSize),
		descriptor)
	return C.GoBytes(descriptor, C.int(descriptorSize))
}

func (d *VulkanExtensionDriver) CmdBindDescriptorBuffers(commandBuffer core1_0.CommandBuffer, bindingInfos ...DescriptorBufferBindingInfo) {
	if len(bindingInfos) == 0 {
		return
	}

	addresses := make([]C.VkDeviceAddress, len(bindingInfos))
	usages := make([]C.VkBufferUsageFlags, len(bindingInfos))
	for i, info := range bindingInfos {
		addresses[i] = C.VkDeviceAddress(info.Address)
		usages[i] = C.VkBufferUsageFlags(info.Usage)
	}

	C.cgoCmdBindDescriptorBuffersEXT(d.cmdBindDescriptorBuffers,
		unsafe.Pointer(commandBuffer.Handle()),
		C.uint32_t(len(bindingInfos)),
		&addresses[0],
		&usages[0])
}

func (d *VulkanExtensionDriver) CmdSetDescriptorBufferOffsets(commandBuffer core1_0.CommandBuffer, bindPoint core1_0.PipelineBindPoint, layout core1_0.PipelineLayout, firstSet int, bufferIndices []int, offsets []int) error {
	if len(bufferIndices) != len(offsets) {
		return errors.Newf("%d buffer indices were provided for %d offsets", len(bufferIndices), len(offsets))
	}
	if len(offsets) == 0 {
		return nil
	}

	cIndices := make([]C.uint32_t, len(bufferIndices))
	cOffsets := make([]C.VkDeviceSize, len(offsets))
	for i := range offsets {
		cIndices[i] = C.uint32_t(bufferIndices[i])
		cOffsets[i] = C.VkDeviceSize(offsets[i])
	}

	C.cgoCmdSetDescriptorBufferOffsetsEXT(d.cmdSetDescriptorBufferOffsets,
		unsafe.Pointer(commandBuffer.Handle()),
		C.VkPipelineBindPoint(bindPoint),
		unsafe.Pointer(layout.Handle()),
		C.uint32_t(firstSet),
		C.uint32_t(len(offsets)),
		&cIndices[0],
		&cOffsets[0])
	return nil
}
