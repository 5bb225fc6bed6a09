package ext_descriptor_buffer

import "github.com/vkngwrapper/core/v3/core1_0"

// ExtensionName is "VK_EXT_descriptor_buffer"
const ExtensionName string = "VK_EXT_descriptor_buffer"

// Synchronization2ExtensionName is "VK_KHR_synchronization2", a dependency of
// VK_EXT_descriptor_buffer on devices older than Vulkan 1.3
const Synchronization2ExtensionName string = "VK_KHR_synchronization2"

const (
	// BufferUsageResourceDescriptorBuffer specifies that the buffer is suitable to contain resource
	// descriptors when bound as a descriptor buffer
	BufferUsageResourceDescriptorBuffer core1_0.BufferUsageFlags = 0x00200000
	// BufferUsageSamplerDescriptorBuffer specifies that the buffer is suitable to contain sampler and
	// combined image sampler descriptors when bound as a descriptor buffer
	BufferUsageSamplerDescriptorBuffer core1_0.BufferUsageFlags = 0x00400000

	// DescriptorSetLayoutCreateDescriptorBuffer specifies that the descriptor set layout must be used
	// with descriptor buffers
	DescriptorSetLayoutCreateDescriptorBuffer core1_0.DescriptorSetLayoutCreateFlags = 0x00000010

	// PipelineCreateDescriptorBuffer specifies that a pipeline will be used with descriptor buffers
	// rather than descriptor sets
	PipelineCreateDescriptorBuffer core1_0.PipelineCreateFlags = 0x20000000
)

func init() {
	BufferUsageResourceDescriptorBuffer.Register("Resource Descriptor Buffer")
	BufferUsageSamplerDescriptorBuffer.Register("Sampler Descriptor Buffer")
	DescriptorSetLayoutCreateDescriptorBuffer.Register("Descriptor Buffer")
	PipelineCreateDescriptorBuffer.Register("Descriptor Buffer")
}
