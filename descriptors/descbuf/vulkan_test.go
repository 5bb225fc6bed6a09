package descbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_2"
	"github.com/vkngwrapper/descriptor-examples/extensions/ext_descriptor_buffer"
)

func TestUsage(t *testing.T) {
	require.Equal(t,
		core1_2.BufferUsageShaderDeviceAddress|ext_descriptor_buffer.BufferUsageResourceDescriptorBuffer,
		Usage(StorageResources))
	require.Equal(t,
		core1_2.BufferUsageShaderDeviceAddress|ext_descriptor_buffer.BufferUsageSamplerDescriptorBuffer,
		Usage(StorageSamplers))
}
