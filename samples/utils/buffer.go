package utils

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Buffer is a VkBuffer bound to its own allocation.
type Buffer struct {
	Buffer core1_0.Buffer
	Memory core1_0.DeviceMemory
	Size   int

	mapped []byte
}

// EncodeData lays data out the way the GPU reads it: tightly packed in the
// platform byte order. Structs must only hold fixed size fields.
func EncodeData(data any) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %T", data)
	}
	return buf.Bytes(), nil
}

// CreateBuffer creates a buffer and binds fresh memory to it. next is chained
// onto the allocation, e.g. to request a device address.
func (i *SampleInfo) CreateBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags, next common.Options) (*Buffer, error) {
	buffer, _, err := i.DeviceDriver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, err
	}

	memRequirements := i.DeviceDriver.GetBufferMemoryRequirements(buffer)
	memoryTypeIndex, err := i.MemoryTypeFromProperties(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		i.DeviceDriver.DestroyBuffer(buffer, nil)
		return nil, err
	}

	memory, _, err := i.DeviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
		NextOptions:     common.NextOptions{Next: next},
	})
	if err != nil {
		i.DeviceDriver.DestroyBuffer(buffer, nil)
		return nil, err
	}

	_, err = i.DeviceDriver.BindBufferMemory(buffer, memory, 0)
	if err != nil {
		i.DeviceDriver.DestroyBuffer(buffer, nil)
		i.DeviceDriver.FreeMemory(memory, nil)
		return nil, err
	}

	return &Buffer{Buffer: buffer, Memory: memory, Size: size}, nil
}

// Map maps the whole buffer for the rest of its life. The memory must be host
// visible and coherent.
func (i *SampleInfo) Map(b *Buffer) ([]byte, error) {
	if b.mapped != nil {
		return b.mapped, nil
	}

	memoryPtr, _, err := i.DeviceDriver.MapMemory(b.Memory, 0, b.Size, 0)
	if err != nil {
		return nil, err
	}

	b.mapped = unsafe.Slice((*byte)(memoryPtr), b.Size)
	return b.mapped, nil
}

// WriteData encodes data into the buffer at offset.
func (i *SampleInfo) WriteData(b *Buffer, offset int, data any) error {
	encoded, err := EncodeData(data)
	if err != nil {
		return err
	}
	if offset < 0 || offset+len(encoded) > b.Size {
		return errors.Newf("writing %d bytes at %d overflows a %d byte buffer", len(encoded), offset, b.Size)
	}

	if b.mapped != nil {
		copy(b.mapped[offset:], encoded)
		return nil
	}

	memoryPtr, _, err := i.DeviceDriver.MapMemory(b.Memory, offset, len(encoded), 0)
	if err != nil {
		return err
	}
	defer i.DeviceDriver.UnmapMemory(b.Memory)

	copy(unsafe.Slice((*byte)(memoryPtr), len(encoded)), encoded)
	return nil
}

func (i *SampleInfo) DestroyBuffer(b *Buffer) {
	if b.mapped != nil {
		i.DeviceDriver.UnmapMemory(b.Memory)
		b.mapped = nil
	}
	i.DeviceDriver.DestroyBuffer(b.Buffer, nil)
	i.DeviceDriver.FreeMemory(b.Memory, nil)
}

// TrackBuffer hands the buffer to the registry.
func (i *SampleInfo) TrackBuffer(name string, b *Buffer) *Buffer {
	i.Registry.Track(name, func() { i.DestroyBuffer(b) })
	return b
}

// CreateDeviceLocalBuffer uploads data through a staging buffer into device
// local memory.
func (i *SampleInfo) CreateDeviceLocalBuffer(data any, usage core1_0.BufferUsageFlags) (*Buffer, error) {
	encoded, err := EncodeData(data)
	if err != nil {
		return nil, err
	}

	staging, err := i.CreateBuffer(len(encoded), core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent, nil)
	if err != nil {
		return nil, err
	}
	defer i.DestroyBuffer(staging)

	err = i.WriteData(staging, 0, data)
	if err != nil {
		return nil, err
	}

	buffer, err := i.CreateBuffer(len(encoded), core1_0.BufferUsageTransferDst|usage, core1_0.MemoryPropertyDeviceLocal, nil)
	if err != nil {
		return nil, err
	}

	err = i.CopyBuffer(staging.Buffer, buffer.Buffer, len(encoded))
	if err != nil {
		i.DestroyBuffer(buffer)
		return nil, err
	}

	return buffer, nil
}

func (i *SampleInfo) CopyBuffer(srcBuffer core1_0.Buffer, dstBuffer core1_0.Buffer, size int) error {
	buffer, err := i.BeginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = i.DeviceDriver.CmdCopyBuffer(buffer, srcBuffer, dstBuffer,
		core1_0.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		},
	)
	if err != nil {
		return err
	}

	return i.EndSingleTimeCommands(buffer)
}

func (i *SampleInfo) BeginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, _, err := i.DeviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        i.CmdPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return core1_0.CommandBuffer{}, err
	}

	buffer := buffers[0]
	_, err = i.DeviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	return buffer, err
}

// EndSingleTimeCommands submits buffer, optionally after the given semaphores
// signal, and blocks until the graphics queue is idle.
func (i *SampleInfo) EndSingleTimeCommands(buffer core1_0.CommandBuffer, wait ...core1_0.Semaphore) error {
	defer i.DeviceDriver.FreeCommandBuffers(buffer)

	_, err := i.DeviceDriver.EndCommandBuffer(buffer)
	if err != nil {
		return err
	}

	var waitStages []core1_0.PipelineStageFlags
	for range wait {
		waitStages = append(waitStages, core1_0.PipelineStageTransfer)
	}

	_, err = i.DeviceDriver.QueueSubmit(i.GraphicsQueue, nil,
		core1_0.SubmitInfo{
			WaitSemaphores:   wait,
			WaitDstStageMask: waitStages,
			CommandBuffers:   []core1_0.CommandBuffer{buffer},
		},
	)
	if err != nil {
		return err
	}

	_, err = i.DeviceDriver.QueueWaitIdle(i.GraphicsQueue)
	return err
}
