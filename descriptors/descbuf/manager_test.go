package descbuf

import (
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type fakeLayout struct {
	size    int
	offsets map[int]int
}

type fakeDriver struct {
	layouts map[string]fakeLayout

	descriptorSize int
	nextAddress    uint64

	sizeErr error

	events []string
}

func newFakeDriver(descriptorSize int) *fakeDriver {
	return &fakeDriver{
		layouts:        map[string]fakeLayout{},
		descriptorSize: descriptorSize,
		nextAddress:    0x10000,
	}
}

func (d *fakeDriver) CreateLayout(desc LayoutDescriptor) (core1_0.DescriptorSetLayout, error) {
	d.events = append(d.events, "create layout "+desc.Name)
	return core1_0.DescriptorSetLayout{}, nil
}

func (d *fakeDriver) DestroyLayout(layout *Layout) {
	d.events = append(d.events, "destroy layout "+layout.Descriptor.Name)
}

func (d *fakeDriver) LayoutSize(layout *Layout) (int, error) {
	if d.sizeErr != nil {
		return 0, d.sizeErr
	}
	return d.layouts[layout.Descriptor.Name].size, nil
}

func (d *fakeDriver) LayoutBindingOffset(layout *Layout, binding int) (int, error) {
	offset, ok := d.layouts[layout.Descriptor.Name].offsets[binding]
	if !ok {
		return 0, errors.Newf("no binding %d", binding)
	}
	return offset, nil
}

func (d *fakeDriver) AllocateStorage(size int, kind StorageKind) (*Storage, error) {
	storage := &Storage{
		Address: d.nextAddress,
		Data:    make([]byte, size),
	}
	d.nextAddress += uint64(size)
	d.events = append(d.events, fmt.Sprintf("allocate %s %d", kind, size))
	return storage, nil
}

func (d *fakeDriver) FreeStorage(storage *Storage) {
	d.events = append(d.events, fmt.Sprintf("free %#x", storage.Address))
}

func (d *fakeDriver) UniformBufferDescriptor(address uint64, size int) ([]byte, error) {
	descriptor := make([]byte, d.descriptorSize)
	binary.LittleEndian.PutUint64(descriptor, address)
	binary.LittleEndian.PutUint32(descriptor[8:], uint32(size))
	return descriptor, nil
}

func (d *fakeDriver) CombinedImageSamplerDescriptor(sampler core1_0.Sampler, view core1_0.ImageView, layout core1_0.ImageLayout) ([]byte, error) {
	descriptor := make([]byte, d.descriptorSize)
	for i := range descriptor {
		descriptor[i] = byte(0xA0 + i)
	}
	binary.LittleEndian.PutUint32(descriptor, uint32(layout))
	return descriptor, nil
}

func uniformLayout(name string) LayoutDescriptor {
	return LayoutDescriptor{
		Name: name,
		Bindings: []Binding{
			{Binding: 0, DescriptorType: core1_0.DescriptorTypeUniformBuffer, Count: 1, Stages: core1_0.StageVertex},
		},
	}
}

func imageLayout(name string) LayoutDescriptor {
	return LayoutDescriptor{
		Name: name,
		Bindings: []Binding{
			{Binding: 0, DescriptorType: core1_0.DescriptorTypeCombinedImageSampler, Count: 1, Stages: core1_0.StageFragment},
		},
	}
}

func TestCreateLayout_SizeIsAlignedMultiple(t *testing.T) {
	for _, size := range []int{1, 16, 24, 64, 100, 4096} {
		for _, alignment := range []int{0, 1, 4, 16, 64, 256} {
			t.Run(fmt.Sprintf("size=%d/alignment=%d", size, alignment), func(t *testing.T) {
				driver := newFakeDriver(16)
				driver.layouts["scene"] = fakeLayout{size: size, offsets: map[int]int{0: 0}}

				manager := NewManager(driver, alignment)
				layout, err := manager.CreateLayout(uniformLayout("scene"))
				require.NoError(t, err)

				require.Equal(t, size, layout.RequiredSize)
				require.GreaterOrEqual(t, layout.Size, layout.RequiredSize)
				if alignment > 1 {
					require.Zero(t, layout.Size%alignment)
					require.Less(t, layout.Size-layout.RequiredSize, alignment)
				} else {
					require.Equal(t, size, layout.Size)
				}
			})
		}
	}
}

func TestCreateLayout_BindingOffsets(t *testing.T) {
	driver := newFakeDriver(16)
	driver.layouts["material"] = fakeLayout{size: 48, offsets: map[int]int{0: 0, 2: 16}}

	manager := NewManager(driver, 64)
	layout, err := manager.CreateLayout(LayoutDescriptor{
		Name: "material",
		Bindings: []Binding{
			{Binding: 2, DescriptorType: core1_0.DescriptorTypeCombinedImageSampler, Count: 1, Stages: core1_0.StageFragment},
			{Binding: 0, DescriptorType: core1_0.DescriptorTypeUniformBuffer, Count: 1, Stages: core1_0.StageVertex},
		},
	})
	require.NoError(t, err)

	offset, ok := layout.BindingOffset(2)
	require.True(t, ok)
	require.Equal(t, 16, offset)

	_, ok = layout.BindingOffset(1)
	require.False(t, ok)

	require.Equal(t, []int{0, 2}, layout.Bindings())
	require.Equal(t, "material(size=48 aligned=64 bindings=2)", layout.String())
}

func TestCreateLayout_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		desc      LayoutDescriptor
		layout    fakeLayout
		sizeErr   error
		destroyed bool
	}{
		{
			name: "NoBindings",
			desc: LayoutDescriptor{Name: "empty"},
		},
		{
			name: "DuplicateBinding",
			desc: LayoutDescriptor{
				Name: "dup",
				Bindings: []Binding{
					{Binding: 1, DescriptorType: core1_0.DescriptorTypeUniformBuffer},
					{Binding: 1, DescriptorType: core1_0.DescriptorTypeUniformBuffer},
				},
			},
		},
		{
			name:      "SizeQueryFails",
			desc:      uniformLayout("broken"),
			sizeErr:   errors.New("device lost"),
			destroyed: true,
		},
		{
			name:      "OffsetPastSize",
			desc:      uniformLayout("overrun"),
			layout:    fakeLayout{size: 16, offsets: map[int]int{0: 16}},
			destroyed: true,
		},
		{
			name:      "MissingOffset",
			desc:      uniformLayout("missing"),
			layout:    fakeLayout{size: 16, offsets: map[int]int{}},
			destroyed: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			driver := newFakeDriver(16)
			driver.layouts[testCase.desc.Name] = testCase.layout
			driver.sizeErr = testCase.sizeErr

			manager := NewManager(driver, 64)
			_, err := manager.CreateLayout(testCase.desc)
			require.Error(t, err)

			if testCase.destroyed {
				require.Contains(t, driver.events, "destroy layout "+testCase.desc.Name)
			} else {
				require.Empty(t, driver.events)
			}

			// a failed layout is never tracked, so Destroy must not release it twice
			manager.Destroy()
			require.Equal(t, boolInt(testCase.destroyed), countPrefix(driver.events, "destroy layout"))
		})
	}
}

func countPrefix(events []string, prefix string) int {
	count := 0
	for _, event := range events {
		if strings.HasPrefix(event, prefix) {
			count++
		}
	}
	return count
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestAllocate_RegionsAreAligned(t *testing.T) {
	driver := newFakeDriver(16)
	driver.layouts["scene"] = fakeLayout{size: 24, offsets: map[int]int{0: 0}}
	driver.layouts["model"] = fakeLayout{size: 72, offsets: map[int]int{0: 0}}

	manager := NewManager(driver, 64)
	scene, err := manager.CreateLayout(uniformLayout("scene"))
	require.NoError(t, err)
	model, err := manager.CreateLayout(uniformLayout("model"))
	require.NoError(t, err)

	block, err := manager.Allocate(StorageResources,
		Request{Layout: scene, Count: 1},
		Request{Layout: model, Count: 2},
	)
	require.NoError(t, err)

	require.Equal(t, StorageResources, block.Kind())
	require.Len(t, block.Regions(), 3)
	require.Equal(t, 64+128+128, block.Size())
	require.Len(t, block.Storage().Data, block.Size())
	require.Equal(t, uint64(0x10000), block.Address())

	expectedOffsets := []int{0, 64, 192}
	for i, region := range block.Regions() {
		require.Equal(t, expectedOffsets[i], region.Offset)
		require.Zero(t, region.Offset%manager.Alignment())
		require.Zero(t, region.Size%manager.Alignment())
		require.Len(t, region.Bytes(), region.Size)
		require.Same(t, block, region.Block())
	}

	require.Same(t, scene, block.Region(0).Layout)
	require.Same(t, model, block.Region(2).Layout)
	require.Contains(t, driver.events, "allocate resources 320")
}

func TestAllocate_Errors(t *testing.T) {
	driver := newFakeDriver(16)
	driver.layouts["scene"] = fakeLayout{size: 24, offsets: map[int]int{0: 0}}

	manager := NewManager(driver, 64)
	scene, err := manager.CreateLayout(uniformLayout("scene"))
	require.NoError(t, err)

	_, err = manager.Allocate(StorageResources)
	require.Error(t, err)

	_, err = manager.Allocate(StorageResources, Request{Count: 1})
	require.Error(t, err)

	_, err = manager.Allocate(StorageResources, Request{Layout: scene, Count: 0})
	require.Error(t, err)

	require.Zero(t, countPrefix(driver.events, "allocate"))
}

func TestWriteUniformBuffer_ReadbackMatchesDriver(t *testing.T) {
	driver := newFakeDriver(16)
	driver.layouts["model"] = fakeLayout{size: 32, offsets: map[int]int{0: 8}}

	manager := NewManager(driver, 64)
	model, err := manager.CreateLayout(uniformLayout("model"))
	require.NoError(t, err)

	block, err := manager.Allocate(StorageResources, Request{Layout: model, Count: 2})
	require.NoError(t, err)

	region := block.Region(1)
	require.NoError(t, manager.WriteUniformBuffer(region, 0, 0xCAFE0000, 192))

	expected, err := driver.UniformBufferDescriptor(0xCAFE0000, 192)
	require.NoError(t, err)

	require.Equal(t, expected, region.Bytes()[8:8+16])
	require.Equal(t, expected, block.Storage().Data[region.Offset+8:region.Offset+8+16])

	// the neighbouring region is untouched
	require.Equal(t, make([]byte, block.Region(0).Size), block.Region(0).Bytes())
}

func TestWrite_OverwriteReplacesContents(t *testing.T) {
	driver := newFakeDriver(16)
	driver.layouts["model"] = fakeLayout{size: 16, offsets: map[int]int{0: 0}}

	manager := NewManager(driver, 16)
	model, err := manager.CreateLayout(uniformLayout("model"))
	require.NoError(t, err)

	block, err := manager.Allocate(StorageResources, Request{Layout: model, Count: 1})
	require.NoError(t, err)
	region := block.Region(0)

	require.NoError(t, manager.WriteUniformBuffer(region, 0, 0x1000, 64))
	require.NoError(t, manager.WriteUniformBuffer(region, 0, 0x2000, 128))

	expected, err := driver.UniformBufferDescriptor(0x2000, 128)
	require.NoError(t, err)
	require.Equal(t, expected, region.Bytes())
}

func TestWriteCombinedImageSampler(t *testing.T) {
	driver := newFakeDriver(32)
	driver.layouts["image"] = fakeLayout{size: 32, offsets: map[int]int{0: 0}}

	manager := NewManager(driver, 64)
	image, err := manager.CreateLayout(imageLayout("image"))
	require.NoError(t, err)

	samplers, err := manager.Allocate(StorageSamplers, Request{Layout: image, Count: 2})
	require.NoError(t, err)
	resources, err := manager.Allocate(StorageResources, Request{Layout: image, Count: 1})
	require.NoError(t, err)

	require.NoError(t, manager.WriteCombinedImageSampler(samplers.Region(1), 0, core1_0.Sampler{}, core1_0.ImageView{}, core1_0.ImageLayoutShaderReadOnlyOptimal))

	expected, err := driver.CombinedImageSamplerDescriptor(core1_0.Sampler{}, core1_0.ImageView{}, core1_0.ImageLayoutShaderReadOnlyOptimal)
	require.NoError(t, err)
	require.Equal(t, expected, samplers.Region(1).Bytes()[:32])

	err = manager.WriteCombinedImageSampler(resources.Region(0), 0, core1_0.Sampler{}, core1_0.ImageView{}, core1_0.ImageLayoutShaderReadOnlyOptimal)
	require.Error(t, err)
	require.Contains(t, err.Error(), "resources storage")
}

func TestRegionWrite_Errors(t *testing.T) {
	driver := newFakeDriver(16)
	driver.layouts["small"] = fakeLayout{size: 16, offsets: map[int]int{0: 8}}

	manager := NewManager(driver, 1)
	small, err := manager.CreateLayout(uniformLayout("small"))
	require.NoError(t, err)

	block, err := manager.Allocate(StorageResources, Request{Layout: small, Count: 1})
	require.NoError(t, err)
	region := block.Region(0)

	err = region.Write(0, make([]byte, 16))
	require.Error(t, err)
	require.Contains(t, err.Error(), "overflows")

	err = region.Write(3, make([]byte, 4))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no binding 3")

	require.NoError(t, region.Write(0, []byte{1, 2, 3, 4, 5, 6, 7, 8}))
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8}, region.Bytes())
}

func TestDestroy_ReleasesNewestFirst(t *testing.T) {
	driver := newFakeDriver(16)
	driver.layouts["scene"] = fakeLayout{size: 16, offsets: map[int]int{0: 0}}
	driver.layouts["image"] = fakeLayout{size: 16, offsets: map[int]int{0: 0}}

	manager := NewManager(driver, 16)
	scene, err := manager.CreateLayout(uniformLayout("scene"))
	require.NoError(t, err)
	image, err := manager.CreateLayout(imageLayout("image"))
	require.NoError(t, err)

	uniforms, err := manager.Allocate(StorageResources, Request{Layout: scene, Count: 1})
	require.NoError(t, err)
	_, err = manager.Allocate(StorageSamplers, Request{Layout: image, Count: 1})
	require.NoError(t, err)

	driver.events = nil
	manager.Destroy()

	require.Equal(t, []string{
		"free 0x10010",
		"free 0x10000",
		"destroy layout image",
		"destroy layout scene",
	}, driver.events)

	err = uniforms.Region(0).Write(0, make([]byte, 4))
	require.Error(t, err)

	driver.events = nil
	manager.Destroy()
	require.Empty(t, driver.events)
}

func TestRegionBytes_NilAfterDestroy(t *testing.T) {
	driver := newFakeDriver(16)
	driver.layouts["scene"] = fakeLayout{size: 16, offsets: map[int]int{0: 0}}

	manager := NewManager(driver, 16)
	scene, err := manager.CreateLayout(uniformLayout("scene"))
	require.NoError(t, err)

	block, err := manager.Allocate(StorageResources, Request{Layout: scene, Count: 2})
	require.NoError(t, err)
	require.Len(t, block.Region(1).Bytes(), 16)

	manager.Destroy()

	require.NotPanics(t, func() {
		require.Nil(t, block.Region(0).Bytes())
		require.Nil(t, block.Region(1).Bytes())
	})
}

func TestWriteUniformBuffer_RejectsSamplerStorage(t *testing.T) {
	driver := newFakeDriver(16)
	driver.layouts["scene"] = fakeLayout{size: 16, offsets: map[int]int{0: 0}}

	manager := NewManager(driver, 16)
	scene, err := manager.CreateLayout(uniformLayout("scene"))
	require.NoError(t, err)

	samplers, err := manager.Allocate(StorageSamplers, Request{Layout: scene, Count: 1})
	require.NoError(t, err)

	err = manager.WriteUniformBuffer(samplers.Region(0), 0, 0x1000, 64)
	require.Error(t, err)
	require.Contains(t, err.Error(), "samplers storage")
	require.Equal(t, make([]byte, 16), samplers.Region(0).Bytes())
}
