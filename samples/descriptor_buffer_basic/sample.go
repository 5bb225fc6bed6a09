package main

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_1"
	"github.com/vkngwrapper/core/v3/core1_2"
	"github.com/vkngwrapper/descriptor-examples/descriptors/descbuf"
	"github.com/vkngwrapper/descriptor-examples/extensions/ext_descriptor_buffer"
	"github.com/vkngwrapper/descriptor-examples/samples/utils"
	"github.com/vkngwrapper/descriptor-examples/samples/utils/procedural"
)

//go:embed meshes
var fileSystem embed.FS

// indices into the buffers bound by CmdBindDescriptorBuffers
const (
	uniformBufferIndex = 0
	imageBufferIndex   = 1
)

// SceneUBO backs set 0. ModelUBO backs set 1, one per cube.
type SceneUBO struct {
	Projection mgl32.Mat4
	View       mgl32.Mat4
}

type ModelUBO struct {
	Model mgl32.Mat4
}

type cube struct {
	base     procedural.Color
	texture  *utils.Texture
	uniform  *utils.Buffer
	address  uint64
	position mgl32.Vec3
	// degrees about x, y and z
	rotation mgl32.Vec3
	spin     mgl32.Vec3
	model    mgl32.Mat4
}

type Sample struct {
	animate bool

	properties *ext_descriptor_buffer.PhysicalDeviceDescriptorBufferProperties
	extension  ext_descriptor_buffer.ExtensionDriver
	manager    *descbuf.Manager

	uniformLayout *descbuf.Layout
	imageLayout   *descbuf.Layout
	uniformBlock  *descbuf.Block
	imageBlock    *descbuf.Block

	mesh         *utils.MeshBuffers
	sampler      core1_0.Sampler
	scene        *utils.Buffer
	sceneAddress uint64
	camera       SceneUBO
	cubes        [2]*cube

	pipelineLayout core1_0.PipelineLayout
	pipeline       core1_0.Pipeline
	pipelineID     uuid.UUID
}

var _ utils.Verifier = &Sample{}
var _ utils.ShaderReloader = &Sample{}

func NewSample() *Sample {
	return &Sample{
		animate: true,
		cubes: [2]*cube{
			{position: mgl32.Vec3{-1.25, 0, 0}, spin: mgl32.Vec3{50, 0, 0}},
			{position: mgl32.Vec3{1.25, 0, 0}, spin: mgl32.Vec3{0, 40, 0}},
		},
	}
}

func (s *Sample) Name() string { return "descriptor_buffer_basic" }

func (s *Sample) RequestGPUFeatures(request *utils.FeatureRequest) error {
	addressFeatures := &core1_2.PhysicalDeviceBufferDeviceAddressFeatures{}
	bufferFeatures := &ext_descriptor_buffer.PhysicalDeviceDescriptorBufferFeatures{
		NextOutData: common.NextOutData{Next: addressFeatures},
	}
	err := request.InstanceDriver.GetPhysicalDeviceFeatures2(request.PhysicalDevice, &core1_1.PhysicalDeviceFeatures2{
		NextOutData: common.NextOutData{Next: bufferFeatures},
	})
	if err != nil {
		return errors.Wrap(err, "query descriptor buffer features")
	}

	if !bufferFeatures.DescriptorBuffer {
		return utils.FeatureError("descriptorBuffer")
	}
	if !addressFeatures.BufferDeviceAddress {
		return utils.FeatureError("bufferDeviceAddress")
	}

	err = request.RequireExtension(ext_descriptor_buffer.ExtensionName)
	if err != nil {
		return err
	}
	// core in 1.3, listed separately by older devices
	if request.HasExtension(ext_descriptor_buffer.Synchronization2ExtensionName) {
		request.Extensions = append(request.Extensions, ext_descriptor_buffer.Synchronization2ExtensionName)
	}

	s.properties = &ext_descriptor_buffer.PhysicalDeviceDescriptorBufferProperties{}
	err = request.InstanceDriver.GetPhysicalDeviceProperties2(request.PhysicalDevice, &core1_1.PhysicalDeviceProperties2{
		NextOutData: common.NextOutData{Next: s.properties},
	})
	if err != nil {
		return errors.Wrap(err, "query descriptor buffer properties")
	}

	request.Next = ext_descriptor_buffer.PhysicalDeviceDescriptorBufferFeatures{
		DescriptorBuffer: true,
		NextOptions: common.NextOptions{
			Next: core1_2.PhysicalDeviceBufferDeviceAddressFeatures{
				BufferDeviceAddress: true,
			},
		},
	}
	return nil
}

func (s *Sample) Prepare(info *utils.SampleInfo) error {
	var err error
	s.extension, err = ext_descriptor_buffer.CreateExtensionDriverFromCoreDriver(info.DeviceDriver)
	if err != nil {
		return err
	}

	utils.LogInfo("descriptor buffer offset alignment %d, uniform buffer descriptor %d bytes, combined image sampler descriptor %d bytes",
		s.properties.DescriptorBufferOffsetAlignment,
		s.properties.UniformBufferDescriptorSize,
		s.properties.CombinedImageSamplerDescriptorSize)

	driver := descbuf.NewVulkanDriver(info.DeviceDriver, s.extension, s.properties, info.MemoryTypeFromProperties)
	s.manager = descbuf.NewManager(driver, s.properties.DescriptorBufferOffsetAlignment)
	info.Registry.Track("descriptor buffers", s.manager.Destroy)

	err = s.loadAssets(info)
	if err != nil {
		return err
	}

	err = s.prepareUniformBuffers(info)
	if err != nil {
		return err
	}

	err = s.prepareDescriptorBuffers()
	if err != nil {
		return err
	}

	s.pipelineLayout, _, err = info.DeviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		// sets 0 and 1 share a layout but point at different regions
		SetLayouts: []core1_0.DescriptorSetLayout{
			s.uniformLayout.Handle,
			s.uniformLayout.Handle,
			s.imageLayout.Handle,
		},
	})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}
	info.Registry.Track("pipeline layout", func() {
		info.DeviceDriver.DestroyPipelineLayout(s.pipelineLayout, nil)
	})

	s.pipeline, err = s.createPipeline(info)
	if err != nil {
		return err
	}
	s.pipelineID = info.Registry.Track("pipeline", destroyPipeline(info, s.pipeline))

	return s.updateUniformBuffers(info)
}

// meshFiles prefers a cube.obj in the configured asset directory over the
// embedded one.
func meshFiles(assetDir string) (fs.FS, error) {
	if assetDir != "" {
		_, err := os.Stat(filepath.Join(assetDir, "cube.obj"))
		if err == nil {
			utils.LogInfo("loading cube from %s", assetDir)
			return os.DirFS(assetDir), nil
		}
	}
	return fs.Sub(fileSystem, "meshes")
}

func (s *Sample) loadAssets(info *utils.SampleInfo) error {
	meshes, err := meshFiles(info.Config.AssetDir)
	if err != nil {
		return err
	}

	meshFile, err := meshes.Open("cube.obj")
	if err != nil {
		return err
	}
	defer meshFile.Close()

	materialFile, err := meshes.Open("cube.mtl")
	if err != nil {
		return err
	}
	defer materialFile.Close()

	mesh, err := utils.LoadMesh(meshFile, materialFile)
	if err != nil {
		return errors.Wrap(err, "load cube")
	}

	buffers, err := info.UploadMesh(mesh)
	if err != nil {
		return err
	}
	s.mesh = info.TrackMesh("cube", buffers)

	palette := procedural.Palette(len(s.cubes))
	images, err := procedural.GenerateAll(procedural.DefaultSeed, palette, procedural.ImageSize)
	if err != nil {
		return err
	}

	for i, c := range s.cubes {
		texture, err := info.UploadTexture(images[i])
		if err != nil {
			return errors.Wrapf(err, "upload texture %d", i)
		}
		c.base = palette[i]
		c.texture = info.TrackTexture("cube texture", texture)
	}

	s.sampler, err = info.CreateSampler(core1_0.FilterNearest)
	if err != nil {
		return err
	}
	info.Registry.Track("sampler", func() {
		info.DeviceDriver.DestroySampler(s.sampler, nil)
	})
	return nil
}

// createUniformBuffer returns a persistently mapped uniform buffer and its
// device address.
func (s *Sample) createUniformBuffer(info *utils.SampleInfo, name string, size int) (*utils.Buffer, uint64, error) {
	buffer, err := info.CreateBuffer(size,
		core1_0.BufferUsageUniformBuffer|core1_2.BufferUsageShaderDeviceAddress,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent,
		core1_1.MemoryAllocateFlagsInfo{Flags: core1_2.MemoryAllocateDeviceAddress},
	)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "create %s", name)
	}
	info.TrackBuffer(name, buffer)

	_, err = info.Map(buffer)
	if err != nil {
		return nil, 0, err
	}

	address, err := info.DeviceDriver.GetBufferDeviceAddress(core1_2.BufferDeviceAddressInfo{Buffer: buffer.Buffer})
	if err != nil {
		return nil, 0, errors.Wrapf(err, "query %s address", name)
	}
	return buffer, address, nil
}

func (s *Sample) prepareUniformBuffers(info *utils.SampleInfo) error {
	var err error
	s.scene, s.sceneAddress, err = s.createUniformBuffer(info, "scene uniforms", sceneUBOSize)
	if err != nil {
		return err
	}

	for _, c := range s.cubes {
		c.uniform, c.address, err = s.createUniformBuffer(info, "model uniforms", modelUBOSize)
		if err != nil {
			return err
		}
	}
	return nil
}

// prepareDescriptorBuffers lays out one region for the scene and one per cube
// in the resource buffer, and one region per cube in the sampler buffer.
func (s *Sample) prepareDescriptorBuffers() error {
	var err error
	s.uniformLayout, err = s.manager.CreateLayout(descbuf.LayoutDescriptor{
		Name: "uniform buffer",
		Bindings: []descbuf.Binding{
			{Binding: 0, DescriptorType: core1_0.DescriptorTypeUniformBuffer, Count: 1, Stages: core1_0.StageVertex},
		},
	})
	if err != nil {
		return err
	}

	s.imageLayout, err = s.manager.CreateLayout(descbuf.LayoutDescriptor{
		Name: "combined image sampler",
		Bindings: []descbuf.Binding{
			{Binding: 0, DescriptorType: core1_0.DescriptorTypeCombinedImageSampler, Count: 1, Stages: core1_0.StageFragment},
		},
	})
	if err != nil {
		return err
	}
	utils.LogDebug("layouts %s, %s", s.uniformLayout, s.imageLayout)

	s.uniformBlock, err = s.manager.Allocate(descbuf.StorageResources, descbuf.Request{
		Layout: s.uniformLayout,
		Count:  1 + len(s.cubes),
	})
	if err != nil {
		return err
	}

	s.imageBlock, err = s.manager.Allocate(descbuf.StorageSamplers, descbuf.Request{
		Layout: s.imageLayout,
		Count:  len(s.cubes),
	})
	if err != nil {
		return err
	}

	err = s.manager.WriteUniformBuffer(s.uniformBlock.Region(0), 0, s.sceneAddress, sceneUBOSize)
	if err != nil {
		return errors.Wrap(err, "write scene descriptor")
	}

	for i, c := range s.cubes {
		err = s.manager.WriteUniformBuffer(s.uniformBlock.Region(1+i), 0, c.address, modelUBOSize)
		if err != nil {
			return errors.Wrapf(err, "write model descriptor %d", i)
		}

		err = s.manager.WriteCombinedImageSampler(s.imageBlock.Region(i), 0, s.sampler, c.texture.View, core1_0.ImageLayoutShaderReadOnlyOptimal)
		if err != nil {
			return errors.Wrapf(err, "write image descriptor %d", i)
		}
	}

	return nil
}

func (s *Sample) createPipeline(info *utils.SampleInfo) (core1_0.Pipeline, error) {
	return info.CreateGraphicsPipeline(utils.PipelineSpec{
		Layout:         s.pipelineLayout,
		Flags:          ext_descriptor_buffer.PipelineCreateDescriptorBuffer,
		VertexShader:   "cube.vert.spv",
		FragmentShader: "cube.frag.spv",
		VertexInput: &core1_0.PipelineVertexInputStateCreateInfo{
			VertexBindingDescriptions:   utils.VertexBindingDescriptions(),
			VertexAttributeDescriptions: utils.VertexAttributeDescriptions(),
		},
		CullMode:  core1_0.CullModeBack,
		DepthTest: true,
	})
}

func (s *Sample) ReloadShaders(info *utils.SampleInfo) error {
	pipeline, err := s.createPipeline(info)
	if err != nil {
		return err
	}

	s.pipeline = pipeline
	s.pipelineID, err = info.Registry.Replace(s.pipelineID, "pipeline", destroyPipeline(info, pipeline))
	return err
}

func destroyPipeline(info *utils.SampleInfo, pipeline core1_0.Pipeline) func() {
	return func() {
		info.DeviceDriver.DestroyPipeline(pipeline, nil)
	}
}

func (s *Sample) BuildCommandBuffers(info *utils.SampleInfo, frame *utils.Frame) error {
	cmd := frame.CommandBuffer

	info.DeviceDriver.CmdBindPipeline(cmd, core1_0.PipelineBindPointGraphics, s.pipeline)

	// the binding order here fixes uniformBufferIndex and imageBufferIndex
	s.extension.CmdBindDescriptorBuffers(cmd,
		ext_descriptor_buffer.DescriptorBufferBindingInfo{
			Address: s.uniformBlock.Address(),
			Usage:   descbuf.Usage(s.uniformBlock.Kind()),
		},
		ext_descriptor_buffer.DescriptorBufferBindingInfo{
			Address: s.imageBlock.Address(),
			Usage:   descbuf.Usage(s.imageBlock.Kind()),
		},
	)

	err := s.extension.CmdSetDescriptorBufferOffsets(cmd, core1_0.PipelineBindPointGraphics, s.pipelineLayout, 0,
		[]int{uniformBufferIndex},
		[]int{s.uniformBlock.Region(0).Offset})
	if err != nil {
		return err
	}

	s.mesh.Bind(info.DeviceDriver, cmd)

	for i := range s.cubes {
		err = s.extension.CmdSetDescriptorBufferOffsets(cmd, core1_0.PipelineBindPointGraphics, s.pipelineLayout, 1,
			[]int{uniformBufferIndex, imageBufferIndex},
			[]int{s.uniformBlock.Region(1 + i).Offset, s.imageBlock.Region(i).Offset})
		if err != nil {
			return err
		}

		info.DeviceDriver.CmdDrawIndexed(cmd, s.mesh.IndexCount, 1, 0, 0, 0)
	}

	return nil
}

func (s *Sample) Render(info *utils.SampleInfo, frame *utils.Frame, delta time.Duration) error {
	if s.animate {
		seconds := float32(delta.Seconds())
		for _, c := range s.cubes {
			c.rotation = wrapDegrees(c.rotation.Add(c.spin.Mul(seconds)))
		}
	}

	return s.updateUniformBuffers(info)
}

func (s *Sample) updateUniformBuffers(info *utils.SampleInfo) error {
	s.camera = SceneUBO{
		Projection: Projection(info.Aspect()),
		View:       View(),
	}
	err := info.WriteData(s.scene, 0, &s.camera)
	if err != nil {
		return err
	}

	for _, c := range s.cubes {
		c.model = Model(c.position, c.rotation)
		err = info.WriteData(c.uniform, 0, &ModelUBO{Model: c.model})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Sample) OnUpdateUIOverlay(drawer *utils.Drawer) {
	drawer.Checkbox("Animate", &s.animate)
}

// Destroy has nothing to do, every object is in the registry.
func (s *Sample) Destroy(info *utils.SampleInfo) {}
