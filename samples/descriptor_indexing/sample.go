package main

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_1"
	"github.com/vkngwrapper/core/v3/core1_2"
	"github.com/vkngwrapper/descriptor-examples/descriptors/bindless"
	"github.com/vkngwrapper/descriptor-examples/samples/utils"
	"github.com/vkngwrapper/descriptor-examples/samples/utils/procedural"
)

const heapBindingFlags = core1_2.DescriptorBindingUpdateAfterBind |
	core1_2.DescriptorBindingPartiallyBound |
	core1_2.DescriptorBindingVariableDescriptorCount

type Sample struct {
	animate bool
	phase   float32

	// capacity is the streaming heap size after clamping to device limits,
	// count the number of test images and of non-uniform slots
	capacity   int
	count      int
	cols, rows int

	palette     []procedural.Color
	textures    []*utils.Texture
	placeholder *utils.Texture
	sampler     core1_0.Sampler

	heapLayout    core1_0.DescriptorSetLayout
	samplerLayout core1_0.DescriptorSetLayout
	heapPool      core1_0.DescriptorPool
	samplerPool   core1_0.DescriptorPool
	streamingSet  core1_0.DescriptorSet
	nonUniformSet core1_0.DescriptorSet
	samplerSet    core1_0.DescriptorSet

	streaming  *bindless.Heap[core1_0.ImageView]
	nonUniform *bindless.Heap[core1_0.ImageView]
	window     *bindless.Window

	// order shuffles images across non-uniform slots, shift rotates every
	// slot's image once verification has checked the first frame
	order []int
	shift int

	pipelineLayout     core1_0.PipelineLayout
	nonUniformPipeline core1_0.Pipeline
	streamingPipeline  core1_0.Pipeline
	pipelinesID        uuid.UUID
}

var _ utils.Verifier = &Sample{}
var _ utils.ShaderReloader = &Sample{}

func NewSample(capacity, count int) *Sample {
	cols, rows := GridSize(count)
	return &Sample{
		animate:  true,
		capacity: capacity,
		count:    count,
		cols:     cols,
		rows:     rows,
		order:    bindless.Permutation(procedural.DefaultSeed, count),
	}
}

func (s *Sample) Name() string { return "descriptor_indexing" }

func (s *Sample) RequestGPUFeatures(request *utils.FeatureRequest) error {
	features := &core1_2.PhysicalDeviceDescriptorIndexingFeatures{}
	err := request.InstanceDriver.GetPhysicalDeviceFeatures2(request.PhysicalDevice, &core1_1.PhysicalDeviceFeatures2{
		NextOutData: common.NextOutData{Next: features},
	})
	if err != nil {
		return errors.Wrap(err, "query descriptor indexing features")
	}

	for _, feature := range []struct {
		name      string
		supported bool
	}{
		{"shaderSampledImageArrayNonUniformIndexing", features.ShaderSampledImageArrayNonUniformIndexing},
		{"runtimeDescriptorArray", features.RuntimeDescriptorArray},
		{"descriptorBindingVariableDescriptorCount", features.DescriptorBindingVariableDescriptorCount},
		{"descriptorBindingPartiallyBound", features.DescriptorBindingPartiallyBound},
		{"descriptorBindingSampledImageUpdateAfterBind", features.DescriptorBindingSampledImageUpdateAfterBind},
	} {
		if !feature.supported {
			return utils.FeatureError("%s", feature.name)
		}
	}

	properties := &core1_2.PhysicalDeviceDescriptorIndexingProperties{}
	err = request.InstanceDriver.GetPhysicalDeviceProperties2(request.PhysicalDevice, &core1_1.PhysicalDeviceProperties2{
		NextOutData: common.NextOutData{Next: properties},
	})
	if err != nil {
		return errors.Wrap(err, "query descriptor indexing properties")
	}

	capacity := min(s.capacity,
		properties.MaxDescriptorSetUpdateAfterBindSampledImages,
		properties.MaxPerStageDescriptorUpdateAfterBindSampledImages,
		// the non-uniform set comes out of the same pool
		properties.MaxUpdateAfterBindDescriptorsInAllPools-s.count,
	)
	if capacity < s.count {
		return utils.FeatureError("update-after-bind heap of %d sampled images", s.count)
	}
	if capacity != s.capacity {
		utils.LogWarn("heap capacity clamped from %d to %d", s.capacity, capacity)
	}
	s.capacity = capacity

	request.Next = core1_2.PhysicalDeviceDescriptorIndexingFeatures{
		ShaderSampledImageArrayNonUniformIndexing:    true,
		DescriptorBindingSampledImageUpdateAfterBind: true,
		DescriptorBindingPartiallyBound:              true,
		DescriptorBindingVariableDescriptorCount:     true,
		RuntimeDescriptorArray:                       true,
	}
	return nil
}

func (s *Sample) Prepare(info *utils.SampleInfo) error {
	err := s.createTextures(info)
	if err != nil {
		return err
	}

	err = s.createDescriptorSets(info)
	if err != nil {
		return err
	}

	placeholder := s.placeholder.View
	s.streaming, err = bindless.New[core1_0.ImageView](s.capacity, placeholder, &bindless.SampledImageWriter{
		Device:      info.DeviceDriver,
		Set:         s.streamingSet,
		Binding:     0,
		ImageLayout: core1_0.ImageLayoutShaderReadOnlyOptimal,
	})
	if err != nil {
		return errors.Wrap(err, "create streaming heap")
	}

	s.nonUniform, err = bindless.New[core1_0.ImageView](s.count, placeholder, &bindless.SampledImageWriter{
		Device:      info.DeviceDriver,
		Set:         s.nonUniformSet,
		Binding:     0,
		ImageLayout: core1_0.ImageLayoutShaderReadOnlyOptimal,
	})
	if err != nil {
		return errors.Wrap(err, "create non-uniform heap")
	}

	s.window, err = bindless.NewWindow(s.capacity, s.count)
	if err != nil {
		return err
	}

	err = s.bindNonUniform()
	if err != nil {
		return err
	}

	s.pipelineLayout, _, err = info.DeviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{s.heapLayout, s.samplerLayout},
		PushConstantRanges: []core1_0.PushConstantRange{
			{
				StageFlags: core1_0.StageVertex | core1_0.StageFragment,
				Offset:     0,
				Size:       pushConstantsSize,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}
	info.Registry.Track("pipeline layout", func() {
		info.DeviceDriver.DestroyPipelineLayout(s.pipelineLayout, nil)
	})

	s.nonUniformPipeline, s.streamingPipeline, err = s.createPipelines(info)
	if err != nil {
		return err
	}
	s.pipelinesID = info.Registry.Track("pipelines", destroyPipelines(info, s.nonUniformPipeline, s.streamingPipeline))

	utils.LogInfo("streaming %d descriptors per frame through %d slots, %d non-uniform slots",
		s.window.Size(), s.streaming.Capacity(), s.nonUniform.Capacity())
	return nil
}

func (s *Sample) createTextures(info *utils.SampleInfo) error {
	s.palette = procedural.Palette(s.count)
	images, err := procedural.GenerateAll(procedural.DefaultSeed, s.palette, procedural.ImageSize)
	if err != nil {
		return err
	}

	for i, img := range images {
		texture, err := info.UploadTexture(img)
		if err != nil {
			return errors.Wrapf(err, "upload test image %d", i)
		}
		s.textures = append(s.textures, info.TrackTexture("test image", texture))
	}

	// unbound slots sample mid grey
	blank := image.NewRGBA(image.Rect(0, 0, 1, 1))
	blank.SetRGBA(0, 0, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	placeholder, err := info.UploadTexture(blank)
	if err != nil {
		return errors.Wrap(err, "upload placeholder")
	}
	s.placeholder = info.TrackTexture("placeholder", placeholder)

	s.sampler, err = info.CreateSampler(core1_0.FilterNearest)
	if err != nil {
		return err
	}
	info.Registry.Track("immutable sampler", func() {
		info.DeviceDriver.DestroySampler(s.sampler, nil)
	})
	return nil
}

func (s *Sample) createDescriptorSets(info *utils.SampleInfo) error {
	var err error
	s.heapLayout, _, err = info.DeviceDriver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Flags: core1_2.DescriptorSetLayoutCreateUpdateAfterBindPool,
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeSampledImage,
				DescriptorCount: s.capacity,

				StageFlags: core1_0.StageFragment,
			},
		},
		NextOptions: common.NextOptions{
			Next: core1_2.DescriptorSetLayoutBindingFlagsCreateInfo{
				BindingFlags: []core1_2.DescriptorBindingFlags{heapBindingFlags},
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create heap layout")
	}
	info.Registry.Track("heap layout", func() {
		info.DeviceDriver.DestroyDescriptorSetLayout(s.heapLayout, nil)
	})

	s.samplerLayout, _, err = info.DeviceDriver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: []core1_0.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorType:  core1_0.DescriptorTypeSampler,
				DescriptorCount: 1,

				StageFlags:        core1_0.StageFragment,
				ImmutableSamplers: []core1_0.Sampler{s.sampler},
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create sampler layout")
	}
	info.Registry.Track("sampler layout", func() {
		info.DeviceDriver.DestroyDescriptorSetLayout(s.samplerLayout, nil)
	})

	s.heapPool, _, err = info.DeviceDriver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		Flags:   core1_2.DescriptorPoolCreateUpdateAfterBind,
		MaxSets: 2,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{
				Type:            core1_0.DescriptorTypeSampledImage,
				DescriptorCount: s.capacity + s.count,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create heap pool")
	}
	info.Registry.Track("heap pool", func() {
		info.DeviceDriver.DestroyDescriptorPool(s.heapPool, nil)
	})

	// one layout, two sizes
	heapSets, _, err := info.DeviceDriver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: s.heapPool,
		SetLayouts:     []core1_0.DescriptorSetLayout{s.heapLayout, s.heapLayout},
		NextOptions: common.NextOptions{
			Next: core1_2.DescriptorSetVariableDescriptorCountAllocateInfo{
				DescriptorCounts: []int{s.capacity, s.count},
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "allocate heap sets")
	}
	s.streamingSet, s.nonUniformSet = heapSets[0], heapSets[1]

	s.samplerPool, _, err = info.DeviceDriver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets: 1,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{
				Type:            core1_0.DescriptorTypeSampler,
				DescriptorCount: 1,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create sampler pool")
	}
	info.Registry.Track("sampler pool", func() {
		info.DeviceDriver.DestroyDescriptorPool(s.samplerPool, nil)
	})

	samplerSets, _, err := info.DeviceDriver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: s.samplerPool,
		SetLayouts:     []core1_0.DescriptorSetLayout{s.samplerLayout},
	})
	if err != nil {
		return errors.Wrap(err, "allocate sampler set")
	}
	s.samplerSet = samplerSets[0]
	return nil
}

// bindNonUniform points every non-uniform slot at its image for the current
// shift. The device must be idle.
func (s *Sample) bindNonUniform() error {
	views := make([]core1_0.ImageView, s.count)
	for slot := range views {
		views[slot] = s.textures[NonUniformImage(s.order, s.shift, slot)].View
	}
	return s.nonUniform.BindRange(0, views)
}

func (s *Sample) createPipelines(info *utils.SampleInfo) (nonUniform, streaming core1_0.Pipeline, err error) {
	nonUniform, err = info.CreateGraphicsPipeline(utils.PipelineSpec{
		Layout:         s.pipelineLayout,
		VertexShader:   "nonuniform-quads.vert.spv",
		FragmentShader: "nonuniform-quads.frag.spv",
		CullMode:       core1_0.CullModeNone,
	})
	if err != nil {
		return nonUniform, streaming, err
	}

	streaming, err = info.CreateGraphicsPipeline(utils.PipelineSpec{
		Layout:         s.pipelineLayout,
		VertexShader:   "update-after-bind-quads.vert.spv",
		FragmentShader: "update-after-bind-quads.frag.spv",
		CullMode:       core1_0.CullModeNone,
	})
	if err != nil {
		info.DeviceDriver.DestroyPipeline(nonUniform, nil)
		return core1_0.Pipeline{}, streaming, err
	}

	return nonUniform, streaming, nil
}

func (s *Sample) ReloadShaders(info *utils.SampleInfo) error {
	nonUniform, streaming, err := s.createPipelines(info)
	if err != nil {
		return err
	}

	s.nonUniformPipeline, s.streamingPipeline = nonUniform, streaming
	s.pipelinesID, err = info.Registry.Replace(s.pipelinesID, "pipelines", destroyPipelines(info, nonUniform, streaming))
	return err
}

func destroyPipelines(info *utils.SampleInfo, pipelines ...core1_0.Pipeline) func() {
	return func() {
		for _, pipeline := range pipelines {
			info.DeviceDriver.DestroyPipeline(pipeline, nil)
		}
	}
}

func (s *Sample) pushConstants(info *utils.SampleInfo, cmd core1_0.CommandBuffer, constants PushConstants) error {
	data, err := utils.EncodeData(&constants)
	if err != nil {
		return err
	}
	info.DeviceDriver.CmdPushConstants(cmd, s.pipelineLayout, core1_0.StageVertex|core1_0.StageFragment, 0, data)
	return nil
}

func (s *Sample) BuildCommandBuffers(info *utils.SampleInfo, frame *utils.Frame) error {
	cmd := frame.CommandBuffer
	constants := PushConstants{
		Phase: s.phase,
		Cols:  uint32(s.cols),
		Rows:  uint32(s.rows),
	}

	info.DeviceDriver.CmdBindPipeline(cmd, core1_0.PipelineBindPointGraphics, s.nonUniformPipeline)
	info.DeviceDriver.CmdBindDescriptorSets(cmd, core1_0.PipelineBindPointGraphics, s.pipelineLayout, 0,
		[]core1_0.DescriptorSet{s.nonUniformSet, s.samplerSet}, nil)

	constants.Base = s.nonUniform.Select(0)
	constants.Region = regionNonUniform
	err := s.pushConstants(info, cmd, constants)
	if err != nil {
		return err
	}
	info.DeviceDriver.CmdDraw(cmd, 6, s.count, 0, 0)

	info.DeviceDriver.CmdBindPipeline(cmd, core1_0.PipelineBindPointGraphics, s.streamingPipeline)
	info.DeviceDriver.CmdBindDescriptorSets(cmd, core1_0.PipelineBindPointGraphics, s.pipelineLayout, 0,
		[]core1_0.DescriptorSet{s.streamingSet, s.samplerSet}, nil)

	constants.Region = regionStreaming
	for i := 0; i < s.window.Size(); i++ {
		// these slots are written in Render, after recording
		constants.Base = s.streaming.Select(s.window.Slot(i))
		constants.Quad = uint32(i)
		err = s.pushConstants(info, cmd, constants)
		if err != nil {
			return err
		}
		info.DeviceDriver.CmdDraw(cmd, 6, 1, 0, 0)
	}

	return nil
}

// Render writes the descriptors the streaming draws of this frame read, then
// moves the window on. The previous frame has completed, so nothing pending
// reads the slots being replaced.
func (s *Sample) Render(info *utils.SampleInfo, frame *utils.Frame, delta time.Duration) error {
	if s.animate {
		s.phase = float32(math.Mod(float64(s.phase)+delta.Seconds()*2, 2*math.Pi))
	}

	views := make([]core1_0.ImageView, s.window.Size())
	for i := range views {
		views[i] = s.textures[StreamedImage(s.count, s.shift, i)].View
	}

	err := s.streaming.BindRange(s.window.Base(), views)
	if err != nil {
		return errors.Wrapf(err, "stream descriptors at %d", s.window.Base())
	}

	s.window.Advance()
	return nil
}

func (s *Sample) OnUpdateUIOverlay(drawer *utils.Drawer) {
	drawer.Checkbox("Animate", &s.animate)
}

// Destroy has nothing to do, every object is in the registry.
func (s *Sample) Destroy(info *utils.SampleInfo) {}
