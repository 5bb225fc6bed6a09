package utils

import (
	"fmt"
	"image"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_2"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

type SwapchainBuffer struct {
	Image core1_0.Image
	View  core1_0.ImageView
}

// SampleInfo owns everything a sample renders with: the window, the Vulkan
// instance and device, the swapchain with its depth buffer, render pass and
// framebuffers, and the per-frame command buffers and synchronization.
// Exactly one frame is in flight at a time, so once PrepareFrame returns the
// host may overwrite anything the previous frame read.
type SampleInfo struct {
	Config Config
	Window *sdl.Window

	GlobalDriver   core1_0.GlobalDriver
	InstanceDriver core1_2.CoreInstanceDriver
	DeviceDriver   core1_2.CoreDeviceDriver

	debugDriver    ext_debug_utils.ExtensionDriver
	debugMessenger ext_debug_utils.DebugUtilsMessenger

	SurfaceExtension   khr_surface.ExtensionDriver
	Surface            khr_surface.Surface
	SwapchainExtension khr_swapchain.ExtensionDriver
	Swapchain          khr_swapchain.Swapchain

	PhysicalDevice           core1_0.PhysicalDevice
	GpuProps                 *core1_0.PhysicalDeviceProperties
	MemoryProperties         *core1_0.PhysicalDeviceMemoryProperties
	GraphicsQueueFamilyIndex int
	PresentQueueFamilyIndex  int
	GraphicsQueue            core1_0.Queue
	PresentQueue             core1_0.Queue

	Format       core1_0.Format
	Extent       core1_0.Extent2D
	Buffers      []SwapchainBuffer
	Framebuffers []core1_0.Framebuffer
	RenderPass   core1_0.RenderPass

	Depth struct {
		Format core1_0.Format
		Image  core1_0.Image
		Mem    core1_0.DeviceMemory
		View   core1_0.ImageView
	}

	CmdPool        core1_0.CommandPool
	commandBuffers []core1_0.CommandBuffer

	imageAcquired  core1_0.Semaphore
	renderFinished []core1_0.Semaphore
	inFlight       core1_0.Fence

	// Registry holds the sample's own device objects. It is released after
	// Sample.Destroy and before the device goes away.
	Registry Registry

	drawer   Drawer
	watcher  *ShaderWatcher
	prepared bool
}

func NewSampleInfo(config Config) *SampleInfo {
	return &SampleInfo{Config: config}
}

// Run creates everything the sample needs, drives its render loop until the
// window closes or the configured frame count is reached, then tears down.
func (i *SampleInfo) Run(sample Sample) (err error) {
	err = SetLogLevel(i.Config.LogLevel)
	if err != nil {
		return err
	}
	SetLogPrefix(sample.Name())

	defer i.cleanup(sample)

	err = i.initWindow(sample.Name())
	if err != nil {
		return errors.Wrap(err, "create window")
	}

	err = i.initInstance(sample.Name())
	if err != nil {
		return errors.Wrap(err, "create instance")
	}

	err = i.setupDebugMessenger()
	if err != nil {
		return errors.Wrap(err, "create debug messenger")
	}

	i.SurfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(i.InstanceDriver)
	i.Surface, err = vkng_sdl2.CreateSurface(i.InstanceDriver.Instance(), i.SurfaceExtension, i.Window)
	if err != nil {
		return errors.Wrap(err, "create surface")
	}

	request, err := i.pickPhysicalDevice(sample)
	if err != nil {
		return err
	}

	err = i.initDevice(request)
	if err != nil {
		return errors.Wrap(err, "create device")
	}

	err = i.initCommandPool()
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}

	err = i.initSyncObjects()
	if err != nil {
		return errors.Wrap(err, "create synchronization objects")
	}

	err = i.initSwapchain()
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}

	err = i.initRenderPass()
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}

	err = i.initFramebuffers()
	if err != nil {
		return errors.Wrap(err, "create framebuffers")
	}

	i.prepared = true
	err = sample.Prepare(i)
	if err != nil {
		return errors.Wrapf(err, "prepare %s", sample.Name())
	}

	sample.OnUpdateUIOverlay(&i.drawer)
	i.Window.SetTitle(i.drawer.Title(sample.Name()))

	if i.Config.HotReload {
		if _, ok := sample.(ShaderReloader); ok {
			i.watcher, err = WatchShaders(i.Config.ShaderDir)
			if err != nil {
				return err
			}
		}
	}

	return i.mainLoop(sample)
}

func (i *SampleInfo) initWindow(title string) error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return err
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(i.Config.Width), int32(i.Config.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return err
	}
	i.Window = window

	i.GlobalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	return err
}

func (i *SampleInfo) initInstance(name string) error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    name,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "descriptor-examples",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := i.GlobalDriver.AvailableExtensions()
	if err != nil {
		return err
	}

	for _, ext := range i.Window.VulkanGetInstanceExtensions() {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Newf("cannot initialize sdl: missing extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if i.Config.Validation {
		layers, _, err := i.GlobalDriver.AvailableLayers()
		if err != nil {
			return err
		}

		_, hasDebugUtils := extensions[ext_debug_utils.ExtensionName]
		for _, layer := range validationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation || !hasDebugUtils {
				LogWarn("validation layer %s not available, install the LunarG Vulkan SDK to enable it", layer)
				i.Config.Validation = false
				break
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}
	}

	if i.Config.Validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
		instanceOptions.Next = i.debugMessengerOptions()
	}

	instance, _, err := i.GlobalDriver.CreateInstance(nil, instanceOptions)
	if err != nil {
		return err
	}

	instanceDriver, err := i.GlobalDriver.BuildInstanceDriver(instance)
	if err != nil {
		return err
	}

	var ok bool
	i.InstanceDriver, ok = instanceDriver.(core1_2.CoreInstanceDriver)
	if !ok {
		instanceDriver.DestroyInstance(nil)
		return FeatureError("Vulkan 1.2 (instance version %s)", instance.APIVersion())
	}
	return nil
}

func (i *SampleInfo) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    i.logDebug,
	}
}

func (i *SampleInfo) setupDebugMessenger() error {
	if !i.Config.Validation {
		return nil
	}

	var err error
	i.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(i.InstanceDriver)
	i.debugMessenger, _, err = i.debugDriver.CreateDebugUtilsMessenger(nil, i.debugMessengerOptions())
	return err
}

func (i *SampleInfo) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	if (severity & ext_debug_utils.SeverityError) != 0 {
		LogError("[%s] %s", msgType, data.Message)
	} else {
		LogWarn("[%s] %s", msgType, data.Message)
	}
	return false
}

// pickPhysicalDevice takes the first device that can present to the window
// and satisfies the sample's feature request.
func (i *SampleInfo) pickPhysicalDevice(sample Sample) (*FeatureRequest, error) {
	physicalDevices, _, err := i.InstanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	var rejection error
	for _, device := range physicalDevices {
		if !device.DeviceAPIVersion().IsAtLeast(common.Vulkan1_2) {
			rejection = errors.CombineErrors(rejection, FeatureError("Vulkan 1.2 (device version %s)", device.DeviceAPIVersion()))
			continue
		}

		graphics, present, ok, err := i.findQueueFamilies(device)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		extensions, _, err := i.InstanceDriver.EnumerateDeviceExtensionProperties(device)
		if err != nil {
			return nil, errors.Wrap(err, "enumerate device extensions")
		}

		request := &FeatureRequest{
			InstanceDriver: i.InstanceDriver,
			PhysicalDevice: device,
			available:      make(map[string]bool, len(extensions)),
		}
		for name := range extensions {
			request.available[name] = true
		}

		err = request.RequireExtension(khr_swapchain.ExtensionName)
		if err != nil {
			rejection = errors.CombineErrors(rejection, err)
			continue
		}
		if request.HasExtension(khr_portability_subset.ExtensionName) {
			request.Extensions = append(request.Extensions, khr_portability_subset.ExtensionName)
		}

		err = sample.RequestGPUFeatures(request)
		if errors.Is(err, ErrFeatureNotSupported) {
			props, propsErr := i.InstanceDriver.GetPhysicalDeviceProperties(device)
			if propsErr == nil {
				LogWarn("skipping %s: %v", props.DeviceName, err)
			}
			rejection = errors.CombineErrors(rejection, err)
			continue
		} else if err != nil {
			return nil, err
		}

		i.PhysicalDevice = device
		i.GraphicsQueueFamilyIndex = graphics
		i.PresentQueueFamilyIndex = present
		i.GpuProps, err = i.InstanceDriver.GetPhysicalDeviceProperties(device)
		if err != nil {
			return nil, err
		}
		i.MemoryProperties = i.InstanceDriver.GetPhysicalDeviceMemoryProperties(device)

		LogInfo("using %s", i.GpuProps.DeviceName)
		return request, nil
	}

	if rejection != nil {
		return nil, errors.Wrapf(rejection, "%s cannot run on any device", sample.Name())
	}
	return nil, errors.New("failed to find a suitable GPU")
}

func (i *SampleInfo) findQueueFamilies(device core1_0.PhysicalDevice) (graphics, present int, ok bool, err error) {
	graphics, present = -1, -1
	queueFamilies := i.InstanceDriver.GetPhysicalDeviceQueueFamilyProperties(device)

	for queueFamilyIdx, queueFamily := range queueFamilies {
		if (queueFamily.QueueFlags&core1_0.QueueGraphics) != 0 && graphics < 0 {
			graphics = queueFamilyIdx
		}

		supported, _, err := i.SurfaceExtension.GetPhysicalDeviceSurfaceSupport(i.Surface, device, queueFamilyIdx)
		if err != nil {
			return -1, -1, false, err
		}

		if supported && (present < 0 || queueFamilyIdx == graphics) {
			present = queueFamilyIdx
		}
	}

	return graphics, present, graphics >= 0 && present >= 0, nil
}

func (i *SampleInfo) initDevice(request *FeatureRequest) error {
	uniqueQueueFamilies := []int{i.GraphicsQueueFamilyIndex}
	if i.PresentQueueFamilyIndex != i.GraphicsQueueFamilyIndex {
		uniqueQueueFamilies = append(uniqueQueueFamilies, i.PresentQueueFamilyIndex)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{1.0},
		})
	}

	LogDebug("device extensions: %v", request.Extensions)

	device, _, err := i.InstanceDriver.CreateDevice(i.PhysicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &request.EnabledFeatures,
		EnabledExtensionNames: request.Extensions,
		NextOptions:           common.NextOptions{Next: request.Next},
	})
	if err != nil {
		return err
	}

	deviceDriver, err := i.InstanceDriver.BuildDeviceDriver(device)
	if err != nil {
		return err
	}

	var ok bool
	i.DeviceDriver, ok = deviceDriver.(core1_2.CoreDeviceDriver)
	if !ok {
		deviceDriver.DestroyDevice(nil)
		return errors.Newf("device driver for %s is not a Vulkan 1.2 driver", device.APIVersion())
	}

	i.GraphicsQueue = i.DeviceDriver.GetQueue(i.GraphicsQueueFamilyIndex, 0)
	i.PresentQueue = i.DeviceDriver.GetQueue(i.PresentQueueFamilyIndex, 0)
	i.SwapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(i.DeviceDriver)
	return nil
}

func (i *SampleInfo) initCommandPool() error {
	var err error
	i.CmdPool, _, err = i.DeviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: i.GraphicsQueueFamilyIndex,
	})
	return err
}

func (i *SampleInfo) initSyncObjects() error {
	var err error
	i.imageAcquired, _, err = i.DeviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return err
	}

	i.inFlight, _, err = i.DeviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{
		Flags: core1_0.FenceCreateSignaled,
	})
	return err
}

// MemoryTypeFromProperties picks the first memory type allowed by typeBits
// that has every flag in properties.
func (i *SampleInfo) MemoryTypeFromProperties(typeBits uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for index, memoryType := range i.MemoryProperties.MemoryTypes {
		typeBit := uint32(1 << index)

		if (typeBits&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return index, nil
		}
	}

	return 0, errors.Newf("no memory type in %#b has properties %s", typeBits, properties)
}

func (i *SampleInfo) mainLoop(sample Sample) error {
	frames := i.Config.Frames
	if i.Config.Verify && frames == 0 {
		frames = DefaultVerifyFrames
	}

	verifier, canVerify := sample.(Verifier)
	if i.Config.Verify && !canVerify {
		LogWarn("%s has no colour checks, --verify only renders", sample.Name())
	}

	rendering := true
	last := hrtime.Now()
	frameNumber := 0

appLoop:
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				break appLoop
			case *sdl.KeyboardEvent:
				if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
					continue
				}
				if e.Keysym.Sym == sdl.K_ESCAPE {
					break appLoop
				}
				if i.drawer.HandleKey(e.Keysym.Sym) {
					sample.OnUpdateUIOverlay(&i.drawer)
					i.Window.SetTitle(i.drawer.Title(sample.Name()))
				}
			case *sdl.WindowEvent:
				switch e.Event {
				case sdl.WINDOWEVENT_MINIMIZED:
					rendering = false
				case sdl.WINDOWEVENT_RESTORED:
					rendering = true
				case sdl.WINDOWEVENT_RESIZED:
					w, h := i.Window.GetSize()
					rendering = w > 0 && h > 0
					if rendering {
						err := i.recreateSwapchain()
						if err != nil {
							return err
						}
					}
				}
			}
		}

		if i.watcher != nil {
			if changed, ok := i.watcher.Changed(); ok {
				err := i.reloadShaders(sample, changed)
				if err != nil {
					return err
				}
			}
		}

		if !rendering {
			sdl.Delay(10)
			continue
		}

		now := hrtime.Now()
		delta := now - last
		last = now

		capture := frames > 0 && frameNumber == frames-1 && (i.Config.Verify || i.Config.SaveImages || i.Config.Screenshot != "")
		img, err := i.drawFrame(sample, frameNumber, delta, capture)
		if err != nil {
			return err
		}
		if img == nil && capture {
			// the swapchain was recreated instead of presenting, try again
			continue
		}
		frameNumber++

		if img != nil {
			again, err := i.handleCapture(sample, verifier, img)
			if err != nil {
				return err
			}
			if again {
				frames++
			}
		}

		if frames > 0 && frameNumber >= frames {
			break
		}
	}

	_, err := i.DeviceDriver.DeviceWaitIdle()
	return err
}

func (i *SampleInfo) reloadShaders(sample Sample, changed string) error {
	_, err := i.DeviceDriver.DeviceWaitIdle()
	if err != nil {
		return err
	}

	LogInfo("%s changed, rebuilding pipelines", changed)
	err = sample.(ShaderReloader).ReloadShaders(i)
	if err != nil {
		// a shader that fails to build is reported, the old pipelines keep running
		LogError("reload shaders: %+v", err)
	}
	return nil
}

func (i *SampleInfo) handleCapture(sample Sample, verifier Verifier, img *image.RGBA) (bool, error) {
	if i.Config.SaveImages {
		err := WritePNG(sample.Name()+".png", img)
		if err != nil {
			return false, err
		}
	}
	if i.Config.Screenshot != "" {
		err := WritePNG(i.Config.Screenshot, img)
		if err != nil {
			return false, err
		}
	}

	if !i.Config.Verify || verifier == nil {
		return false, nil
	}

	again, err := verifier.Verify(i, img)
	if err != nil {
		return false, err
	}
	if !again {
		LogInfo("verification passed")
	}
	return again, nil
}

func (i *SampleInfo) drawFrame(sample Sample, number int, delta time.Duration, capture bool) (*image.RGBA, error) {
	frame, err := i.PrepareFrame(number)
	if err != nil || frame == nil {
		return nil, err
	}

	err = i.recordFrame(sample, frame)
	if err != nil {
		return nil, err
	}

	err = sample.Render(i, frame, delta)
	if err != nil {
		return nil, errors.Wrapf(err, "render frame %d", number)
	}

	return i.SubmitFrame(frame, capture)
}

// PrepareFrame waits for the previous frame to finish and acquires the next
// swapchain image. It returns a nil frame if the swapchain had to be rebuilt.
func (i *SampleInfo) PrepareFrame(number int) (*Frame, error) {
	_, err := i.DeviceDriver.WaitForFences(true, common.NoTimeout, i.inFlight)
	if err != nil {
		return nil, errors.Wrap(err, "wait for previous frame")
	}

	imageIndex, res, err := i.SwapchainExtension.AcquireNextImage(i.Swapchain, common.NoTimeout, &i.imageAcquired, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return nil, i.recreateSwapchain()
	} else if err != nil {
		return nil, errors.Wrap(err, "acquire swapchain image")
	}

	_, err = i.DeviceDriver.ResetFences(i.inFlight)
	if err != nil {
		return nil, err
	}

	return &Frame{
		Number:        number,
		ImageIndex:    imageIndex,
		Extent:        i.Extent,
		CommandBuffer: i.commandBuffers[imageIndex],
	}, nil
}

func (i *SampleInfo) recordFrame(sample Sample, frame *Frame) error {
	cmd := frame.CommandBuffer

	_, err := i.DeviceDriver.BeginCommandBuffer(cmd, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return err
	}

	err = i.DeviceDriver.CmdBeginRenderPass(cmd, core1_0.SubpassContentsInline, core1_0.RenderPassBeginInfo{
		RenderPass:  i.RenderPass,
		Framebuffer: i.Framebuffers[frame.ImageIndex],
		RenderArea: core1_0.Rect2D{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: i.Extent,
		},
		ClearValues: []core1_0.ClearValue{
			core1_0.ClearValueFloat{0.025, 0.025, 0.025, 1},
			core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0},
		},
	})
	if err != nil {
		return err
	}

	i.DeviceDriver.CmdSetViewport(cmd, core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(i.Extent.Width),
		Height:   float32(i.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	i.DeviceDriver.CmdSetScissor(cmd, core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: i.Extent,
	})

	err = sample.BuildCommandBuffers(i, frame)
	if err != nil {
		return errors.Wrapf(err, "build command buffer for frame %d", frame.Number)
	}

	i.DeviceDriver.CmdEndRenderPass(cmd)

	_, err = i.DeviceDriver.EndCommandBuffer(cmd)
	return err
}

// SubmitFrame submits the recorded frame and presents it. When capture is set
// the presented image is read back before presenting and returned.
func (i *SampleInfo) SubmitFrame(frame *Frame, capture bool) (*image.RGBA, error) {
	renderFinished := i.renderFinished[frame.ImageIndex]

	_, err := i.DeviceDriver.QueueSubmit(i.GraphicsQueue, &i.inFlight,
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{i.imageAcquired},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{frame.CommandBuffer},
			SignalSemaphores: []core1_0.Semaphore{renderFinished},
		},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "submit frame %d", frame.Number)
	}

	presentWait := []core1_0.Semaphore{renderFinished}
	var captured *image.RGBA
	if capture {
		captured, err = i.CaptureSwapchainImage(frame.ImageIndex, renderFinished)
		if err != nil {
			return nil, errors.Wrap(err, "capture frame")
		}
		presentWait = nil
	}

	res, err := i.SwapchainExtension.QueuePresent(i.PresentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: presentWait,
		Swapchains:     []khr_swapchain.Swapchain{i.Swapchain},
		ImageIndices:   []int{frame.ImageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		return captured, i.recreateSwapchain()
	} else if err != nil {
		return nil, errors.Wrap(err, "present")
	}

	return captured, nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (i *SampleInfo) WaitIdle() error {
	_, err := i.DeviceDriver.DeviceWaitIdle()
	return err
}

func (i *SampleInfo) Aspect() float32 {
	return float32(i.Extent.Width) / float32(i.Extent.Height)
}

func (i *SampleInfo) String() string {
	return fmt.Sprintf("%dx%d %s", i.Extent.Width, i.Extent.Height, i.Format)
}

func (i *SampleInfo) cleanup(sample Sample) {
	if i.DeviceDriver != nil {
		_, err := i.DeviceDriver.DeviceWaitIdle()
		if err != nil {
			LogError("wait for device idle: %+v", err)
		}
	}

	if i.watcher != nil {
		err := i.watcher.Close()
		if err != nil {
			LogError("close shader watcher: %+v", err)
		}
	}

	if i.prepared {
		sample.Destroy(i)
	}
	i.Registry.ReleaseAll()

	i.cleanupSwapchain()

	if i.RenderPass.Initialized() {
		i.DeviceDriver.DestroyRenderPass(i.RenderPass, nil)
	}

	if i.Swapchain.Initialized() {
		i.SwapchainExtension.DestroySwapchain(i.Swapchain, nil)
	}

	for _, semaphore := range i.renderFinished {
		i.DeviceDriver.DestroySemaphore(semaphore, nil)
	}

	if i.imageAcquired.Initialized() {
		i.DeviceDriver.DestroySemaphore(i.imageAcquired, nil)
	}

	if i.inFlight.Initialized() {
		i.DeviceDriver.DestroyFence(i.inFlight, nil)
	}

	if i.CmdPool.Initialized() {
		i.DeviceDriver.DestroyCommandPool(i.CmdPool, nil)
	}

	if i.DeviceDriver != nil {
		i.DeviceDriver.DestroyDevice(nil)
	}

	if i.debugMessenger.Initialized() {
		i.debugDriver.DestroyDebugUtilsMessenger(i.debugMessenger, nil)
	}

	if i.Surface.Initialized() {
		i.SurfaceExtension.DestroySurface(i.Surface, nil)
	}

	if i.InstanceDriver != nil {
		i.InstanceDriver.DestroyInstance(nil)
	}

	if i.Window != nil {
		i.Window.Destroy()
	}
	sdl.Quit()
}
