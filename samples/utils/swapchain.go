package utils

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

type swapchainSupport struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

func (i *SampleInfo) querySwapchainSupport() (swapchainSupport, error) {
	var details swapchainSupport
	var err error

	details.Capabilities, _, err = i.SurfaceExtension.GetPhysicalDeviceSurfaceCapabilities(i.Surface, i.PhysicalDevice)
	if err != nil {
		return details, err
	}

	details.Formats, _, err = i.SurfaceExtension.GetPhysicalDeviceSurfaceFormats(i.Surface, i.PhysicalDevice)
	if err != nil {
		return details, err
	}

	details.PresentModes, _, err = i.SurfaceExtension.GetPhysicalDeviceSurfacePresentModes(i.Surface, i.PhysicalDevice)
	return details, err
}

// chooseSurfaceFormat prefers a UNORM format so captured pixels match the
// values the shaders wrote.
func chooseSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, preferred := range []core1_0.Format{PreferredSurfaceFormat, core1_0.FormatR8G8B8A8UnsignedNormalized} {
		for _, format := range availableFormats {
			if format.Format == preferred && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
				return format
			}
		}
	}

	return availableFormats[0]
}

func choosePresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

func (i *SampleInfo) chooseExtent(capabilities *khr_surface.SurfaceCapabilities) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	widthInt, heightInt := i.Window.VulkanGetDrawableSize()
	width := clampInt(int(widthInt), capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width)
	height := clampInt(int(heightInt), capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height)

	return core1_0.Extent2D{Width: width, Height: height}
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func (i *SampleInfo) initSwapchain() error {
	support, err := i.querySwapchainSupport()
	if err != nil {
		return err
	}
	if len(support.Formats) == 0 {
		return errors.New("surface reports no formats")
	}

	surfaceFormat := chooseSurfaceFormat(support.Formats)
	presentMode := choosePresentMode(support.PresentModes)
	extent := i.chooseExtent(support.Capabilities)

	imageCount := support.Capabilities.MinImageCount + 1
	if support.Capabilities.MaxImageCount > 0 && support.Capabilities.MaxImageCount < imageCount {
		imageCount = support.Capabilities.MaxImageCount
	}

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if i.GraphicsQueueFamilyIndex != i.PresentQueueFamilyIndex {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, i.GraphicsQueueFamilyIndex, i.PresentQueueFamilyIndex)
	}

	// the old swapchain is destroyed by cleanupSwapchain before this runs
	i.Swapchain, _, err = i.SwapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: i.Surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment | core1_0.ImageUsageTransferSrc,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   support.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return err
	}
	i.Extent = extent
	i.Format = surfaceFormat.Format

	images, _, err := i.SwapchainExtension.GetSwapchainImages(i.Swapchain)
	if err != nil {
		return err
	}

	i.Buffers = make([]SwapchainBuffer, 0, len(images))
	for _, image := range images {
		view, err := i.CreateImageView(image, i.Format, core1_0.ImageAspectColor)
		if err != nil {
			return err
		}
		i.Buffers = append(i.Buffers, SwapchainBuffer{Image: image, View: view})
	}

	for len(i.renderFinished) < len(images) {
		semaphore, _, err := i.DeviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}
		i.renderFinished = append(i.renderFinished, semaphore)
	}

	i.commandBuffers, _, err = i.DeviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        i.CmdPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: len(images),
	})
	if err != nil {
		return err
	}

	return i.initDepthBuffer()
}

func (i *SampleInfo) findSupportedFormat(formats []core1_0.Format, tiling core1_0.ImageTiling, features core1_0.FormatFeatureFlags) (core1_0.Format, error) {
	for _, format := range formats {
		props := i.InstanceDriver.GetPhysicalDeviceFormatProperties(i.PhysicalDevice, format)

		if tiling == core1_0.ImageTilingLinear && (props.LinearTilingFeatures&features) == features {
			return format, nil
		} else if tiling == core1_0.ImageTilingOptimal && (props.OptimalTilingFeatures&features) == features {
			return format, nil
		}
	}

	return 0, errors.Newf("failed to find supported format for tiling %s, featureset %s", tiling, features)
}

func (i *SampleInfo) initDepthBuffer() error {
	var err error
	i.Depth.Format, err = i.findSupportedFormat(
		[]core1_0.Format{core1_0.FormatD32SignedFloat, core1_0.FormatD32SignedFloatS8UnsignedInt, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt},
		core1_0.ImageTilingOptimal,
		core1_0.FormatFeatureDepthStencilAttachment)
	if err != nil {
		return err
	}

	i.Depth.Image, i.Depth.Mem, err = i.CreateImage(i.Extent.Width, i.Extent.Height,
		i.Depth.Format,
		core1_0.ImageTilingOptimal,
		core1_0.ImageUsageDepthStencilAttachment,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return err
	}

	i.Depth.View, err = i.CreateImageView(i.Depth.Image, i.Depth.Format, core1_0.ImageAspectDepth)
	return err
}

// initRenderPass builds a single subpass with a cleared colour attachment
// that ends in present layout and a cleared depth attachment.
func (i *SampleInfo) initRenderPass() error {
	var err error
	i.RenderPass, _, err = i.DeviceDriver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         i.Format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
			{
				Format:         i.Depth.Format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpDontCare,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
				DepthStencilAttachment: &core1_0.AttachmentReference{
					Attachment: 1,
					Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				DstAccessMask: core1_0.AccessColorAttachmentWrite | core1_0.AccessDepthStencilAttachmentWrite,
			},
		},
	})
	return err
}

func (i *SampleInfo) initFramebuffers() error {
	for _, buffer := range i.Buffers {
		framebuffer, _, err := i.DeviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass: i.RenderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				buffer.View,
				i.Depth.View,
			},
			Width:  i.Extent.Width,
			Height: i.Extent.Height,
		})
		if err != nil {
			return err
		}

		i.Framebuffers = append(i.Framebuffers, framebuffer)
	}

	return nil
}

// recreateSwapchain rebuilds everything sized to the window. The render pass
// and any sample pipelines survive since viewport and scissor are dynamic.
func (i *SampleInfo) recreateSwapchain() error {
	w, h := i.Window.VulkanGetDrawableSize()
	if w == 0 || h == 0 {
		return nil
	}
	if (i.Window.GetFlags() & sdl.WINDOW_MINIMIZED) != 0 {
		return nil
	}

	_, err := i.DeviceDriver.DeviceWaitIdle()
	if err != nil {
		return err
	}

	i.cleanupSwapchain()
	if i.Swapchain.Initialized() {
		i.SwapchainExtension.DestroySwapchain(i.Swapchain, nil)
		i.Swapchain = khr_swapchain.Swapchain{}
	}

	previous := i.Format
	err = i.initSwapchain()
	if err != nil {
		return err
	}
	if i.Format != previous {
		return errors.Newf("surface format changed from %s to %s", previous, i.Format)
	}

	err = i.initFramebuffers()
	if err != nil {
		return err
	}

	LogDebug("swapchain recreated at %dx%d", i.Extent.Width, i.Extent.Height)
	return nil
}

func (i *SampleInfo) cleanupSwapchain() {
	if i.DeviceDriver == nil {
		return
	}

	if i.Depth.View.Initialized() {
		i.DeviceDriver.DestroyImageView(i.Depth.View, nil)
		i.Depth.View = core1_0.ImageView{}
	}

	if i.Depth.Image.Initialized() {
		i.DeviceDriver.DestroyImage(i.Depth.Image, nil)
		i.Depth.Image = core1_0.Image{}
	}

	if i.Depth.Mem.Initialized() {
		i.DeviceDriver.FreeMemory(i.Depth.Mem, nil)
		i.Depth.Mem = core1_0.DeviceMemory{}
	}

	for _, framebuffer := range i.Framebuffers {
		i.DeviceDriver.DestroyFramebuffer(framebuffer, nil)
	}
	i.Framebuffers = nil

	if len(i.commandBuffers) > 0 {
		i.DeviceDriver.FreeCommandBuffers(i.commandBuffers...)
		i.commandBuffers = nil
	}

	for _, buffer := range i.Buffers {
		i.DeviceDriver.DestroyImageView(buffer.View, nil)
	}
	i.Buffers = nil
}
