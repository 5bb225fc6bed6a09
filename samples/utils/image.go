package utils

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// Texture is a sampled 2D image with its memory and a full view.
type Texture struct {
	Image  core1_0.Image
	Memory core1_0.DeviceMemory
	View   core1_0.ImageView
	Width  int
	Height int
}

func (i *SampleInfo) CreateImage(width, height int, format core1_0.Format, tiling core1_0.ImageTiling, usage core1_0.ImageUsageFlags, memoryProperties core1_0.MemoryPropertyFlags) (core1_0.Image, core1_0.DeviceMemory, error) {
	image, _, err := i.DeviceDriver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	memReqs := i.DeviceDriver.GetImageMemoryRequirements(image)
	memoryIndex, err := i.MemoryTypeFromProperties(memReqs.MemoryTypeBits, memoryProperties)
	if err != nil {
		i.DeviceDriver.DestroyImage(image, nil)
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	imageMemory, _, err := i.DeviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		i.DeviceDriver.DestroyImage(image, nil)
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	_, err = i.DeviceDriver.BindImageMemory(image, imageMemory, 0)
	if err != nil {
		i.DeviceDriver.DestroyImage(image, nil)
		i.DeviceDriver.FreeMemory(imageMemory, nil)
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	return image, imageMemory, nil
}

func (i *SampleInfo) CreateImageView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags) (core1_0.ImageView, error) {
	imageView, _, err := i.DeviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	return imageView, err
}

// SetImageLayout records a barrier moving image between layouts. Access
// masks are derived from the layouts.
func (i *SampleInfo) SetImageLayout(cmd core1_0.CommandBuffer, image core1_0.Image, aspectMask core1_0.ImageAspectFlags, oldImageLayout core1_0.ImageLayout, newImageLayout core1_0.ImageLayout, sourceStages core1_0.PipelineStageFlags, destStages core1_0.PipelineStageFlags) error {
	barrier := core1_0.ImageMemoryBarrier{
		OldLayout:           oldImageLayout,
		NewLayout:           newImageLayout,
		SrcQueueFamilyIndex: -1,
		DstQueueFamilyIndex: -1,
		Image:               image,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspectMask,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	switch oldImageLayout {
	case core1_0.ImageLayoutColorAttachmentOptimal:
		barrier.SrcAccessMask = core1_0.AccessColorAttachmentWrite
	case core1_0.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = core1_0.AccessTransferWrite
	case core1_0.ImageLayoutTransferSrcOptimal:
		barrier.SrcAccessMask = core1_0.AccessTransferRead
	case khr_swapchain.ImageLayoutPresentSrc:
		barrier.SrcAccessMask = core1_0.AccessColorAttachmentWrite
	case core1_0.ImageLayoutPreInitialized:
		barrier.SrcAccessMask = core1_0.AccessHostWrite
	}

	switch newImageLayout {
	case core1_0.ImageLayoutTransferDstOptimal:
		barrier.DstAccessMask = core1_0.AccessTransferWrite
	case core1_0.ImageLayoutTransferSrcOptimal:
		barrier.DstAccessMask = core1_0.AccessTransferRead
	case core1_0.ImageLayoutShaderReadOnlyOptimal:
		barrier.DstAccessMask = core1_0.AccessShaderRead
	case core1_0.ImageLayoutColorAttachmentOptimal:
		barrier.DstAccessMask = core1_0.AccessColorAttachmentWrite
	case core1_0.ImageLayoutDepthStencilAttachmentOptimal:
		barrier.DstAccessMask = core1_0.AccessDepthStencilAttachmentWrite
	case khr_swapchain.ImageLayoutPresentSrc:
		barrier.DstAccessMask = core1_0.AccessMemoryRead
	}

	return i.DeviceDriver.CmdPipelineBarrier(cmd, sourceStages, destStages, 0, nil, nil, []core1_0.ImageMemoryBarrier{barrier})
}

// UploadTexture copies img into a new device local R8G8B8A8 image that is
// left in shader read only layout.
func (i *SampleInfo) UploadTexture(img *image.RGBA) (*Texture, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	staging, err := i.CreateBuffer(width*height*4, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent, nil)
	if err != nil {
		return nil, err
	}
	defer i.DestroyBuffer(staging)

	data, err := i.Map(staging)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		start := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		copy(data[y*width*4:], img.Pix[start:start+width*4])
	}

	texture := &Texture{Width: width, Height: height}
	texture.Image, texture.Memory, err = i.CreateImage(width, height,
		core1_0.FormatR8G8B8A8UnsignedNormalized,
		core1_0.ImageTilingOptimal,
		core1_0.ImageUsageTransferDst|core1_0.ImageUsageSampled,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}

	cmd, err := i.BeginSingleTimeCommands()
	if err != nil {
		i.DestroyTexture(texture)
		return nil, err
	}

	err = i.SetImageLayout(cmd, texture.Image, core1_0.ImageAspectColor, core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal, core1_0.PipelineStageTopOfPipe, core1_0.PipelineStageTransfer)
	if err != nil {
		i.DestroyTexture(texture)
		return nil, err
	}

	err = i.DeviceDriver.CmdCopyBufferToImage(cmd, staging.Buffer, texture.Image, core1_0.ImageLayoutTransferDstOptimal,
		core1_0.BufferImageCopy{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,

			ImageSubresource: core1_0.ImageSubresourceLayers{
				AspectMask:     core1_0.ImageAspectColor,
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
			ImageExtent: core1_0.Extent3D{Width: width, Height: height, Depth: 1},
		},
	)
	if err != nil {
		i.DestroyTexture(texture)
		return nil, err
	}

	err = i.SetImageLayout(cmd, texture.Image, core1_0.ImageAspectColor, core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal, core1_0.PipelineStageTransfer, core1_0.PipelineStageFragmentShader)
	if err != nil {
		i.DestroyTexture(texture)
		return nil, err
	}

	err = i.EndSingleTimeCommands(cmd)
	if err != nil {
		i.DestroyTexture(texture)
		return nil, err
	}

	texture.View, err = i.CreateImageView(texture.Image, core1_0.FormatR8G8B8A8UnsignedNormalized, core1_0.ImageAspectColor)
	if err != nil {
		i.DestroyTexture(texture)
		return nil, err
	}

	return texture, nil
}

func (i *SampleInfo) DestroyTexture(t *Texture) {
	if t.View.Initialized() {
		i.DeviceDriver.DestroyImageView(t.View, nil)
	}
	if t.Image.Initialized() {
		i.DeviceDriver.DestroyImage(t.Image, nil)
	}
	if t.Memory.Initialized() {
		i.DeviceDriver.FreeMemory(t.Memory, nil)
	}
}

func (i *SampleInfo) TrackTexture(name string, t *Texture) *Texture {
	i.Registry.Track(name, func() { i.DestroyTexture(t) })
	return t
}

// CreateSampler builds a clamped sampler with no mipmapping.
func (i *SampleInfo) CreateSampler(filter core1_0.Filter) (core1_0.Sampler, error) {
	sampler, _, err := i.DeviceDriver.CreateSampler(nil, core1_0.SamplerCreateInfo{
		MagFilter:    filter,
		MinFilter:    filter,
		AddressModeU: core1_0.SamplerAddressModeClampToEdge,
		AddressModeV: core1_0.SamplerAddressModeClampToEdge,
		AddressModeW: core1_0.SamplerAddressModeClampToEdge,

		BorderColor: core1_0.BorderColorFloatOpaqueWhite,

		MipmapMode: core1_0.SamplerMipmapModeNearest,
		MinLod:     0,
		MaxLod:     0,
	})
	return sampler, err
}

// CaptureSwapchainImage reads back a presentable image once wait has
// signalled. The image is returned to present layout afterwards.
func (i *SampleInfo) CaptureSwapchainImage(imageIndex int, wait core1_0.Semaphore) (*image.RGBA, error) {
	width, height := i.Extent.Width, i.Extent.Height
	rowPitch := width * 4

	readback, err := i.CreateBuffer(rowPitch*height, core1_0.BufferUsageTransferDst, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent, nil)
	if err != nil {
		return nil, err
	}
	defer i.DestroyBuffer(readback)

	cmd, err := i.BeginSingleTimeCommands()
	if err != nil {
		return nil, err
	}

	swapImage := i.Buffers[imageIndex].Image
	err = i.SetImageLayout(cmd, swapImage, core1_0.ImageAspectColor, khr_swapchain.ImageLayoutPresentSrc, core1_0.ImageLayoutTransferSrcOptimal, core1_0.PipelineStageColorAttachmentOutput, core1_0.PipelineStageTransfer)
	if err != nil {
		return nil, err
	}

	err = i.DeviceDriver.CmdCopyImageToBuffer(cmd, swapImage, core1_0.ImageLayoutTransferSrcOptimal, readback.Buffer,
		core1_0.BufferImageCopy{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,

			ImageSubresource: core1_0.ImageSubresourceLayers{
				AspectMask:     core1_0.ImageAspectColor,
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
			ImageExtent: core1_0.Extent3D{Width: width, Height: height, Depth: 1},
		},
	)
	if err != nil {
		return nil, err
	}

	err = i.SetImageLayout(cmd, swapImage, core1_0.ImageAspectColor, core1_0.ImageLayoutTransferSrcOptimal, khr_swapchain.ImageLayoutPresentSrc, core1_0.PipelineStageTransfer, core1_0.PipelineStageBottomOfPipe)
	if err != nil {
		return nil, err
	}

	err = i.EndSingleTimeCommands(cmd, wait)
	if err != nil {
		return nil, err
	}

	data, err := i.Map(readback)
	if err != nil {
		return nil, err
	}

	return ConvertPixels(data, i.Format, width, height, rowPitch)
}

// ConvertPixels turns tightly or loosely pitched 8 bit RGBA or BGRA rows into
// an image.
func ConvertPixels(data []byte, format core1_0.Format, width, height, rowPitch int) (*image.RGBA, error) {
	swizzle := false
	switch format {
	case core1_0.FormatB8G8R8A8UnsignedNormalized, core1_0.FormatB8G8R8A8SRGB:
		swizzle = true
	case core1_0.FormatR8G8B8A8UnsignedNormalized, core1_0.FormatR8G8B8A8SRGB:
	default:
		return nil, errors.Newf("unrecognized image format %s - will not read back pixels", format)
	}

	if rowPitch < width*4 || len(data) < rowPitch*(height-1)+width*4 {
		return nil, errors.Newf("%d bytes with pitch %d cannot hold a %dx%d image", len(data), rowPitch, width, height)
	}

	outImg := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		rowIndex := y * rowPitch
		for x := 0; x < width; x++ {
			px := data[rowIndex : rowIndex+4]
			if swizzle {
				outImg.SetRGBA(x, y, color.RGBA{B: px[0], G: px[1], R: px[2], A: px[3]})
			} else {
				outImg.SetRGBA(x, y, color.RGBA{R: px[0], G: px[1], B: px[2], A: px[3]})
			}
			rowIndex += 4
		}
	}

	return outImg, nil
}

func WritePNG(filename string, img image.Image) error {
	writeFile, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer writeFile.Close()

	err = png.Encode(writeFile, img)
	if err != nil {
		return errors.Wrapf(err, "write %s", filename)
	}

	LogInfo("wrote %s", filename)
	return nil
}
