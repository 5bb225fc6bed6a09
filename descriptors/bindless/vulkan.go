package bindless

import (
	"github.com/vkngwrapper/core/v3/core1_0"
)

// SampledImageWriter writes sampled image descriptors into one array binding of
// a descriptor set.
type SampledImageWriter struct {
	Device      core1_0.DeviceDriver
	Set         core1_0.DescriptorSet
	Binding     int
	ImageLayout core1_0.ImageLayout
}

var _ Writer[core1_0.ImageView] = &SampledImageWriter{}

func (w *SampledImageWriter) WriteSlots(first int, views []core1_0.ImageView) error {
	imageInfo := make([]core1_0.DescriptorImageInfo, 0, len(views))
	for _, view := range views {
		imageInfo = append(imageInfo, core1_0.DescriptorImageInfo{
			ImageView:   view,
			ImageLayout: w.ImageLayout,
		})
	}

	return w.Device.UpdateDescriptorSets([]core1_0.WriteDescriptorSet{
		{
			DstSet:          w.Set,
			DstBinding:      w.Binding,
			DstArrayElement: first,

			DescriptorType: core1_0.DescriptorTypeSampledImage,

			ImageInfo: imageInfo,
		},
	}, nil)
}
