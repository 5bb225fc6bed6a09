package utils

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_2"
)

// FeatureRequest is handed to a sample before the logical device is created.
// The sample checks the physical device, appends the extensions it needs and
// chains its feature structures onto Next.
type FeatureRequest struct {
	InstanceDriver core1_2.CoreInstanceDriver
	PhysicalDevice core1_0.PhysicalDevice

	Extensions      []string
	EnabledFeatures core1_0.PhysicalDeviceFeatures
	Next            common.Options

	available map[string]bool
}

func (r *FeatureRequest) HasExtension(name string) bool {
	return r.available[name]
}

// RequireExtension enables name or fails with ErrFeatureNotSupported.
func (r *FeatureRequest) RequireExtension(name string) error {
	if !r.HasExtension(name) {
		return FeatureError("device extension %s", name)
	}
	r.Extensions = append(r.Extensions, name)
	return nil
}

// Frame describes the frame currently being built.
type Frame struct {
	Number        int
	ImageIndex    int
	Extent        core1_0.Extent2D
	CommandBuffer core1_0.CommandBuffer
}

// Sample is one demonstration program driven by SampleInfo.Run. Per frame the
// order is: BuildCommandBuffers records into the open render pass, Render runs
// on the host after recording and before the frame is submitted.
type Sample interface {
	Name() string
	RequestGPUFeatures(request *FeatureRequest) error
	Prepare(info *SampleInfo) error
	BuildCommandBuffers(info *SampleInfo, frame *Frame) error
	Render(info *SampleInfo, frame *Frame, delta time.Duration) error
	OnUpdateUIOverlay(drawer *Drawer)
	Destroy(info *SampleInfo)
}

// Verifier is implemented by samples that can check a captured frame in
// --verify mode. Returning again asks for one more frame to be rendered and
// checked. Verify is only called while the device is idle.
type Verifier interface {
	Verify(info *SampleInfo, img *image.RGBA) (again bool, err error)
}

// ShaderReloader is implemented by samples that can rebuild their pipelines
// when compiled shaders change on disk.
type ShaderReloader interface {
	ReloadShaders(info *SampleInfo) error
}

type toggle struct {
	label string
	key   sdl.Keycode
	value *bool
}

// Drawer collects the overlay controls a sample exposes. Checkboxes are
// toggled with the number keys in the order they were declared and their
// state is shown in the window title.
type Drawer struct {
	toggles []toggle
}

func (d *Drawer) Checkbox(label string, value *bool) {
	for i, existing := range d.toggles {
		if existing.label == label {
			d.toggles[i].value = value
			return
		}
	}

	if len(d.toggles) >= 9 {
		return
	}

	d.toggles = append(d.toggles, toggle{
		label: label,
		key:   sdl.Keycode(sdl.K_1) + sdl.Keycode(len(d.toggles)),
		value: value,
	})
}

// HandleKey flips the checkbox bound to key and reports whether one was bound.
func (d *Drawer) HandleKey(key sdl.Keycode) bool {
	for _, t := range d.toggles {
		if t.key == key {
			*t.value = !*t.value
			return true
		}
	}
	return false
}

func (d *Drawer) Title(name string) string {
	if len(d.toggles) == 0 {
		return name
	}

	parts := make([]string, 0, len(d.toggles))
	for i, t := range d.toggles {
		mark := " "
		if *t.value {
			mark = "x"
		}
		parts = append(parts, fmt.Sprintf("%d [%s] %s", i+1, mark, t.label))
	}
	return name + " - " + strings.Join(parts, "  ")
}
