package utils

import (
	"time"

	"github.com/vkngwrapper/core/v3/core1_0"
)

const (
	PreferredSurfaceFormat core1_0.Format = core1_0.FormatB8G8R8A8UnsignedNormalized

	FenceTimeout = 100 * time.Millisecond

	// DefaultVerifyFrames is how many frames --verify renders when --frames is
	// not given.
	DefaultVerifyFrames = 3
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
