package main

import (
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/descriptor-examples/samples/utils"
)

/*
VULKAN_SAMPLE_SHORT_DESCRIPTION
Descriptor buffers
*/

/* Draw two textured, spinning cubes without a single descriptor set or pool.
 * Uniform buffer descriptors live in one descriptor buffer, combined image
 * sampler descriptors in another, and each draw just points the three set
 * slots at different offsets into them.
 */

func init() {
	// SDL and the render loop must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	config := utils.DefaultConfig()
	err := config.ProcessCommandLineArgs(os.Args[1:], os.Stdout)
	if errors.Is(err, utils.ErrHelpRequested) {
		return
	} else if err != nil {
		utils.LogFatal("%+v", err)
	}

	err = utils.NewSampleInfo(config).Run(NewSample())
	if err != nil {
		utils.LogFatal("%+v", err)
	}
}
