package main

import (
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/descriptor-examples/samples/utils"
)

/*
VULKAN_SAMPLE_SHORT_DESCRIPTION
Descriptor indexing
*/

/* Two ways of reaching into one big array of sampled images. The top half is
 * a single instanced draw where every instance picks its own texture with a
 * non-uniform index. The bottom half streams descriptors through a 2048 slot
 * update-after-bind heap: the draws are recorded first and the descriptors
 * they read are written afterwards, before submission.
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

	err = utils.NewSampleInfo(config).Run(NewSample(config.Capacity, config.NonUniformCount))
	if err != nil {
		utils.LogFatal("%+v", err)
	}
}
