//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

var samples = []string{"descriptor_buffer_basic", "descriptor_indexing"}

type Run mg.Namespace

// Runs the descriptor buffer sample from its own directory so it finds its shaders.
func (Run) DescriptorBufferBasic() error {
	mg.Deps(Shaders)
	return runSample("descriptor_buffer_basic")
}

// Runs the bindless descriptor indexing sample.
func (Run) DescriptorIndexing() error {
	mg.Deps(Shaders)
	return runSample("descriptor_indexing")
}

// Runs every sample in --verify mode and fails on the first mismatch.
func (Run) Verify() error {
	mg.Deps(Shaders)
	for _, sample := range samples {
		fmt.Printf("Verifying %s...\n", sample)
		if err := runSample(sample, "--verify"); err != nil {
			return err
		}
	}
	return nil
}

func runSample(sample string, args ...string) error {
	runArgs := append([]string{"run", "."}, args...)
	runArgs = append(runArgs, sampleArgs()...)
	return command{name: "go", args: runArgs, dir: filepath.Join("samples", sample), stream: true}.run()
}
