//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/magefile/mage/mg"
	"golang.org/x/sync/errgroup"
)

type Build mg.Namespace

// Compiles every GLSL shader under samples/*/shaders into SPIR-V next to its
// source. Up to date modules are skipped.
func Shaders() error {
	var sources []string
	for _, pattern := range []string{"samples/*/shaders/*.vert", "samples/*/shaders/*.frag"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return err
		}
		sources = append(sources, matches...)
	}
	if len(sources) == 0 {
		return errors.New("no shaders found, run mage from the repository root")
	}

	var group errgroup.Group
	group.SetLimit(4)
	for _, source := range sources {
		target := source + ".spv"
		if upToDate(source, target) {
			continue
		}

		group.Go(func() error {
			return command{name: "glslc", args: []string{"--target-env=vulkan1.2", source, "-o", target}}.run()
		})
	}
	return group.Wait()
}

func upToDate(source, target string) bool {
	sourceInfo, err := os.Stat(source)
	if err != nil {
		return false
	}
	targetInfo, err := os.Stat(target)
	if err != nil {
		return false
	}
	return !targetInfo.ModTime().Before(sourceInfo.ModTime())
}

// Compiles shaders, then builds both samples into bin/.
func (Build) Samples() error {
	mg.Deps(Shaders)

	for _, sample := range samples {
		err := command{name: "go", args: []string{"build", "-o", filepath.Join("bin", sample), "./samples/" + sample}, stream: true}.run()
		if err != nil {
			return err
		}
	}
	return nil
}

// Runs go vet and the tests of every package.
func Test() error {
	if err := (command{name: "go", args: []string{"vet", "./..."}, stream: true}).run(); err != nil {
		return err
	}
	return command{name: "go", args: []string{"test", "./..."}, stream: true}.run()
}
