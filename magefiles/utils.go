//go:build mage

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/magefile/mage/mg"
)

// command runs name with args. Output goes to the terminal when streaming or
// when mage is verbose, otherwise it is printed only if the command fails.
type command struct {
	name   string
	args   []string
	dir    string
	stream bool
}

func (c command) run() error {
	fmt.Printf("Executing: %s %s\n", c.name, strings.Join(c.args, " "))
	cmd := exec.Command(c.name, c.args...)
	cmd.Dir = c.dir

	var output bytes.Buffer
	stream := c.stream || mg.Verbose()
	if stream {
		cmd.Stdout = io.MultiWriter(&output, os.Stdout)
		cmd.Stderr = io.MultiWriter(&output, os.Stderr)
	} else {
		cmd.Stdout = &output
		cmd.Stderr = &output
	}

	if err := cmd.Run(); err != nil {
		if !stream {
			fmt.Printf("%s failed:\n%s\n", c.name, output.String())
		}
		return errors.Wrapf(err, "run %s", c.name)
	}
	return nil
}

// sampleArgs passes extra flags to the samples, e.g.
// SAMPLE_ARGS="--frames 100 --log-level debug" mage run:descriptorIndexing
func sampleArgs() []string {
	return strings.Fields(os.Getenv("SAMPLE_ARGS"))
}
