package main

import (
	"image"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/descriptor-examples/samples/utils"
	"github.com/vkngwrapper/descriptor-examples/samples/utils/procedural"
)

const colorTolerance = 0.02

// NonUniformImage is the test image bound to a non-uniform slot.
func NonUniformImage(order []int, shift, slot int) int {
	return (order[slot] + shift) % len(order)
}

// StreamedImage is the test image the i'th streamed quad samples. The slot it
// lives in moves every frame, the image does not.
func StreamedImage(count, shift, i int) int {
	return (i + shift) % count
}

// checkFrame requires the average colour inside every quad to be closest to
// the image its descriptor was bound to out of the whole palette.
func (s *Sample) checkFrame(img *image.RGBA) error {
	var failures error
	mismatches := 0

	check := func(region, quad, expectedImage int) {
		rect := QuadRect(quad, s.cols, s.rows, region, img.Bounds(), sampleInset)
		got := procedural.AverageRect(img, rect)
		if procedural.Matches(got, s.palette, expectedImage, colorTolerance) {
			return
		}

		mismatches++
		failures = errors.CombineErrors(failures,
			errors.Newf("region %d quad %d at %v is %s, expected image %d around %s, closest is image %d",
				region, quad, rect, got, expectedImage, procedural.Expected(s.palette[expectedImage]),
				procedural.Nearest(got, s.palette)))
	}

	for quad := 0; quad < s.count; quad++ {
		check(regionNonUniform, quad, NonUniformImage(s.order, s.shift, quad))
		check(regionStreaming, quad, StreamedImage(s.count, s.shift, quad))
	}

	if failures != nil {
		return errors.Mark(errors.Wrapf(failures, "%d of %d quads", mismatches, 2*s.count), utils.ErrVerificationFailed)
	}
	return nil
}

// Verify checks the captured frame. After the first frame passes, every
// non-uniform slot is rebound to a different image and another frame is
// requested, so stale descriptors would show up as mismatches.
func (s *Sample) Verify(info *utils.SampleInfo, img *image.RGBA) (bool, error) {
	err := s.checkFrame(img)
	if err != nil {
		return false, err
	}

	if s.shift != 0 || s.count < 2 {
		return false, nil
	}

	s.shift = s.count / 2
	utils.LogInfo("first frame matches, rebinding every slot %d images along", s.shift)
	err = s.bindNonUniform()
	if err != nil {
		return false, err
	}
	return true, nil
}
