package main

import (
	"image"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/descriptor-examples/samples/utils"
	"github.com/vkngwrapper/descriptor-examples/samples/utils/procedural"
)

const (
	sceneUBOSize = 2 * 16 * 4
	modelUBOSize = 16 * 4

	cubeScale = 0.5

	// half the side of the square averaged around each cube's centre
	spotRadius     = 3
	colorTolerance = 0.02
)

// vulkanClip flips y and maps depth from [-1, 1] to [0, 1].
var vulkanClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

func Projection(aspect float32) mgl32.Mat4 {
	return vulkanClip.Mul4(mgl32.Perspective(mgl32.DegToRad(60), aspect, 0.1, 256))
}

func View() mgl32.Mat4 {
	return mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
}

// Model places a cube at position, rotated by rotation degrees about x, then
// y, then z.
func Model(position, rotation mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(rotation.X()))).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(rotation.Y()))).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(rotation.Z()))).
		Mul4(mgl32.Scale3D(cubeScale, cubeScale, cubeScale))
}

func wrapDegrees(rotation mgl32.Vec3) mgl32.Vec3 {
	for i := range rotation {
		rotation[i] = float32(math.Mod(float64(rotation[i]), 360))
	}
	return rotation
}

// ProjectToPixel maps a model space point to framebuffer pixel coordinates.
// ok is false for points behind the camera.
func ProjectToPixel(mvp mgl32.Mat4, point mgl32.Vec3, bounds image.Rectangle) (image.Point, bool) {
	clip := mvp.Mul4x1(point.Vec4(1))
	if clip.W() <= 0 {
		return image.Point{}, false
	}

	ndc := clip.Vec3().Mul(1 / clip.W())
	x := (ndc.X() + 1) / 2 * float32(bounds.Dx())
	y := (ndc.Y() + 1) / 2 * float32(bounds.Dy())
	return image.Pt(bounds.Min.X+int(x), bounds.Min.Y+int(y)), true
}

// Verify checks the pixels around each cube's centre against the texture that
// cube's descriptors point at. Whatever the rotation, the centre is covered by
// one of the cube's own faces.
func (s *Sample) Verify(info *utils.SampleInfo, img *image.RGBA) (bool, error) {
	palette := make([]procedural.Color, len(s.cubes))
	for i, c := range s.cubes {
		palette[i] = c.base
	}

	var failures error
	for i, c := range s.cubes {
		mvp := s.camera.Projection.Mul4(s.camera.View).Mul4(c.model)
		center, ok := ProjectToPixel(mvp, mgl32.Vec3{0, 0, 0}, img.Bounds())
		if !ok {
			return false, errors.Newf("cube %d is behind the camera", i)
		}

		spot := image.Rect(center.X-spotRadius, center.Y-spotRadius, center.X+spotRadius+1, center.Y+spotRadius+1)
		if !spot.In(img.Bounds()) {
			return false, errors.Newf("cube %d centre %v is off screen", i, center)
		}

		got := procedural.AverageRect(img, spot)
		utils.LogDebug("cube %d at %v: %s, texture base %s", i, center, got, c.base)
		if !procedural.Matches(got, palette, i, colorTolerance) {
			failures = errors.CombineErrors(failures,
				errors.Newf("cube %d at %v is %s, expected around %s", i, center, got, procedural.Expected(c.base)))
		}
	}

	if failures != nil {
		return false, errors.Mark(failures, utils.ErrVerificationFailed)
	}
	return false, nil
}
