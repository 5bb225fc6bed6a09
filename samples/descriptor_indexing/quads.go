package main

import (
	"image"
	"math"
)

// PushConstants is shared by both pipelines. Base is the first heap index the
// draw samples, Quad its first grid cell.
type PushConstants struct {
	Base   uint32
	Quad   uint32
	Region uint32
	Phase  float32
	Cols   uint32
	Rows   uint32
}

const pushConstantsSize = 6 * 4

// The top half of the framebuffer is region 0 and holds the non-uniform
// quads, the bottom half the streamed ones.
const (
	regionNonUniform = 0
	regionStreaming  = 1
	regionCount      = 2
)

const (
	// quads fill 80% of their cell and pulse between 85% and 100% of that
	quadMargin   = 0.1
	minQuadScale = 0.85

	// the averaged rectangle keeps this fraction of a cell clear on each side
	sampleInset = 0.3
)

// GridSize returns the smallest near-square grid holding count quads.
func GridSize(count int) (cols, rows int) {
	if count <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(count))))
	rows = (count + cols - 1) / cols
	return cols, rows
}

// QuadRect returns the pixels of quad index's cell within region, shrunk by
// inset cells on every side.
func QuadRect(index, cols, rows, region int, bounds image.Rectangle, inset float32) image.Rectangle {
	col := float32(index % cols)
	row := float32(index / cols)

	cellWidth := float32(bounds.Dx()) / float32(cols)
	cellHeight := float32(bounds.Dy()) / float32(regionCount) / float32(rows)
	top := float32(bounds.Min.Y) + float32(region)*float32(bounds.Dy())/float32(regionCount)

	round := func(v float32) int { return int(math.Round(float64(v))) }
	return image.Rect(
		bounds.Min.X+round((col+inset)*cellWidth),
		round(top+(row+inset)*cellHeight),
		bounds.Min.X+round((col+1-inset)*cellWidth),
		round(top+(row+1-inset)*cellHeight),
	)
}
